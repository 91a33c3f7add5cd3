//go:build !unix

package cli

import "os"

// notifyResize is a no-op where the host has no SIGWINCH; the grid keeps
// the size it had at startup.
func notifyResize(chan<- os.Signal) {}
