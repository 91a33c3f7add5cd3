package glyphterm

import "io"

// Command describes the child process to run inside a PTY.
type Command struct {
	Program string
	Args    []string
	// Env entries are appended to the parent environment.
	Env []string
	Dir string
}

// String returns the program and arguments joined by spaces.
func (c Command) String() string {
	s := c.Program
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Spawner starts a command attached to a new pseudo-terminal.
type Spawner interface {
	Spawn(cmd Command, cols, rows int) (PTY, error)
}

// PTY is the host side of a running pseudo-terminal session.
type PTY interface {
	// Read returns child output. It fails once the child side is closed.
	io.Reader
	// Write sends input to the child.
	io.Writer
	// Resize changes the terminal dimensions seen by the child.
	Resize(cols, rows int) error
	// Alive reports whether the child process is still running.
	Alive() bool
	// Hangup asks the child to exit.
	Hangup() error
	// Kill forcibly stops the child.
	Kill() error
	// Wait blocks until the child exits and returns its exit code, or -1
	// when the child was stopped by a signal.
	Wait() (int, error)
	// Close releases the host side of the terminal.
	Close() error
}
