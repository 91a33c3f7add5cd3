//go:build !unix

package glyphterm

import "os"

// DefaultShell returns $SHELL or cmd.exe.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "cmd.exe"
}

// LocalSpawner reports ErrUnsupported on platforms without a Unix PTY.
type LocalSpawner struct{}

func (LocalSpawner) Spawn(c Command, cols, rows int) (PTY, error) {
	return nil, &SpawnError{Kind: SpawnOther, Command: c.Program, Err: ErrUnsupported}
}

func resourceExhausted(error) bool {
	return false
}
