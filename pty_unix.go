//go:build unix

package glyphterm

import (
	"errors"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// DefaultShell returns $SHELL, falling back to /bin/sh.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// LocalSpawner runs commands on the local machine through the system PTY.
type LocalSpawner struct{}

// Spawn starts cmd with the terminal sized to cols x rows.
func (LocalSpawner) Spawn(c Command, cols, rows int) (PTY, error) {
	program := c.Program
	if program == "" {
		program = DefaultShell()
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return nil, NewSpawnError(program, err)
	}
	cmd := exec.Command(path, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Dir = c.Dir

	f, err := pty.StartWithSize(cmd, winsize(cols, rows))
	if err != nil {
		return nil, NewSpawnError(program, err)
	}
	p := &localPTY{f: f, cmd: cmd, done: make(chan struct{})}
	go p.reap()
	return p, nil
}

func winsize(cols, rows int) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(clamp(rows, 1, 0xFFFF)), Cols: uint16(clamp(cols, 1, 0xFFFF))}
}

type localPTY struct {
	f   *os.File
	cmd *exec.Cmd

	done     chan struct{}
	exitCode int
	waitErr  error

	closeOnce sync.Once
	closeErr  error
}

func (p *localPTY) reap() {
	err := p.cmd.Wait()
	p.exitCode = 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.exitCode = exitErr.ExitCode()
		} else {
			p.exitCode = -1
			p.waitErr = err
		}
	}
	close(p.done)
}

func (p *localPTY) Read(b []byte) (int, error) {
	return p.f.Read(b)
}

func (p *localPTY) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

func (p *localPTY) Resize(cols, rows int) error {
	return pty.Setsize(p.f, winsize(cols, rows))
}

func (p *localPTY) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
	}
	return unix.Kill(p.cmd.Process.Pid, 0) == nil
}

func (p *localPTY) Hangup() error {
	if !p.Alive() {
		return nil
	}
	return unix.Kill(p.cmd.Process.Pid, unix.SIGHUP)
}

func (p *localPTY) Kill() error {
	if !p.Alive() {
		return nil
	}
	return unix.Kill(p.cmd.Process.Pid, unix.SIGKILL)
}

func (p *localPTY) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.waitErr
}

func (p *localPTY) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.f.Close()
	})
	return p.closeErr
}

func resourceExhausted(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOMEM) ||
		errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE)
}
