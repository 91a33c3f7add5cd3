// Package ptytest provides an in-memory pseudo-terminal for tests. It
// satisfies glyphterm.PTY without importing it.
package ptytest

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// PTY is a fake child session. Output written with Emit is returned by
// Read; bytes sent with Write are recorded for Input.
type PTY struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	mu      sync.Mutex
	input   bytes.Buffer
	sizes   [][2]int
	hungup  bool
	killed  bool
	closed  bool
	code    int
	waitErr error

	exited   chan struct{}
	exitOnce sync.Once
}

// New returns a running fake session.
func New() *PTY {
	r, w := io.Pipe()
	return &PTY{outR: r, outW: w, exited: make(chan struct{})}
}

// Emit writes child output. It blocks until the reader consumes it.
func (p *PTY) Emit(s string) error {
	_, err := io.WriteString(p.outW, s)
	return err
}

// Exit ends the child with code after its pending output is read.
func (p *PTY) Exit(code int) {
	p.finish(code, nil)
}

// ExitWithError ends the child with an unknown exit status.
func (p *PTY) ExitWithError(err error) {
	p.finish(-1, err)
}

func (p *PTY) finish(code int, err error) {
	p.exitOnce.Do(func() {
		p.mu.Lock()
		p.code, p.waitErr = code, err
		p.mu.Unlock()
		_ = p.outW.Close()
		close(p.exited)
	})
}

// Input returns everything written to the session so far.
func (p *PTY) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input.String()
}

// Sizes returns every size passed to Resize, in order.
func (p *PTY) Sizes() [][2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]int(nil), p.sizes...)
}

// HungUp reports whether Hangup was called.
func (p *PTY) HungUp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hungup
}

// Closed reports whether Close was called.
func (p *PTY) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *PTY) Read(b []byte) (int, error) {
	return p.outR.Read(b)
}

func (p *PTY) Write(b []byte) (int, error) {
	select {
	case <-p.exited:
		return 0, errors.New("ptytest: write after exit")
	default:
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input.Write(b)
}

func (p *PTY) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, [2]int{cols, rows})
	return nil
}

func (p *PTY) Alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// Hangup ends the child the way a shell exits on SIGHUP.
func (p *PTY) Hangup() error {
	p.mu.Lock()
	p.hungup = true
	p.mu.Unlock()
	p.finish(129, nil)
	return nil
}

func (p *PTY) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.finish(-1, nil)
	return nil
}

func (p *PTY) Wait() (int, error) {
	<-p.exited
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.waitErr
}

// Close unblocks a pending Read with io.ErrClosedPipe.
func (p *PTY) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.outR.Close()
}
