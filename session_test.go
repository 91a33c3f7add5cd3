package glyphterm

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func newTestManager(sp *fakeSpawner, cmd Command) *SessionManager {
	return NewSessionManager(SessionOptions{Command: cmd, Spawner: sp, ChannelDepth: 4, ReadChunk: 64})
}

func TestSessionReadsUntilExit(t *testing.T) {
	sp := &fakeSpawner{}
	m := newTestManager(sp, Command{Program: "sh"})

	h, err := m.Start(context.Background(), 80, 24)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := m.Status(); got.Kind != StatusConnected {
		t.Fatalf("status = %s, want connected", got)
	}
	p := sp.pty(0)
	go func() {
		_ = p.Emit("hello ")
		_ = p.Emit("world")
		p.Exit(3)
	}()

	if got := drainAll(t, h.Channel()); got != "hello world" {
		t.Fatalf("output = %q, want %q", got, "hello world")
	}
	<-h.Done()
	if !h.Exited() || h.ExitCode() != 3 {
		t.Fatalf("exited = %v code = %d, want true 3", h.Exited(), h.ExitCode())
	}
	if got := m.Status(); got != Exited(3) {
		t.Fatalf("status = %s, want %s", got, Exited(3))
	}
}

func TestSessionCommandEnvironment(t *testing.T) {
	sp := &fakeSpawner{}
	m := newTestManager(sp, Command{Program: "bash", Args: []string{"-l"}, Env: []string{"FOO=bar"}})
	if _, err := m.Start(context.Background(), 100, 30); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Terminate()

	cmd := sp.cmds[0]
	if cmd.String() != "bash -l" {
		t.Fatalf("command = %q", cmd.String())
	}
	want := []string{"TERM=xterm-256color", "COLORTERM=truecolor", "FOO=bar"}
	if strings.Join(cmd.Env, " ") != strings.Join(want, " ") {
		t.Fatalf("env = %q, want %q", cmd.Env, want)
	}
	if sp.size[0] != [2]int{100, 30} {
		t.Fatalf("spawn size = %v", sp.size[0])
	}
}

func TestSessionWriteAndResize(t *testing.T) {
	sp := &fakeSpawner{}
	m := newTestManager(sp, Command{Program: "sh"})
	if _, err := m.Write([]byte("x")); !errors.Is(err, ErrNoSession) {
		t.Fatalf("write before start = %v, want ErrNoSession", err)
	}

	h, err := m.Start(context.Background(), 80, 24)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	p := sp.pty(0)
	if _, err := m.Write([]byte("ls\r")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.Resize(120, 40); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if p.Input() != "ls\r" {
		t.Fatalf("input = %q", p.Input())
	}

	p.Exit(0)
	drainAll(t, h.Channel())
	<-h.Done()

	_, err = m.Write([]byte("more"))
	var werr *WriteError
	if !errors.As(err, &werr) || !errors.Is(err, ErrSessionExited) {
		t.Fatalf("write after exit = %v, want WriteError wrapping ErrSessionExited", err)
	}
	if err := m.Resize(10, 10); err != nil {
		t.Fatalf("resize after exit = %v, want nil", err)
	}
	if sizes := p.Sizes(); len(sizes) != 1 || sizes[0] != [2]int{120, 40} {
		t.Fatalf("sizes = %v, want [[120 40]]", sizes)
	}
}

func TestSessionStartReplacesPrevious(t *testing.T) {
	sp := &fakeSpawner{}
	m := newTestManager(sp, Command{Program: "sh"})
	first, err := m.Start(context.Background(), 80, 24)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := m.Start(context.Background(), 80, 24)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer m.Terminate()

	select {
	case <-first.Done():
	default:
		t.Fatalf("previous reader still running after restart")
	}
	if p := sp.pty(0); !p.HungUp() || !p.Closed() {
		t.Fatalf("previous pty hungup=%v closed=%v", p.HungUp(), p.Closed())
	}
	if second.ID <= first.ID {
		t.Fatalf("handle ids %d then %d", first.ID, second.ID)
	}
	if m.Handle() != second {
		t.Fatalf("manager does not hold the new handle")
	}
}

func TestSessionTerminateIsIdempotent(t *testing.T) {
	sp := &fakeSpawner{}
	m := newTestManager(sp, Command{Program: "sh"})
	h, err := m.Start(context.Background(), 80, 24)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Terminate()
	m.Terminate()
	h.Terminate()
	<-h.Done()
	if !sp.pty(0).Closed() {
		t.Fatalf("pty not closed")
	}
}

func TestSessionSpawnFailure(t *testing.T) {
	sp := &fakeSpawner{err: &fs.PathError{Op: "fork/exec", Path: "/nope", Err: fs.ErrNotExist}}
	m := newTestManager(sp, Command{Program: "/nope"})

	_, err := m.Start(context.Background(), 80, 24)
	var serr *SpawnError
	if !errors.As(err, &serr) {
		t.Fatalf("start error = %v, want SpawnError", err)
	}
	if serr.Kind != SpawnNotFound || serr.Command != "/nope" {
		t.Fatalf("spawn error = %+v", serr)
	}
	st := m.Status()
	if st.Kind != StatusFailed || !strings.HasPrefix(st.Reason, "spawn error: /nope: executable not found") {
		t.Fatalf("status = %+v", st)
	}
	if m.Handle() != nil {
		t.Fatalf("failed start left a handle")
	}
}
