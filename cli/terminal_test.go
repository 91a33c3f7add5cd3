package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/app"
	"github.com/phroun/glyphterm/internal/ptytest"
	"pkt.systems/pslog"
)

type spawner struct {
	mu   sync.Mutex
	ptys []*ptytest.PTY
}

func (s *spawner) Spawn(glyphterm.Command, int, int) (glyphterm.PTY, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ptytest.New()
	s.ptys = append(s.ptys, p)
	return p, nil
}

func (s *spawner) pty(i int) *ptytest.PTY {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ptys[i]
}

func (s *spawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ptys)
}

func newTestTerminal(t *testing.T) (*Terminal, *spawner, *os.File) {
	t.Helper()
	sp := &spawner{}
	a := app.New(app.Options{Session: glyphterm.SessionOptions{
		Spawner: sp,
		Command: glyphterm.Command{Program: "sh"},
	}})
	t.Cleanup(a.Close)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := os.CreateTemp(t.TempDir(), "host")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	t.Cleanup(func() { out.Close() })
	term := &Terminal{
		app:      a,
		out:      out,
		renderer: NewRenderer(io.Discard, Capabilities{ColorDepth: 256}, Options{}),
		logger:   pslog.Ctx(context.Background()),
		focused:  true,
	}
	return term, sp, out
}

func waitFor(t *testing.T, a *app.App, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		a.Pump()
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHandleInputForwardsKeys(t *testing.T) {
	term, sp, _ := newTestTerminal(t)
	ctx := context.Background()

	if term.handleInput(ctx, []byte("a"), time.Now()) {
		t.Fatalf("plain key requested quit")
	}
	term.handleInput(ctx, []byte("\x1b[1;2A"), time.Now())
	term.handleInput(ctx, []byte("\x1b[200~hi\x1b[201~"), time.Now())

	got := sp.pty(0).Input()
	if !strings.HasPrefix(got, "a") || !strings.Contains(got, "hi") {
		t.Fatalf("input = %q", got)
	}
	if strings.Contains(got, "\x1b[1;2A") {
		t.Fatalf("shift+up reached the child: %q", got)
	}
}

func TestHandleInputFocus(t *testing.T) {
	term, _, _ := newTestTerminal(t)
	term.handleInput(context.Background(), []byte("\x1b[O"), time.Now())
	if term.focused {
		t.Fatalf("focus-out report ignored")
	}
}

func TestHandleInputAfterExit(t *testing.T) {
	term, sp, _ := newTestTerminal(t)
	ctx := context.Background()
	sp.pty(0).Exit(0)
	waitFor(t, term.app, "exit", func() bool {
		return term.app.Status().Session.Kind == glyphterm.StatusExited
	})

	if term.handleInput(ctx, []byte("x"), time.Now()) {
		t.Fatalf("x requested quit")
	}
	if !term.handleInput(ctx, []byte("q"), time.Now()) {
		t.Fatalf("q did not quit an exited session")
	}
	if term.handleInput(ctx, []byte("r"), time.Now()) {
		t.Fatalf("r requested quit")
	}
	waitFor(t, term.app, "reconnect", func() bool {
		return sp.count() == 2 && term.app.Status().Session.Kind == glyphterm.StatusConnected
	})
}

func TestMouseSelectionCopiesToHost(t *testing.T) {
	term, sp, out := newTestTerminal(t)
	go func() { _ = sp.pty(0).Emit("hello world") }()
	waitFor(t, term.app, "output", func() bool { return term.app.Buffer().Text()[0] == "hello world" })

	term.handleInput(context.Background(), []byte("\x1b[<0;1;1M\x1b[<32;3;1M\x1b[<0;5;1m"), time.Now())
	if got := term.app.SelectedText(); got != "hello" {
		t.Fatalf("selected = %q, want hello", got)
	}
	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatalf("read host output: %v", err)
	}
	if got := string(data); got != "\033]52;c;aGVsbG8=\a" {
		t.Fatalf("host output = %q", got)
	}
}

func TestMouseWheelScrolls(t *testing.T) {
	term, sp, _ := newTestTerminal(t)
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = "x"
	}
	go func() { _ = sp.pty(0).Emit(strings.Join(lines, "\r\n")) }()
	waitFor(t, term.app, "output", func() bool { return term.app.Buffer().ScrollbackLen() > 0 })

	term.handleInput(context.Background(), []byte("\x1b[<64;1;1M"), time.Now())
	if got := term.app.ScrollOffset(); got != wheelRows {
		t.Fatalf("offset = %d, want %d", got, wheelRows)
	}
	term.handleInput(context.Background(), []byte("\x1b[<65;1;1M"), time.Now())
	if got := term.app.ScrollOffset(); got != 0 {
		t.Fatalf("offset = %d, want 0", got)
	}
}
