package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/geometry"
	"github.com/phroun/glyphterm/internal/ptytest"
)

type testSpawner struct {
	mu   sync.Mutex
	err  error
	ptys []*ptytest.PTY
}

func (s *testSpawner) Spawn(glyphterm.Command, int, int) (glyphterm.PTY, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := ptytest.New()
	s.ptys = append(s.ptys, p)
	return p, nil
}

func (s *testSpawner) pty(i int) *ptytest.PTY {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ptys[i]
}

func (s *testSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ptys)
}

func newTestApp(t *testing.T, sp *testSpawner, opts Options) *App {
	t.Helper()
	opts.Session.Spawner = sp
	opts.Session.Command = glyphterm.Command{Program: "sh"}
	if opts.Glyphs == nil {
		opts.Glyphs = geometry.NewFixedAtlas(8, 16)
	}
	a := New(opts)
	t.Cleanup(a.Close)
	return a
}

func startApp(t *testing.T, sp *testSpawner, opts Options) (*App, *ptytest.PTY) {
	t.Helper()
	a := newTestApp(t, sp, opts)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return a, sp.pty(0)
}

// pumpUntil runs frames until cond holds or a second passes.
func pumpUntil(t *testing.T, a *App, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		a.Pump()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func emit(t *testing.T, p *ptytest.PTY, s string) {
	t.Helper()
	go func() { _ = p.Emit(s) }()
}

func topRow(a *App) string {
	return a.Buffer().Text()[0]
}

func TestAppDrainsSessionOutput(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{Cols: 20, Rows: 5})
	if got := a.Status().Session.Kind; got != glyphterm.StatusConnected {
		t.Fatalf("status = %s, want connected", got)
	}

	emit(t, p, "hello\x1b]633;CWD=/srv\x07")
	pumpUntil(t, a, "output", func() bool { return topRow(a) == "hello" })
	if got := a.Status().WorkingDirectory; got != "/srv" {
		t.Fatalf("working directory = %q", got)
	}
	lines := a.OutputLog()
	if len(lines) == 0 || !strings.HasPrefix(lines[0].Text, "hello") {
		t.Fatalf("output log = %+v", lines)
	}
}

func TestAppKeyInput(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{})
	now := time.Now()

	a.Key(glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: 'l'}, now)
	a.Key(glyphterm.KeyEvent{Key: glyphterm.KeyEnter}, now)
	a.Text("é", now)
	if got := p.Input(); got != "l\ré" {
		t.Fatalf("input = %q", got)
	}
	lines := a.OutputLog()
	if len(lines) != 3 || lines[0].Direction != glyphterm.DirectionInput {
		t.Fatalf("input log = %+v", lines)
	}
}

func TestAppQuickCommands(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{QuickCommands: glyphterm.QuickCommands{
		{ID: "st", Name: "Status", Command: "git status", AutoExecute: true,
			KeyBinding: glyphterm.KeyBinding{Key: "F5"}},
		{ID: "cd", Name: "Home", Command: "cd ~"},
	}})

	a.Key(glyphterm.KeyEvent{Key: glyphterm.KeyF5}, time.Now())
	if !a.RunQuickCommand("cd") || a.RunQuickCommand("missing") {
		t.Fatalf("RunQuickCommand did not match by id")
	}
	if got := p.Input(); got != "git status\rcd ~" {
		t.Fatalf("input = %q", got)
	}
}

func fillLines(t *testing.T, a *App, p *ptytest.PTY, n int) {
	t.Helper()
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	emit(t, p, strings.Join(lines, "\r\n"))
	_, rows := a.Buffer().Size()
	want := fmt.Sprintf("line %d", n-1)
	pumpUntil(t, a, "filled screen", func() bool { return a.Buffer().Text()[rows-1] == want })
}

func TestAppTypingSnapsToCursor(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{})
	fillLines(t, a, p, 40)

	if got := a.Scroll(glyphterm.Delta(5)); got != 5 {
		t.Fatalf("offset = %d, want 5", got)
	}
	a.Key(glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: 'x'}, time.Now())
	if got := a.ScrollOffset(); got != 0 {
		t.Fatalf("offset after typing = %d, want 0", got)
	}
}

func TestAppClearScreenKeyScrollsToScreenTop(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{})
	fillLines(t, a, p, 40)

	a.Key(glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: 'l', Mods: glyphterm.ModCtrl}, time.Now())
	if got := a.ScrollOffset(); got != 16 {
		t.Fatalf("offset = %d, want 16", got)
	}
	if got := p.Input(); got != "\x0c" {
		t.Fatalf("input = %q, want form feed", got)
	}
}

func TestAppSelection(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{})
	emit(t, p, "hello world")
	pumpUntil(t, a, "output", func() bool { return topRow(a) == "hello world" })

	a.PointerDown(0, 8)
	a.PointerMove(3*8, 8)
	a.PointerUp(5*8, 8)
	if !a.HasSelection() {
		t.Fatalf("expected a selection")
	}
	if got := a.SelectedText(); got != "hello" {
		t.Fatalf("selected = %q, want hello", got)
	}
	v := a.View(time.Now())
	if !v.Selection.Valid || !v.Selection.Contains(v.FirstRow, 4) || v.Selection.Contains(v.FirstRow, 5) {
		t.Fatalf("view selection = %+v", v.Selection)
	}

	a.PointerDown(16, 8)
	a.PointerUp(16, 8)
	if a.HasSelection() {
		t.Fatalf("click should clear the selection")
	}
}

func TestAppExitAndReconnect(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{})
	emit(t, p, "bye")
	pumpUntil(t, a, "output", func() bool { return topRow(a) == "bye" })

	p.Exit(2)
	pumpUntil(t, a, "exit", func() bool { return a.Status().Session.Kind == glyphterm.StatusExited })
	if got := a.Status().Session; got != glyphterm.Exited(2) {
		t.Fatalf("status = %s", got)
	}

	if err := a.Reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if got := a.Status().Session.Kind; got != glyphterm.StatusReconnecting {
		t.Fatalf("status = %s, want reconnecting", got)
	}
	pumpUntil(t, a, "reconnect", func() bool { return a.Status().Session.Kind == glyphterm.StatusConnected })
	if sp.count() != 2 {
		t.Fatalf("spawned %d sessions, want 2", sp.count())
	}

	emit(t, sp.pty(1), "\r\nagain")
	pumpUntil(t, a, "new session output", func() bool { return a.Buffer().Text()[1] == "again" })
}

func TestAppStartFailure(t *testing.T) {
	sp := &testSpawner{err: errors.New("no pty")}
	a := newTestApp(t, sp, Options{})
	if err := a.Start(context.Background()); err == nil {
		t.Fatalf("expected start to fail")
	}
	st := a.Status().Session
	if st.Kind != glyphterm.StatusFailed || !strings.Contains(st.Reason, "no pty") {
		t.Fatalf("status = %+v", st)
	}
	a.Key(glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: 'x'}, time.Now())
	if len(a.OutputLog()) != 0 {
		t.Fatalf("input without a session was recorded")
	}

	sp.mu.Lock()
	sp.err = nil
	sp.mu.Unlock()
	if err := a.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	pumpUntil(t, a, "retry", func() bool { return a.Status().Session.Kind == glyphterm.StatusConnected })
}

func TestAppResize(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{})
	if got := a.Status().ViewportPx; got != [2]int{640, 384} {
		t.Fatalf("viewport = %v", got)
	}

	a.Resize(800, 485)
	st := a.Status()
	if st.Cols != 100 || st.Rows != 30 {
		t.Fatalf("grid = %dx%d, want 100x30", st.Cols, st.Rows)
	}
	if sizes := p.Sizes(); len(sizes) != 1 || sizes[0] != [2]int{100, 30} {
		t.Fatalf("pty sizes = %v", sizes)
	}
	a.ResizeCells(100, 30)
	if len(p.Sizes()) != 1 {
		t.Fatalf("unchanged size was propagated again")
	}
}

func TestAppChildResizeReachesPTY(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{Cols: 20, Rows: 5})
	emit(t, p, "\x1b[8;30;100t")
	pumpUntil(t, a, "child resize", func() bool {
		c, r := a.Buffer().Size()
		return c == 100 && r == 30
	})
	if sizes := p.Sizes(); len(sizes) != 1 || sizes[0] != [2]int{100, 30} {
		t.Fatalf("pty sizes = %v", sizes)
	}
}

func TestAppFrame(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{Cols: 10, Rows: 3})
	emit(t, p, "abc")
	pumpUntil(t, a, "output", func() bool { return topRow(a) == "abc" })

	now := time.Now()
	f := a.Frame(now)
	if got := len(f.Glyphs) / geometry.VerticesPerQuad; got != 3 {
		t.Fatalf("glyph quads = %d, want 3", got)
	}
	if got := len(f.Colors) / geometry.VerticesPerQuad; got != 1 {
		t.Fatalf("color quads = %d, want the cursor", got)
	}
	if f.ScreenSize != [2]float32{80, 48} {
		t.Fatalf("screen size = %v", f.ScreenSize)
	}

	// Half a blink period later the cursor is hidden.
	f = a.Frame(now.Add(BlinkInterval))
	if got := len(f.Colors); got != 0 {
		t.Fatalf("blink-off frame has %d color vertices", got)
	}
}

func TestViewCursorScreenRow(t *testing.T) {
	sp := &testSpawner{}
	a, p := startApp(t, sp, Options{Cols: 10, Rows: 3})
	fillLines(t, a, p, 6)

	now := time.Now()
	if got := a.View(now).CursorScreenRow(); got != 2 {
		t.Fatalf("cursor screen row = %d, want 2", got)
	}
	a.Scroll(glyphterm.Delta(1))
	if got := a.View(now).CursorScreenRow(); got != -1 {
		t.Fatalf("scrolled cursor screen row = %d, want -1", got)
	}
}

func TestStatusText(t *testing.T) {
	st := Status{
		Session:          glyphterm.Exited(1),
		WorkingDirectory: "/tmp",
		ScrollOffset:     3,
	}
	if got := st.Text(); got != "exited (code 1)  /tmp  [scrolled]" {
		t.Fatalf("Text = %q", got)
	}
}
