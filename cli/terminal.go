package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/app"
	"golang.org/x/term"
	"pkt.systems/pslog"
)

// BorderStyle defines the visual style for the terminal window border
type BorderStyle int

const (
	BorderNone    BorderStyle = iota // No border
	BorderSingle                     // Single-line box drawing characters
	BorderDouble                     // Double-line box drawing characters
	BorderHeavy                      // Heavy/thick box drawing characters
	BorderRounded                    // Rounded corners (single line)
)

// ParseBorderStyle maps a config name to a BorderStyle.
func ParseBorderStyle(name string) (BorderStyle, error) {
	switch name {
	case "", "none":
		return BorderNone, nil
	case "single":
		return BorderSingle, nil
	case "double":
		return BorderDouble, nil
	case "heavy":
		return BorderHeavy, nil
	case "rounded":
		return BorderRounded, nil
	}
	return BorderNone, fmt.Errorf("unknown border style %q", name)
}

// frameInterval paces the render loop at about 60 frames per second.
const frameInterval = 16 * time.Millisecond

// wheelRows is how far one wheel notch scrolls.
const wheelRows = 3

// Options configures the host-terminal front end.
type Options struct {
	// Display options
	BorderStyle   BorderStyle // Border style around the terminal window
	Title         string      // Shown in the top border when the child sets none
	ShowStatusBar bool

	// Mouse captures the host mouse for selection and wheel scrolling.
	Mouse bool

	In     *os.File // default os.Stdin
	Out    *os.File // default os.Stdout
	Logger pslog.Logger
}

// Terminal runs an app.App inside the host terminal: output is drawn as
// ANSI text and host keystrokes are forwarded as key events. All App calls
// happen on the goroutine running Run.
type Terminal struct {
	app      *app.App
	opts     Options
	in, out  *os.File
	caps     Capabilities
	renderer *Renderer
	decoder  inputDecoder
	logger   pslog.Logger

	// Original terminal state for restoration
	oldState *term.State

	focused  bool
	dragging bool
	anchor   glyphterm.Position // host-relative grid cell where a drag began
}

// New creates a front end for a. Nothing touches the host until Run.
func New(a *app.App, opts Options) *Terminal {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	caps := DetectCapabilities(int(opts.Out.Fd()))
	return &Terminal{
		app:      a,
		opts:     opts,
		in:       opts.In,
		out:      opts.Out,
		caps:     caps,
		renderer: NewRenderer(opts.Out, caps, opts),
		logger:   logger,
		focused:  true,
	}
}

// Capabilities returns what was detected about the host terminal.
func (t *Terminal) Capabilities() Capabilities {
	return t.caps
}

// GridSize returns the grid size that fits the host terminal.
func (t *Terminal) GridSize() (cols, rows int) {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		w, h = t.caps.Width, t.caps.Height
	}
	cc, cr := t.renderer.chrome()
	return max(20, w-cc), max(5, h-cr)
}

// Run takes over the host terminal, starts the session and runs the
// frame loop until ctx ends, stdin closes or the user quits.
func (t *Terminal) Run(ctx context.Context) error {
	fd := int(t.in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t.oldState = oldState
	defer t.restore()
	t.enterScreen()

	t.fit()
	if err := t.app.Start(ctx); err != nil {
		t.logger.Warn("session start failed", "err", err)
	}
	defer t.app.Close()

	done := make(chan struct{})
	defer close(done)
	input := make(chan []byte, 16)
	go t.readInput(input, done)

	winch := make(chan os.Signal, 1)
	notifyResize(winch)
	defer signal.Stop(winch)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-input:
			if !ok {
				return nil
			}
			if t.handleInput(ctx, data, time.Now()) {
				return nil
			}
		case <-winch:
			t.fit()
		case now := <-ticker.C:
			t.app.Pump()
			if err := t.renderer.Render(t.frameState(now)); err != nil {
				return err
			}
		}
	}
}

// readInput reads host stdin until it fails. The blocking read cannot be
// interrupted, so the goroutine outlives Run until the next keystroke.
func (t *Terminal) readInput(input chan<- []byte, done <-chan struct{}) {
	defer close(input)
	buf := make([]byte, 256)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			select {
			case input <- data:
			case <-done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				t.logger.Debug("stdin read failed", "err", err)
			}
			return
		}
	}
}

func (t *Terminal) enterScreen() {
	seq := "\033[?25l" + // hide cursor
		"\033[?1049h" + // alternate screen
		"\033[2J\033[H" +
		"\033[?2004h" + // bracketed paste
		"\033[?1004h" // focus events
	if t.opts.Mouse {
		seq += "\033[?1002h\033[?1006h"
	}
	io.WriteString(t.out, seq)
}

func (t *Terminal) restore() {
	seq := ""
	if t.opts.Mouse {
		seq += "\033[?1006l\033[?1002l"
	}
	seq += "\033[?1004l\033[?2004l\033[0m\033[0 q\033[?1049l\033[?25h"
	io.WriteString(t.out, seq)
	if t.oldState != nil {
		term.Restore(int(t.in.Fd()), t.oldState)
	}
}

// fit resizes the grid to the host terminal.
func (t *Terminal) fit() {
	cols, rows := t.GridSize()
	t.app.ResizeCells(cols, rows)
	t.renderer.ForceFullRedraw()
}

func (t *Terminal) frameState(now time.Time) frameState {
	return stateFor(t.app, now, t.focused)
}

func stateFor(a *app.App, now time.Time, focused bool) frameState {
	st := a.Status()
	fs := frameState{
		view:      a.View(now),
		status:    st,
		maxScroll: glyphterm.MaxScrollOffset(a.Buffer(), st.Rows),
		focused:   focused,
	}
	switch st.Session.Kind {
	case glyphterm.StatusExited:
		fs.hint = "r: reconnect  q: quit"
	case glyphterm.StatusFailed:
		fs.hint = "r: retry  q: quit"
	}
	return fs
}

// handleInput dispatches decoded host input and reports whether to quit.
func (t *Terminal) handleInput(ctx context.Context, data []byte, now time.Time) bool {
	for _, ev := range t.decoder.decode(data) {
		switch ev.kind {
		case inputKey:
			if handled, quit := t.sessionKey(ctx, ev.key); handled {
				if quit {
					return true
				}
				continue
			}
			if t.localScroll(ev.key) {
				continue
			}
			t.app.Key(ev.key, now)
		case inputText:
			t.app.Text(ev.text, now)
		case inputPaste:
			t.app.Paste(ev.text)
		case inputFocus:
			t.focused = ev.focus
			t.app.Focus(ev.focus)
		case inputMouse:
			t.mouse(ev.mouse)
		}
	}
	return false
}

// sessionKey handles keys while no session is running.
func (t *Terminal) sessionKey(ctx context.Context, ev glyphterm.KeyEvent) (handled, quit bool) {
	kind := t.app.Lifecycle().Status().Kind
	if kind != glyphterm.StatusExited && kind != glyphterm.StatusFailed {
		return false, false
	}
	switch {
	case ev.Key == glyphterm.KeyRune && ev.Mods == 0 && ev.Rune == 'q':
		return true, true
	case ev.Key == glyphterm.KeyRune && ev.Mods == 0 && ev.Rune == 'r', ev.Key == glyphterm.KeyEnter:
		var err error
		if kind == glyphterm.StatusExited {
			err = t.app.Reconnect(ctx)
		} else {
			err = t.app.Retry(ctx)
		}
		if err != nil {
			t.logger.Warn("respawn request rejected", "err", err)
		}
	}
	return true, false
}

// localScroll handles Shift+navigation keys as scrollback navigation
// instead of sending them to the child.
func (t *Terminal) localScroll(ev glyphterm.KeyEvent) bool {
	if ev.Mods != glyphterm.ModShift {
		return false
	}
	_, rows := t.app.Buffer().Size()
	page := max(1, rows-1)
	switch ev.Key {
	case glyphterm.KeyPageUp:
		t.app.Scroll(glyphterm.Delta(page))
	case glyphterm.KeyPageDown:
		t.app.Scroll(glyphterm.Delta(-page))
	case glyphterm.KeyUp:
		t.app.Scroll(glyphterm.Delta(1))
	case glyphterm.KeyDown:
		t.app.Scroll(glyphterm.Delta(-1))
	case glyphterm.KeyHome:
		t.app.Scroll(glyphterm.ScrollRequest{Kind: glyphterm.ScrollScreenTop})
	case glyphterm.KeyEnd:
		t.app.Scroll(glyphterm.Delta(-t.app.ScrollOffset()))
	default:
		return false
	}
	return true
}

// mouse turns host mouse reports into selection and wheel scrolling.
func (t *Terminal) mouse(m mouseEvent) {
	switch m.button {
	case 64:
		t.app.Scroll(glyphterm.Delta(wheelRows))
		return
	case 65:
		t.app.Scroll(glyphterm.Delta(-wheelRows))
		return
	case 0:
	default:
		return
	}

	cx, cy := t.renderer.contentOrigin()
	cols, rows := t.app.Buffer().Size()
	pos := glyphterm.Position{
		Row: min(max(m.row-cy, 0), rows-1),
		Col: min(max(m.col-cx, 0), cols-1),
	}
	switch {
	case m.press && !m.motion:
		t.dragging = true
		t.anchor = pos
		px, py := t.pixels(pos, false)
		t.app.PointerDown(px, py)
	case m.press && t.dragging:
		px, py := t.pixels(pos, !pos.Before(t.anchor))
		t.app.PointerMove(px, py)
	case !m.press && t.dragging:
		t.dragging = false
		px, py := t.pixels(pos, !pos.Before(t.anchor))
		t.app.PointerUp(px, py)
		if t.app.HasSelection() {
			t.copyToHost(t.app.SelectedText())
		}
	}
}

// pixels returns the pane point for a grid cell: its left edge, or its
// right edge when the drag runs forward so the cell is included.
func (t *Terminal) pixels(p glyphterm.Position, rightEdge bool) (px, py float32) {
	cw, ch := t.app.CellSize()
	col := float32(p.Col)
	if rightEdge {
		col++
	}
	return col * cw, (float32(p.Row) + 0.5) * ch
}

// copyToHost places text on the host clipboard with OSC 52.
func (t *Terminal) copyToHost(text string) {
	if text == "" {
		return
	}
	seq := "\033]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
	if _, err := io.WriteString(t.out, seq); err != nil {
		t.logger.Debug("clipboard write failed", "err", err)
	}
}
