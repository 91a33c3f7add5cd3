// Package app holds the explicit application context that runs the
// per-frame control flow: poll the session, drain output into the buffer,
// apply view input, and build geometry for the renderer.
//
// Everything here runs on the render thread. Only the session reader
// goroutine runs elsewhere, and it talks to App exclusively through the
// session's ByteChannel.
package app

import (
	"context"
	"time"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/geometry"
	"pkt.systems/pslog"
)

// BlinkInterval is the cursor blink half-period.
const BlinkInterval = 500 * time.Millisecond

// Options configures an App. Zero values select defaults.
type Options struct {
	Cols, Rows int
	Capacity   int
	LogLines   int

	Session glyphterm.SessionOptions
	Glyphs  geometry.GlyphProvider
	Scheme  *glyphterm.ColorScheme

	QuickCommands glyphterm.QuickCommands
	Logger        pslog.Logger
}

// App is the application context: one session, one buffer, one pane.
type App struct {
	buffer    *glyphterm.Buffer
	scroll    glyphterm.ScrollController
	selection glyphterm.Selection
	sessions  *glyphterm.SessionManager
	lifecycle *glyphterm.Lifecycle

	handle  *glyphterm.SessionHandle // session currently drained
	channel *glyphterm.ByteChannel

	glyphs geometry.GlyphProvider
	scheme glyphterm.ColorScheme
	quick  glyphterm.QuickCommands

	viewport    [2]int // pixels
	out         geometry.Output
	blinkOrigin time.Time

	logger pslog.Logger
}

// New creates an application context. No process is started until Start.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	glyphs := opts.Glyphs
	if glyphs == nil {
		glyphs = geometry.NewFixedAtlas(8, 16)
	}
	scheme := glyphterm.DefaultColorScheme()
	if opts.Scheme != nil {
		scheme = *opts.Scheme
	}
	sessOpts := opts.Session
	if sessOpts.Logger == nil {
		sessOpts.Logger = logger
	}
	sessions := glyphterm.NewSessionManager(sessOpts)
	a := &App{
		buffer: glyphterm.NewBuffer(cols, rows, glyphterm.BufferOptions{
			Capacity: opts.Capacity,
			LogLines: opts.LogLines,
			Logger:   logger,
		}),
		sessions: sessions,
		glyphs:   glyphs,
		scheme:   scheme,
		quick:    opts.QuickCommands,
		logger:   logger,
	}
	a.lifecycle = glyphterm.NewLifecycle(sessions, glyphterm.LifecycleOptions{Logger: logger})
	cw, ch := glyphs.CellSize()
	a.viewport = [2]int{int(float32(cols) * cw), int(float32(rows) * ch)}
	return a
}

// Buffer returns the terminal buffer. It must only be used on the render thread.
func (a *App) Buffer() *glyphterm.Buffer {
	return a.buffer
}

// Lifecycle returns the session lifecycle.
func (a *App) Lifecycle() *glyphterm.Lifecycle {
	return a.lifecycle
}

// CellSize returns the glyph cell size in pixels.
func (a *App) CellSize() (w, h float32) {
	return a.glyphs.CellSize()
}

// ScrollOffset returns the current scroll offset.
func (a *App) ScrollOffset() int {
	return a.scroll.Offset()
}

// Start spawns the initial session at the buffer's size.
func (a *App) Start(ctx context.Context) error {
	cols, rows := a.buffer.Size()
	err := a.lifecycle.Start(ctx, cols, rows)
	a.attach()
	return err
}

// Reconnect respawns an exited session.
func (a *App) Reconnect(ctx context.Context) error {
	cols, rows := a.buffer.Size()
	return a.lifecycle.Reconnect(ctx, cols, rows)
}

// Retry restarts a failed session.
func (a *App) Retry(ctx context.Context) error {
	cols, rows := a.buffer.Size()
	return a.lifecycle.Retry(ctx, cols, rows)
}

// Close terminates the session.
func (a *App) Close() {
	a.sessions.Terminate()
}

// attach switches draining to the lifecycle's current session.
func (a *App) attach() {
	h := a.lifecycle.Session()
	if h == a.handle {
		return
	}
	a.handle = h
	a.channel = nil
	if h != nil {
		a.channel = h.Channel()
		a.logger.Debug("draining session", "session", h.ID)
	}
}

// Pump runs the non-rendering half of a frame: poll the session and apply
// pending output. It reports whether the buffer changed.
func (a *App) Pump() bool {
	a.lifecycle.Poll()
	a.attach()
	changed := false
	if a.channel != nil {
		data, eof := a.channel.Drain()
		if len(data) > 0 {
			cols, rows := a.buffer.Size()
			a.buffer.Write(data)
			changed = true
			if c, r := a.buffer.Size(); c != cols || r != rows {
				// The child resized the grid; keep the PTY in step.
				if err := a.sessions.Resize(c, r); err != nil {
					a.logger.Warn("session resize failed", "cols", c, "rows", r, "err", err)
				}
			}
		}
		if eof {
			// The producer is gone; stop draining until a new session attaches.
			a.channel = nil
			a.lifecycle.Poll()
		}
	}
	a.selection.Sync(a.buffer)
	a.scroll.Clamp(a.buffer, a.viewRows())
	return changed
}

// Frame runs one full frame at time now and returns the geometry. The
// vertex slices are reused by the next call.
func (a *App) Frame(now time.Time) Frame {
	a.Pump()
	a.buildGeometry(now)
	return Frame{
		Colors:     a.out.Colors,
		Glyphs:     a.out.Glyphs,
		ScreenSize: [2]float32{float32(a.viewport[0]), float32(a.viewport[1])},
		Status:     a.Status(),
	}
}

// View returns the visible window with its overlays for text front ends
// and the geometry builder. Rows alias buffer storage until the next Pump.
func (a *App) View(now time.Time) View {
	h := a.viewRows()
	offset := a.scroll.Offset()
	rows := a.buffer.VisibleRows(offset, h)
	v := View{
		Rows:         rows,
		FirstRow:     a.buffer.FirstLogicalRow() + a.buffer.LogicalRowCount() - offset - len(rows),
		Cursor:       a.buffer.Cursor(),
		CursorRow:    a.buffer.CursorLogicalRow(),
		CursorOn:     a.CursorOn(now),
		ScrollOffset: offset,
	}
	if start, end, ok := a.selection.Range(); ok {
		v.Selection = geometry.Selection{Start: start, End: end, Valid: true}
	}
	return v
}

func (a *App) buildGeometry(now time.Time) {
	v := a.View(now)
	geometry.BuildInto(geometry.Input{
		Rows:         v.Rows,
		FirstRow:     v.FirstRow,
		Cursor:       v.Cursor,
		CursorRow:    v.CursorRow,
		CursorOn:     v.CursorOn,
		Selection:    v.Selection,
		ScrollOffset: v.ScrollOffset,
		Glyphs:       a.glyphs,
		Scheme:       a.scheme,
	}, &a.out)
}

func (a *App) viewRows() int {
	_, rows := a.buffer.Size()
	return rows
}

// CursorOn reports the blink phase at now. The phase restarts on input.
func (a *App) CursorOn(now time.Time) bool {
	if a.blinkOrigin.IsZero() {
		a.blinkOrigin = now
	}
	return (now.Sub(a.blinkOrigin)/BlinkInterval)%2 == 0
}

// Status returns the UI status snapshot.
func (a *App) Status() Status {
	cols, rows := a.buffer.Size()
	return Status{
		Session:          a.lifecycle.Status(),
		Cols:             cols,
		Rows:             rows,
		ViewportPx:       a.viewport,
		ScrollOffset:     a.scroll.Offset(),
		WorkingDirectory: a.buffer.WorkingDirectory(),
		Title:            a.buffer.Title(),
	}
}

// Resize fits the grid to a pane of widthPx x heightPx pixels and
// propagates the new size to the session.
func (a *App) Resize(widthPx, heightPx int) {
	cw, ch := a.glyphs.CellSize()
	cols := max(1, int(float32(widthPx)/cw))
	rows := max(1, int(float32(heightPx)/ch))
	a.viewport = [2]int{widthPx, heightPx}
	a.ResizeCells(cols, rows)
}

// ResizeCells sets the grid size directly.
func (a *App) ResizeCells(cols, rows int) {
	if c, r := a.buffer.Size(); c == cols && r == rows {
		return
	}
	a.buffer.Resize(cols, rows)
	a.scroll.Clamp(a.buffer, rows)
	a.selection.Sync(a.buffer)
	if err := a.sessions.Resize(cols, rows); err != nil {
		a.logger.Warn("session resize failed", "cols", cols, "rows", rows, "err", err)
	}
}
