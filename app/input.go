package app

import (
	"time"

	glyphterm "github.com/phroun/glyphterm"
)

// send writes p to the session and records it in the captured log.
// Write failures are logged and otherwise ignored.
func (a *App) send(p []byte) {
	if len(p) == 0 {
		return
	}
	h := a.lifecycle.Session()
	if h == nil {
		a.logger.Debug("input dropped", "reason", "no session", "bytes", len(p))
		return
	}
	if _, err := h.Write(p); err != nil {
		a.logger.Debug("input dropped", "err", err, "bytes", len(p))
		return
	}
	a.buffer.RecordInput(p)
}

// Key handles a key press. Quick command bindings win over the terminal;
// Ctrl+L scrolls to the top of the screen before sending the form feed;
// any other typed input snaps the view back to the cursor line.
func (a *App) Key(ev glyphterm.KeyEvent, now time.Time) {
	a.blinkOrigin = now
	if q, ok := a.quick.Find(glyphterm.BindingFor(ev)); ok {
		a.logger.Debug("quick command", "id", q.ID, "name", q.Name)
		a.scrollToCursor()
		a.send(q.Payload())
		return
	}
	if glyphterm.IsClearScreenKey(ev) {
		a.scroll.Apply(a.buffer, a.viewRows(), glyphterm.ScrollRequest{Kind: glyphterm.ScrollScreenTop})
		a.send([]byte{0x0c})
		return
	}
	data := glyphterm.EncodeKey(ev, a.buffer.Modes())
	if data == nil {
		return
	}
	a.scrollToCursor()
	a.send(data)
}

// Text sends typed text that arrived as a string, such as IME commits.
func (a *App) Text(s string, now time.Time) {
	a.blinkOrigin = now
	a.scrollToCursor()
	a.send([]byte(s))
}

// RunQuickCommand sends the quick command with the given id.
func (a *App) RunQuickCommand(id string) bool {
	for _, q := range a.quick {
		if q.ID == id {
			a.scrollToCursor()
			a.send(q.Payload())
			return true
		}
	}
	return false
}

// QuickCommands returns the configured quick commands.
func (a *App) QuickCommands() glyphterm.QuickCommands {
	return a.quick
}

// Paste sends text honoring bracketed paste mode.
func (a *App) Paste(text string) {
	a.scrollToCursor()
	a.send(glyphterm.EncodePaste(text, a.buffer.Modes()))
}

// Focus reports a focus change to the application if it asked for it.
func (a *App) Focus(focused bool) {
	a.send(glyphterm.EncodeFocus(focused, a.buffer.Modes()))
}

// Scroll applies a scroll request to the view.
func (a *App) Scroll(req glyphterm.ScrollRequest) int {
	return a.scroll.Apply(a.buffer, a.viewRows(), req)
}

func (a *App) scrollToCursor() {
	if a.scroll.AtBottom() {
		return
	}
	a.scroll.Apply(a.buffer, a.viewRows(), glyphterm.ScrollRequest{Kind: glyphterm.ScrollCursorLine})
}

// cellAt converts pane pixels to viewport cell coordinates, rounding the
// column to the nearest cell boundary so a drag can end after the last
// glyph of a row.
func (a *App) cellAt(px, py float32) glyphterm.Position {
	cw, ch := a.glyphs.CellSize()
	col := int(px/cw + 0.5)
	row := int(py / ch)
	if py < 0 {
		row = 0
	}
	return glyphterm.ScreenToLogical(a.buffer, a.scroll.Offset(), a.viewRows(), col, row)
}

// PointerDown starts a selection at pane pixel (px, py).
func (a *App) PointerDown(px, py float32) {
	a.selection.Begin(a.cellAt(px, py))
	a.selection.Sync(a.buffer)
}

// PointerMove extends an in-progress selection.
func (a *App) PointerMove(px, py float32) {
	a.selection.Extend(a.cellAt(px, py))
}

// PointerUp finalizes the selection. A click without drag clears it.
func (a *App) PointerUp(px, py float32) {
	a.selection.Extend(a.cellAt(px, py))
	a.selection.End()
}

// ClearSelection drops any selection.
func (a *App) ClearSelection() {
	a.selection.Clear()
}

// HasSelection reports whether text is selected.
func (a *App) HasSelection() bool {
	return a.selection.HasSelection()
}

// SelectedText returns the selected text for the clipboard collaborator.
func (a *App) SelectedText() string {
	return a.selection.ExtractText(a.buffer)
}

// OutputLog returns the captured raw-stream lines for a devtools view.
func (a *App) OutputLog() []glyphterm.LogLine {
	return a.buffer.OutputLog().Lines()
}
