// Package cli runs glyphterm inside a host terminal.
//
// The host terminal stands in for the GPU surface: each frame the app's
// visible rows are diffed against the previous frame and only changed
// cells are rewritten as ANSI text. Colors are downsampled to what the
// host advertises through TERM and COLORTERM.
//
// # Keys
//
// Host keystrokes are decoded into glyphterm key events and handed to the
// app, which encodes them for the child. A few keys stay local:
//
//   - Shift+PageUp/PageDown: scroll one page
//   - Shift+Up/Down: scroll one line
//   - Shift+Home/End: jump to the top of history or back to the live grid
//
// When the session has exited, r (or Enter) respawns it and q quits.
//
// With mouse capture on, dragging selects text, the selection is copied
// to the host clipboard through OSC 52, and the wheel scrolls history.
package cli
