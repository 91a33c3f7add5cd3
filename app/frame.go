package app

import (
	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/geometry"
)

// Frame is what the renderer consumes once per displayed frame.
type Frame struct {
	Colors     []geometry.ColorVertex
	Glyphs     []geometry.GlyphVertex
	ScreenSize [2]float32 // screen-size uniform, pixels
	Status     Status
}

// View is the visible window of the buffer with cursor and selection.
type View struct {
	Rows     []glyphterm.Row
	FirstRow int // logical index of Rows[0]

	Cursor    glyphterm.Cursor
	CursorRow int // logical
	CursorOn  bool

	ScrollOffset int
	Selection    geometry.Selection
}

// CursorScreenRow returns the cursor's row within Rows, or -1 when it is
// not drawn because the view is scrolled back or the cursor is hidden.
func (v View) CursorScreenRow() int {
	if v.ScrollOffset != 0 || !v.Cursor.Visible {
		return -1
	}
	y := v.CursorRow - v.FirstRow
	if y < 0 || y >= len(v.Rows) {
		return -1
	}
	return y
}

// Status is the read-only snapshot for the presentation layer.
type Status struct {
	Session          glyphterm.SessionStatus
	Cols, Rows       int
	ViewportPx       [2]int
	ScrollOffset     int
	WorkingDirectory string
	Title            string
}

// Text returns a one-line summary for a status bar.
func (s Status) Text() string {
	text := s.Session.String()
	if s.WorkingDirectory != "" {
		text += "  " + s.WorkingDirectory
	}
	if s.ScrollOffset > 0 {
		text += "  [scrolled]"
	}
	return text
}
