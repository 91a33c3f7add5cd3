package glyphterm

import (
	"fmt"
	"unicode/utf8"
)

// maxEventCount bounds repeat counts carried by events so a hostile or
// buggy decoder cannot make one event cost more than a screenful.
const maxEventCount = 1 << 16

// MaxGridCells bounds cols*rows for any resize, including one requested
// by child output (CSI 8 ; rows ; cols t).
const MaxGridCells = 1 << 20

// ApplyDecodedUpdates applies decode events to the grid, scrollback and
// cursor. Malformed events are logged and skipped; out-of-range cursor
// targets are clamped.
func (b *Buffer) ApplyDecodedUpdates(events []Event) {
	for _, ev := range events {
		b.apply(ev)
	}
}

func (b *Buffer) apply(ev Event) {
	switch e := ev.(type) {
	case Print:
		if e.Char < 0x20 || e.Char == 0x7F || !utf8.ValidRune(e.Char) {
			b.skip(ev, "unprintable rune")
			return
		}
		b.print(e.Char, e.Style)
	case LineFeed:
		b.wrapPending = false
		b.lineFeed()
	case ReverseIndex:
		b.wrapPending = false
		b.reverseIndex()
	case CarriageReturn:
		b.wrapPending = false
		b.cursor.Col = 0
	case Backspace:
		b.wrapPending = false
		if b.cursor.Col > 0 {
			b.cursor.Col--
		}
	case Tab:
		b.wrapPending = false
		b.cursor.Col = min((b.cursor.Col/8+1)*8, b.cols-1)
	case CursorMove:
		b.moveCursor(b.cursor.Col+e.Cols, b.cursor.Row+e.Rows)
	case CursorPosition:
		b.moveCursor(e.Col, e.Row)
	case CursorColumn:
		b.moveCursor(e.Col, b.cursor.Row)
	case CursorRow:
		b.moveCursor(b.cursor.Col, e.Row)
	case SaveCursor:
		b.saved = savedCursor{col: b.cursor.Col, row: b.cursor.Row, valid: true}
	case RestoreCursor:
		if b.saved.valid {
			b.moveCursor(b.saved.col, b.saved.row)
		} else {
			b.moveCursor(0, 0)
		}
	case EraseDisplay:
		b.eraseDisplay(e.Mode, e.Bg)
	case EraseLine:
		b.eraseLine(e.Mode, e.Bg)
	case EraseChars:
		if !b.validCount(ev, e.N) {
			return
		}
		b.eraseChars(e.N, e.Bg)
	case InsertLines:
		if !b.validCount(ev, e.N) {
			return
		}
		b.insertLines(e.N)
	case DeleteLines:
		if !b.validCount(ev, e.N) {
			return
		}
		b.deleteLines(e.N)
	case InsertChars:
		if !b.validCount(ev, e.N) {
			return
		}
		b.insertChars(e.N)
	case DeleteChars:
		if !b.validCount(ev, e.N) {
			return
		}
		b.deleteChars(e.N)
	case ScrollUp:
		if !b.validCount(ev, e.N) {
			return
		}
		b.scrollUp(b.top, b.bottom, min(e.N, b.rows))
	case ScrollDown:
		if !b.validCount(ev, e.N) {
			return
		}
		b.scrollDown(b.top, b.bottom, min(e.N, b.rows))
	case SetScrollRegion:
		b.setScrollRegion(e.Top, e.Bottom)
	case SetMode:
		b.setMode(e.Mode, e.On)
	case SetCursorShape:
		b.cursor.Shape = e.Shape
		b.cursor.Blink = e.Blink
	case SetWorkingDirectory:
		b.cwd = e.Path
	case SetTitle:
		b.title = e.Title
	case Resize:
		cols, rows := e.Cols, e.Rows
		if cols == 0 {
			cols = b.cols
		}
		if rows == 0 {
			rows = b.rows
		}
		if cols < 0 || rows < 0 || cols > maxEventCount || rows > maxEventCount {
			b.skip(ev, "dimensions out of range")
			return
		}
		b.Resize(cols, rows)
	case Reset:
		b.Reset()
	case nil:
		b.skip(ev, "nil event")
	default:
		b.skip(ev, "unknown event")
	}
}

func (b *Buffer) validCount(ev Event, n int) bool {
	if n <= 0 || n > maxEventCount {
		b.skip(ev, fmt.Sprintf("count %d out of range", n))
		return false
	}
	return true
}

func (b *Buffer) skip(ev Event, reason string) {
	b.logger.Debug("skip decode event", "event", fmt.Sprintf("%T", ev), "reason", reason)
}

// moveCursor sets an absolute cursor position, clamped to the grid.
func (b *Buffer) moveCursor(col, row int) {
	b.wrapPending = false
	b.cursor.Col = clamp(col, 0, b.cols-1)
	b.cursor.Row = clamp(row, 0, b.rows-1)
}

func (b *Buffer) setMode(m Mode, on bool) {
	switch m {
	case ModeApplicationCursor:
		b.modes.ApplicationCursor = on
	case ModeAutoWrap:
		b.modes.AutoWrap = on
		if !on {
			b.wrapPending = false
		}
	case ModeCursorVisible:
		b.cursor.Visible = on
	case ModeFocusReporting:
		b.modes.FocusReporting = on
	case ModeAltScreen:
		// The alternate screen shares the primary grid; only the flag is
		// tracked so front ends can suspend local scrollback.
		b.modes.AltScreen = on
	case ModeBracketedPaste:
		b.modes.BracketedPaste = on
	default:
		b.logger.Debug("skip unknown mode", "mode", int(m))
	}
}

func (b *Buffer) setScrollRegion(top, bottom int) {
	if bottom < 0 {
		bottom = b.rows - 1
	}
	top = clamp(top, 0, b.rows-1)
	bottom = clamp(bottom, 0, b.rows-1)
	if top >= bottom {
		b.logger.Debug("skip empty scroll region", "top", top, "bottom", bottom)
		return
	}
	b.top, b.bottom = top, bottom
	b.moveCursor(0, 0)
}
