package glyphterm

// Event is a decoded screen update produced by a Decoder and consumed by
// Buffer.ApplyDecodedUpdates. The concrete types below are the complete set.
type Event interface {
	isEvent()
}

// Decoder turns raw output bytes into decode events. Implementations keep
// state across calls so sequences split between chunks decode correctly.
type Decoder interface {
	Feed(data []byte) []Event
}

// EraseMode selects the extent of an erase in display or line.
type EraseMode int

const (
	EraseToEnd   EraseMode = iota // cursor to end
	EraseToStart                  // start to cursor (inclusive)
	EraseAll                      // entire line or screen
	EraseSaved                    // screen and scrollback (ED 3)
)

// Mode identifies a terminal mode toggled by SetMode.
type Mode int

const (
	ModeApplicationCursor Mode = iota // DECCKM
	ModeAutoWrap                      // DECAWM
	ModeCursorVisible                 // DECTCEM
	ModeFocusReporting                // 1004
	ModeAltScreen                     // 1049
	ModeBracketedPaste                // 2004
)

func (m Mode) String() string {
	switch m {
	case ModeApplicationCursor:
		return "application_cursor"
	case ModeAutoWrap:
		return "autowrap"
	case ModeCursorVisible:
		return "cursor_visible"
	case ModeFocusReporting:
		return "focus_reporting"
	case ModeAltScreen:
		return "alt_screen"
	case ModeBracketedPaste:
		return "bracketed_paste"
	default:
		return "unknown"
	}
}

// CursorShape is the drawn cursor form
type CursorShape int

const (
	CursorBlock CursorShape = iota
	CursorUnderline
	CursorBar
)

func (s CursorShape) String() string {
	switch s {
	case CursorUnderline:
		return "underline"
	case CursorBar:
		return "bar"
	default:
		return "block"
	}
}

type (
	// Print writes one glyph at the cursor with the given pen.
	Print struct {
		Char  rune
		Style Style
	}
	LineFeed       struct{}
	ReverseIndex   struct{}
	CarriageReturn struct{}
	Backspace      struct{}
	Tab            struct{}

	// CursorMove moves the cursor relative to its position.
	CursorMove struct{ Cols, Rows int }
	// CursorPosition moves the cursor to an absolute zero-based cell.
	CursorPosition struct{ Col, Row int }
	CursorColumn   struct{ Col int }
	CursorRow      struct{ Row int }
	SaveCursor     struct{}
	RestoreCursor  struct{}

	EraseDisplay struct {
		Mode EraseMode
		Bg   Color
	}
	EraseLine struct {
		Mode EraseMode
		Bg   Color
	}
	EraseChars struct {
		N  int
		Bg Color
	}
	InsertLines struct{ N int }
	DeleteLines struct{ N int }
	InsertChars struct{ N int }
	DeleteChars struct{ N int }
	ScrollUp    struct{ N int }
	ScrollDown  struct{ N int }

	// SetScrollRegion sets zero-based inclusive top and bottom margins.
	// Bottom < 0 means the last row.
	SetScrollRegion struct{ Top, Bottom int }

	SetMode struct {
		Mode Mode
		On   bool
	}
	SetCursorShape struct {
		Shape CursorShape
		Blink bool
	}
	SetWorkingDirectory struct{ Path string }
	SetTitle            struct{ Title string }

	// Resize is a decoder-requested grid size change (CSI 8 ; rows ; cols t).
	Resize struct{ Cols, Rows int }
	// Reset is a full terminal reset (RIS).
	Reset struct{}
)

func (Print) isEvent()               {}
func (LineFeed) isEvent()            {}
func (ReverseIndex) isEvent()        {}
func (CarriageReturn) isEvent()      {}
func (Backspace) isEvent()           {}
func (Tab) isEvent()                 {}
func (CursorMove) isEvent()          {}
func (CursorPosition) isEvent()      {}
func (CursorColumn) isEvent()        {}
func (CursorRow) isEvent()           {}
func (SaveCursor) isEvent()          {}
func (RestoreCursor) isEvent()       {}
func (EraseDisplay) isEvent()        {}
func (EraseLine) isEvent()           {}
func (EraseChars) isEvent()          {}
func (InsertLines) isEvent()         {}
func (DeleteLines) isEvent()         {}
func (InsertChars) isEvent()         {}
func (DeleteChars) isEvent()         {}
func (ScrollUp) isEvent()            {}
func (ScrollDown) isEvent()          {}
func (SetScrollRegion) isEvent()     {}
func (SetMode) isEvent()             {}
func (SetCursorShape) isEvent()      {}
func (SetWorkingDirectory) isEvent() {}
func (SetTitle) isEvent()            {}
func (Resize) isEvent()              {}
func (Reset) isEvent()               {}
