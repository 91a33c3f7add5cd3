package glyphterm

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parser states
type parserState int

const (
	stateGround    parserState = iota
	stateEscape                // After ESC
	stateCSI                   // After ESC [
	stateCSIParam              // Reading CSI parameters
	stateOSC                   // After ESC ]
	stateOSCString             // Reading OSC string
	stateOSCEscape             // ESC seen inside an OSC string, expecting '\'
	stateCharset               // After ESC ( or ESC )
	stateIgnore                // After ESC # or other two-byte sequences
)

// maxOSCLength bounds the OSC accumulator so a stray ESC ] cannot grow
// it without limit.
const maxOSCLength = 4096

// maxOSCNumber bounds the digits of an OSC command number. Longer runs
// cannot name a known command and are swallowed like unnumbered OSC.
const maxOSCNumber = 8

// SGRParam represents an SGR parameter with optional subparameters
// For example, "38:2:255:128:0" becomes {Base: 38, Subs: [2, 255, 128, 0]}
type SGRParam struct {
	Base int   // Primary parameter value
	Subs []int // Subparameters (colon-separated values after the base)
}

// Parser decodes ANSI escape sequences into Events. It tracks the SGR pen
// so Print events carry fully resolved styles.
type Parser struct {
	state parserState
	pen   Style

	// CSI sequence accumulator
	csiParams       []int
	csiRawParams    []string // Raw parameter strings for subparameter parsing
	csiPrivate      byte     // For private sequences like ?25h
	csiIntermediate byte     // For sequences with intermediate bytes like DECSCUSR (SP q)
	csiBuf          strings.Builder

	// OSC accumulator
	oscCmd    int
	oscBuf    strings.Builder
	oscNumber strings.Builder

	// UTF-8 multi-byte handling
	utf8Buf  []byte
	utf8Need int

	events []Event
}

// NewParser creates a new ANSI parser
func NewParser() *Parser {
	return &Parser{
		state:     stateGround,
		pen:       DefaultStyle(),
		csiParams: make([]int, 0, 16),
	}
}

// Feed processes input data and returns the decoded events
func (p *Parser) Feed(data []byte) []Event {
	p.events = nil
	for _, b := range data {
		p.processByte(b)
	}
	out := p.events
	p.events = nil
	return out
}

// FeedString processes a string and returns the decoded events
func (p *Parser) FeedString(data string) []Event {
	return p.Feed([]byte(data))
}

// Pen returns the current SGR state.
func (p *Parser) Pen() Style {
	return p.pen
}

func (p *Parser) emit(ev Event) {
	p.events = append(p.events, ev)
}

func (p *Parser) print(r rune) {
	p.emit(Print{Char: r, Style: p.pen})
}

func (p *Parser) processByte(b byte) {
	// Handle UTF-8 continuation bytes
	if p.utf8Need > 0 {
		if b&0xC0 == 0x80 {
			p.utf8Buf = append(p.utf8Buf, b)
			p.utf8Need--
			if p.utf8Need == 0 {
				r, _ := utf8.DecodeRune(p.utf8Buf)
				p.print(r)
				p.utf8Buf = p.utf8Buf[:0]
			}
			return
		}
		// Truncated sequence: emit a replacement and reprocess b
		p.utf8Buf = p.utf8Buf[:0]
		p.utf8Need = 0
		p.print(utf8.RuneError)
	}

	if p.state == stateGround && b >= 0x80 {
		switch {
		case b&0xE0 == 0xC0:
			p.utf8Buf = append(p.utf8Buf[:0], b)
			p.utf8Need = 1
		case b&0xF0 == 0xE0:
			p.utf8Buf = append(p.utf8Buf[:0], b)
			p.utf8Need = 2
		case b&0xF8 == 0xF0:
			p.utf8Buf = append(p.utf8Buf[:0], b)
			p.utf8Need = 3
		default:
			p.print(utf8.RuneError)
		}
		return
	}

	// CAN and SUB abort any sequence in progress
	if b == 0x18 || b == 0x1A {
		p.state = stateGround
		return
	}

	switch p.state {
	case stateGround:
		p.handleGround(b)
	case stateEscape:
		p.handleEscape(b)
	case stateCSI, stateCSIParam:
		p.handleCSI(b)
	case stateOSC:
		p.handleOSC(b)
	case stateOSCString:
		p.handleOSCString(b)
	case stateOSCEscape:
		// ESC \ is the string terminator; anything else aborts the
		// OSC and starts a fresh escape sequence.
		if b == '\\' {
			p.executeOSC()
			p.state = stateGround
			return
		}
		p.executeOSC()
		p.state = stateEscape
		p.handleEscape(b)
	case stateCharset, stateIgnore:
		// Consume one character and return to ground
		p.state = stateGround
	}
}

func (p *Parser) handleGround(b byte) {
	switch b {
	case 0x00: // NUL - ignore
	case 0x07: // BEL - ignore
	case 0x08: // BS - backspace
		p.emit(Backspace{})
	case 0x09: // HT - horizontal tab
		p.emit(Tab{})
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		p.emit(LineFeed{})
	case 0x0D: // CR - carriage return
		p.emit(CarriageReturn{})
	case 0x1B: // ESC
		p.state = stateEscape
	default:
		if b >= 0x20 && b < 0x7F {
			p.print(rune(b))
		}
	}
}

func (p *Parser) handleEscape(b byte) {
	p.state = stateGround
	switch b {
	case '[': // CSI - Control Sequence Introducer
		p.state = stateCSI
		p.csiParams = p.csiParams[:0]
		p.csiRawParams = p.csiRawParams[:0]
		p.csiPrivate = 0
		p.csiIntermediate = 0
		p.csiBuf.Reset()
	case ']': // OSC - Operating System Command
		p.state = stateOSC
		p.oscNumber.Reset()
		p.oscBuf.Reset()
		p.oscCmd = -1
	case '(', ')', '*', '+': // Character set designation
		p.state = stateCharset
	case '#', ' ', '%': // line attributes, 7/8-bit controls, charset switching
		p.state = stateIgnore
	case '7': // DECSC - Save Cursor
		p.emit(SaveCursor{})
	case '8': // DECRC - Restore Cursor
		p.emit(RestoreCursor{})
	case 'c': // RIS - Reset to Initial State
		p.pen = DefaultStyle()
		p.emit(Reset{})
	case 'D': // IND - Index
		p.emit(LineFeed{})
	case 'E': // NEL - Next Line
		p.emit(CarriageReturn{})
		p.emit(LineFeed{})
	case 'M': // RI - Reverse Index
		p.emit(ReverseIndex{})
	case 0x1B:
		p.state = stateEscape
	}
}

func (p *Parser) handleCSI(b byte) {
	if p.state == stateCSI {
		// First byte after ESC [
		if b == '?' || b == '>' || b == '!' || b == '<' || b == '=' {
			p.csiPrivate = b
			p.state = stateCSIParam
			return
		}
		p.state = stateCSIParam
	}

	// C0 controls embedded in a CSI sequence execute immediately
	if b < 0x20 {
		if b == 0x1B {
			p.state = stateEscape
			return
		}
		p.handleGround(b)
		return
	}

	// Collect parameter bytes
	if b >= '0' && b <= '9' {
		p.csiBuf.WriteByte(b)
		return
	}

	if b == ';' {
		p.parseCSIParam()
		p.csiBuf.Reset()
		return
	}

	if b == ':' {
		// Sub-parameter separator (used in some SGR sequences)
		p.csiBuf.WriteByte(b)
		return
	}

	// Intermediate bytes (0x20-0x2F) - used in sequences like DECSCUSR (ESC [ Ps SP q)
	if b >= 0x20 && b <= 0x2F {
		p.parseCSIParam()
		p.csiBuf.Reset()
		p.csiIntermediate = b
		return
	}

	// Final byte - execute the sequence
	if p.csiIntermediate == 0 || p.csiBuf.Len() > 0 {
		p.parseCSIParam()
	}
	p.state = stateGround
	if b >= 0x40 && b <= 0x7E {
		p.executeCSI(b)
	}
}

func (p *Parser) parseCSIParam() {
	s := p.csiBuf.String()
	if s == "" {
		p.csiParams = append(p.csiParams, 0) // Default value
		p.csiRawParams = append(p.csiRawParams, "")
		return
	}
	p.csiRawParams = append(p.csiRawParams, s)
	base := s
	if colonIdx := strings.IndexByte(s, ':'); colonIdx >= 0 {
		base = s[:colonIdx]
	}
	n := 0
	if base != "" {
		var err error
		if n, err = strconv.Atoi(base); err != nil || n > 65535 {
			n = 65535
		}
	}
	p.csiParams = append(p.csiParams, n)
}

// parseSGRParam parses a raw parameter string into an SGRParam with subparameters
func parseSGRParam(raw string) SGRParam {
	if raw == "" {
		return SGRParam{Base: 0}
	}
	parts := strings.Split(raw, ":")
	base, _ := strconv.Atoi(parts[0])
	var subs []int
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			subs = append(subs, -1) // empty/default
		} else {
			n, _ := strconv.Atoi(parts[i])
			subs = append(subs, n)
		}
	}
	return SGRParam{Base: base, Subs: subs}
}

func (p *Parser) getParam(idx, defaultVal int) int {
	if idx < len(p.csiParams) && p.csiParams[idx] > 0 {
		return p.csiParams[idx]
	}
	return defaultVal
}

func (p *Parser) executeCSI(finalByte byte) {
	if p.csiPrivate != 0 && p.csiPrivate != '?' {
		// DA2, XTMODKEYS and friends have no screen effect
		return
	}
	switch finalByte {
	case 'A': // CUU - Cursor Up
		p.emit(CursorMove{Rows: -p.getParam(0, 1)})
	case 'B', 'e': // CUD, VPR - Cursor Down
		p.emit(CursorMove{Rows: p.getParam(0, 1)})
	case 'C', 'a': // CUF, HPR - Cursor Forward
		p.emit(CursorMove{Cols: p.getParam(0, 1)})
	case 'D': // CUB - Cursor Backward
		p.emit(CursorMove{Cols: -p.getParam(0, 1)})
	case 'E': // CNL - Cursor Next Line
		p.emit(CursorMove{Rows: p.getParam(0, 1)})
		p.emit(CarriageReturn{})
	case 'F': // CPL - Cursor Previous Line
		p.emit(CursorMove{Rows: -p.getParam(0, 1)})
		p.emit(CarriageReturn{})
	case 'G', '`': // CHA, HPA - Cursor Horizontal Absolute
		p.emit(CursorColumn{Col: p.getParam(0, 1) - 1})
	case 'H', 'f': // CUP/HVP - Cursor Position
		p.emit(CursorPosition{Row: p.getParam(0, 1) - 1, Col: p.getParam(1, 1) - 1})
	case 'I': // CHT - Cursor Forward Tabulation
		for i := p.getParam(0, 1); i > 0; i-- {
			p.emit(Tab{})
		}
	case 'J': // ED - Erase in Display
		switch p.getParam(0, 0) {
		case 0:
			p.emit(EraseDisplay{Mode: EraseToEnd, Bg: p.pen.Background})
		case 1:
			p.emit(EraseDisplay{Mode: EraseToStart, Bg: p.pen.Background})
		case 2:
			p.emit(EraseDisplay{Mode: EraseAll, Bg: p.pen.Background})
		case 3:
			p.emit(EraseDisplay{Mode: EraseSaved, Bg: p.pen.Background})
		}
	case 'K': // EL - Erase in Line
		switch p.getParam(0, 0) {
		case 0:
			p.emit(EraseLine{Mode: EraseToEnd, Bg: p.pen.Background})
		case 1:
			p.emit(EraseLine{Mode: EraseToStart, Bg: p.pen.Background})
		case 2:
			p.emit(EraseLine{Mode: EraseAll, Bg: p.pen.Background})
		}
	case 'L': // IL - Insert Lines
		p.emit(InsertLines{N: p.getParam(0, 1)})
	case 'M': // DL - Delete Lines
		p.emit(DeleteLines{N: p.getParam(0, 1)})
	case 'P': // DCH - Delete Characters
		p.emit(DeleteChars{N: p.getParam(0, 1)})
	case '@': // ICH - Insert Characters
		p.emit(InsertChars{N: p.getParam(0, 1)})
	case 'X': // ECH - Erase Characters
		p.emit(EraseChars{N: p.getParam(0, 1), Bg: p.pen.Background})
	case 'S': // SU - Scroll Up
		p.emit(ScrollUp{N: p.getParam(0, 1)})
	case 'T': // SD - Scroll Down
		p.emit(ScrollDown{N: p.getParam(0, 1)})
	case 'd': // VPA - Vertical Position Absolute
		p.emit(CursorRow{Row: p.getParam(0, 1) - 1})
	case 'm': // SGR - Select Graphic Rendition
		if p.csiPrivate == 0 {
			p.executeSGR()
		}
	case 'h': // SM - Set Mode
		if p.csiPrivate == '?' {
			p.executePrivateModeSet(true)
		}
	case 'l': // RM - Reset Mode
		if p.csiPrivate == '?' {
			p.executePrivateModeSet(false)
		}
	case 's': // SCP - Save Cursor Position
		p.emit(SaveCursor{})
	case 'u': // RCP - Restore Cursor Position
		p.emit(RestoreCursor{})
	case 'r': // DECSTBM - Set Top and Bottom Margins
		if p.csiPrivate == 0 {
			p.emit(SetScrollRegion{Top: p.getParam(0, 1) - 1, Bottom: p.getParam(1, 0) - 1})
		}
	case 't': // Window manipulation
		p.executeWindowManipulation()
	case 'q': // DECSCUSR - Set Cursor Style (with space intermediate)
		if p.csiIntermediate == ' ' {
			p.executeDECSCUSR()
		}
	}
}

// executeWindowManipulation handles ESC [ 8 ; rows ; cols t. Zero or
// omitted dimensions keep the current size and are resolved by the buffer.
func (p *Parser) executeWindowManipulation() {
	if len(p.csiParams) == 0 || p.csiParams[0] != 8 {
		return
	}
	rows, cols := 0, 0
	if len(p.csiParams) > 1 {
		rows = p.csiParams[1]
	}
	if len(p.csiParams) > 2 {
		cols = p.csiParams[2]
	}
	p.emit(Resize{Cols: cols, Rows: rows})
}

// executeDECSCUSR handles ESC [ Ps SP q - Set Cursor Style
func (p *Parser) executeDECSCUSR() {
	ev := SetCursorShape{Shape: CursorBlock, Blink: true}
	switch p.getParam(0, 1) {
	case 2:
		ev = SetCursorShape{Shape: CursorBlock}
	case 3:
		ev = SetCursorShape{Shape: CursorUnderline, Blink: true}
	case 4:
		ev = SetCursorShape{Shape: CursorUnderline}
	case 5:
		ev = SetCursorShape{Shape: CursorBar, Blink: true}
	case 6:
		ev = SetCursorShape{Shape: CursorBar}
	}
	p.emit(ev)
}

func (p *Parser) executeSGR() {
	if len(p.csiParams) == 0 {
		p.pen = DefaultStyle()
		return
	}

	for i := 0; i < len(p.csiParams); i++ {
		param := p.csiParams[i]
		switch param {
		case 0: // Reset
			p.pen = DefaultStyle()
		case 1: // Bold
			p.pen.Attrs |= AttrBold
		case 2, 21, 22: // Dim, double underline in some terminals, normal intensity
			p.pen.Attrs &^= AttrBold
		case 3: // Italic
			p.pen.Attrs |= AttrItalic
		case 4: // Underline, 4:0 turns it off
			sgr := p.rawParam(i)
			if len(sgr.Subs) > 0 && sgr.Subs[0] == 0 {
				p.pen.Attrs &^= AttrUnderline
			} else {
				p.pen.Attrs |= AttrUnderline
			}
		case 7: // Reverse video
			p.pen.Attrs |= AttrInverse
		case 9: // Strikethrough
			p.pen.Attrs |= AttrStrikethrough
		case 23: // Italic off
			p.pen.Attrs &^= AttrItalic
		case 24: // Underline off
			p.pen.Attrs &^= AttrUnderline
		case 27: // Reverse off
			p.pen.Attrs &^= AttrInverse
		case 29: // Strikethrough off
			p.pen.Attrs &^= AttrStrikethrough

		case 30, 31, 32, 33, 34, 35, 36, 37:
			p.pen.Foreground = StandardColor(param - 30)
		case 90, 91, 92, 93, 94, 95, 96, 97:
			p.pen.Foreground = StandardColor(param - 90 + 8)
		case 40, 41, 42, 43, 44, 45, 46, 47:
			p.pen.Background = StandardColor(param - 40)
		case 100, 101, 102, 103, 104, 105, 106, 107:
			p.pen.Background = StandardColor(param - 100 + 8)

		case 38: // Extended foreground color
			if c, skip, ok := p.extendedColor(i); ok {
				p.pen.Foreground = c
				i += skip
			} else {
				i += skip
			}
		case 39: // Default foreground
			p.pen.Foreground = DefaultForeground
		case 48: // Extended background color
			if c, skip, ok := p.extendedColor(i); ok {
				p.pen.Background = c
				i += skip
			} else {
				i += skip
			}
		case 49: // Default background
			p.pen.Background = DefaultBackground
		case 58: // Underline color is not drawn; consume its arguments
			_, skip, _ := p.extendedColor(i)
			i += skip
		}
	}
}

func (p *Parser) rawParam(i int) SGRParam {
	if i < len(p.csiRawParams) {
		return parseSGRParam(p.csiRawParams[i])
	}
	return SGRParam{Base: p.csiParams[i]}
}

// extendedColor decodes the 38/48/58 argument forms starting at param i:
// colon subparameters (38:5:N, 38:2::R:G:B, 38:2:R:G:B) or semicolon
// parameters (38;5;N, 38;2;R;G;B). skip is the number of extra
// semicolon parameters consumed.
func (p *Parser) extendedColor(i int) (c Color, skip int, ok bool) {
	sgr := p.rawParam(i)
	if len(sgr.Subs) >= 2 && sgr.Subs[0] == 5 {
		return PaletteColor(sgr.Subs[1]), 0, true
	}
	if len(sgr.Subs) >= 4 && sgr.Subs[0] == 2 {
		var r, g, b int
		if len(sgr.Subs) >= 5 {
			r, g, b = sgr.Subs[2], sgr.Subs[3], sgr.Subs[4]
		} else {
			r, g, b = sgr.Subs[1], sgr.Subs[2], sgr.Subs[3]
		}
		return TrueColor(clampByte(r), clampByte(g), clampByte(b)), 0, true
	}
	if len(sgr.Subs) > 0 {
		return Color{}, 0, false
	}
	if i+2 < len(p.csiParams) && p.csiParams[i+1] == 5 {
		return PaletteColor(p.csiParams[i+2]), 2, true
	}
	if i+4 < len(p.csiParams) && p.csiParams[i+1] == 2 {
		return TrueColor(
			clampByte(p.csiParams[i+2]),
			clampByte(p.csiParams[i+3]),
			clampByte(p.csiParams[i+4]),
		), 4, true
	}
	// Truncated sequence: swallow the rest so stray numbers are not
	// misread as attributes.
	return Color{}, len(p.csiParams) - i - 1, false
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (p *Parser) executePrivateModeSet(set bool) {
	for _, param := range p.csiParams {
		switch param {
		case 1: // DECCKM - Application cursor keys
			p.emit(SetMode{Mode: ModeApplicationCursor, On: set})
		case 7: // DECAWM - Auto-wrap mode
			p.emit(SetMode{Mode: ModeAutoWrap, On: set})
		case 25: // DECTCEM - Cursor visibility
			p.emit(SetMode{Mode: ModeCursorVisible, On: set})
		case 1004: // Focus in/out reporting
			p.emit(SetMode{Mode: ModeFocusReporting, On: set})
		case 47, 1047, 1049: // Alternate screen buffer
			p.emit(SetMode{Mode: ModeAltScreen, On: set})
		case 2004: // Bracketed paste mode
			p.emit(SetMode{Mode: ModeBracketedPaste, On: set})
		}
	}
}
