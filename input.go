package glyphterm

import (
	"strconv"
	"strings"
)

// Key identifies a non-character key, or KeyRune for printable input.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Modifiers is the bitset of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

// KeyEvent is a key press from the UI layer.
type KeyEvent struct {
	Key  Key
	Rune rune // KeyRune only
	Mods Modifiers
}

var (
	pasteStart = []byte("\x1b[200~")
	pasteEnd   = []byte("\x1b[201~")

	focusIn  = []byte("\x1b[I")
	focusOut = []byte("\x1b[O")
)

// cursor keys share a final byte between normal and application mode.
var cursorFinal = map[Key]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
}

// tilde keys encode as CSI <n> ~.
var tildeCode = map[Key]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

var ss3Final = map[Key]byte{
	KeyF1: 'P',
	KeyF2: 'Q',
	KeyF3: 'R',
	KeyF4: 'S',
}

// xtermModifier returns the CSI modifier parameter, 1 meaning none.
func xtermModifier(m Modifiers) int {
	n := 1
	if m&ModShift != 0 {
		n++
	}
	if m&ModAlt != 0 {
		n += 2
	}
	if m&ModCtrl != 0 {
		n += 4
	}
	return n
}

// EncodeKey returns the bytes a key press sends to the child, or nil for
// keys with no encoding.
func EncodeKey(ev KeyEvent, modes Modes) []byte {
	if ev.Key == KeyRune {
		return encodeRune(ev.Rune, ev.Mods)
	}
	if final, ok := cursorFinal[ev.Key]; ok {
		if mod := xtermModifier(ev.Mods); mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		}
		if modes.ApplicationCursor {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}
	if code, ok := tildeCode[ev.Key]; ok {
		s := "\x1b[" + strconv.Itoa(code)
		if mod := xtermModifier(ev.Mods); mod > 1 {
			s += ";" + strconv.Itoa(mod)
		}
		return []byte(s + "~")
	}
	if final, ok := ss3Final[ev.Key]; ok {
		if mod := xtermModifier(ev.Mods); mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		}
		return []byte{0x1b, 'O', final}
	}

	var out []byte
	switch ev.Key {
	case KeyEnter:
		out = []byte{'\r'}
	case KeyBackspace:
		if ev.Mods&ModCtrl != 0 {
			out = []byte{0x08}
		} else {
			out = []byte{0x7f}
		}
	case KeyTab:
		if ev.Mods&ModShift != 0 {
			return []byte("\x1b[Z")
		}
		out = []byte{'\t'}
	case KeyEscape:
		out = []byte{0x1b}
	default:
		return nil
	}
	if ev.Mods&ModAlt != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

func encodeRune(r rune, mods Modifiers) []byte {
	var out []byte
	if mods&ModCtrl != 0 {
		if c, ok := controlByte(r); ok {
			out = []byte{c}
		}
	}
	if out == nil {
		out = []byte(string(r))
	}
	if mods&ModAlt != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

// controlByte maps Ctrl+r to its C0 control code.
func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	case r == '@' || r == ' ' || r == '2':
		return 0x00, true
	case r == '[' || r == '3':
		return 0x1b, true
	case r == '\\' || r == '4':
		return 0x1c, true
	case r == ']' || r == '5':
		return 0x1d, true
	case r == '^' || r == '6':
		return 0x1e, true
	case r == '_' || r == '/' || r == '7':
		return 0x1f, true
	case r == '?' || r == '8':
		return 0x7f, true
	}
	return 0, false
}

// EncodePaste returns pasted text as sent to the child. With bracketed
// paste on, the text is wrapped in paste markers and any end marker
// inside it is removed. Newlines become carriage returns.
func EncodePaste(text string, modes Modes) []byte {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	if !modes.BracketedPaste {
		return []byte(text)
	}
	text = strings.ReplaceAll(text, string(pasteEnd), "")
	out := make([]byte, 0, len(text)+len(pasteStart)+len(pasteEnd))
	out = append(out, pasteStart...)
	out = append(out, text...)
	return append(out, pasteEnd...)
}

// EncodeFocus returns the focus report for a focus change, or nil when
// the application has not enabled focus reporting.
func EncodeFocus(focused bool, modes Modes) []byte {
	if !modes.FocusReporting {
		return nil
	}
	if focused {
		return focusIn
	}
	return focusOut
}

// IsClearScreenKey reports whether ev is Ctrl+L, which the front end
// handles by scrolling to the top of the screen before sending the form feed.
func IsClearScreenKey(ev KeyEvent) bool {
	return ev.Key == KeyRune && ev.Mods&ModCtrl != 0 && (ev.Rune == 'l' || ev.Rune == 'L')
}
