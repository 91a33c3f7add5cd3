package cli

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	glyphterm "github.com/phroun/glyphterm"
)

// inputKind classifies one decoded piece of host input.
type inputKind int

const (
	inputKey   inputKind = iota
	inputText            // bytes passed through to the child unchanged
	inputPaste           // bracketed paste from the host terminal
	inputFocus
	inputMouse
)

// inputEvent is one decoded piece of host input.
type inputEvent struct {
	kind  inputKind
	key   glyphterm.KeyEvent
	text  string
	focus bool
	mouse mouseEvent
}

// mouseEvent is an SGR (1006) mouse report in zero-based host cells.
type mouseEvent struct {
	button   int // 0 left, 1 middle, 2 right, 64/65 wheel
	col, row int
	press    bool
	motion   bool
	mods     glyphterm.Modifiers
}

var hostPasteEnd = []byte("\x1b[201~")

// inputDecoder turns raw stdin bytes into key, paste, focus and mouse
// events. Only bracketed paste state carries across reads; an escape
// sequence split between reads is passed through as text.
type inputDecoder struct {
	pasting bool
	paste   []byte
}

func (d *inputDecoder) decode(data []byte) []inputEvent {
	var out []inputEvent
	for i := 0; i < len(data); {
		if d.pasting {
			end := bytes.Index(data[i:], hostPasteEnd)
			if end < 0 {
				d.paste = append(d.paste, data[i:]...)
				break
			}
			d.paste = append(d.paste, data[i:i+end]...)
			out = append(out, inputEvent{kind: inputPaste, text: string(d.paste)})
			d.paste = d.paste[:0]
			d.pasting = false
			i += end + len(hostPasteEnd)
			continue
		}

		if data[i] == 0x1b {
			evs, n := d.escape(data[i:])
			out = append(out, evs...)
			i += n
			continue
		}

		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			out = append(out, inputEvent{kind: inputText, text: string(data[i : i+1])})
			i++
			continue
		}
		out = append(out, inputEvent{kind: inputKey, key: keyFromRune(r)})
		i += size
	}
	return out
}

// escape decodes the sequence at the start of seq, which begins with ESC.
func (d *inputDecoder) escape(seq []byte) ([]inputEvent, int) {
	if len(seq) == 1 {
		return keyEvents(glyphterm.KeyEvent{Key: glyphterm.KeyEscape}), 1
	}
	switch seq[1] {
	case '[':
		return d.csi(seq)
	case 'O':
		if len(seq) < 3 {
			return passthrough(seq), len(seq)
		}
		if k, ok := ss3Key(seq[2]); ok {
			return keyEvents(glyphterm.KeyEvent{Key: k}), 3
		}
		return passthrough(seq[:3]), 3
	case 0x1b:
		return keyEvents(glyphterm.KeyEvent{Key: glyphterm.KeyEscape}), 1
	}

	// Alt+key
	r, size := utf8.DecodeRune(seq[1:])
	if r == utf8.RuneError && size <= 1 {
		return passthrough(seq[:2]), 2
	}
	ev := keyFromRune(r)
	ev.Mods |= glyphterm.ModAlt
	return keyEvents(ev), 1 + size
}

func (d *inputDecoder) csi(seq []byte) ([]inputEvent, int) {
	end := -1
	for j := 2; j < len(seq); j++ {
		if seq[j] >= 0x40 && seq[j] <= 0x7e {
			end = j
			break
		}
	}
	if end < 0 {
		return passthrough(seq), len(seq)
	}
	n := end + 1
	params := string(seq[2:end])
	final := seq[end]

	if strings.HasPrefix(params, "<") && (final == 'M' || final == 'm') {
		if m, ok := parseSGRMouse(params[1:], final == 'M'); ok {
			return []inputEvent{{kind: inputMouse, mouse: m}}, n
		}
		return nil, n
	}

	fields := strings.Split(params, ";")
	code := atoiDefault(fields[0], 1)
	mods := glyphterm.Modifiers(0)
	if len(fields) > 1 {
		mods = modifiersFromParam(atoiDefault(fields[1], 1))
	}

	switch final {
	case '~':
		if code == 200 {
			d.pasting = true
			return nil, n
		}
		if k, ok := tildeKey(code); ok {
			return keyEvents(glyphterm.KeyEvent{Key: k, Mods: mods}), n
		}
	case 'A', 'B', 'C', 'D', 'H', 'F', 'P', 'Q', 'R', 'S':
		if k, ok := ss3Key(final); ok {
			return keyEvents(glyphterm.KeyEvent{Key: k, Mods: mods}), n
		}
	case 'Z':
		return keyEvents(glyphterm.KeyEvent{Key: glyphterm.KeyTab, Mods: glyphterm.ModShift}), n
	case 'I', 'O':
		if params == "" {
			return []inputEvent{{kind: inputFocus, focus: final == 'I'}}, n
		}
	}
	return passthrough(seq[:n]), n
}

func keyEvents(ev glyphterm.KeyEvent) []inputEvent {
	return []inputEvent{{kind: inputKey, key: ev}}
}

func passthrough(seq []byte) []inputEvent {
	return []inputEvent{{kind: inputText, text: string(seq)}}
}

// keyFromRune maps a single decoded rune, including C0 controls, to a key.
func keyFromRune(r rune) glyphterm.KeyEvent {
	switch {
	case r == '\r':
		return glyphterm.KeyEvent{Key: glyphterm.KeyEnter}
	case r == '\t':
		return glyphterm.KeyEvent{Key: glyphterm.KeyTab}
	case r == 0x7f:
		return glyphterm.KeyEvent{Key: glyphterm.KeyBackspace}
	case r == 0x08:
		return glyphterm.KeyEvent{Key: glyphterm.KeyBackspace, Mods: glyphterm.ModCtrl}
	case r == 0x00:
		return glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: ' ', Mods: glyphterm.ModCtrl}
	case r >= 0x01 && r <= 0x1a:
		return glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: 'a' + r - 1, Mods: glyphterm.ModCtrl}
	case r >= 0x1c && r <= 0x1f:
		return glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: rune("\\]^_"[r-0x1c]), Mods: glyphterm.ModCtrl}
	}
	return glyphterm.KeyEvent{Key: glyphterm.KeyRune, Rune: r}
}

// ss3Key maps the final byte shared by SS3 and CSI cursor/F1-F4 forms.
func ss3Key(b byte) (glyphterm.Key, bool) {
	switch b {
	case 'A':
		return glyphterm.KeyUp, true
	case 'B':
		return glyphterm.KeyDown, true
	case 'C':
		return glyphterm.KeyRight, true
	case 'D':
		return glyphterm.KeyLeft, true
	case 'H':
		return glyphterm.KeyHome, true
	case 'F':
		return glyphterm.KeyEnd, true
	case 'P':
		return glyphterm.KeyF1, true
	case 'Q':
		return glyphterm.KeyF2, true
	case 'R':
		return glyphterm.KeyF3, true
	case 'S':
		return glyphterm.KeyF4, true
	}
	return 0, false
}

func tildeKey(code int) (glyphterm.Key, bool) {
	switch code {
	case 1, 7:
		return glyphterm.KeyHome, true
	case 2:
		return glyphterm.KeyInsert, true
	case 3:
		return glyphterm.KeyDelete, true
	case 4, 8:
		return glyphterm.KeyEnd, true
	case 5:
		return glyphterm.KeyPageUp, true
	case 6:
		return glyphterm.KeyPageDown, true
	case 11, 12, 13, 14, 15:
		return glyphterm.KeyF1 + glyphterm.Key(code-11), true
	case 17, 18, 19, 20, 21:
		return glyphterm.KeyF6 + glyphterm.Key(code-17), true
	case 23, 24:
		return glyphterm.KeyF11 + glyphterm.Key(code-23), true
	}
	return 0, false
}

// modifiersFromParam decodes the xterm modifier parameter (1 + bitset).
func modifiersFromParam(p int) glyphterm.Modifiers {
	bits := p - 1
	var m glyphterm.Modifiers
	if bits&1 != 0 {
		m |= glyphterm.ModShift
	}
	if bits&2 != 0 {
		m |= glyphterm.ModAlt
	}
	if bits&4 != 0 {
		m |= glyphterm.ModCtrl
	}
	return m
}

// parseSGRMouse parses "b;x;y" from CSI < b ; x ; y M|m.
func parseSGRMouse(params string, press bool) (mouseEvent, bool) {
	fields := strings.Split(params, ";")
	if len(fields) != 3 {
		return mouseEvent{}, false
	}
	var v [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return mouseEvent{}, false
		}
		v[i] = n
	}
	b := v[0]
	m := mouseEvent{
		button: b &^ (4 | 8 | 16 | 32),
		col:    v[1] - 1,
		row:    v[2] - 1,
		press:  press,
		motion: b&32 != 0,
	}
	if b&4 != 0 {
		m.mods |= glyphterm.ModShift
	}
	if b&8 != 0 {
		m.mods |= glyphterm.ModAlt
	}
	if b&16 != 0 {
		m.mods |= glyphterm.ModCtrl
	}
	return m, true
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || s == "" {
		return def
	}
	return n
}
