package glyphterm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultOutputLogLines is the default captured log capacity.
const DefaultOutputLogLines = 2000

// Direction tells whether a captured line was read from or sent to the child.
type Direction int

const (
	DirectionOutput Direction = iota
	DirectionInput
)

// LogLine is one escaped line of the raw stream.
type LogLine struct {
	Direction Direction
	Text      string
}

// OutputLog captures the raw byte stream as printable lines for a
// devtools view. Control bytes are escaped; output is split at newlines.
// The oldest lines are evicted once the capacity is reached.
type OutputLog struct {
	lines   []LogLine
	head    int
	length  int
	pending strings.Builder
	carry   []byte // incomplete UTF-8 sequence from the previous chunk
}

// NewOutputLog creates a log holding at most capacity lines.
func NewOutputLog(capacity int) *OutputLog {
	if capacity <= 0 {
		capacity = DefaultOutputLogLines
	}
	return &OutputLog{lines: make([]LogLine, capacity)}
}

// Len returns the number of retained lines.
func (l *OutputLog) Len() int {
	return l.length
}

// Lines returns a copy of the retained lines, oldest first, followed by
// the unterminated output line if any.
func (l *OutputLog) Lines() []LogLine {
	out := make([]LogLine, 0, l.length+1)
	for i := 0; i < l.length; i++ {
		out = append(out, l.lines[(l.head+i)%len(l.lines)])
	}
	if l.pending.Len() > 0 {
		out = append(out, LogLine{Direction: DirectionOutput, Text: l.pending.String()})
	}
	return out
}

// AppendOutput records bytes read from the child.
func (l *OutputLog) AppendOutput(data []byte) {
	if len(l.carry) > 0 {
		data = append(l.carry, data...)
		l.carry = nil
	}
	for len(data) > 0 {
		b := data[0]
		if b < utf8.RuneSelf {
			if b == '\n' {
				l.pending.WriteString(`\n`)
				l.push(DirectionOutput, l.pending.String())
				l.pending.Reset()
			} else {
				writeEscapedByte(&l.pending, b, true)
			}
			data = data[1:]
			continue
		}
		if !utf8.FullRune(data) {
			l.carry = append([]byte(nil), data...)
			return
		}
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&l.pending, `\x%02X`, b)
		} else {
			l.pending.WriteRune(r)
		}
		data = data[size:]
	}
}

// AppendInput records bytes sent to the child as a single line.
func (l *OutputLog) AppendInput(data []byte) {
	var sb strings.Builder
	for _, b := range data {
		switch {
		case b == '\n':
			sb.WriteString(`\n`)
		case b >= 0x20 && b <= 0x7E:
			sb.WriteByte(b)
		default:
			writeEscapedByte(&sb, b, false)
		}
	}
	l.push(DirectionInput, sb.String())
}

func writeEscapedByte(sb *strings.Builder, b byte, unicodeForm bool) {
	switch {
	case b == '\r':
		sb.WriteString(`\r`)
	case b == '\t':
		sb.WriteString(`\t`)
	case b == 0x1B:
		sb.WriteString(`\x1b`)
	case b >= 0x20 && b <= 0x7E:
		sb.WriteByte(b)
	case unicodeForm:
		fmt.Fprintf(sb, `\u{%04X}`, b)
	default:
		fmt.Fprintf(sb, `\x%02X`, b)
	}
}

func (l *OutputLog) push(dir Direction, text string) {
	if l.length == len(l.lines) {
		l.lines[l.head] = LogLine{Direction: dir, Text: text}
		l.head = (l.head + 1) % len(l.lines)
		return
	}
	l.lines[(l.head+l.length)%len(l.lines)] = LogLine{Direction: dir, Text: text}
	l.length++
}
