package glyphterm

import (
	"strings"
	"testing"
)

func lastPrint(t *testing.T, events []Event) Print {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if p, ok := events[i].(Print); ok {
			return p
		}
	}
	t.Fatalf("no print event in %#v", events)
	return Print{}
}

func TestParserSGR(t *testing.T) {
	tests := []struct {
		name  string
		input string
		fg    Color
		bg    Color
		attrs Attr
	}{
		{name: "plain", input: "x", fg: DefaultForeground, bg: DefaultBackground},
		{name: "standard fg", input: "\x1b[31mx", fg: StandardColor(1), bg: DefaultBackground},
		{name: "bright fg", input: "\x1b[92mx", fg: StandardColor(10), bg: DefaultBackground},
		{name: "standard bg", input: "\x1b[44mx", fg: DefaultForeground, bg: StandardColor(4)},
		{name: "bright bg", input: "\x1b[107mx", fg: DefaultForeground, bg: StandardColor(15)},
		{name: "palette", input: "\x1b[38;5;196mx", fg: PaletteColor(196), bg: DefaultBackground},
		{name: "palette colon", input: "\x1b[48:5:21mx", fg: DefaultForeground, bg: PaletteColor(21)},
		{name: "truecolor", input: "\x1b[38;2;10;20;30mx", fg: TrueColor(10, 20, 30), bg: DefaultBackground},
		{name: "truecolor colon", input: "\x1b[38:2::1:2:3mx", fg: TrueColor(1, 2, 3), bg: DefaultBackground},
		{name: "default fg", input: "\x1b[31;39mx", fg: DefaultForeground, bg: DefaultBackground},
		{name: "default bg", input: "\x1b[41;49mx", fg: DefaultForeground, bg: DefaultBackground},
		{name: "attributes", input: "\x1b[1;3;4;7;9mx", fg: DefaultForeground, bg: DefaultBackground,
			attrs: AttrBold | AttrItalic | AttrUnderline | AttrInverse | AttrStrikethrough},
		{name: "attributes off", input: "\x1b[1;3;4;7;9m\x1b[22;23;24;27;29mx", fg: DefaultForeground, bg: DefaultBackground},
		{name: "underline 4:0", input: "\x1b[4m\x1b[4:0mx", fg: DefaultForeground, bg: DefaultBackground},
		{name: "reset", input: "\x1b[1;31;42m\x1b[0mx", fg: DefaultForeground, bg: DefaultBackground},
		{name: "empty reset", input: "\x1b[1;31m\x1b[mx", fg: DefaultForeground, bg: DefaultBackground},
		{name: "truncated extended", input: "\x1b[38;5mx", fg: DefaultForeground, bg: DefaultBackground},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := lastPrint(t, NewParser().FeedString(tc.input))
			if p.Char != 'x' {
				t.Fatalf("char = %q, want x", p.Char)
			}
			if p.Style.Foreground != tc.fg {
				t.Fatalf("fg = %+v, want %+v", p.Style.Foreground, tc.fg)
			}
			if p.Style.Background != tc.bg {
				t.Fatalf("bg = %+v, want %+v", p.Style.Background, tc.bg)
			}
			if p.Style.Attrs != tc.attrs {
				t.Fatalf("attrs = %b, want %b", p.Style.Attrs, tc.attrs)
			}
		})
	}
}

func TestParserCursorAndErase(t *testing.T) {
	events := NewParser().FeedString("\x1b[5;10H\x1b[2J\x1b[K\x1b[3A\x1b[?25l\x1b[5 q")
	want := []Event{
		CursorPosition{Row: 4, Col: 9},
		EraseDisplay{Mode: EraseAll, Bg: DefaultBackground},
		EraseLine{Mode: EraseToEnd, Bg: DefaultBackground},
		CursorMove{Rows: -3},
		SetMode{Mode: ModeCursorVisible, On: false},
		SetCursorShape{Shape: CursorBar, Blink: true},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %#v, want %#v", i, events[i], want[i])
		}
	}
}

func TestParserOSC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Event
	}{
		{name: "title bel", input: "\x1b]0;hello\x07", want: SetTitle{Title: "hello"}},
		{name: "title st", input: "\x1b]2;world\x1b\\", want: SetTitle{Title: "world"}},
		{name: "osc 7", input: "\x1b]7;file://host/home/user/src\x1b\\", want: SetWorkingDirectory{Path: "/home/user/src"}},
		{name: "osc 633", input: "\x1b]633;CWD=/tmp/work\x07", want: SetWorkingDirectory{Path: "/tmp/work"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			events := NewParser().FeedString(tc.input)
			if len(events) != 1 || events[0] != tc.want {
				t.Fatalf("events = %#v, want [%#v]", events, tc.want)
			}
		})
	}
}

func TestParserIgnoresUnknownOSC(t *testing.T) {
	events := NewParser().FeedString("\x1b]633;A\x07\x1b]7;http://x/y\x07\x1b]1337;x\x07ok")
	if len(events) != 2 {
		t.Fatalf("events = %#v, want two prints", events)
	}
}

func TestParserBoundsOSCNumber(t *testing.T) {
	p := NewParser()
	events := p.FeedString("\x1b]" + strings.Repeat("7", 100000) + ";title\x07ok")
	if p.oscNumber.Len() > maxOSCNumber {
		t.Fatalf("osc number grew to %d digits", p.oscNumber.Len())
	}
	if len(events) != 2 {
		t.Fatalf("events = %#v, want two prints", events)
	}
	events = p.FeedString("\x1b]2;next\x07")
	if len(events) != 1 || events[0] != (SetTitle{Title: "next"}) {
		t.Fatalf("events after long osc = %#v", events)
	}
}

func TestParserSplitSequences(t *testing.T) {
	p := NewParser()
	var events []Event
	for _, chunk := range []string{"\x1b", "[3", "1m", "\xe6\x97", "\xa5"} {
		events = append(events, p.FeedString(chunk)...)
	}
	got := lastPrint(t, events)
	if got.Char != '日' || got.Style.Foreground != StandardColor(1) {
		t.Fatalf("print = %+v, want red 日", got)
	}
}

func TestParserReset(t *testing.T) {
	p := NewParser()
	events := p.FeedString("\x1b[1;31m\x1bc")
	if len(events) != 1 {
		t.Fatalf("events = %#v, want [Reset]", events)
	}
	if _, ok := events[0].(Reset); !ok {
		t.Fatalf("event = %#v, want Reset", events[0])
	}
	if p.Pen() != DefaultStyle() {
		t.Fatalf("pen survived reset: %+v", p.Pen())
	}
}

func TestParserResize(t *testing.T) {
	events := NewParser().FeedString("\x1b[8;30;100t\x1b[8;;120t")
	want := []Event{Resize{Cols: 100, Rows: 30}, Resize{Cols: 120, Rows: 0}}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
}
