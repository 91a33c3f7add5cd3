package cli

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/app"
	"github.com/phroun/glyphterm/geometry"
)

func TestColorSGR(t *testing.T) {
	tests := []struct {
		name  string
		c     glyphterm.Color
		fg    bool
		depth int
		want  string
	}{
		{name: "default fg", c: glyphterm.DefaultForeground, fg: true, depth: 24, want: "39"},
		{name: "default bg", c: glyphterm.DefaultBackground, depth: 24, want: "49"},
		{name: "standard", c: glyphterm.StandardColor(1), fg: true, depth: 16, want: "31"},
		{name: "bright", c: glyphterm.StandardColor(9), fg: true, depth: 16, want: "91"},
		{name: "bright on 8 colors", c: glyphterm.StandardColor(9), fg: true, depth: 8, want: "31"},
		{name: "low palette bg", c: glyphterm.PaletteColor(3), depth: 256, want: "43"},
		{name: "palette", c: glyphterm.PaletteColor(196), fg: true, depth: 256, want: "38;5;196"},
		{name: "palette on truecolor", c: glyphterm.PaletteColor(196), fg: true, depth: 24, want: "38;5;196"},
		{name: "palette on 16", c: glyphterm.PaletteColor(196), fg: true, depth: 16, want: "31"},
		{name: "truecolor", c: glyphterm.TrueColor(10, 20, 30), fg: true, depth: 24, want: "38;2;10;20;30"},
		{name: "truecolor bg", c: glyphterm.TrueColor(10, 20, 30), depth: 24, want: "48;2;10;20;30"},
		{name: "truecolor on 256", c: glyphterm.TrueColor(255, 128, 0), fg: true, depth: 256, want: "38;5;208"},
		{name: "truecolor on 16", c: glyphterm.TrueColor(10, 20, 30), fg: true, depth: 16, want: "30"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := colorSGR(tc.c, tc.fg, tc.depth); got != tc.want {
				t.Fatalf("colorSGR = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCursorShapeParam(t *testing.T) {
	tests := []struct {
		cursor glyphterm.Cursor
		want   int
	}{
		{glyphterm.Cursor{Shape: glyphterm.CursorBlock}, 2},
		{glyphterm.Cursor{Shape: glyphterm.CursorBlock, Blink: true}, 1},
		{glyphterm.Cursor{Shape: glyphterm.CursorUnderline}, 4},
		{glyphterm.Cursor{Shape: glyphterm.CursorBar, Blink: true}, 5},
	}
	for _, tc := range tests {
		if got := cursorShapeParam(tc.cursor); got != tc.want {
			t.Fatalf("cursorShapeParam(%+v) = %d, want %d", tc.cursor, got, tc.want)
		}
	}
}

func TestScrollThumb(t *testing.T) {
	tests := []struct {
		offset, maxScroll, rows, want int
	}{
		{0, 10, 5, -1},
		{10, 10, 5, 0},
		{5, 10, 5, 2},
		{1, 10, 5, 3},
		{3, 0, 5, -1},
	}
	for _, tc := range tests {
		if got := scrollThumb(tc.offset, tc.maxScroll, tc.rows); got != tc.want {
			t.Fatalf("scrollThumb(%d, %d, %d) = %d, want %d", tc.offset, tc.maxScroll, tc.rows, got, tc.want)
		}
	}
}

func viewOf(b *glyphterm.Buffer) app.View {
	_, rows := b.Size()
	visible := b.VisibleRows(0, rows)
	return app.View{
		Rows:      visible,
		FirstRow:  b.FirstLogicalRow() + b.LogicalRowCount() - len(visible),
		Cursor:    b.Cursor(),
		CursorRow: b.CursorLogicalRow(),
		CursorOn:  true,
	}
}

func stateOf(b *glyphterm.Buffer) frameState {
	cols, rows := b.Size()
	return frameState{
		view:    viewOf(b),
		status:  app.Status{Session: glyphterm.Connected(), Cols: cols, Rows: rows},
		focused: true,
	}
}

func TestRendererDiffsFrames(t *testing.T) {
	b := glyphterm.NewBuffer(5, 2, glyphterm.BufferOptions{})
	b.Write([]byte("hi"))
	r := NewRenderer(nil, Capabilities{ColorDepth: 256}, Options{})

	first := r.frame(stateOf(b))
	if !strings.Contains(first, "\033[2J") {
		t.Fatalf("first frame is not a full render: %q", first)
	}
	if !strings.Contains(first, "\033[1;1H\033[0;39;49mh\033[1;2Hi") {
		t.Fatalf("first frame = %q", first)
	}
	if !strings.HasSuffix(first, "\033[1 q\033[1;3H\033[?25h") {
		t.Fatalf("cursor not placed after row text: %q", first)
	}

	if again := r.frame(stateOf(b)); again != "" {
		t.Fatalf("unchanged frame wrote %q", again)
	}

	b.Write([]byte("!"))
	next := r.frame(stateOf(b))
	if strings.Contains(next, "\033[2J") || strings.Contains(next, "\033[1;1H") {
		t.Fatalf("incremental frame repainted unchanged cells: %q", next)
	}
	if !strings.Contains(next, "\033[1;3H\033[0;39;49m!") || !strings.HasSuffix(next, "\033[1;4H\033[?25h") {
		t.Fatalf("incremental frame = %q", next)
	}

	r.ForceFullRedraw()
	if full := r.frame(stateOf(b)); !strings.Contains(full, "\033[2J") {
		t.Fatalf("forced frame is not a full render: %q", full)
	}
}

func TestRendererFullRedrawOnResize(t *testing.T) {
	b := glyphterm.NewBuffer(5, 2, glyphterm.BufferOptions{})
	r := NewRenderer(nil, Capabilities{ColorDepth: 256}, Options{})
	r.frame(stateOf(b))
	b.Resize(6, 2)
	if got := r.frame(stateOf(b)); !strings.Contains(got, "\033[2J") {
		t.Fatalf("resized frame is not a full render: %q", got)
	}
}

func TestRendererSelectionAndFocus(t *testing.T) {
	b := glyphterm.NewBuffer(5, 1, glyphterm.BufferOptions{})
	b.Write([]byte("ab"))
	fs := stateOf(b)
	fs.view.Selection = geometry.Selection{
		Start: glyphterm.Position{Row: 0, Col: 0},
		End:   glyphterm.Position{Row: 0, Col: 1},
		Valid: true,
	}
	fs.focused = false
	r := NewRenderer(nil, Capabilities{ColorDepth: 256}, Options{})
	out := r.frame(fs)
	if !strings.Contains(out, "\033[0;7;39;49ma") {
		t.Fatalf("selected cell not reversed: %q", out)
	}
	if strings.Contains(out, "\033[?25h") {
		t.Fatalf("cursor shown while unfocused: %q", out)
	}
}

func TestRendererBorderAndStatusBar(t *testing.T) {
	b := glyphterm.NewBuffer(30, 3, glyphterm.BufferOptions{})
	r := NewRenderer(nil, Capabilities{ColorDepth: 256}, Options{
		BorderStyle:   BorderRounded,
		Title:         "glyphterm",
		ShowStatusBar: true,
	})
	if cols, rows := r.chrome(); cols != 2 || rows != 3 {
		t.Fatalf("chrome = %d,%d, want 2,3", cols, rows)
	}
	out := r.frame(stateOf(b))
	for _, want := range []string{"╭", "├ glyphterm ┤", "╰", "\033[6;1H\033[0;7m connected | 30x3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("frame missing %q: %q", want, out)
		}
	}
	if !strings.Contains(out, "\033[2;2H") {
		t.Fatalf("content not offset by the border: %q", out)
	}
}

func TestStatusText(t *testing.T) {
	r := NewRenderer(nil, Capabilities{}, Options{ShowStatusBar: true})
	fs := frameState{
		status:    app.Status{Session: glyphterm.Exited(0), Cols: 80, Rows: 24, ScrollOffset: 5},
		maxScroll: 10,
		hint:      "r: reconnect  q: quit",
	}
	got := r.statusText(fs, 100)
	want := " exited (code 0)  [scrolled] 50% | 80x24 | r: reconnect  q: quit"
	if !strings.HasPrefix(got, want) || runewidth.StringWidth(got) != 100 {
		t.Fatalf("status = %q", got)
	}
	if short := r.statusText(fs, 10); runewidth.StringWidth(short) != 10 || !strings.HasSuffix(short, "…") {
		t.Fatalf("truncated status = %q", short)
	}
}
