package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/app"
)

// frameState is everything the renderer draws for one frame.
type frameState struct {
	view      app.View
	status    app.Status
	maxScroll int
	hint      string // appended to the status bar
	focused   bool
}

// Renderer draws an app.View into the host terminal with ANSI sequences,
// rewriting only the cells that changed since the previous frame.
type Renderer struct {
	out   io.Writer
	caps  Capabilities
	style BorderStyle
	title string

	statusBar bool

	// Previous frame for differential rendering
	lastCells  [][]renderedCell
	lastBorder string
	lastStatus string
	lastCursor cursorState

	// Output buffer for batching writes
	output strings.Builder

	borderChars borderCharSet
}

// renderedCell stores the last rendered state of a cell for diff comparison
type renderedCell struct {
	char     rune
	fg, bg   glyphterm.Color
	attrs    glyphterm.Attr
	selected bool
}

func (c renderedCell) sameStyle(o renderedCell) bool {
	return c.fg == o.fg && c.bg == o.bg && c.attrs&styleAttrs == o.attrs&styleAttrs && c.selected == o.selected
}

const styleAttrs = glyphterm.AttrBold | glyphterm.AttrItalic | glyphterm.AttrUnderline |
	glyphterm.AttrInverse | glyphterm.AttrStrikethrough

type cursorState struct {
	x, y    int
	visible bool
	shape   int // DECSCUSR parameter
}

// borderCharSet contains the characters for drawing borders
type borderCharSet struct {
	topLeft     rune
	topRight    rune
	bottomLeft  rune
	bottomRight rune
	horizontal  rune
	vertical    rune
	titleLeft   rune
	titleRight  rune
}

var borderStyles = map[BorderStyle]borderCharSet{
	BorderSingle: {
		topLeft: '┌', topRight: '┐', bottomLeft: '└', bottomRight: '┘',
		horizontal: '─', vertical: '│', titleLeft: '┤', titleRight: '├',
	},
	BorderDouble: {
		topLeft: '╔', topRight: '╗', bottomLeft: '╚', bottomRight: '╝',
		horizontal: '═', vertical: '║', titleLeft: '╡', titleRight: '╞',
	},
	BorderHeavy: {
		topLeft: '┏', topRight: '┓', bottomLeft: '┗', bottomRight: '┛',
		horizontal: '━', vertical: '┃', titleLeft: '┫', titleRight: '┣',
	},
	BorderRounded: {
		topLeft: '╭', topRight: '╮', bottomLeft: '╰', bottomRight: '╯',
		horizontal: '─', vertical: '│', titleLeft: '┤', titleRight: '├',
	},
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, caps Capabilities, opts Options) *Renderer {
	r := &Renderer{
		out:       out,
		caps:      caps,
		style:     opts.BorderStyle,
		title:     opts.Title,
		statusBar: opts.ShowStatusBar,
	}
	if r.style != BorderNone {
		r.borderChars = borderStyles[r.style]
	}
	return r
}

// contentOrigin returns the zero-based host cell of grid cell (0, 0).
func (r *Renderer) contentOrigin() (x, y int) {
	if r.style != BorderNone {
		return 1, 1
	}
	return 0, 0
}

// chrome returns the host cells taken by the border and status bar.
func (r *Renderer) chrome() (cols, rows int) {
	if r.style != BorderNone {
		cols, rows = 2, 2
	}
	if r.statusBar {
		rows++
	}
	return cols, rows
}

// ForceFullRedraw clears the cached state so the next frame repaints everything.
func (r *Renderer) ForceFullRedraw() {
	r.lastCells = nil
	r.lastBorder = ""
	r.lastStatus = ""
	r.lastCursor = cursorState{}
}

// Render draws fs and flushes it to the host.
func (r *Renderer) Render(fs frameState) error {
	s := r.frame(fs)
	if s == "" {
		return nil
	}
	_, err := io.WriteString(r.out, s)
	return err
}

// frame renders fs differentially and returns the bytes to write, or ""
// when nothing changed.
func (r *Renderer) frame(fs frameState) string {
	v := fs.view
	cols, rows := fs.status.Cols, fs.status.Rows
	cx, cy := r.contentOrigin()

	r.output.Reset()
	changed := false

	prevCells := r.lastCells
	needsFullRender := prevCells == nil || len(prevCells) != rows ||
		(rows > 0 && len(prevCells[0]) != cols)
	if needsFullRender {
		r.output.WriteString("\033[0m\033[2J")
		r.lastBorder = ""
		r.lastStatus = ""
		changed = true
	}

	if r.style != BorderNone {
		if key := r.borderKey(fs, rows); key != r.lastBorder {
			r.renderBorder(cols, rows, r.borderTitle(fs), fs.view.ScrollOffset, fs.maxScroll)
			r.lastBorder = key
			changed = true
		}
	}

	newCells := make([][]renderedCell, rows)
	var current renderedCell
	haveCurrent := false
	for y := 0; y < rows; y++ {
		newCells[y] = make([]renderedCell, cols)
		var cells []glyphterm.Cell
		if y < len(v.Rows) {
			cells = v.Rows[y].Cells
		}
		rowChanged := needsFullRender
		for x := 0; x < cols; x++ {
			cell := glyphterm.EmptyCell()
			if x < len(cells) {
				cell = cells[x]
			}
			rc := renderedCell{
				char:     cell.Glyph(),
				fg:       cell.Foreground,
				bg:       cell.Background,
				attrs:    cell.Attrs,
				selected: v.Selection.Contains(v.FirstRow+y, x),
			}
			newCells[y][x] = rc

			// The host draws the continuation half with the wide glyph.
			if cell.Attrs.Has(glyphterm.AttrWideContinuation) {
				continue
			}
			if !rowChanged && prevCells[y][x] == rc {
				continue
			}
			changed = true

			fmt.Fprintf(&r.output, "\033[%d;%dH", cy+y+1, cx+x+1)
			if !haveCurrent || !current.sameStyle(rc) {
				r.output.WriteString(r.sgr(rc))
				current = rc
				haveCurrent = true
			}
			r.output.WriteRune(rc.char)
		}
	}
	r.lastCells = newCells

	if r.statusBar {
		// The status bar sits below the bottom border, spanning it.
		width, line := cols, rows+1
		if r.style != BorderNone {
			width, line = cols+2, rows+3
		}
		text := r.statusText(fs, width)
		if text != r.lastStatus {
			fmt.Fprintf(&r.output, "\033[%d;1H\033[0;7m", line)
			r.output.WriteString(text)
			r.output.WriteString("\033[27m")
			r.lastStatus = text
			changed = true
		}
	}

	cur := cursorState{}
	if y := v.CursorScreenRow(); y >= 0 && fs.focused {
		cur = cursorState{x: cx + v.Cursor.Col, y: cy + y, visible: true, shape: cursorShapeParam(v.Cursor)}
	}
	if !changed && cur == r.lastCursor {
		return ""
	}

	out := "\033[?25l" + r.output.String() + "\033[0m"
	if cur.visible {
		out += fmt.Sprintf("\033[%d q\033[%d;%dH\033[?25h", cur.shape, cur.y+1, cur.x+1)
	}
	r.lastCursor = cur
	return out
}

// sgr returns the full SGR sequence for a cell's style.
func (r *Renderer) sgr(c renderedCell) string {
	params := []string{"0"}
	if c.attrs.Has(glyphterm.AttrBold) {
		params = append(params, "1")
	}
	if c.attrs.Has(glyphterm.AttrItalic) {
		params = append(params, "3")
	}
	if c.attrs.Has(glyphterm.AttrUnderline) {
		params = append(params, "4")
	}
	// Selection shows as reverse video on top of the cell's own inverse.
	if c.attrs.Has(glyphterm.AttrInverse) != c.selected {
		params = append(params, "7")
	}
	if c.attrs.Has(glyphterm.AttrStrikethrough) {
		params = append(params, "9")
	}
	params = append(params, colorSGR(c.fg, true, r.caps.ColorDepth), colorSGR(c.bg, false, r.caps.ColorDepth))
	return "\033[" + strings.Join(params, ";") + "m"
}

// colorSGR encodes c as an SGR parameter, downsampled to the host's depth.
func colorSGR(c glyphterm.Color, fg bool, depth int) string {
	base := 30
	if !fg {
		base = 40
	}
	truecolor := depth == 24
	palette := truecolor || depth >= 256
	switch c.Type {
	case glyphterm.ColorTypeDefault:
		return strconv.Itoa(base + 9)
	case glyphterm.ColorTypeStandard:
		return ansi16SGR(int(c.Index), base, depth)
	case glyphterm.ColorTypePalette:
		if c.Index < 16 {
			return ansi16SGR(int(c.Index), base, depth)
		}
		if palette {
			return fmt.Sprintf("%d;5;%d", base+8, c.Index)
		}
	case glyphterm.ColorTypeTrueColor:
		switch {
		case truecolor:
			return fmt.Sprintf("%d;2;%d;%d;%d", base+8, c.R, c.G, c.B)
		case palette:
			return fmt.Sprintf("%d;5;%d", base+8, nearest256(c.RGB()))
		}
	}
	return ansi16SGR(nearest16(c.RGB()), base, depth)
}

func ansi16SGR(idx, base, depth int) string {
	if idx < 8 {
		return strconv.Itoa(base + idx)
	}
	if depth < 16 {
		return strconv.Itoa(base + idx - 8)
	}
	return strconv.Itoa(base + 60 + idx - 8)
}

// nearest256 maps a color onto the 6x6x6 cube of the 256-color palette.
func nearest256(c glyphterm.RGB) int {
	level := func(v uint8) int {
		switch {
		case v < 48:
			return 0
		case v < 115:
			return 1
		default:
			return (int(v) - 35) / 40
		}
	}
	return 16 + 36*level(c.R) + 6*level(c.G) + level(c.B)
}

func nearest16(c glyphterm.RGB) int {
	best, bestDist := 0, -1
	for i, p := range glyphterm.ANSIColorsRGB {
		dr, dg, db := int(c.R)-int(p.R), int(c.G)-int(p.G), int(c.B)-int(p.B)
		if d := dr*dr + dg*dg + db*db; bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// cursorShapeParam returns the DECSCUSR parameter for the cursor.
func cursorShapeParam(c glyphterm.Cursor) int {
	n := 2
	switch c.Shape {
	case glyphterm.CursorUnderline:
		n = 4
	case glyphterm.CursorBar:
		n = 6
	}
	if c.Blink {
		n--
	}
	return n
}

func (r *Renderer) borderTitle(fs frameState) string {
	if fs.status.Title != "" {
		return fs.status.Title
	}
	return r.title
}

func (r *Renderer) borderKey(fs frameState, rows int) string {
	return fmt.Sprintf("%s|%d|%d|%d|%d", r.borderTitle(fs), fs.status.Cols, rows,
		scrollThumb(fs.view.ScrollOffset, fs.maxScroll, rows), fs.view.ScrollOffset)
}

// scrollThumb returns the border row of the scrollbar thumb, or -1.
func scrollThumb(offset, maxScroll, rows int) int {
	if offset <= 0 || maxScroll <= 0 || rows <= 0 {
		return -1
	}
	pos := float64(maxScroll-offset) / float64(maxScroll)
	return int(pos * float64(rows-1))
}

// renderBorder draws the terminal window border
func (r *Renderer) renderBorder(innerCols, innerRows int, title string, scrollOffset, maxScroll int) {
	bc := r.borderChars
	totalWidth := innerCols + 2

	// Top border
	r.output.WriteString("\033[1;1H\033[0m")
	r.output.WriteRune(bc.topLeft)

	title = runewidth.Truncate(title, max(0, innerCols-6), "…")
	if tw := runewidth.StringWidth(title); title != "" && tw < innerCols-4 {
		padding := (innerCols - tw - 4) / 2
		r.output.WriteString(strings.Repeat(string(bc.horizontal), padding))
		r.output.WriteRune(bc.titleRight)
		r.output.WriteString(" " + title + " ")
		r.output.WriteRune(bc.titleLeft)
		r.output.WriteString(strings.Repeat(string(bc.horizontal), innerCols-padding-tw-4))
	} else {
		r.output.WriteString(strings.Repeat(string(bc.horizontal), innerCols))
	}
	r.output.WriteRune(bc.topRight)

	thumb := scrollThumb(scrollOffset, maxScroll, innerRows)
	for row := 0; row < innerRows; row++ {
		fmt.Fprintf(&r.output, "\033[%d;1H", row+2)
		r.output.WriteRune(bc.vertical)

		// Right border doubles as the scrollbar.
		fmt.Fprintf(&r.output, "\033[%d;%dH", row+2, totalWidth)
		if row == thumb {
			r.output.WriteString("\033[7m")
			r.output.WriteRune(bc.vertical)
			r.output.WriteString("\033[27m")
		} else {
			r.output.WriteRune(bc.vertical)
		}
	}

	// Bottom border
	fmt.Fprintf(&r.output, "\033[%d;1H", innerRows+2)
	r.output.WriteRune(bc.bottomLeft)
	r.output.WriteString(strings.Repeat(string(bc.horizontal), innerCols))
	r.output.WriteRune(bc.bottomRight)
}

// statusText builds the status bar padded to width.
func (r *Renderer) statusText(fs frameState, width int) string {
	st := fs.status
	text := " " + st.Text()
	if st.ScrollOffset > 0 && fs.maxScroll > 0 {
		text += fmt.Sprintf(" %d%%", 100-st.ScrollOffset*100/fs.maxScroll)
	}
	text += fmt.Sprintf(" | %dx%d", st.Cols, st.Rows)
	if fs.hint != "" {
		text += " | " + fs.hint
	}
	text = runewidth.Truncate(text, width, "…")
	return runewidth.FillRight(text, width)
}

// RenderToString renders one complete frame of a, ignoring any previous
// frame. It is used for snapshots and embedding.
func RenderToString(a *app.App, caps Capabilities, opts Options, now time.Time) string {
	r := NewRenderer(io.Discard, caps, opts)
	return r.frame(stateFor(a, now, true))
}
