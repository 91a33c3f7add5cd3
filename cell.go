package glyphterm

import "github.com/mattn/go-runewidth"

// Attr is the attribute bitset of a cell.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrUnderline
	AttrInverse
	AttrStrikethrough
	AttrWide             // first half of a double-width glyph
	AttrWideContinuation // second half; carries no glyph of its own
)

// Has reports whether all bits in mask are set.
func (a Attr) Has(mask Attr) bool {
	return a&mask == mask
}

// Style is the pen applied to printed cells.
type Style struct {
	Foreground Color
	Background Color
	Attrs      Attr
}

// DefaultStyle returns the pen after SGR 0.
func DefaultStyle() Style {
	return Style{Foreground: DefaultForeground, Background: DefaultBackground}
}

// Cell represents a single character cell in the terminal.
// A zero Char means the cell is empty.
type Cell struct {
	Char       rune
	Foreground Color
	Background Color
	Attrs      Attr
}

// EmptyCell returns a blank cell with default colors
func EmptyCell() Cell {
	return Cell{Foreground: DefaultForeground, Background: DefaultBackground}
}

// EmptyCellWithBackground returns a blank cell carrying the given
// background, as produced by erase operations under a colored pen.
func EmptyCellWithBackground(bg Color) Cell {
	return Cell{Foreground: DefaultForeground, Background: bg}
}

// IsEmpty reports whether the cell has no glyph.
func (c Cell) IsEmpty() bool {
	return c.Char == 0 || c.Char == ' '
}

// Glyph returns the character to draw, mapping the empty cell to a space.
func (c Cell) Glyph() rune {
	if c.Char == 0 {
		return ' '
	}
	return c.Char
}

// Row is one line of cells.
type Row struct {
	Cells []Cell
	// Wrapped marks a row whose content continues on the next row because
	// the cursor auto-wrapped at the right margin.
	Wrapped bool
}

// Text returns the row's glyphs with trailing blanks trimmed.
func (r Row) Text() string {
	return rowText(r.Cells, 0, len(r.Cells))
}

// CharWidth returns the number of cells r occupies: 0 for combining and
// zero-width runes, 2 for East Asian wide and emoji, 1 otherwise.
func CharWidth(r rune) int {
	if r < 0x20 {
		return 0
	}
	if r < 0x7F {
		return 1
	}
	return runewidth.RuneWidth(r)
}

// fitCells truncates or pads cells to cols, reusing its storage. A wide
// glyph cut in half at the new margin becomes a blank.
func fitCells(cells []Cell, cols int) []Cell {
	if len(cells) > cols {
		cells = cells[:cols]
		if last := cells[cols-1]; last.Attrs.Has(AttrWide) {
			cells[cols-1] = EmptyCellWithBackground(last.Background)
		}
		return cells
	}
	for len(cells) < cols {
		cells = append(cells, EmptyCell())
	}
	return cells
}

func rowText(cells []Cell, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(cells) {
		to = len(cells)
	}
	if from > to {
		from = to
	}
	buf := make([]rune, 0, to-from)
	for x := from; x < to; x++ {
		c := cells[x]
		if c.Attrs.Has(AttrWideContinuation) {
			continue
		}
		buf = append(buf, c.Glyph())
	}
	end := len(buf)
	for end > 0 && buf[end-1] == ' ' {
		end--
	}
	return string(buf[:end])
}
