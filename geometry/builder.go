// Package geometry turns the visible terminal window into vertex streams
// for a GPU pipeline: solid-color quads for backgrounds and overlays, and
// textured quads sampling a single-channel glyph atlas.
//
// Coordinates are pixels with the origin at the top-left of the pane.
// Conversion to device coordinates belongs to the renderer.
package geometry

import glyphterm "github.com/phroun/glyphterm"

// VerticesPerQuad is the number of vertices emitted per quad (two triangles).
const VerticesPerQuad = 6

// ColorVertex is a vertex of a solid-color quad.
type ColorVertex struct {
	Position [2]float32
	Color    [4]float32
}

// GlyphVertex is a vertex of a glyph quad. Color is the glyph tint.
type GlyphVertex struct {
	Position [2]float32
	UV       [2]float32
	Color    [4]float32
}

// Selection is a normalized logical range, start inclusive and end exclusive.
type Selection struct {
	Start, End glyphterm.Position
	Valid      bool
}

// Contains reports whether the cell at logical row, col is inside s.
func (s Selection) Contains(row, col int) bool {
	if !s.Valid || row < s.Start.Row || row > s.End.Row {
		return false
	}
	if row == s.Start.Row && col < s.Start.Col {
		return false
	}
	if row == s.End.Row && col >= s.End.Col {
		return false
	}
	return true
}

// Input is a consistent snapshot of everything a frame depends on.
type Input struct {
	Rows     []glyphterm.Row
	FirstRow int // logical index of Rows[0]

	Cursor    glyphterm.Cursor
	CursorRow int  // logical row of the cursor
	CursorOn  bool // blink phase; false hides a blinking cursor

	Selection    Selection
	ScrollOffset int

	Glyphs GlyphProvider
	Scheme glyphterm.ColorScheme
}

// Output holds the two vertex streams of one frame.
type Output struct {
	Colors []ColorVertex
	Glyphs []GlyphVertex
}

// Reset empties both streams, keeping their storage.
func (o *Output) Reset() {
	o.Colors = o.Colors[:0]
	o.Glyphs = o.Glyphs[:0]
}

// ColorQuads returns the number of color quads.
func (o Output) ColorQuads() int {
	return len(o.Colors) / VerticesPerQuad
}

// GlyphQuads returns the number of glyph quads.
func (o Output) GlyphQuads() int {
	return len(o.Glyphs) / VerticesPerQuad
}

// Build produces the vertex streams for in. Identical inputs always
// produce identical output.
func Build(in Input) Output {
	var out Output
	BuildInto(in, &out)
	return out
}

// BuildInto is Build reusing the storage of out.
//
// Per row and column the color stream holds the cell background (only
// when it differs from the scheme background), then the selection
// highlight, then underline and strikethrough bars. The cursor quad comes
// last and only at scroll offset zero.
func BuildInto(in Input, out *Output) {
	out.Reset()
	if in.Glyphs == nil {
		return
	}
	cw, ch := in.Glyphs.CellSize()
	base := in.Scheme.Background
	selBg := in.Scheme.Selection.Float()
	selFg := in.Scheme.SelectionForeground.Float()

	cursorScreen := -1
	drawCursor := in.ScrollOffset == 0 && in.Cursor.Visible && (in.CursorOn || !in.Cursor.Blink)
	if drawCursor {
		cursorScreen = in.CursorRow - in.FirstRow
		if cursorScreen < 0 || cursorScreen >= len(in.Rows) {
			drawCursor = false
		}
	}

	for y, row := range in.Rows {
		logical := in.FirstRow + y
		top := float32(y) * ch
		for x := 0; x < len(row.Cells); x++ {
			cell := row.Cells[x]
			if cell.Attrs.Has(glyphterm.AttrWideContinuation) {
				continue
			}
			span := 1
			if cell.Attrs.Has(glyphterm.AttrWide) && x+1 < len(row.Cells) {
				span = 2
			}
			left := float32(x) * cw
			right := left + float32(span)*cw

			fg := in.Scheme.ResolveColor(cell.Foreground, true)
			bg := in.Scheme.ResolveColor(cell.Background, false)
			if cell.Attrs.Has(glyphterm.AttrInverse) {
				fg, bg = bg, fg
			}
			if bg.RGB() != base.RGB() {
				out.Colors = appendColorQuad(out.Colors, left, top, right, top+ch, bg.Float())
			}
			tint := fg.Float()
			if in.Selection.Contains(logical, x) {
				out.Colors = appendColorQuad(out.Colors, left, top, right, top+ch, selBg)
				tint = selFg
			}
			if cell.Attrs.Has(glyphterm.AttrUnderline) {
				h := max(1, ch/16)
				out.Colors = appendColorQuad(out.Colors, left, top+ch-h, right, top+ch, tint)
			}
			if cell.Attrs.Has(glyphterm.AttrStrikethrough) {
				h := max(1, ch/16)
				mid := top + ch/2
				out.Colors = appendColorQuad(out.Colors, left, mid-h/2, right, mid+h/2, tint)
			}

			if cell.IsEmpty() {
				continue
			}
			g, ok := in.Glyphs.Glyph(cell.Char)
			if !ok {
				continue
			}
			if drawCursor && y == cursorScreen && x == in.Cursor.Col && in.Cursor.Shape == glyphterm.CursorBlock {
				tint = bg.Float()
			}
			width := right - left
			gx := left
			if g.Advance > 0 && g.Advance < width {
				gx = left + (width-g.Advance)/2
				width = g.Advance
			}
			out.Glyphs = appendGlyphQuad(out.Glyphs, gx, top, gx+width, top+ch, g.UV, tint)
		}
	}

	if drawCursor {
		out.Colors = appendCursor(out.Colors, in, cursorScreen, cw, ch)
	}
}

func appendCursor(dst []ColorVertex, in Input, screenRow int, cw, ch float32) []ColorVertex {
	color := in.Scheme.Cursor.Float()
	span := float32(1)
	row := in.Rows[screenRow]
	if c := in.Cursor.Col; c >= 0 && c < len(row.Cells) && row.Cells[c].Attrs.Has(glyphterm.AttrWide) {
		span = 2
	}
	left := float32(in.Cursor.Col) * cw
	top := float32(screenRow) * ch
	right := left + span*cw
	bottom := top + ch
	switch in.Cursor.Shape {
	case glyphterm.CursorUnderline:
		return appendColorQuad(dst, left, bottom-max(2, ch/8), right, bottom, color)
	case glyphterm.CursorBar:
		return appendColorQuad(dst, left, top, left+2, bottom, color)
	default:
		return appendColorQuad(dst, left, top, right, bottom, color)
	}
}

func appendColorQuad(dst []ColorVertex, x0, y0, x1, y1 float32, c [4]float32) []ColorVertex {
	return append(dst,
		ColorVertex{Position: [2]float32{x0, y0}, Color: c},
		ColorVertex{Position: [2]float32{x1, y0}, Color: c},
		ColorVertex{Position: [2]float32{x0, y1}, Color: c},
		ColorVertex{Position: [2]float32{x1, y0}, Color: c},
		ColorVertex{Position: [2]float32{x1, y1}, Color: c},
		ColorVertex{Position: [2]float32{x0, y1}, Color: c},
	)
}

func appendGlyphQuad(dst []GlyphVertex, x0, y0, x1, y1 float32, uv Rect, c [4]float32) []GlyphVertex {
	return append(dst,
		GlyphVertex{Position: [2]float32{x0, y0}, UV: [2]float32{uv.U0, uv.V0}, Color: c},
		GlyphVertex{Position: [2]float32{x1, y0}, UV: [2]float32{uv.U1, uv.V0}, Color: c},
		GlyphVertex{Position: [2]float32{x0, y1}, UV: [2]float32{uv.U0, uv.V1}, Color: c},
		GlyphVertex{Position: [2]float32{x1, y0}, UV: [2]float32{uv.U1, uv.V0}, Color: c},
		GlyphVertex{Position: [2]float32{x1, y1}, UV: [2]float32{uv.U1, uv.V1}, Color: c},
		GlyphVertex{Position: [2]float32{x0, y1}, UV: [2]float32{uv.U0, uv.V1}, Color: c},
	)
}
