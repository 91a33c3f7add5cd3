package geometry

// Rect is a normalized texture rectangle.
type Rect struct {
	U0, V0, U1, V1 float32
}

// Glyph is the placement of one character in the atlas.
type Glyph struct {
	Advance float32 // pixels
	UV      Rect
}

// GlyphProvider supplies cell metrics and atlas placement. Font loading
// and rasterization live behind it.
type GlyphProvider interface {
	CellSize() (w, h float32)
	Glyph(r rune) (Glyph, bool)
}

// FixedAtlas is a GlyphProvider for an atlas laid out as a grid of
// equally sized slots, one per codepoint starting at First, in row-major
// order. It holds no state beyond its layout.
type FixedAtlas struct {
	CellWidth, CellHeight float32
	Columns, Rows         int
	First                 rune
}

// NewFixedAtlas returns an atlas covering printable ASCII and Latin-1 in
// a 16-column grid.
func NewFixedAtlas(cellWidth, cellHeight float32) *FixedAtlas {
	return &FixedAtlas{
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
		Columns:    16,
		Rows:       14,
		First:      0x20,
	}
}

func (a *FixedAtlas) CellSize() (w, h float32) {
	return a.CellWidth, a.CellHeight
}

// Glyph returns the slot for r, or false when r is outside the atlas.
func (a *FixedAtlas) Glyph(r rune) (Glyph, bool) {
	if a.Columns <= 0 || a.Rows <= 0 {
		return Glyph{}, false
	}
	idx := int(r - a.First)
	if idx < 0 || idx >= a.Columns*a.Rows {
		return Glyph{}, false
	}
	col, row := idx%a.Columns, idx/a.Columns
	du, dv := 1/float32(a.Columns), 1/float32(a.Rows)
	return Glyph{
		Advance: a.CellWidth,
		UV: Rect{
			U0: float32(col) * du,
			V0: float32(row) * dv,
			U1: float32(col+1) * du,
			V1: float32(row+1) * dv,
		},
	}, true
}
