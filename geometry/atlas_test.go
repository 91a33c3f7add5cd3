package geometry

import "testing"

func TestFixedAtlasGlyph(t *testing.T) {
	a := NewFixedAtlas(8, 16)
	if w, h := a.CellSize(); w != 8 || h != 16 {
		t.Fatalf("cell size = %vx%v", w, h)
	}

	g, ok := a.Glyph(' ')
	if !ok || g.UV != (Rect{U0: 0, V0: 0, U1: 1.0 / 16, V1: 1.0 / 14}) {
		t.Fatalf("space = %+v, %v", g, ok)
	}
	g, ok = a.Glyph('A') // slot 33: column 1, row 2
	if !ok || g.UV.U0 != 1.0/16 || g.UV.V0 != 2.0/14 || g.Advance != 8 {
		t.Fatalf("A = %+v, %v", g, ok)
	}
	for _, r := range []rune{0x1f, '日', rune(0x20 + 16*14)} {
		if _, ok := a.Glyph(r); ok {
			t.Fatalf("rune %U should be outside the atlas", r)
		}
	}
}
