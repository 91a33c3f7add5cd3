package glyphterm

import "unicode/utf8"

// MaxSelectionBytes caps the text returned by ExtractText.
const MaxSelectionBytes = 2 << 20

// Position is a point in logical-row + column space. Logical rows span
// scrollback and grid and never change meaning while the row is retained.
type Position struct {
	Row, Col int
}

// Before reports whether p sorts before q in reading order.
func (p Position) Before(q Position) bool {
	return p.Row < q.Row || (p.Row == q.Row && p.Col < q.Col)
}

// Selection tracks a text selection driven by pointer press, drag and
// release. It holds positions only and never mutates the buffer.
type Selection struct {
	anchor, head Position
	set          bool
	active       bool // pointer still down

	// epoch of the buffer the positions refer to; bound by the first Sync
	epoch int
	bound bool
}

// Begin starts a selection at pos.
func (s *Selection) Begin(pos Position) {
	s.anchor, s.head = pos, pos
	s.set = true
	s.active = true
	s.bound = false
}

// Extend moves the free end of an in-progress selection.
func (s *Selection) Extend(pos Position) {
	if !s.active {
		return
	}
	s.head = pos
}

// End finalizes the selection on pointer release. A click without a drag
// clears it.
func (s *Selection) End() {
	if !s.active {
		return
	}
	s.active = false
	if s.anchor == s.head {
		s.Clear()
	}
}

// Clear drops the selection.
func (s *Selection) Clear() {
	*s = Selection{}
}

// Active reports whether the pointer is still dragging.
func (s *Selection) Active() bool {
	return s.active
}

// HasSelection reports whether a non-empty range is selected.
func (s *Selection) HasSelection() bool {
	return s.set && s.anchor != s.head
}

// Range returns the normalized range, start inclusive and end exclusive.
func (s *Selection) Range() (start, end Position, ok bool) {
	if !s.HasSelection() {
		return Position{}, Position{}, false
	}
	start, end = s.anchor, s.head
	if end.Before(start) {
		start, end = end, start
	}
	return start, end, true
}

// Contains reports whether the cell at logical row, col is selected.
func (s *Selection) Contains(row, col int) bool {
	start, end, ok := s.Range()
	if !ok || row < start.Row || row > end.Row {
		return false
	}
	if row == start.Row && col < start.Col {
		return false
	}
	if row == end.Row && col >= end.Col {
		return false
	}
	return true
}

// Sync clears the selection when the buffer was reset since the
// selection began or when its first row has been evicted.
func (s *Selection) Sync(b *Buffer) {
	if !s.set {
		return
	}
	if !s.bound {
		s.epoch, s.bound = b.Epoch(), true
	}
	start, _, _ := s.Range()
	if !s.HasSelection() {
		start = s.anchor
	}
	if s.epoch != b.Epoch() || start.Row < b.FirstLogicalRow() {
		s.Clear()
	}
}

// ExtractText returns the selected text. Rows are joined with newlines
// except across auto-wrap boundaries. Output is cut at MaxSelectionBytes
// on a rune boundary.
func (s *Selection) ExtractText(b *Buffer) string {
	start, end, ok := s.Range()
	if !ok {
		return ""
	}
	cols, _ := b.Size()
	out := make([]byte, 0, 256)
	for l := max(start.Row, b.FirstLogicalRow()); l <= end.Row; l++ {
		row, ok := b.Row(l)
		if !ok {
			break
		}
		from, to := 0, min(cols, len(row.Cells))
		if l == start.Row {
			from = start.Col
		}
		if l == end.Row {
			to = min(to, end.Col)
		}
		from = min(from, to)
		if row.Wrapped && l != end.Row {
			out = appendCells(out, row.Cells, from, to)
		} else {
			out = append(out, rowText(row.Cells, from, to)...)
		}
		if l != end.Row && !row.Wrapped {
			out = append(out, '\n')
		}
		if len(out) >= MaxSelectionBytes {
			return truncateUTF8(out, MaxSelectionBytes)
		}
	}
	return string(out)
}

// appendCells appends the glyphs of cells[from:to] without trimming, so a
// wrapped row keeps the spaces that continue onto the next row.
func appendCells(dst []byte, cells []Cell, from, to int) []byte {
	from = max(from, 0)
	to = min(to, len(cells))
	for x := from; x < to; x++ {
		if cells[x].Attrs.Has(AttrWideContinuation) {
			continue
		}
		dst = utf8.AppendRune(dst, cells[x].Glyph())
	}
	return dst
}

func truncateUTF8(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	b = b[:n]
	for len(b) > 0 {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return string(b)
}

// ScreenToLogical converts a viewport cell coordinate to a logical
// position given the current scroll offset and viewport height.
func ScreenToLogical(b *Buffer, offset, viewport, col, row int) Position {
	cols, _ := b.Size()
	top := b.FirstLogicalRow() + b.LogicalRowCount() - offset - viewport
	if top < b.FirstLogicalRow() {
		top = b.FirstLogicalRow()
	}
	return Position{
		Row: top + clamp(row, 0, max(viewport-1, 0)),
		Col: clamp(col, 0, cols),
	}
}
