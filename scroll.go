package glyphterm

// ScrollKind selects how a ScrollRequest moves the view.
type ScrollKind int

const (
	// ScrollScreenTop jumps to the oldest content that fills the viewport.
	ScrollScreenTop ScrollKind = iota
	// ScrollCursorTop puts the cursor row at the top of the viewport.
	ScrollCursorTop
	// ScrollCursorLine brings an off-screen cursor row to the bottom of
	// the viewport.
	ScrollCursorLine
	// ScrollDelta moves the view by N rows, positive toward history.
	ScrollDelta
)

func (k ScrollKind) String() string {
	switch k {
	case ScrollScreenTop:
		return "screen_top"
	case ScrollCursorTop:
		return "cursor_top"
	case ScrollCursorLine:
		return "cursor_line"
	case ScrollDelta:
		return "delta"
	default:
		return "unknown"
	}
}

// ScrollRequest is one scroll input for ScrollController.Apply.
type ScrollRequest struct {
	Kind ScrollKind
	N    int // rows, ScrollDelta only
}

// Delta returns a ScrollDelta request.
func Delta(n int) ScrollRequest {
	return ScrollRequest{Kind: ScrollDelta, N: n}
}

// ScrollController holds the number of rows the view is scrolled up from
// the live bottom. The offset is never adjusted for new output: while
// scrolled back, arriving rows shift the viewed content upward.
type ScrollController struct {
	offset int
}

// Offset returns the current scroll offset. Zero means the live grid.
func (s *ScrollController) Offset() int {
	return s.offset
}

// AtBottom reports whether the view follows the live grid.
func (s *ScrollController) AtBottom() bool {
	return s.offset == 0
}

// Apply moves the offset for req and returns the new value.
func (s *ScrollController) Apply(b *Buffer, viewport int, req ScrollRequest) int {
	total := b.LogicalRowCount()
	cursor := b.CursorLogicalRow() - b.FirstLogicalRow()
	switch req.Kind {
	case ScrollScreenTop:
		s.offset = total - viewport
	case ScrollCursorTop:
		s.offset = total - viewport - cursor
	case ScrollCursorLine:
		// Only move when the cursor row is outside the viewport.
		top := total - s.offset - viewport
		bottom := total - s.offset - 1
		if cursor < top || cursor > bottom {
			s.offset = total - 1 - cursor
		}
	case ScrollDelta:
		s.offset += req.N
	}
	return s.Clamp(b, viewport)
}

// Clamp bounds the offset to the scrollable range for the buffer and
// viewport height without otherwise moving it.
func (s *ScrollController) Clamp(b *Buffer, viewport int) int {
	s.offset = clamp(s.offset, 0, MaxScrollOffset(b, viewport))
	return s.offset
}

// Reset returns the view to the live bottom.
func (s *ScrollController) Reset() {
	s.offset = 0
}

// MaxScrollOffset is the largest offset that still fills the viewport.
// A viewport shorter than the grid can reach past the scrollback into the
// upper grid rows.
func MaxScrollOffset(b *Buffer, viewport int) int {
	return max(0, b.LogicalRowCount()-viewport)
}
