package glyphterm

import (
	"context"

	"pkt.systems/pslog"
)

// Cursor is the cursor state in grid coordinates.
type Cursor struct {
	Col, Row int
	Visible  bool
	Shape    CursorShape
	Blink    bool
}

// Modes holds the terminal modes the front end needs to honor.
type Modes struct {
	ApplicationCursor bool
	AutoWrap          bool
	FocusReporting    bool
	AltScreen         bool
	BracketedPaste    bool
}

type savedCursor struct {
	col, row int
	valid    bool
}

// BufferOptions configures a Buffer. Zero values select defaults.
type BufferOptions struct {
	// Capacity bounds grid plus scrollback rows (default 10000 + rows).
	Capacity int
	// Decoder feeds Write; defaults to NewParser().
	Decoder Decoder
	// LogLines bounds the captured output log (default 2000).
	LogLines int
	Logger   pslog.Logger
}

// Buffer is the terminal grid with its scrollback ring and cursor.
//
// A Buffer has a single writer: ApplyDecodedUpdates, Write, Resize and the
// other mutators must all be called from the goroutine that owns rendering
// state. There is no internal locking.
type Buffer struct {
	cols, rows int
	cells      []Cell // row-major, len == cols*rows
	wrapped    []bool // per grid row

	capacity   int
	scrollback *Scrollback

	cursor      Cursor
	saved       savedCursor
	wrapPending bool

	// scroll region, inclusive, zero-based
	top, bottom int

	modes Modes
	cwd   string
	title string
	epoch int

	decoder Decoder
	log     *OutputLog
	logger  pslog.Logger
}

// NewBuffer creates a buffer of the given size.
func NewBuffer(cols, rows int, opts BufferOptions) *Buffer {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 10000 + rows
	}
	if capacity < rows {
		logger.Warn("buffer capacity below grid height", "capacity", capacity, "rows", rows)
		capacity = rows
	}
	decoder := opts.Decoder
	if decoder == nil {
		decoder = NewParser()
	}
	b := &Buffer{
		cols:       cols,
		rows:       rows,
		capacity:   capacity,
		scrollback: NewScrollback(capacity - rows),
		decoder:    decoder,
		log:        NewOutputLog(opts.LogLines),
		logger:     logger,
	}
	b.initScreen()
	return b
}

func (b *Buffer) initScreen() {
	b.cells = make([]Cell, b.cols*b.rows)
	for i := range b.cells {
		b.cells[i] = EmptyCell()
	}
	b.wrapped = make([]bool, b.rows)
	b.cursor = Cursor{Visible: true, Blink: true}
	b.saved = savedCursor{}
	b.wrapPending = false
	b.top, b.bottom = 0, b.rows-1
	b.modes = Modes{AutoWrap: true}
}

// Size returns the grid dimensions.
func (b *Buffer) Size() (cols, rows int) {
	return b.cols, b.rows
}

// CellCount returns the number of cells in the grid.
func (b *Buffer) CellCount() int {
	return len(b.cells)
}

// Capacity returns the bound on grid plus scrollback rows.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Cursor returns the cursor state.
func (b *Buffer) Cursor() Cursor {
	return b.cursor
}

// Modes returns the current terminal modes.
func (b *Buffer) Modes() Modes {
	return b.modes
}

// WorkingDirectory returns the last directory reported by the shell.
func (b *Buffer) WorkingDirectory() string {
	return b.cwd
}

// Title returns the last window title set by the application.
func (b *Buffer) Title() string {
	return b.title
}

// Epoch increments on every full reset so holders of logical positions
// can detect that their rows no longer exist.
func (b *Buffer) Epoch() int {
	return b.epoch
}

// OutputLog returns the captured raw-stream log.
func (b *Buffer) OutputLog() *OutputLog {
	return b.log
}

// ScrollbackLen returns the number of rows held in scrollback.
func (b *Buffer) ScrollbackLen() int {
	return b.scrollback.Len()
}

// LogicalRowCount returns the number of addressable rows (scrollback + grid).
func (b *Buffer) LogicalRowCount() int {
	return b.scrollback.Len() + b.rows
}

// FirstLogicalRow returns the logical index of the oldest retained row.
func (b *Buffer) FirstLogicalRow() int {
	return b.scrollback.Evicted()
}

// CursorLogicalRow returns the logical index of the cursor row.
func (b *Buffer) CursorLogicalRow() int {
	return b.gridLogicalRow(b.cursor.Row)
}

func (b *Buffer) gridLogicalRow(y int) int {
	return b.scrollback.Evicted() + b.scrollback.Len() + y
}

// Row returns the row at a logical index. Rows older than FirstLogicalRow
// or beyond the bottom of the grid report false. The returned cells alias
// buffer storage and are valid until the next mutation.
func (b *Buffer) Row(logical int) (Row, bool) {
	i := logical - b.scrollback.Evicted()
	if i < 0 {
		return Row{}, false
	}
	if i < b.scrollback.Len() {
		return b.scrollback.At(i)
	}
	y := i - b.scrollback.Len()
	if y >= b.rows {
		return Row{}, false
	}
	return b.gridRow(y), true
}

func (b *Buffer) gridRow(y int) Row {
	return Row{Cells: b.line(y), Wrapped: b.wrapped[y]}
}

func (b *Buffer) line(y int) []Cell {
	return b.cells[y*b.cols : (y+1)*b.cols]
}

// Cell returns the grid cell at (col, row), or an empty cell when out of range.
func (b *Buffer) Cell(col, row int) Cell {
	if col < 0 || col >= b.cols || row < 0 || row >= b.rows {
		return EmptyCell()
	}
	return b.cells[row*b.cols+col]
}

// VisibleRows returns up to height rows ending scrollOffset rows above the
// live bottom. The offset is capped so the window never starts before the
// oldest retained row; fewer rows come back only when height exceeds the
// retained rows. The rows alias buffer storage.
func (b *Buffer) VisibleRows(scrollOffset, height int) []Row {
	if height <= 0 {
		return nil
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if n := max(0, b.LogicalRowCount()-height); scrollOffset > n {
		scrollOffset = n
	}
	first := b.FirstLogicalRow()
	end := first + b.LogicalRowCount() - scrollOffset // exclusive
	start := end - height
	if start < first {
		start = first
	}
	out := make([]Row, 0, end-start)
	for l := start; l < end; l++ {
		row, _ := b.Row(l)
		out = append(out, row)
	}
	return out
}

// Text returns the grid content as lines with trailing blanks trimmed.
func (b *Buffer) Text() []string {
	out := make([]string, b.rows)
	for y := 0; y < b.rows; y++ {
		out[y] = rowText(b.line(y), 0, b.cols)
	}
	return out
}

// Write appends data to the captured output log, decodes it and applies
// the resulting events.
func (b *Buffer) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	b.log.AppendOutput(data)
	b.ApplyDecodedUpdates(b.decoder.Feed(data))
}

// RecordInput appends bytes sent to the child to the captured output log.
func (b *Buffer) RecordInput(data []byte) {
	b.log.AppendInput(data)
}

// Resize changes the grid dimensions. Rows that no longer fit above the
// cursor move into scrollback; remaining excess rows are dropped from the
// bottom. Each row is truncated or padded independently.
func (b *Buffer) Resize(cols, rows int) {
	if cols < 1 || rows < 1 || cols > MaxGridCells/rows {
		b.logger.Debug("ignore invalid resize", "cols", cols, "rows", rows)
		return
	}
	if cols == b.cols && rows == b.rows {
		return
	}
	if rows > b.capacity {
		b.capacity = rows
	}

	// Rows above the cursor that would fall off the top go to history.
	push := 0
	if b.cursor.Row >= rows {
		push = b.cursor.Row - rows + 1
	}
	if push > 0 {
		b.scrollback.SetLimit(b.capacity - rows)
		for y := 0; y < push; y++ {
			b.scrollback.Push(b.line(y), b.wrapped[y])
		}
	}

	if cols != b.cols {
		b.scrollback.SetWidth(cols)
	}

	cells := make([]Cell, cols*rows)
	wrapped := make([]bool, rows)
	for y := 0; y < rows; y++ {
		dst := cells[y*cols : (y+1)*cols]
		src := y + push
		if src < b.rows {
			n := copy(dst, b.line(src))
			for x := n; x < cols; x++ {
				dst[x] = EmptyCell()
			}
			wrapped[y] = b.wrapped[src] && cols >= b.cols
			// A wide glyph cut in half at the new margin becomes a blank.
			if cols < b.cols && dst[cols-1].Attrs.Has(AttrWide) {
				dst[cols-1] = EmptyCellWithBackground(dst[cols-1].Background)
			}
		} else {
			for x := range dst {
				dst[x] = EmptyCell()
			}
		}
	}

	b.logger.Debug("buffer resize",
		"from_cols", b.cols, "from_rows", b.rows,
		"cols", cols, "rows", rows, "to_scrollback", push)

	b.cells = cells
	b.wrapped = wrapped
	b.cols, b.rows = cols, rows
	b.scrollback.SetLimit(b.capacity - rows)
	b.cursor.Row -= push
	b.clampCursor()
	b.wrapPending = false
	b.top, b.bottom = 0, rows-1
	if b.saved.valid {
		b.saved.row -= push
		b.saved.col = clamp(b.saved.col, 0, cols-1)
		b.saved.row = clamp(b.saved.row, 0, rows-1)
	}
}

// Reset returns the buffer to its initial state and drops scrollback.
func (b *Buffer) Reset() {
	b.scrollback.Clear()
	b.initScreen()
	b.cwd = ""
	b.title = ""
	b.epoch++
}

func (b *Buffer) clampCursor() {
	b.cursor.Col = clamp(b.cursor.Col, 0, b.cols-1)
	b.cursor.Row = clamp(b.cursor.Row, 0, b.rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
