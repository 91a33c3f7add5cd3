package glyphterm

// --- Character output ---

func (b *Buffer) print(r rune, style Style) {
	w := CharWidth(r)
	if w == 0 {
		// Combining and zero-width runes have no cell of their own.
		return
	}
	if w > 1 && b.cols < 2 {
		w = 1
	}

	if b.wrapPending {
		b.wrapLine()
	}
	if w == 2 && b.cursor.Col == b.cols-1 {
		if !b.modes.AutoWrap {
			return
		}
		b.setCell(b.cursor.Col, b.cursor.Row, EmptyCellWithBackground(style.Background))
		b.wrapLine()
	}

	col, row := b.cursor.Col, b.cursor.Row
	attrs := style.Attrs &^ (AttrWide | AttrWideContinuation)
	if w == 2 {
		b.setCell(col, row, Cell{Char: r, Foreground: style.Foreground, Background: style.Background, Attrs: attrs | AttrWide})
		b.setCell(col+1, row, Cell{Foreground: style.Foreground, Background: style.Background, Attrs: attrs | AttrWideContinuation})
	} else {
		b.setCell(col, row, Cell{Char: r, Foreground: style.Foreground, Background: style.Background, Attrs: attrs})
	}

	if col+w >= b.cols {
		b.cursor.Col = b.cols - 1
		b.wrapPending = b.modes.AutoWrap
		return
	}
	b.cursor.Col = col + w
}

// wrapLine moves to the start of the next line, marking the current row as
// continuing onto it.
func (b *Buffer) wrapLine() {
	b.wrapPending = false
	b.wrapped[b.cursor.Row] = true
	b.cursor.Col = 0
	b.lineFeed()
}

// setCell writes c, first blanking the other half of any wide glyph that
// c partially overwrites.
func (b *Buffer) setCell(col, row int, c Cell) {
	if col < 0 || col >= b.cols {
		return
	}
	line := b.line(row)
	old := line[col]
	if old.Attrs.Has(AttrWide) && col+1 < b.cols && !c.Attrs.Has(AttrWideContinuation) {
		line[col+1] = EmptyCellWithBackground(line[col+1].Background)
	}
	if old.Attrs.Has(AttrWideContinuation) && col > 0 && !c.Attrs.Has(AttrWide) {
		line[col-1] = EmptyCellWithBackground(line[col-1].Background)
	}
	line[col] = c
}

// --- Line movement and scrolling ---

func (b *Buffer) lineFeed() {
	switch {
	case b.cursor.Row == b.bottom:
		b.scrollUp(b.top, b.bottom, 1)
	case b.cursor.Row < b.rows-1:
		b.cursor.Row++
	}
}

func (b *Buffer) reverseIndex() {
	switch {
	case b.cursor.Row == b.top:
		b.scrollDown(b.top, b.bottom, 1)
	case b.cursor.Row > 0:
		b.cursor.Row--
	}
}

// scrollUp moves rows [top, bottom] up by n. Rows leaving a region that
// starts at the top of the screen go to scrollback.
func (b *Buffer) scrollUp(top, bottom, n int) {
	b.shiftUp(top, bottom, n, top == 0 && !b.modes.AltScreen)
}

func (b *Buffer) shiftUp(top, bottom, n int, toHistory bool) {
	height := bottom - top + 1
	if n > height {
		n = height
	}
	if n <= 0 {
		return
	}
	if toHistory {
		for y := top; y < top+n; y++ {
			b.scrollback.Push(b.line(y), b.wrapped[y])
		}
	}
	cols := b.cols
	copy(b.cells[top*cols:(bottom+1-n)*cols], b.cells[(top+n)*cols:(bottom+1)*cols])
	copy(b.wrapped[top:bottom+1-n], b.wrapped[top+n:bottom+1])
	for y := bottom + 1 - n; y <= bottom; y++ {
		b.blankRow(y, DefaultBackground)
	}
}

func (b *Buffer) scrollDown(top, bottom, n int) {
	height := bottom - top + 1
	if n > height {
		n = height
	}
	if n <= 0 {
		return
	}
	cols := b.cols
	copy(b.cells[(top+n)*cols:(bottom+1)*cols], b.cells[top*cols:(bottom+1-n)*cols])
	copy(b.wrapped[top+n:bottom+1], b.wrapped[top:bottom+1-n])
	for y := top; y < top+n; y++ {
		b.blankRow(y, DefaultBackground)
	}
}

func (b *Buffer) blankRow(y int, bg Color) {
	line := b.line(y)
	for x := range line {
		line[x] = EmptyCellWithBackground(bg)
	}
	b.wrapped[y] = false
}

func (b *Buffer) blankSpan(y, from, to int, bg Color) {
	from = clamp(from, 0, b.cols)
	to = clamp(to, 0, b.cols)
	for x := from; x < to; x++ {
		b.setCell(x, y, EmptyCellWithBackground(bg))
	}
}

// --- Erasing ---

func (b *Buffer) eraseDisplay(mode EraseMode, bg Color) {
	b.wrapPending = false
	switch mode {
	case EraseToEnd:
		b.eraseLine(EraseToEnd, bg)
		for y := b.cursor.Row + 1; y < b.rows; y++ {
			b.blankRow(y, bg)
		}
	case EraseToStart:
		for y := 0; y < b.cursor.Row; y++ {
			b.blankRow(y, bg)
		}
		b.eraseLine(EraseToStart, bg)
	case EraseAll:
		for y := 0; y < b.rows; y++ {
			b.blankRow(y, bg)
		}
	case EraseSaved:
		b.scrollback.Clear()
	default:
		b.logger.Debug("skip unknown erase mode", "mode", int(mode))
	}
}

func (b *Buffer) eraseLine(mode EraseMode, bg Color) {
	b.wrapPending = false
	y := b.cursor.Row
	switch mode {
	case EraseToEnd:
		b.blankSpan(y, b.cursor.Col, b.cols, bg)
		b.wrapped[y] = false
	case EraseToStart:
		b.blankSpan(y, 0, b.cursor.Col+1, bg)
	case EraseAll:
		b.blankRow(y, bg)
	default:
		b.logger.Debug("skip unknown erase mode", "mode", int(mode))
	}
}

func (b *Buffer) eraseChars(n int, bg Color) {
	b.wrapPending = false
	b.blankSpan(b.cursor.Row, b.cursor.Col, b.cursor.Col+n, bg)
}

// --- Insert/delete ---

func (b *Buffer) insertLines(n int) {
	if b.cursor.Row < b.top || b.cursor.Row > b.bottom {
		return
	}
	b.scrollDown(b.cursor.Row, b.bottom, n)
	b.cursor.Col = 0
	b.wrapPending = false
}

func (b *Buffer) deleteLines(n int) {
	if b.cursor.Row < b.top || b.cursor.Row > b.bottom {
		return
	}
	b.shiftUp(b.cursor.Row, b.bottom, n, false)
	b.cursor.Col = 0
	b.wrapPending = false
}

func (b *Buffer) insertChars(n int) {
	b.wrapPending = false
	line := b.line(b.cursor.Row)
	col := b.cursor.Col
	if n > b.cols-col {
		n = b.cols - col
	}
	copy(line[col+n:], line[col:b.cols-n])
	for x := col; x < col+n; x++ {
		line[x] = EmptyCell()
	}
	b.fixWideEdges(line)
}

func (b *Buffer) deleteChars(n int) {
	b.wrapPending = false
	line := b.line(b.cursor.Row)
	col := b.cursor.Col
	if n > b.cols-col {
		n = b.cols - col
	}
	copy(line[col:], line[col+n:])
	for x := b.cols - n; x < b.cols; x++ {
		line[x] = EmptyCell()
	}
	b.fixWideEdges(line)
}

// fixWideEdges blanks wide glyph halves separated by a horizontal shift.
func (b *Buffer) fixWideEdges(line []Cell) {
	for x := range line {
		c := line[x]
		if c.Attrs.Has(AttrWide) && (x+1 >= len(line) || !line[x+1].Attrs.Has(AttrWideContinuation)) {
			line[x] = EmptyCellWithBackground(c.Background)
		}
		if c.Attrs.Has(AttrWideContinuation) && (x == 0 || !line[x-1].Attrs.Has(AttrWide)) {
			line[x] = EmptyCellWithBackground(c.Background)
		}
	}
}
