package glyphterm

// Scrollback is a bounded ring of historical rows. Slots are allocated
// lazily up to the limit and then reused: pushing at capacity overwrites
// the oldest slot's cell storage in place.
type Scrollback struct {
	slots   []Row
	head    int // physical index of the oldest row
	length  int
	limit   int
	evicted int // rows dropped from the front since creation
}

// NewScrollback creates a ring holding at most limit rows.
func NewScrollback(limit int) *Scrollback {
	if limit < 0 {
		limit = 0
	}
	return &Scrollback{limit: limit}
}

// Len returns the number of retained rows.
func (s *Scrollback) Len() int {
	return s.length
}

// Limit returns the current row capacity.
func (s *Scrollback) Limit() int {
	return s.limit
}

// Evicted returns the total number of rows dropped from the front. It
// doubles as the logical index of the oldest retained row.
func (s *Scrollback) Evicted() int {
	return s.evicted
}

// Push appends a copy of cells as the newest row, evicting the oldest row
// when the ring is full. It reports whether a row was evicted.
func (s *Scrollback) Push(cells []Cell, wrapped bool) bool {
	if s.limit == 0 {
		s.evicted++
		return true
	}
	evicted := false
	if s.length >= s.limit {
		s.dropOldest()
		evicted = true
	}
	if s.length == len(s.slots) {
		s.grow()
	}
	slot := &s.slots[(s.head+s.length)%len(s.slots)]
	slot.Cells = append(slot.Cells[:0], cells...)
	slot.Wrapped = wrapped
	s.length++
	return evicted
}

// At returns the i-th retained row, 0 being the oldest. The returned row
// aliases ring storage and is only valid until the next Push.
func (s *Scrollback) At(i int) (Row, bool) {
	if i < 0 || i >= s.length {
		return Row{}, false
	}
	return s.slots[(s.head+i)%len(s.slots)], true
}

// SetWidth truncates or pads every retained row to cols. Rows cut short
// lose their Wrapped flag.
func (s *Scrollback) SetWidth(cols int) {
	for i := 0; i < s.length; i++ {
		slot := &s.slots[(s.head+i)%len(s.slots)]
		if len(slot.Cells) > cols {
			slot.Wrapped = false
		}
		slot.Cells = fitCells(slot.Cells, cols)
	}
}

// SetLimit changes the capacity, evicting the oldest rows that no longer
// fit. It returns the number of rows evicted.
func (s *Scrollback) SetLimit(limit int) int {
	if limit < 0 {
		limit = 0
	}
	s.limit = limit
	n := 0
	for s.length > s.limit {
		s.dropOldest()
		n++
	}
	return n
}

// Clear drops every retained row. Cleared rows count as evicted so logical
// row indexes keep increasing.
func (s *Scrollback) Clear() {
	s.evicted += s.length
	s.head = 0
	s.length = 0
}

func (s *Scrollback) dropOldest() {
	if s.length == 0 {
		return
	}
	s.head = (s.head + 1) % len(s.slots)
	s.length--
	s.evicted++
}

// grow enlarges the arena (doubling, capped at the limit), rotating the
// ring so the oldest row lands at index 0.
func (s *Scrollback) grow() {
	n := len(s.slots) * 2
	if n < 16 {
		n = 16
	}
	if n > s.limit {
		n = s.limit
	}
	if n <= len(s.slots) {
		n = len(s.slots) + 1
	}
	slots := make([]Row, n)
	for i := 0; i < s.length; i++ {
		slots[i] = s.slots[(s.head+i)%len(s.slots)]
	}
	s.slots = slots
	s.head = 0
}
