// Package rangelist implements the ordered, non-overlapping, tail-coalescing
// sequence of sector ranges used both for the caller-supplied "currently
// allocated" input and for the delta engine's output.
//
// The list is forward-only with a tail pointer; a sentinel head node
// (Start=sector.Max, Size=0) that never coalesces makes the tail always
// non-nil, so Append never has to special-case the first insertion.
package rangelist

import "github.com/cosmoslab/frisbee/internal/sector"

type node struct {
	r    sector.Range
	next *node
}

// List is an ordered, strictly non-overlapping, strictly non-adjacent (in
// canonical form) sequence of ranges.
type List struct {
	head *node // sentinel, never part of the visible contents
	tail *node
}

// New returns an empty range list.
func New() *List {
	l := &List{}
	l.head = &node{r: sector.Range{Start: sector.Max, Size: 0}}
	l.tail = l.head
	return l
}

// Append adds [start, start+size) to the end of the list. If it abuts the
// current tail it grows the tail in place (coalescing); otherwise a new
// tail node is allocated. size must be > 0.
func (l *List) Append(start sector.Sector, size uint32) {
	if size == 0 {
		panic("rangelist: Append with zero size")
	}
	if l.tail != l.head && l.tail.r.End() == start {
		l.tail.r.Size += size
		return
	}
	n := &node{r: sector.Range{Start: start, Size: size}}
	l.tail.next = n
	l.tail = n
}

// AppendRange is a convenience wrapper around Append.
func (l *List) AppendRange(r sector.Range) { l.Append(r.Start, r.Size) }

// Empty reports whether the list holds no ranges.
func (l *List) Empty() bool { return l.head.next == nil }

// Len returns the number of ranges currently in the list (O(n)).
func (l *List) Len() int {
	n := 0
	for c := l.head.next; c != nil; c = c.next {
		n++
	}
	return n
}

// Ranges materializes the list's contents as a plain slice, in order.
func (l *List) Ranges() []sector.Range {
	out := make([]sector.Range, 0, l.Len())
	for c := l.head.next; c != nil; c = c.next {
		out = append(out, c.r)
	}
	return out
}

// Tail returns the last range in the list and true, or the zero Range and
// false if the list is empty.
func (l *List) Tail() (sector.Range, bool) {
	if l.tail == l.head {
		return sector.Range{}, false
	}
	return l.tail.r, true
}

// Free drops all nodes, returning the list to its initial empty state.
// (The garbage collector reclaims the chain; this just resets the
// pointers.)
func (l *List) Free() {
	l.head.next = nil
	l.tail = l.head
}

// Iterator walks a List from the front. It is intentionally minimal: the
// delta computer (internal/delta) needs to peek, shrink-from-front, and
// advance a cursor over two lists in lockstep, which a range-based for
// loop cannot express.
type Iterator struct {
	cur *node
}

// NewIterator returns an iterator positioned at the first range.
func NewIterator(l *List) *Iterator {
	return &Iterator{cur: l.head.next}
}

// Done reports whether the iterator has no more ranges.
func (it *Iterator) Done() bool { return it.cur == nil }

// Peek returns the current range without advancing.
func (it *Iterator) Peek() sector.Range { return it.cur.r }

// SetHead replaces the current range in place (used when the delta
// computer carves off the front of a range and needs to continue from the
// remainder without reallocating the list).
func (it *Iterator) SetHead(r sector.Range) { it.cur.r = r }

// Next advances the iterator past the current range.
func (it *Iterator) Next() { it.cur = it.cur.next }

// FromSlice builds a List from an already sorted, non-overlapping slice of
// ranges, the adapter between a filesystem probe's allocated-ranges feed
// and the walk input.
func FromSlice(rs []sector.Range) *List {
	l := New()
	for _, r := range rs {
		l.Append(r.Start, r.Size)
	}
	return l
}
