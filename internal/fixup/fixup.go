// Package fixup implements the byte-range patch set the filesystem probes
// hand to the delta engine: an ordered set of (byte_start, byte_size,
// payload) patches, queryable for overlap, destructively applicable to a
// read buffer, and snapshot/restorable around a hashing pass.
//
// The set lives outside the delta engine proper (callers populate it, the
// engine only queries and applies), but since hashing mutates the buffer
// the engine borrows, the engine must be able to undo its own applications
// on the error path. That is the purpose of Save/Restore.
package fixup

import (
	"sort"

	"github.com/cosmoslab/frisbee/internal/engineerr"
)

// Fixup is a single byte-range patch applied to disk bytes before hashing.
type Fixup struct {
	ByteStart int64
	ByteSize  int64
	Payload   []byte
}

func (f Fixup) end() int64 { return f.ByteStart + f.ByteSize }

func (f Fixup) overlaps(start, size int64) bool {
	return f.ByteStart < start+size && start < f.end()
}

// Set is a sorted-by-ByteStart collection of Fixups, with a one-level
// snapshot/restore stack.
type Set struct {
	items    []Fixup
	snapshot []Fixup // nil when no snapshot is active
}

// New returns an empty fixup set.
func New() *Set { return &Set{} }

// Add inserts a fixup, keeping items sorted by ByteStart. Overlapping
// fixups are permitted by the set itself (the probes that populate it are
// trusted); HasFixup/Apply operate correctly regardless of overlap.
func (s *Set) Add(f Fixup) {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].ByteStart >= f.ByteStart })
	s.items = append(s.items, Fixup{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = f
}

// HasFixup reports whether any fixup overlaps the byte range
// [byteStart, byteStart+byteSize).
func (s *Set) HasFixup(byteStart, byteSize int64) bool {
	// The set is expected to stay small, so a
	// linear scan is simpler and fast enough; sortedness lets us stop
	// early once a fixup starts at/after the query's end.
	for _, f := range s.items {
		if f.ByteStart >= byteStart+byteSize {
			break
		}
		if f.overlaps(byteStart, byteSize) {
			return true
		}
	}
	return false
}

// Apply mutates buf in place, overwriting the bytes covered by every
// fixup that overlaps [byteStart, byteStart+len(buf)) with that fixup's
// payload (clipped to the overlap). buf is assumed to represent exactly
// that byte range, starting at buf[0] == byteStart.
func (s *Set) Apply(byteStart int64, buf []byte) error {
	size := int64(len(buf))
	for _, f := range s.items {
		if f.ByteStart >= byteStart+size {
			break
		}
		if !f.overlaps(byteStart, size) {
			continue
		}
		lo := f.ByteStart
		if lo < byteStart {
			lo = byteStart
		}
		hi := f.end()
		if hi > byteStart+size {
			hi = byteStart + size
		}
		if hi <= lo {
			continue
		}
		payloadOff := lo - f.ByteStart
		n := hi - lo
		if payloadOff < 0 || payloadOff+n > int64(len(f.Payload)) {
			return engineerr.New(engineerr.KindFixupViolation, "fixup.Apply",
				"fixup payload shorter than its declared byte size")
		}
		copy(buf[lo-byteStart:hi-byteStart], f.Payload[payloadOff:payloadOff+n])
	}
	return nil
}

// Save snapshots the current contents of the set. Only one level of
// snapshot is supported: a second Save overwrites the first.
func (s *Set) Save() {
	s.snapshot = append([]Fixup{}, s.items...)
}

// Restore reverts to the last Save()'d snapshot. If keepChanges is true,
// the current (possibly mutated) contents are kept instead and the
// snapshot is simply cleared: the delta run succeeded, so whatever
// applications were made stand.
func (s *Set) Restore(keepChanges bool) {
	if !keepChanges && s.snapshot != nil {
		s.items = s.snapshot
	}
	s.snapshot = nil
}

// Equal reports whether s and o contain the same fixups in the same order.
func (s *Set) Equal(o *Set) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		a, b := s.items[i], o.items[i]
		if a.ByteStart != b.ByteStart || a.ByteSize != b.ByteSize {
			return false
		}
		if len(a.Payload) != len(b.Payload) {
			return false
		}
		for j := range a.Payload {
			if a.Payload[j] != b.Payload[j] {
				return false
			}
		}
	}
	return true
}
