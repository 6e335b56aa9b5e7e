// Package stats implements the pluggable diagnostics sink. The delta
// computer and signature codec report sector-level outcomes and free text
// warnings to a Sink; callers choose which implementation receives them
// (plain counters, logrus, or Prometheus).
package stats

// Sink receives diagnostics from the delta computer and signature codec.
// Every method must be safe for concurrent use and must not block the
// caller for long, since the delta walk calls it once per region.
type Sink interface {
	// SectorsCompared records n sectors that were block-hashed and compared
	// against an old-signature region.
	SectorsCompared(n uint32)

	// SectorsSame records n sectors whose new hash matched the old region's
	// digest (left out of the delta).
	SectorsSame(n uint32)

	// SectorsChanged records n sectors covered by an old-signature region
	// and treated as changed (emitted into the delta): either the new hash
	// differed from the region's digest, or no comparison was made because a
	// fixup overlaps the region or the current allocation only partly
	// covers it.
	SectorsChanged(n uint32)

	// SectorsOnlyOld records n sectors present in old_sig with no
	// corresponding current allocation.
	SectorsOnlyOld(n uint32)

	// SectorsOnlyNew records n sectors present in the current allocation
	// with no corresponding old-signature region (hash-free or new
	// allocation).
	SectorsOnlyNew(n uint32)

	// Warning reports a non-fatal diagnostic (e.g. a v2->v3 downgrade, a
	// failed mtime pairing). It never affects the operation's outcome.
	Warning(msg string)
}

// NopSink discards everything. It is the zero value callers get when they
// pass a nil Sink through the helpers in this package, and is useful in
// tests that don't care about diagnostics.
type NopSink struct{}

func (NopSink) SectorsCompared(uint32) {}
func (NopSink) SectorsSame(uint32)     {}
func (NopSink) SectorsChanged(uint32)  {}
func (NopSink) SectorsOnlyOld(uint32)  {}
func (NopSink) SectorsOnlyNew(uint32)  {}
func (NopSink) Warning(string)         {}

// Or returns sink if it is non-nil, else NopSink{}. Call sites that accept
// an optional Sink should route every call through this instead of
// nil-checking at each use.
func Or(sink Sink) Sink {
	if sink == nil {
		return NopSink{}
	}
	return sink
}
