package stats

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time read of a CounterSink's totals.
type Snapshot struct {
	StartedUnix   int64
	NowUnix       int64
	Compared      uint64
	Same          uint64
	Changed       uint64
	OnlyOld       uint64
	OnlyNew       uint64
	Warnings      uint64
	LastWarning   string
}

// CounterSink is a dependency-free, mutex-guarded counters sink, the
// default when no structured-logging or metrics backend is configured:
// plain counters behind one mutex, read out through a snapshot struct
// rather than exposed live.
type CounterSink struct {
	mu sync.Mutex

	started time.Time

	compared uint64
	same     uint64
	changed  uint64
	onlyOld  uint64
	onlyNew  uint64

	warnings    uint64
	lastWarning string
}

// NewCounterSink returns a ready-to-use CounterSink.
func NewCounterSink() *CounterSink {
	return &CounterSink{started: time.Now()}
}

func (c *CounterSink) SectorsCompared(n uint32) {
	c.mu.Lock()
	c.compared += uint64(n)
	c.mu.Unlock()
}

func (c *CounterSink) SectorsSame(n uint32) {
	c.mu.Lock()
	c.same += uint64(n)
	c.mu.Unlock()
}

func (c *CounterSink) SectorsChanged(n uint32) {
	c.mu.Lock()
	c.changed += uint64(n)
	c.mu.Unlock()
}

func (c *CounterSink) SectorsOnlyOld(n uint32) {
	c.mu.Lock()
	c.onlyOld += uint64(n)
	c.mu.Unlock()
}

func (c *CounterSink) SectorsOnlyNew(n uint32) {
	c.mu.Lock()
	c.onlyNew += uint64(n)
	c.mu.Unlock()
}

func (c *CounterSink) Warning(msg string) {
	c.mu.Lock()
	c.warnings++
	c.lastWarning = msg
	c.mu.Unlock()
}

// Snapshot returns a consistent copy of the current totals.
func (c *CounterSink) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		StartedUnix: c.started.Unix(),
		NowUnix:     time.Now().Unix(),
		Compared:    c.compared,
		Same:        c.same,
		Changed:     c.changed,
		OnlyOld:     c.onlyOld,
		OnlyNew:     c.onlyNew,
		Warnings:    c.warnings,
		LastWarning: c.lastWarning,
	}
}

// Reset zeroes all counters in place.
func (c *CounterSink) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = time.Now()
	c.compared, c.same, c.changed, c.onlyOld, c.onlyNew = 0, 0, 0, 0, 0
	c.warnings, c.lastWarning = 0, ""
}
