package sigfile

import (
	"github.com/cosmoslab/frisbee/internal/hashkind"
	"github.com/cosmoslab/frisbee/internal/sector"
)

// Version identifies one of the three on-disk signature formats.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

// Signature is the normalized, in-memory form of a captured signature
// file. Regardless of on-disk Version, Regions is always held with 64-bit
// absolute starts: Load adds the partition offset on read, and Save
// subtracts it again on a copy, so the in-memory form always stays in
// absolute disk coordinates and is reusable across multiple writes.
type Signature struct {
	SourceVersion Version // version this Signature was loaded from, or 0 if newly built
	HashKind      hashkind.Kind
	HashBlockSize uint32 // sectors
	Regions       []Region

	// MaxRegionSize is the largest region's Size, recorded on load as an
	// I/O buffer sizing hint.
	MaxRegionSize uint32
}

// New returns an empty signature ready to be populated by the delta
// computer.
func New(kind hashkind.Kind, hashBlockSize uint32) *Signature {
	return &Signature{HashKind: kind, HashBlockSize: hashBlockSize}
}

// AddRegion appends a region in absolute coordinates, keeping Regions
// sorted as the delta computer only ever appends in ascending order.
func (s *Signature) AddRegion(r Region) {
	s.Regions = append(s.Regions, r)
	if r.Size > s.MaxRegionSize {
		s.MaxRegionSize = r.Size
	}
}

// unrebased returns a copy of Regions with off subtracted from every
// Start, for writing. ok is false if any region's
// Start < off (RegionUnderPartition).
func unrebased(regions []Region, off sector.Sector) (out []Region, ok bool) {
	out = make([]Region, len(regions))
	for i, r := range regions {
		if r.Start < off {
			return nil, false
		}
		r.Start -= off
		out[i] = r
	}
	return out, true
}
