package sigfile

import "github.com/cosmoslab/frisbee/internal/sector"

// spanBit is the high bit of chunk_no, reserved as the "this region spans
// into the next chunk" flag.
const spanBit int32 = -1 << 31

// Region is a hash region: a range plus a digest of that range's bytes,
// normalized to the in-memory v3 shape (64-bit start, 32-byte digest)
// regardless of which on-disk version it was read from.
type Region struct {
	Start   sector.Sector
	Size    uint32
	ChunkNo int32 // low 31 bits: chunk number; high bit: spans-into-next-chunk flag
	Digest  [32]byte
}

// Range returns the region's sector range.
func (r Region) Range() sector.Range { return sector.Range{Start: r.Start, Size: r.Size} }

// End returns the sector immediately following the region.
func (r Region) End() sector.Sector { return r.Range().End() }

// ChunkNumber returns the chunk number with the span flag masked out.
func (r Region) ChunkNumber() int32 { return r.ChunkNo &^ spanBit }

// Spans reports whether the span-into-next-chunk bit is set.
func (r Region) Spans() bool { return r.ChunkNo&spanBit != 0 }

// WithChunkNo returns a copy of r with its chunk number set (span bit
// cleared).
func (r Region) WithChunkNo(n int32) Region {
	r.ChunkNo = n &^ spanBit
	return r
}

// WithSpan returns a copy of r with the span-into-next-chunk bit set (or
// cleared).
func (r Region) WithSpan(spans bool) Region {
	if spans {
		r.ChunkNo |= spanBit
	} else {
		r.ChunkNo &^= spanBit
	}
	return r
}

// DigestSlice returns the digest truncated to n significant bytes (the
// rest of the fixed 32-byte field is defined to be zero).
func (r Region) DigestSlice(n int) []byte {
	if n > len(r.Digest) {
		n = len(r.Digest)
	}
	return r.Digest[:n]
}
