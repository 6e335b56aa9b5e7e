// Package delta implements the three-way interleave walk that is the core
// of the engine: given the disk's currently allocated ranges and a prior
// signature, it produces the minimal set of ranges that changed and,
// optionally, a signature covering the current allocation.
package delta

import (
	"bytes"
	"os"

	"github.com/cosmoslab/frisbee/internal/blockhash"
	"github.com/cosmoslab/frisbee/internal/engineerr"
	"github.com/cosmoslab/frisbee/internal/fixup"
	"github.com/cosmoslab/frisbee/internal/hashkind"
	"github.com/cosmoslab/frisbee/internal/rangelist"
	"github.com/cosmoslab/frisbee/internal/sector"
	"github.com/cosmoslab/frisbee/internal/sigfile"
	"github.com/cosmoslab/frisbee/internal/stats"
)

const op = "delta.Compute"

// Context bundles everything the walk needs that isn't part of its two
// range inputs. Disk is the caller-owned file descriptor; the engine only
// reads and seeks it. Fixups may be nil (no fixups apply). Sink may be nil.
type Context struct {
	Disk            *os.File
	PartitionOffset sector.Sector
	Fixups          *fixup.Set
	Sink            stats.Sink

	// EmitNewSig requests a new signature covering exactly CurRanges.
	EmitNewSig bool

	// HashFreeMode controls whether a full-region hash comparison is
	// attempted when CurRanges only partially covers an old-signature
	// region. When false, partially covered regions go straight into the
	// delta without a hash read. engineconfig.Default() sets it to true.
	HashFreeMode bool

	// DefaultHashKind and DefaultHashBlockSize seed a brand-new signature
	// when OldSig has no regions at all.
	DefaultHashKind      hashkind.Kind
	DefaultHashBlockSize uint32

	// Cancel, if non-nil, is polled at the top of each step of the walk.
	// When it returns true the walk aborts as if it had hit an I/O error,
	// restoring the fixup snapshot and discarding partial output.
	Cancel func() bool
}

// Result is the walk's output.
type Result struct {
	DeltaRanges []sector.Range
	NewSig      *sigfile.Signature
}

// Compute runs the delta walk. curRanges must be non-empty and sorted;
// oldSig may have zero regions (every cur range is then delta).
func Compute(ctx Context, curRanges *rangelist.List, oldSig *sigfile.Signature) (Result, error) {
	ctx.Sink = stats.Or(ctx.Sink)
	if ctx.Fixups != nil {
		ctx.Fixups.Save()
	}

	res, err := runWalk(ctx, curRanges, oldSig)

	if ctx.Fixups != nil {
		ctx.Fixups.Restore(err == nil)
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func runWalk(ctx Context, curRanges *rangelist.List, oldSig *sigfile.Signature) (Result, error) {
	for it := rangelist.NewIterator(curRanges); !it.Done(); it.Next() {
		if it.Peek().Size == 0 {
			panic("delta: zero-size range in cur_ranges")
		}
	}
	for _, r := range oldSig.Regions {
		if r.Size == 0 {
			panic("delta: zero-size region in old signature")
		}
	}

	effKind := ctx.DefaultHashKind
	effBlockSize := ctx.DefaultHashBlockSize
	if len(oldSig.Regions) > 0 {
		effKind = oldSig.HashKind
		effBlockSize = oldSig.HashBlockSize
	}
	if effKind == 0 {
		effKind = hashkind.SHA256
	}
	if effBlockSize == 0 {
		effBlockSize = 128
	}
	digestLen := hashkind.DigestLen(effKind)
	scratch := make([]byte, 0, int64(effBlockSize)*sector.Size)

	delta := rangelist.New()
	var newSig *sigfile.Signature
	if ctx.EmitNewSig {
		newSig = sigfile.New(effKind, effBlockSize)
	}

	w := &walker{
		ctx:       ctx,
		delta:     delta,
		newSig:    newSig,
		effKind:   effKind,
		digestLen: digestLen,
		scratch:   scratch,
	}

	dit := rangelist.NewIterator(curRanges)
	hi := 0
	hs := oldSig.Regions

	for !dit.Done() || hi < len(hs) {
		if ctx.Cancel != nil && ctx.Cancel() {
			return Result{}, engineerr.New(engineerr.KindCancelled, op, "caller requested cancellation")
		}

		switch {
		case dit.Done():
			// case 4: remaining h has nothing left in cur_ranges.
			w.accountOrigOnly(hs[hi].Size)
			hi++

		case hi >= len(hs):
			// case 5: remaining d is emitted whole and added to new_sig.
			d := dit.Peek()
			w.emitWholeDelta(d)
			if err := w.addAlignedNewSigEntries(d); err != nil {
				return Result{}, err
			}
			dit.Next()

		default:
			d := dit.Peek()
			h := hs[hi]

			switch {
			case d.End() <= h.Start:
				// case 1
				w.emitWholeDelta(d)
				if err := w.addAlignedNewSigEntries(d); err != nil {
					return Result{}, err
				}
				dit.Next()

			case h.End() <= d.Start:
				// case 2
				w.accountOrigOnly(h.Size)
				hi++

			default:
				// case 3: overlap.
				if d.Start < h.Start {
					carved := uint32(h.Start - d.Start)
					head := sector.Range{Start: d.Start, Size: carved}
					w.emitWholeDelta(head)
					if err := w.addAlignedNewSigEntries(head); err != nil {
						return Result{}, err
					}
					dit.SetHead(sector.Range{Start: h.Start, Size: d.Size - carved})
					continue
				}

				if err := w.processOverlap(dit, h); err != nil {
					return Result{}, err
				}
				hi++
			}
		}
	}

	out := Result{DeltaRanges: delta.Ranges()}
	if ctx.EmitNewSig {
		out.NewSig = newSig
	}
	return out, nil
}

type walker struct {
	ctx       Context
	delta     *rangelist.List
	newSig    *sigfile.Signature
	effKind   hashkind.Kind
	digestLen int
	scratch   []byte
}

func (w *walker) accountOrigOnly(n uint32) {
	w.ctx.Sink.SectorsOnlyOld(n)
}

func (w *walker) emitWholeDelta(r sector.Range) {
	w.delta.Append(r.Start, r.Size)
	w.ctx.Sink.SectorsOnlyNew(r.Size)
}

// processOverlap handles the case where d.Start >= h.Start and
// d.Start < h.End(): the "decide whether the span described by h has
// changed" and "emit sub-dranges" steps of the walk.
func (w *walker) processOverlap(dit *rangelist.Iterator, h sigfile.Region) error {
	hRange := h.Range()

	fixupForce := w.ctx.Fixups != nil && w.ctx.Fixups.HasFixup(hRange.Start.Bytes(), int64(hRange.Size)*sector.Size)

	var hashed, changed bool
	var freshDigest []byte

	if !fixupForce && (w.ctx.HashFreeMode || fullyCovers(dit.Peek(), hRange)) {
		digest, err := blockhash.Hash(w.ctx.Disk, hRange, w.effKind, w.ctx.Fixups, w.scratch)
		if err != nil {
			return err
		}
		hashed = true
		freshDigest = digest
		changed = !bytes.Equal(digest, h.DigestSlice(w.digestLen))
		w.ctx.Sink.SectorsCompared(hRange.Size)
	} else {
		changed = true
	}

	for !dit.Done() && dit.Peek().Start < hRange.End() {
		d := dit.Peek()
		coveredEnd := d.End()
		if coveredEnd > hRange.End() {
			coveredEnd = hRange.End()
		}
		covered := sector.Range{Start: d.Start, Size: uint32(coveredEnd - d.Start)}

		split := d.End() > hRange.End()

		if changed {
			w.delta.AppendRange(covered)
			w.ctx.Sink.SectorsChanged(covered.Size)
			if w.ctx.EmitNewSig && !hashed {
				if err := w.addAlignedNewSigEntries(covered); err != nil {
					return err
				}
			}
		} else {
			w.ctx.Sink.SectorsSame(covered.Size)
		}

		if split {
			dit.SetHead(sector.Range{Start: hRange.End(), Size: uint32(d.End() - hRange.End())})
			break
		}
		dit.Next()
	}

	if hashed && w.ctx.EmitNewSig {
		w.newSig.AddRegion(sigfile.Region{Start: hRange.Start, Size: hRange.Size, Digest: toDigest32(freshDigest)})
	}

	return nil
}

// addAlignedNewSigEntries splits r into hash-block-aligned chunks relative
// to the partition base and hashes each chunk fresh. Used whenever a
// sub-drange enters the delta without an already-known-correct digest for
// its full extent.
func (w *walker) addAlignedNewSigEntries(r sector.Range) error {
	if !w.ctx.EmitNewSig {
		return nil
	}

	blockSize := w.newSig.HashBlockSize
	rel := uint64(r.Start - w.ctx.PartitionOffset)
	offsetInBlock := uint32(rel % uint64(blockSize))

	start := r.Start
	remaining := r.Size

	if offsetInBlock != 0 {
		size := blockSize - offsetInBlock
		if size > remaining {
			size = remaining
		}
		if err := w.hashChunk(sector.Range{Start: start, Size: size}); err != nil {
			return err
		}
		start += sector.Sector(size)
		remaining -= size
	}

	for remaining > 0 {
		size := blockSize
		if size > remaining {
			size = remaining
		}
		if err := w.hashChunk(sector.Range{Start: start, Size: size}); err != nil {
			return err
		}
		start += sector.Sector(size)
		remaining -= size
	}
	return nil
}

func (w *walker) hashChunk(r sector.Range) error {
	digest, err := blockhash.Hash(w.ctx.Disk, r, w.effKind, w.ctx.Fixups, w.scratch)
	if err != nil {
		return err
	}
	w.newSig.AddRegion(sigfile.Region{Start: r.Start, Size: r.Size, Digest: toDigest32(digest)})
	return nil
}

func toDigest32(digest []byte) [32]byte {
	var d32 [32]byte
	copy(d32[:], hashkind.PadDigest(digest, len(d32)))
	return d32
}

func fullyCovers(d, h sector.Range) bool {
	return d.Start == h.Start && d.Size >= h.Size
}
