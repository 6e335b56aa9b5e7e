// Package reloc implements the relocation table: an ordered list of
// per-sector structural fixup locations (disklabels, boot sectors) that
// downstream chunk writers need to know about, at a fixed integer width
// per file (32 or 64-bit).
//
// The on-disk record shape is declared with github.com/go-restruct/restruct
// struct tags rather than hand-rolled binary.LittleEndian offsets, with one
// record struct per width; in memory both widths share the Relocation type.
package reloc

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/go-restruct/restruct"
	"github.com/pkg/errors"

	"github.com/cosmoslab/frisbee/internal/engineerr"
)

// Type enumerates the kinds of structural relocation a chunk writer must
// reapply when reconstructing an image.
type Type uint16

const (
	TypeFBSDDisklabel Type = iota + 1
	TypeOBSDDisklabel
	TypeLILOSectorAddress
	TypeLILOMapSector
	TypeLILOChecksum
	TypeShortSector
	TypeAddPartitionOffset
	TypeXOR16Checksum
	TypeChecksumRange
)

// Relocation is a single structural fixup location.
//
// Invariant: SectOff+Size <= sector.Size.
type Relocation struct {
	Type    Type
	Sector  uint64 // always held as 64-bit in memory; narrowed on Width32 extraction
	SectOff uint16
	Size    uint16
}

// record32 is the on-disk layout for a 32-bit-width relocation file.
type record32 struct {
	Type    uint16 `struct:"uint16"`
	Sector  uint32 `struct:"uint32"`
	SectOff uint16 `struct:"uint16"`
	Size    uint16 `struct:"uint16"`
}

// record64 is the on-disk layout for a 64-bit-width relocation file.
type record64 struct {
	Type    uint16 `struct:"uint16"`
	Sector  uint64 `struct:"uint64"`
	SectOff uint16 `struct:"uint16"`
	Size    uint16 `struct:"uint16"`
}

// Width is the wire width a relocation Table commits to on its first Add.
type Width int

const (
	WidthUnset Width = 0
	Width32    Width = 32
	Width64    Width = 64
)

// Table is an ordered list of relocations. Width is fixed on first Add and
// every later operation must agree with it.
type Table struct {
	width Width
	items []Relocation
}

// New returns an empty relocation table with no width committed yet.
func New() *Table { return &Table{} }

// Width reports the table's committed width, or WidthUnset if empty.
func (t *Table) Width() Width { return t.width }

// Len returns the number of relocations in the table.
func (t *Table) Len() int { return len(t.items) }

// Items returns the table's relocations in order.
func (t *Table) Items() []Relocation { return append([]Relocation(nil), t.items...) }

// AddFromChunkHeader appends one relocation, asserting that Sector is
// monotonically non-decreasing relative to the last entry and
// that width is consistent across calls.
func (t *Table) AddFromChunkHeader(width Width, rel Relocation) error {
	if t.width == WidthUnset {
		t.width = width
	} else if t.width != width {
		return engineerr.New(engineerr.KindFixupViolation, "reloc.AddFromChunkHeader",
			"relocation width mismatch: table is fixed at a different width")
	}
	if len(t.items) > 0 && rel.Sector < t.items[len(t.items)-1].Sector {
		return engineerr.New(engineerr.KindFixupViolation, "reloc.AddFromChunkHeader",
			"relocation sector is not monotonically non-decreasing")
	}
	if int(rel.SectOff)+int(rel.Size) > 512 {
		return engineerr.New(engineerr.KindFixupViolation, "reloc.AddFromChunkHeader",
			"relocation sectoff+size exceeds sector size")
	}
	t.items = append(t.items, rel)
	return nil
}

// InRange counts the relocations whose Sector falls within
// [addr, addr+size).
func (t *Table) InRange(addr, size uint64) int {
	n := 0
	lo := sort.Search(len(t.items), func(i int) bool { return t.items[i].Sector >= addr })
	for i := lo; i < len(t.items) && t.items[i].Sector < addr+size; i++ {
		n++
	}
	return n
}

// ExtractIntoChunkHeader packs the relocations whose Sector lies in
// [chunkFirstSect, chunkLastSect) into a trailing byte buffer suitable for
// a chunk header's relocation payload, at the table's committed width.
func (t *Table) ExtractIntoChunkHeader(chunkFirstSect, chunkLastSect uint64) ([]byte, error) {
	var buf bytes.Buffer
	for _, rel := range t.items {
		if rel.Sector < chunkFirstSect || rel.Sector >= chunkLastSect {
			continue
		}
		b, err := packOne(t.width, rel)
		if err != nil {
			return nil, errors.Wrap(err, "reloc.ExtractIntoChunkHeader")
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

func packOne(width Width, rel Relocation) ([]byte, error) {
	switch width {
	case Width64, WidthUnset:
		r := record64{Type: uint16(rel.Type), Sector: rel.Sector, SectOff: rel.SectOff, Size: rel.Size}
		return restruct.Pack(binary.LittleEndian, &r)
	case Width32:
		r := record32{Type: uint16(rel.Type), Sector: uint32(rel.Sector), SectOff: rel.SectOff, Size: rel.Size}
		return restruct.Pack(binary.LittleEndian, &r)
	default:
		return nil, engineerr.New(engineerr.KindFixupViolation, "reloc.packOne", "unknown relocation width")
	}
}

// DecodeAll parses a packed relocation buffer of the given width into a
// slice of Relocation values, the inverse of repeated ExtractIntoChunkHeader
// output concatenation.
func DecodeAll(width Width, buf []byte) ([]Relocation, error) {
	var recSize int
	switch width {
	case Width32:
		recSize = 10
	case Width64:
		recSize = 14
	default:
		return nil, engineerr.New(engineerr.KindFixupViolation, "reloc.DecodeAll", "unknown relocation width")
	}
	if len(buf)%recSize != 0 {
		return nil, engineerr.New(engineerr.KindBadSignature, "reloc.DecodeAll", "relocation buffer is not a multiple of the record size")
	}
	out := make([]Relocation, 0, len(buf)/recSize)
	for off := 0; off < len(buf); off += recSize {
		chunk := buf[off : off+recSize]
		switch width {
		case Width32:
			var r record32
			if err := restruct.Unpack(chunk, binary.LittleEndian, &r); err != nil {
				return nil, errors.Wrap(err, "reloc.DecodeAll")
			}
			out = append(out, Relocation{Type: Type(r.Type), Sector: uint64(r.Sector), SectOff: r.SectOff, Size: r.Size})
		case Width64:
			var r record64
			if err := restruct.Unpack(chunk, binary.LittleEndian, &r); err != nil {
				return nil, errors.Wrap(err, "reloc.DecodeAll")
			}
			out = append(out, Relocation{Type: Type(r.Type), Sector: r.Sector, SectOff: r.SectOff, Size: r.Size})
		}
	}
	return out, nil
}
