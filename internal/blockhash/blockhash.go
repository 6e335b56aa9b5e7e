// Package blockhash implements the seek-read-fixup-digest sequence for one
// hash-block-sized range of a disk image. It is pure sequencing over
// internal/hashkind and internal/fixup.
package blockhash

import (
	"io"
	"os"

	"github.com/cosmoslab/frisbee/internal/engineerr"
	"github.com/cosmoslab/frisbee/internal/fixup"
	"github.com/cosmoslab/frisbee/internal/hashkind"
	"github.com/cosmoslab/frisbee/internal/sector"
)

const op = "blockhash.Hash"

// Hash reads the byte range [r.Start*sector.Size, r.Start*sector.Size +
// r.Size*sector.Size) from disk, applies any overlapping fixups from fs,
// and returns the digest of the (possibly patched) bytes under kind.
//
// scratch, if large enough to hold the range, is reused instead of
// allocating; pass nil to always allocate. fs may be nil (no fixups
// apply).
func Hash(disk *os.File, r sector.Range, kind hashkind.Kind, fs *fixup.Set, scratch []byte) ([]byte, error) {
	byteStart := r.Start.Bytes()
	byteSize := int64(r.Size) * sector.Size

	buf := scratch
	if int64(cap(buf)) < byteSize {
		buf = make([]byte, byteSize)
	} else {
		buf = buf[:byteSize]
	}

	n, err := disk.ReadAt(buf, byteStart)
	if err != nil && err != io.EOF {
		return nil, engineerr.Wrap(err, engineerr.KindIoError, op)
	}
	if int64(n) < byteSize {
		return nil, engineerr.New(engineerr.KindShortRead, op, "read fewer bytes than the requested range")
	}

	if fs != nil && fs.HasFixup(byteStart, byteSize) {
		if err := fs.Apply(byteStart, buf); err != nil {
			return nil, err
		}
	}

	digest, err := hashkind.Compute(kind, buf)
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.KindIoError, op)
	}
	return digest, nil
}
