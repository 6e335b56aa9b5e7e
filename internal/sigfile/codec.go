package sigfile

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/go-restruct/restruct"

	"github.com/cosmoslab/frisbee/internal/engineerr"
	"github.com/cosmoslab/frisbee/internal/hashkind"
	"github.com/cosmoslab/frisbee/internal/sector"
	"github.com/cosmoslab/frisbee/internal/stats"
)

const op = "sigfile"

// Load reads a signature file and normalizes it to the in-memory v3 shape.
// partitionOffset is added to every region's Start so the result is in
// absolute disk coordinates. sink receives warning diagnostics; it may be
// nil.
func Load(path string, partitionOffset sector.Sector, sink stats.Sink) (*Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.KindIoError, op+".Load")
	}
	defer f.Close()

	hdrBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		return nil, engineerr.Wrap(err, engineerr.KindBadSignature, op+".Load")
	}

	var hdr headerWire
	if err := restruct.Unpack(hdrBuf, binary.LittleEndian, &hdr); err != nil {
		return nil, engineerr.Wrap(err, engineerr.KindBadSignature, op+".Load")
	}
	if string(hdr.Magic[:]) != wireMagic {
		return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "bad magic")
	}
	version := Version(hdr.Version)
	if version != V1 && version != V2 && version != V3 {
		return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "unsupported signature version")
	}

	kind := hashkind.Kind(hdr.HashKind)
	if !hashkind.ValidForVersion(kind, int(version)) {
		return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "hash kind invalid for signature version")
	}

	hashBlockSize := hdr.HashBlockSize
	if version == V1 {
		hashBlockSize = legacyHashBlockSectors
	}
	if hashBlockSize == 0 {
		return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "zero hash_block_size")
	}

	recSize := regionV64Size
	if version == V1 || version == V2 {
		recSize = regionV32Size
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.KindIoError, op+".Load")
	}
	wantBytes := int64(headerSize) + int64(hdr.NRegions)*int64(recSize)
	if wantBytes > fi.Size() {
		return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "nregions exceeds file size")
	}

	sig := &Signature{SourceVersion: version, HashKind: kind, HashBlockSize: hashBlockSize}
	regBuf := make([]byte, int(hdr.NRegions)*recSize)
	if _, err := io.ReadFull(f, regBuf); err != nil {
		return nil, engineerr.Wrap(err, engineerr.KindBadSignature, op+".Load")
	}

	var prevStart sector.Sector
	for i := uint32(0); i < hdr.NRegions; i++ {
		chunk := regBuf[int(i)*recSize : int(i+1)*recSize]
		var reg Region
		if version == V3 {
			var w regionV64Wire
			if err := restruct.Unpack(chunk, binary.LittleEndian, &w); err != nil {
				return nil, engineerr.Wrap(err, engineerr.KindBadSignature, op+".Load")
			}
			reg = Region{Start: sector.Sector(w.Start), Size: w.Size, ChunkNo: w.ChunkNo, Digest: w.Digest}
		} else {
			var w regionV32Wire
			if err := restruct.Unpack(chunk, binary.LittleEndian, &w); err != nil {
				return nil, engineerr.Wrap(err, engineerr.KindBadSignature, op+".Load")
			}
			var digest [32]byte
			copy(digest[:], w.Digest[:])
			reg = Region{Start: sector.Sector(w.Start), Size: w.Size, ChunkNo: w.ChunkNo, Digest: digest}
		}
		if reg.Size == 0 {
			return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "zero-size region on disk")
		}
		if reg.Size > hashBlockSize {
			return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "region size exceeds hash_block_size")
		}
		if i > 0 && reg.Start < prevStart {
			return nil, engineerr.New(engineerr.KindBadSignature, op+".Load", "regions not sorted ascending")
		}
		prevStart = reg.Start

		// Rebase: on disk, partition-relative; in memory, absolute.
		reg.Start += partitionOffset
		sig.AddRegion(reg)
	}

	return sig, nil
}

// Save writes sig to path at the requested target version, subtracting
// partitionOffset from a copy of the regions (the in-memory Signature is
// left untouched, so it can be saved again at a different version or
// offset). imageModTime, if non-zero, is paired onto the written
// signature file's mtime, a fast but fragile association mechanism: any
// later touch of the image's mtime silently breaks the pairing. sink
// receives warning diagnostics for the v2->v3 downgrade and any utimes
// failure; it may be nil.
func Save(path string, sig *Signature, target Version, partitionOffset sector.Sector, imageModTime int64, sink stats.Sink) error {
	regions, ok := unrebased(sig.Regions, partitionOffset)
	if !ok {
		return engineerr.New(engineerr.KindRegionUnderPartition, op+".Save",
			"a region's start underflows the partition offset")
	}

	effective := target
	if target == V2 {
		if sig.HashKind == hashkind.SHA256 {
			diag("sigfile: downgrading v2 write to v3: hash kind SHA256 is v3-only", sink)
			effective = V3
		} else if anyExceedsWidth32(regions) {
			diag("sigfile: downgrading v2 write to v3: a region start exceeds 32-bit range", sink)
			effective = V3
		}
	}

	hdr := headerWire{Version: uint32(effective), HashKind: uint32(sig.HashKind), NRegions: uint32(len(regions))}
	copy(hdr.Magic[:], wireMagic)
	if effective == V1 {
		hdr.HashBlockSize = 0
	} else {
		hdr.HashBlockSize = sig.HashBlockSize
	}

	hdrBuf, err := restruct.Pack(binary.LittleEndian, &hdr)
	if err != nil {
		return engineerr.Wrap(err, engineerr.KindIoError, op+".Save")
	}

	var body []byte
	body = append(body, hdrBuf...)
	for _, r := range regions {
		var recBuf []byte
		var packErr error
		if effective == V3 {
			recBuf, packErr = restruct.Pack(binary.LittleEndian, &regionV64Wire{
				Start: uint64(r.Start), Size: r.Size, ChunkNo: r.ChunkNo, Digest: r.Digest,
			})
		} else {
			var d [digestLenV1V2]byte
			copy(d[:], r.Digest[:digestLenV1V2])
			recBuf, packErr = restruct.Pack(binary.LittleEndian, &regionV32Wire{
				Start: uint32(r.Start), Size: r.Size, ChunkNo: r.ChunkNo, Digest: d,
			})
		}
		if packErr != nil {
			return engineerr.Wrap(packErr, engineerr.KindIoError, op+".Save")
		}
		body = append(body, recBuf...)
	}

	if err := writeFileAtomic(path, body, 0o644); err != nil {
		return engineerr.Wrap(err, engineerr.KindIoError, op+".Save")
	}

	if imageModTime != 0 {
		if err := pairModTime(path, imageModTime); err != nil {
			diag("sigfile: utimes failed, signature/image mtime pairing not established: "+err.Error(), sink)
		}
	}
	return nil
}

func anyExceedsWidth32(regions []Region) bool {
	for _, r := range regions {
		if !sector.FitsWidth32(r.Start) {
			return true
		}
	}
	return false
}

func diag(msg string, sink stats.Sink) {
	if sink != nil {
		sink.Warning(msg)
	}
}
