package sigfile

// On-disk wire layouts. Declared as plain Go structs and (un)packed with
// github.com/go-restruct/restruct, which infers each field's wire width
// from its Go type and applies the requested byte order, so the v1/v2
// (32-bit) and v3 (64-bit) region records share one codec path.

const (
	wireMagic      = "imgh"
	headerSize     = 128
	headerReserved = headerSize - 4 - 4 - 4 - 4 - 4 // magic + version + hash_kind + nregions + hash_block_size

	regionV32Size = 4 + 4 + 4 + 20 // start, size, chunk_no, digest[20]
	regionV64Size = 8 + 4 + 4 + 32 // start, size, chunk_no, digest[32]

	legacyHashBlockSectors = 128 // synthesized hash_block_size for v1
	digestLenV1V2          = 20
	digestLenV3            = 32
)

// headerWire is the fixed 128-byte signature header.
type headerWire struct {
	Magic          [4]byte
	Version        uint32
	HashKind       uint32
	NRegions       uint32
	HashBlockSize  uint32
	Reserved       [headerReserved]byte
}

// regionV32Wire is one v1/v2 region record (partition-relative on disk).
type regionV32Wire struct {
	Start   uint32
	Size    uint32
	ChunkNo int32
	Digest  [digestLenV1V2]byte
}

// regionV64Wire is one v3 region record (partition-relative on disk).
type regionV64Wire struct {
	Start   uint64
	Size    uint32
	ChunkNo int32
	Digest  [digestLenV3]byte
}
