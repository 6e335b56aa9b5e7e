package reloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmoslab/frisbee/internal/reloc"
)

func TestAddFromChunkHeaderFixesWidth(t *testing.T) {
	tbl := reloc.New()
	require.Equal(t, reloc.WidthUnset, tbl.Width())

	require.NoError(t, tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{
		Type: reloc.TypeFBSDDisklabel, Sector: 0, SectOff: 0, Size: 4,
	}))
	require.Equal(t, reloc.Width32, tbl.Width())

	err := tbl.AddFromChunkHeader(reloc.Width64, reloc.Relocation{Sector: 1})
	require.Error(t, err)
}

func TestAddFromChunkHeaderRejectsNonMonotonic(t *testing.T) {
	tbl := reloc.New()
	require.NoError(t, tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{Sector: 10}))
	err := tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{Sector: 5})
	require.Error(t, err)
}

func TestAddFromChunkHeaderRejectsOutOfBounds(t *testing.T) {
	tbl := reloc.New()
	err := tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{Sector: 0, SectOff: 500, Size: 100})
	require.Error(t, err)
}

func TestInRange(t *testing.T) {
	tbl := reloc.New()
	require.NoError(t, tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{Sector: 5, Size: 2}))
	require.NoError(t, tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{Sector: 8, Size: 2}))
	require.NoError(t, tbl.AddFromChunkHeader(reloc.Width32, reloc.Relocation{Sector: 20, Size: 2}))

	require.Equal(t, 2, tbl.InRange(0, 10))
	require.Equal(t, 1, tbl.InRange(8, 10))
	require.Equal(t, 0, tbl.InRange(100, 10))
}

func TestExtractAndDecodeRoundTrip32(t *testing.T) {
	tbl := reloc.New()
	want := []reloc.Relocation{
		{Type: reloc.TypeLILOSectorAddress, Sector: 1, SectOff: 2, Size: 4},
		{Type: reloc.TypeLILOChecksum, Sector: 2, SectOff: 8, Size: 2},
	}
	for _, r := range want {
		require.NoError(t, tbl.AddFromChunkHeader(reloc.Width32, r))
	}

	buf, err := tbl.ExtractIntoChunkHeader(0, 10)
	require.NoError(t, err)

	got, err := reloc.DecodeAll(reloc.Width32, buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestExtractAndDecodeRoundTrip64(t *testing.T) {
	tbl := reloc.New()
	want := reloc.Relocation{Type: reloc.TypeAddPartitionOffset, Sector: 1 << 40, SectOff: 0, Size: 8}
	require.NoError(t, tbl.AddFromChunkHeader(reloc.Width64, want))

	buf, err := tbl.ExtractIntoChunkHeader(0, 1<<41)
	require.NoError(t, err)

	got, err := reloc.DecodeAll(reloc.Width64, buf)
	require.NoError(t, err)
	require.Equal(t, []reloc.Relocation{want}, got)
}

func TestDecodeAllRejectsBadBufferLength(t *testing.T) {
	_, err := reloc.DecodeAll(reloc.Width32, []byte{1, 2, 3})
	require.Error(t, err)
}
