package sector_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmoslab/frisbee/internal/sector"
)

func TestRangeEnd(t *testing.T) {
	r := sector.Range{Start: 10, Size: 5}
	require.Equal(t, sector.Sector(15), r.End())
}

func TestRangeValidate(t *testing.T) {
	require.NoError(t, sector.Range{Start: 0, Size: 1}.Validate())
	require.Error(t, sector.Range{Start: 0, Size: 0}.Validate())
}

func TestRangeOverlapsAndContains(t *testing.T) {
	a := sector.Range{Start: 0, Size: 10}
	b := sector.Range{Start: 5, Size: 10}
	c := sector.Range{Start: 20, Size: 5}

	require.True(t, a.Overlaps(b))
	require.False(t, a.Overlaps(c))
	require.True(t, a.Contains(sector.Range{Start: 2, Size: 3}))
	require.False(t, a.Contains(b))
}

func TestRangeRebaseAndUnrebase(t *testing.T) {
	r := sector.Range{Start: 100, Size: 4}
	rebased := r.Rebase(1000)
	require.Equal(t, sector.Sector(1100), rebased.Start)

	back, ok := rebased.Unrebase(1000)
	require.True(t, ok)
	require.Equal(t, r, back)

	_, ok = r.Unrebase(1000)
	require.False(t, ok)
}

func TestBytesConversion(t *testing.T) {
	require.Equal(t, int64(512), sector.Sector(1).Bytes())
	require.Equal(t, sector.Sector(2), sector.FromBytes(1024))
}

func TestFitsWidth32(t *testing.T) {
	require.True(t, sector.FitsWidth32(0xFFFFFFFF))
	require.False(t, sector.FitsWidth32(0x100000000))
}
