package rangelist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmoslab/frisbee/internal/rangelist"
	"github.com/cosmoslab/frisbee/internal/sector"
)

func TestAppendCoalescesAbuttingRanges(t *testing.T) {
	l := rangelist.New()
	l.Append(0, 4)
	l.Append(4, 4)
	l.Append(10, 2)

	require.Equal(t, []sector.Range{
		{Start: 0, Size: 8},
		{Start: 10, Size: 2},
	}, l.Ranges())
}

func TestAppendZeroSizePanics(t *testing.T) {
	l := rangelist.New()
	require.Panics(t, func() { l.Append(0, 0) })
}

func TestEmptyAndFree(t *testing.T) {
	l := rangelist.New()
	require.True(t, l.Empty())
	l.Append(0, 1)
	require.False(t, l.Empty())
	l.Free()
	require.True(t, l.Empty())
	_, ok := l.Tail()
	require.False(t, ok)
}

func TestIteratorSetHeadAndNext(t *testing.T) {
	l := rangelist.FromSlice([]sector.Range{{Start: 0, Size: 10}, {Start: 20, Size: 5}})
	it := rangelist.NewIterator(l)

	require.False(t, it.Done())
	require.Equal(t, sector.Range{Start: 0, Size: 10}, it.Peek())

	it.SetHead(sector.Range{Start: 5, Size: 5})
	require.Equal(t, sector.Range{Start: 5, Size: 5}, it.Peek())

	it.Next()
	require.Equal(t, sector.Range{Start: 20, Size: 5}, it.Peek())

	it.Next()
	require.True(t, it.Done())
}

func TestFromSliceCoalesces(t *testing.T) {
	l := rangelist.FromSlice([]sector.Range{{Start: 0, Size: 4}, {Start: 4, Size: 4}})
	require.Equal(t, 1, l.Len())
}
