package fixup_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmoslab/frisbee/internal/fixup"
)

func TestHasFixupAndApply(t *testing.T) {
	s := fixup.New()
	s.Add(fixup.Fixup{ByteStart: 100, ByteSize: 4, Payload: []byte{0xAA, 0xBB, 0xCC, 0xDD}})

	require.True(t, s.HasFixup(0, 200))
	require.False(t, s.HasFixup(200, 50))

	buf := make([]byte, 10)
	require.NoError(t, s.Apply(98, buf))
	require.Equal(t, []byte{0, 0, 0xAA, 0xBB, 0xCC, 0xDD, 0, 0, 0, 0}, buf)
}

func TestApplyRejectsShortPayload(t *testing.T) {
	s := fixup.New()
	s.Add(fixup.Fixup{ByteStart: 0, ByteSize: 4, Payload: []byte{1}})

	buf := make([]byte, 4)
	err := s.Apply(0, buf)
	require.Error(t, err)
}

func TestSaveRestoreDiscardsChanges(t *testing.T) {
	s := fixup.New()
	s.Add(fixup.Fixup{ByteStart: 0, ByteSize: 1, Payload: []byte{1}})
	s.Save()

	s.Add(fixup.Fixup{ByteStart: 10, ByteSize: 1, Payload: []byte{2}})
	require.True(t, s.HasFixup(10, 1))

	s.Restore(false)
	require.False(t, s.HasFixup(10, 1))
	require.True(t, s.HasFixup(0, 1))
}

func TestSaveRestoreKeepsChanges(t *testing.T) {
	s := fixup.New()
	s.Save()
	s.Add(fixup.Fixup{ByteStart: 0, ByteSize: 1, Payload: []byte{1}})

	s.Restore(true)
	require.True(t, s.HasFixup(0, 1))
}

func TestEqual(t *testing.T) {
	a := fixup.New()
	b := fixup.New()
	require.True(t, a.Equal(b))

	a.Add(fixup.Fixup{ByteStart: 0, ByteSize: 2, Payload: []byte{1, 2}})
	require.False(t, a.Equal(b))

	b.Add(fixup.Fixup{ByteStart: 0, ByteSize: 2, Payload: []byte{1, 2}})
	require.True(t, a.Equal(b))
}
