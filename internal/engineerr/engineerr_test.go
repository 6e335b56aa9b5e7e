package engineerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmoslab/frisbee/internal/engineerr"
)

func TestNewAndKindOf(t *testing.T) {
	err := engineerr.New(engineerr.KindBadSignature, "sigfile.Load", "bad magic")
	require.Equal(t, engineerr.KindBadSignature, engineerr.KindOf(err))
	require.True(t, engineerr.IsKind(err, engineerr.KindBadSignature))
	require.False(t, engineerr.IsKind(err, engineerr.KindIoError))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk offline")
	err := engineerr.Wrap(cause, engineerr.KindIoError, "blockhash.Hash")

	require.Equal(t, engineerr.KindIoError, engineerr.KindOf(err))
	require.Equal(t, cause.Error(), engineerr.Cause(err).Error())
}

func TestWrapfFormatsMessage(t *testing.T) {
	cause := errors.New("boom")
	err := engineerr.Wrapf(cause, engineerr.KindFixupViolation, "fixup.Apply", "sector %d out of bounds", 7)
	require.Contains(t, err.Error(), "sector 7 out of bounds")
}

func TestKindOfUnwrappedErrorIsUnknown(t *testing.T) {
	require.Equal(t, engineerr.KindUnknown, engineerr.KindOf(errors.New("plain")))
}
