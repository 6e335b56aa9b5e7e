// Package engineerr defines the delta engine's error taxonomy.
//
// Every fallible operation in this module returns an error that can be
// inspected with Kind/IsKind. Underlying causes (I/O failures, decode
// failures) are wrapped with github.com/pkg/errors so the original stack
// is preserved alongside the stable, switchable Kind.
package engineerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error categories from the engine's design
// (bad on-disk signature, short disk read, wrapped I/O failure, and so on).
type Kind int

const (
	KindUnknown Kind = iota
	KindBadSignature
	KindShortRead
	KindIoError
	KindRegionUnderPartition
	KindWidthOverflow
	KindFixupViolation
	KindOutOfMemory
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindBadSignature:
		return "BadSignature"
	case KindShortRead:
		return "ShortRead"
	case KindIoError:
		return "IoError"
	case KindRegionUnderPartition:
		return "RegionUnderPartition"
	case KindWidthOverflow:
		return "WidthOverflow"
	case KindFixupViolation:
		return "FixupViolation"
	case KindOutOfMemory:
		return "OutOfMemory"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// kindError pairs a Kind with a wrapped cause. op names the component/step
// that produced it (e.g. "sigfile.Load", "blockhash.Hash").
type kindError struct {
	kind  Kind
	op    string
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.op, e.kind, e.cause)
}

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Cause() error { return e.cause }

// New builds a new Kind-tagged error with a message, stack-annotated by
// pkg/errors.
func New(kind Kind, op, msg string) error {
	return &kindError{kind: kind, op: op, cause: errors.New(msg)}
}

// Wrap attaches a Kind and an op name to an existing error, preserving its
// cause chain. Returns nil if err is nil.
func Wrap(err error, kind Kind, op string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, op: op, cause: errors.WithStack(err)}
}

// Wrapf is Wrap with a formatted op-local message appended to the cause.
func Wrapf(err error, kind Kind, op, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, op: op, cause: errors.Wrapf(err, format, args...)}
}

// KindOf extracts the Kind from err, or KindUnknown if err was not
// produced by this package.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// IsKind reports whether err (or something it wraps) carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Cause returns the innermost wrapped error, mirroring pkg/errors.Cause.
func Cause(err error) error {
	return errors.Cause(err)
}
