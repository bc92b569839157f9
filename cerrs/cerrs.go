// Package cerrs defines the closed set of error kinds the tablet binding
// coordinator returns. Every error this module originates carries exactly
// one Kind; callers dispatch on KindOf instead of string-matching
// messages. Errors from injected collaborators (Store, Tablet, LogStream,
// LogStreamService) and context errors are passed through unchanged and
// carry no Kind.
package cerrs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a coordinator error. See spec §7.
type Kind int

const (
	// KindNone is the zero value; never returned, only used as a not-found
	// sentinel from KindOf.
	KindNone Kind = iota
	// KindRetry means the slot is contended by another tx, or replay must
	// wait for a tablet that may yet appear. The caller reissues the call.
	KindRetry
	// KindNoUpdateNeeded is a benign skip: the target tablet does not
	// exist, or is already frozen past the incoming log ts.
	KindNoUpdateNeeded
	// KindSchemaRetry means the reader used a stale schema version.
	KindSchemaRetry
	// KindSnapshotDiscarded means the reader's snapshot predates the
	// binding's activation.
	KindSnapshotDiscarded
	// KindUnexpected means a protocol invariant was violated.
	KindUnexpected
	// KindInvalidArgument means the input DTO was malformed.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindRetry:
		return "retry"
	case KindNoUpdateNeeded:
		return "no-update-needed"
	case KindSchemaRetry:
		return "schema-retry"
	case KindSnapshotDiscarded:
		return "snapshot-discarded"
	case KindUnexpected:
		return "unexpected"
	case KindInvalidArgument:
		return "invalid-argument"
	default:
		return "none"
	}
}

// kindError pairs a Kind with the underlying cause, wrapped with a stack
// trace via pkg/errors so the original call site survives propagation
// through batch phases.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

func (e *kindError) Unwrap() error { return e.cause }

// Retry wraps cause (may be nil) as a KindRetry error.
func Retry(cause error) error { return wrap(KindRetry, cause) }

// NoUpdateNeeded returns a KindNoUpdateNeeded error. Batch phases treat
// this as success and continue; it is still an error value so callers
// cannot forget to check it.
func NoUpdateNeeded() error { return wrap(KindNoUpdateNeeded, nil) }

// SchemaRetry returns a KindSchemaRetry error.
func SchemaRetry() error { return wrap(KindSchemaRetry, nil) }

// SnapshotDiscarded returns a KindSnapshotDiscarded error.
func SnapshotDiscarded() error { return wrap(KindSnapshotDiscarded, nil) }

// Unexpected wraps msg as a KindUnexpected error — a protocol invariant
// violation. Callers should log this at error level and surface it as a
// transaction failure.
func Unexpected(msg string) error { return wrap(KindUnexpected, errors.New(msg)) }

// Unexpectedf is Unexpected with fmt.Sprintf-style formatting.
func Unexpectedf(format string, args ...interface{}) error {
	return wrap(KindUnexpected, errors.Errorf(format, args...))
}

// InvalidArgument wraps msg as a KindInvalidArgument error.
func InvalidArgument(msg string) error { return wrap(KindInvalidArgument, errors.New(msg)) }

func wrap(k Kind, cause error) error {
	return &kindError{kind: k, cause: errors.WithStack(cause)}
}

// KindOf extracts the Kind from err, or KindNone if err is nil or was not
// produced by this package.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindNone
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool { return KindOf(err) == k }
