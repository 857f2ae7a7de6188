package streams

import (
	"errors"
	"fmt"
)

var (
	// ErrShortRead occurs when a fixed-length copy receives end-of-stream
	// before the requested amount of bytes was read. This usually means the
	// remote end (client) went away and is considered an expected failure.
	ErrShortRead = errors.New("short read before requested length")

	// ErrMalformedStream occurs when the source stream ends in the middle of
	// its own framing (e.g. a truncated multipart body). No caller can make
	// progress on such a stream, so it is always a fatal failure.
	ErrMalformedStream = errors.New("malformed stream")

	// ErrInvalidLength occurs when a fixed-length copy is requested with a
	// negative length.
	ErrInvalidLength = errors.New("invalid copy length < 0")
)

// Kind classifies a [TransferError].
type Kind int

const (
	// KindExpected marks transport failures that are common and not treated
	// as application errors, such as a client aborting a download.
	KindExpected Kind = iota + 1

	// KindFatal marks failures where data could not be written or cannot be
	// interpreted, such as a full disk or a malformed stream.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindExpected:
		return "expected"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// TransferError is returned by all copy functions of this package. It carries
// the classification that callers use to decide between a quiet pass/fail
// signal and a hard failure.
type TransferError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("(streams-%s) %s transfer failure: %v", e.Op, e.Kind, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IsExpected reports whether err carries an expected [TransferError].
func IsExpected(err error) bool {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind == KindExpected
	}

	return false
}

// IsFatal reports whether err is a failure that is not an expected transport
// failure. Errors not produced by this package are considered fatal.
func IsFatal(err error) bool {
	return err != nil && !IsExpected(err)
}
