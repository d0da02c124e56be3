package iconv

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrUnsupportedEncoding is returned by Open when the primitive rejects
	// either encoding name.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrInvalidInputType is returned by ConvertValue for a value that is not
	// a byte sequence.
	ErrInvalidInputType = errors.New("input is not a byte sequence")
	// ErrConversionFailed is returned when the primitive stops on an invalid,
	// incomplete or oversized conversion.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrResetFailed is returned when the shift sequence does not fit the
	// room given to Reset.
	ErrResetFailed = errors.New("resetting codec failed")
	// ErrAllocationFailed is returned when an output buffer cannot be sized.
	ErrAllocationFailed = errors.New("allocation failed")
	// ErrInvalidArgument is returned for a negative output length or an
	// unknown error policy.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed is returned by every call on a closed handle.
	ErrClosed = errors.New("handle is closed")
)

// Error describes a failed operation on a Handle. Kind is one of the Err*
// sentinels; Err is the cause reported by the primitive, normally a
// syscall.Errno such as EILSEQ, EINVAL or E2BIG. Both match with errors.Is.
type Error struct {
	Op   string // "open", "convert" or "reset"
	Kind error
	Err  error

	// Consumed is the number of input bytes converted before the failure.
	Consumed int

	// Partial holds the shift sequence bytes a failed Reset produced before
	// it ran out of room. Failed conversions never carry output.
	Partial []byte
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[iconv] %s: %v", e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Kind == ErrConversionFailed {
		msg += fmt.Sprintf(" after %d bytes", e.Consumed)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code returns the platform error code of the failure, or 0 if the cause was
// not a syscall.Errno.
func (e *Error) Code() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}
