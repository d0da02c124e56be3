package iconv

import (
	"bytes"
	"fmt"
)

// Reset writes the sequence returning the output to the initial shift state
// into a buffer of outLen bytes and returns it, and resets the input side.
// Stateless encodings return an empty slice.
//
// If outLen is too small Reset fails with an *Error of Kind ErrResetFailed
// whose Partial holds what was written; the handle state is then unspecified
// and should be cleared with Clear.
func (h *Handle) Reset(outLen int) ([]byte, error) {
	if h.d == nil {
		return nil, &Error{Op: "reset", Kind: ErrClosed}
	}
	if outLen < 0 {
		return nil, &Error{Op: "reset", Kind: ErrInvalidArgument, Err: fmt.Errorf("output length %d", outLen)}
	}

	out, err := allocate(outLen)
	if err != nil {
		return nil, &Error{Op: "reset", Kind: ErrAllocationFailed, Err: err}
	}

	_, outLeft, err := h.d.Iconv(nil, out, outLen)
	written := bytes.Clone(out[:outLen-outLeft])
	if written == nil {
		written = []byte{}
	}
	if err != nil {
		e := &Error{Op: "reset", Kind: ErrResetFailed, Err: err}
		if len(written) > 0 {
			e.Partial = written
		}
		return nil, e
	}
	return written, nil
}
