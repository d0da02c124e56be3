// Package iconv converts text between character encodings through an
// iconv(3) style conversion primitive.
//
// A Handle owns one conversion descriptor and its shift state. Each Convert
// makes a single bounded attempt: it either converts the whole input into an
// output buffer of the requested size or fails, reporting how many input bytes
// were converted before the failure. Growing the buffer and retrying is left
// to the caller; Transcoder and Codec implement the usual policies.
//
// A Handle must not be used by more than one goroutine at a time. Distinct
// handles are independent.
package iconv

import (
	"fmt"
	"syscall"
)

// Handle is an open conversion descriptor.
type Handle struct {
	d Descriptor
}

// Open returns a handle converting from fromcode to tocode with the Default
// primitive. It is the caller's responsibility to call Close on the handle.
func Open(tocode, fromcode string) (*Handle, error) {
	return OpenWith(Default(), tocode, fromcode)
}

// OpenWith is like Open but uses the primitive p.
func OpenWith(p Primitive, tocode, fromcode string) (*Handle, error) {
	if tocode == "" || fromcode == "" {
		return nil, &Error{Op: "open", Kind: ErrUnsupportedEncoding, Err: syscall.EINVAL}
	}

	d, err := p.Open(tocode, fromcode)
	if err != nil {
		return nil, &Error{
			Op:   "open",
			Kind: ErrUnsupportedEncoding,
			Err:  fmt.Errorf("%s to %s: %w", fromcode, tocode, err),
		}
	}
	return &Handle{d: d}, nil
}

// Close releases the descriptor. Calls on a closed handle, Close included,
// fail with ErrClosed.
func (h *Handle) Close() error {
	if h.d == nil {
		return ErrClosed
	}
	d := h.d
	h.d = nil
	return d.Close()
}

// allocate returns a zeroed buffer of n bytes, turning the runtime panic for
// an impossible size into ErrAllocationFailed.
func allocate(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrAllocationFailed, n, r)
		}
	}()
	return make([]byte, n), nil
}
