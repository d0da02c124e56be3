package iconv

import (
	"bytes"
	"fmt"
)

// Convert converts in as a single bounded attempt.
//
// The output capacity is WithOutputLen, or len(in) units when unset; a
// count-only conversion without WithOutputLen is unbounded. On success the
// whole input has been consumed. On failure Convert returns an *Error with
// Kind ErrConversionFailed, the primitive's error code as Err and the number
// of bytes converted before the failure as Consumed. No output is returned on
// failure, but the handle's shift state reflects the consumed prefix; call
// Clear before retrying the same input.
func (h *Handle) Convert(in []byte, opts ...ConvertOption) (Result, error) {
	if h.d == nil {
		return Result{}, &Error{Op: "convert", Kind: ErrClosed}
	}

	r := request{unitWidth: WideUnitWidth()}
	for _, opt := range opts {
		opt(&r)
	}
	if r.outLen < 0 {
		return Result{}, &Error{Op: "convert", Kind: ErrInvalidArgument, Err: fmt.Errorf("output length %d", r.outLen)}
	}
	if in == nil {
		// A nil slice means reset to the primitive; an empty input is
		// not that.
		in = []byte{}
	}

	form := r.form()
	capacity := len(in)
	switch {
	case r.hasOutLen:
		capacity = r.outLen
	case form == FormCount:
		capacity = unbounded
	}

	width := 1
	if form == FormWide {
		width = r.unitWidth
	}
	size := unbounded
	if capacity != unbounded {
		var ok bool
		if size, ok = mulSize(capacity, width); !ok {
			return Result{}, &Error{Op: "convert", Kind: ErrAllocationFailed, Err: fmt.Errorf("%d units of %d bytes", capacity, width)}
		}
	}

	var out []byte
	if form != FormCount {
		var err error
		if out, err = allocate(size); err != nil {
			return Result{}, &Error{Op: "convert", Kind: ErrAllocationFailed, Err: err}
		}
	}

	inLeft, outLeft, err := h.d.Iconv(in, out, size)
	if err != nil {
		return Result{}, &Error{
			Op:       "convert",
			Kind:     ErrConversionFailed,
			Err:      err,
			Consumed: len(in) - inLeft,
		}
	}

	produced := size - outLeft
	res := Result{Form: form, Consumed: len(in)}
	switch form {
	case FormCount:
		res.Count = produced
	case FormWide:
		res.Wide = decodeUnits(out[:produced], width)
	default:
		res.Bytes = bytes.Clone(out[:produced])
	}
	return res, nil
}

// Clear returns the handle to its initial shift state in both directions
// without producing output. Any pending shift sequence is discarded. The
// result is empty in the requested form.
func (h *Handle) Clear(opts ...ConvertOption) (Result, error) {
	if h.d == nil {
		return Result{}, &Error{Op: "convert", Kind: ErrClosed}
	}

	var r request
	for _, opt := range opts {
		opt(&r)
	}
	if r.outLen < 0 {
		return Result{}, &Error{Op: "convert", Kind: ErrInvalidArgument, Err: fmt.Errorf("output length %d", r.outLen)}
	}

	if _, _, err := h.d.Iconv(nil, nil, unbounded); err != nil {
		return Result{}, &Error{Op: "convert", Kind: ErrConversionFailed, Err: err}
	}

	res := Result{Form: r.form()}
	switch res.Form {
	case FormWide:
		res.Wide = []rune{}
	case FormBytes:
		res.Bytes = []byte{}
	}
	return res, nil
}

// ConvertValue converts v, which must be nil, a []byte, a string or a value
// with a Bytes() []byte method. A nil v is the same as Clear; any other type
// fails with ErrInvalidInputType.
func (h *Handle) ConvertValue(v any, opts ...ConvertOption) (Result, error) {
	switch in := v.(type) {
	case nil:
		return h.Clear(opts...)
	case []byte:
		if in == nil {
			return h.Clear(opts...)
		}
		return h.Convert(in, opts...)
	case string:
		return h.Convert([]byte(in), opts...)
	case interface{ Bytes() []byte }:
		return h.Convert(in.Bytes(), opts...)
	}
	return Result{}, &Error{Op: "convert", Kind: ErrInvalidInputType, Err: fmt.Errorf("%T", v)}
}
