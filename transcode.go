package iconv

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"unicode/utf8"
)

// ErrorPolicy selects what a Transcoder does with input it cannot convert.
type ErrorPolicy int

const (
	Strict  ErrorPolicy = iota // fail with the conversion error
	Replace                    // write the replacement and skip the bad input
	Ignore                     // skip the bad input
)

func (p ErrorPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Replace:
		return "replace"
	case Ignore:
		return "ignore"
	}
	return fmt.Sprintf("ErrorPolicy(%d)", int(p))
}

// ParseErrorPolicy parses "strict", "replace" or "ignore".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(s) {
	case "strict", "":
		return Strict, nil
	case "replace":
		return Replace, nil
	case "ignore":
		return Ignore, nil
	}
	return Strict, fmt.Errorf("%w: error policy %q", ErrInvalidArgument, s)
}

// shiftOutLen is the room given to the sequence returning to the initial
// shift state after each converted segment.
const shiftOutLen = 100

// Transcoder converts whole inputs through a Handle, growing output as
// needed and handling bad input according to Policy.
//
// Input is converted in segments separated by bad sequences. Each segment is
// measured with a count-only conversion, converted into a buffer of exactly
// that size and closed with the handle's shift-out sequence, so the output of
// every segment starts and ends in the initial shift state.
type Transcoder struct {
	h *Handle

	Policy ErrorPolicy

	// Replacement is written to the output, already in the target encoding,
	// for each bad sequence under Replace.
	Replacement []byte

	// Skip returns the length of the bad sequence at the start of rest. It
	// defaults to one byte.
	Skip func(rest []byte) int

	// AllowIncomplete makes Transcode stop without error at an incomplete
	// sequence ending the input, reporting it as not consumed. Otherwise
	// the incomplete sequence is bad input.
	AllowIncomplete bool
}

// NewTranscoder returns a strict Transcoder using h. The handle stays owned by
// the caller.
func NewTranscoder(h *Handle) *Transcoder {
	return &Transcoder{h: h}
}

// Transcode converts in and returns the output and the number of input bytes
// consumed. On error the output converted so far is returned with it.
func (t *Transcoder) Transcode(in []byte) ([]byte, int, error) {
	out := []byte{}
	pos := 0
	for {
		chunk, good, stop, err := t.segment(in[pos:])
		if err != nil {
			return out, pos, err
		}
		out = append(out, chunk...)
		pos += good
		if stop == nil {
			return out, pos, nil
		}

		code := stop.Code()
		if code == syscall.EINVAL && t.AllowIncomplete {
			return out, pos, nil
		}
		if (code != syscall.EILSEQ && code != syscall.EINVAL) || t.Policy == Strict {
			return out, pos, &Error{Op: "convert", Kind: ErrConversionFailed, Err: stop.Err, Consumed: pos}
		}

		if t.Policy == Replace {
			out = append(out, t.Replacement...)
		}
		pos += t.skip(in[pos:])
	}
}

// SkipRune is a Transcoder Skip function for UTF-8 input. It returns the
// length of the UTF-8 sequence starting rest, one byte for an invalid one.
func SkipRune(rest []byte) int {
	_, size := utf8.DecodeRune(rest)
	return size
}

func (t *Transcoder) skip(rest []byte) int {
	n := 1
	if t.Skip != nil {
		n = t.Skip(rest)
	}
	return min(max(n, 1), len(rest))
}

// segment converts the longest convertible prefix of seg. stop is the error
// that ended the prefix, nil if all of seg was converted.
func (t *Transcoder) segment(seg []byte) (out []byte, good int, stop *Error, err error) {
	n, good, stop, err := t.measure(seg)
	if err != nil || good == 0 {
		return nil, 0, stop, err
	}

	if _, err := t.h.Clear(); err != nil {
		return nil, 0, nil, err
	}
	res, err := t.h.Convert(seg[:good], WithOutputLen(n))
	if err != nil {
		return nil, 0, nil, err
	}
	shift, err := t.h.Reset(shiftOutLen)
	if err != nil {
		return nil, 0, nil, err
	}
	if len(shift) > 0 {
		res.Bytes = append(res.Bytes, shift...)
	}
	return res.Bytes, good, stop, nil
}

// measure returns the output length of the longest convertible prefix of seg
// and the length of that prefix.
func (t *Transcoder) measure(seg []byte) (n, good int, stop *Error, err error) {
	for {
		if _, err := t.h.Clear(); err != nil {
			return 0, 0, nil, err
		}
		res, cerr := t.h.Convert(seg, CountOnly())
		if cerr == nil {
			return res.Count, len(seg), stop, nil
		}

		var e *Error
		if stop != nil || !errors.As(cerr, &e) || !errors.Is(cerr, ErrConversionFailed) {
			return 0, 0, nil, cerr
		}
		stop = e
		seg = seg[:e.Consumed]
	}
}

// replacementFor converts s through h as a segment of its own.
func replacementFor(h *Handle, s string) ([]byte, error) {
	out, _, err := NewTranscoder(h).Transcode([]byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}
