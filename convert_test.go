package iconv

import (
	"bytes"
	"errors"
	"math"
	"syscall"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func openGeneric(t *testing.T, tocode, fromcode string) *Handle {
	t.Helper()

	h, err := OpenWith(Generic(), tocode, fromcode)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestScenario(t *testing.T) {
	h := openGeneric(t, "UTF-16LE", "UTF-8")

	res, err := h.Convert([]byte("A"), WithOutputLen(2))
	require.NoError(t, err)
	require.Equal(t, []byte{0x41, 0x00}, res.Bytes)
	require.Equal(t, 1, res.Consumed)

	res, err = h.Convert([]byte("AB"), CountOnly())
	require.NoError(t, err)
	require.Equal(t, 4, res.Count)

	a := openGeneric(t, "ASCII", "UTF-8")
	_, err = a.Convert([]byte("é"))
	require.ErrorIs(t, err, ErrConversionFailed)
	require.ErrorIs(t, err, syscall.EILSEQ)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, 0, e.Consumed)
	require.Nil(t, e.Partial)
}

func TestConvertDefaultCapacity(t *testing.T) {
	h := openGeneric(t, "UTF-16LE", "UTF-8")

	// The default capacity is the input length, too small for UTF-16.
	_, err := h.Convert([]byte("AB"))
	require.ErrorIs(t, err, syscall.E2BIG)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, 1, e.Consumed)

	// Same-width conversions fit.
	l := openGeneric(t, "ISO-8859-1", "US-ASCII")
	res, err := l.Convert([]byte("plain"))
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), res.Bytes)
}

func TestConvertTrimsOutput(t *testing.T) {
	h := openGeneric(t, "ISO-8859-1", "UTF-8")

	res, err := h.Convert([]byte("héé"))
	require.NoError(t, err)
	require.Equal(t, []byte{'h', 0xE9, 0xE9}, res.Bytes)
	require.Len(t, res.Bytes, 3)
	require.Equal(t, 5, res.Consumed)
}

func TestConvertZeroCapacity(t *testing.T) {
	h := openGeneric(t, "UTF-8", "UTF-8")

	res, err := h.Convert([]byte{}, WithOutputLen(0))
	require.NoError(t, err)
	require.Empty(t, res.Bytes)

	_, err = h.Convert([]byte("a"), WithOutputLen(0))
	require.ErrorIs(t, err, syscall.E2BIG)
}

func TestConsumptionAccounting(t *testing.T) {
	cases := []struct {
		name     string
		tocode   string
		fromcode string
		in       string
		consumed int
		code     syscall.Errno
	}{
		{"unrepresentable", "US-ASCII", "UTF-8", "abcé", 3, syscall.EILSEQ},
		{"invalid utf-8", "UTF-16BE", "UTF-8", "ab\xffcd", 2, syscall.EILSEQ},
		{"incomplete utf-8", "ISO-8859-1", "UTF-8", "ab\xc3", 2, syscall.EINVAL},
		{"incomplete utf-16", "UTF-8", "UTF-16LE", "a\x00b", 2, syscall.EINVAL},
		{"no room", "UTF-32LE", "UTF-8", "abcd", 1, syscall.E2BIG},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := openGeneric(t, tc.tocode, tc.fromcode)

			_, err := h.Convert([]byte(tc.in))
			require.ErrorIs(t, err, ErrConversionFailed)

			var e *Error
			require.True(t, errors.As(err, &e))
			require.Equal(t, tc.consumed, e.Consumed)
			require.Equal(t, tc.code, e.Code())
			require.GreaterOrEqual(t, e.Consumed, 0)
			require.Less(t, e.Consumed, len(tc.in))
			require.Contains(t, err.Error(), "[iconv] convert: conversion failed")
		})
	}
}

func TestCountOnlyEquivalence(t *testing.T) {
	cases := []struct {
		name     string
		tocode   string
		fromcode string
		in       string
	}{
		{"utf-16", "UTF-16LE", "UTF-8", "héllo, wörld"},
		{"utf-32", "UTF-32BE", "UTF-8", "😀 emoji"},
		{"latin1 to utf-8", "UTF-8", "ISO-8859-1", "caf\xe9"},
		{"shift_jis", "Shift_JIS", "UTF-8", "日本語テキスト"},
		{"empty", "UTF-8", "UTF-8", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := openGeneric(t, tc.tocode, tc.fromcode)

			count, err := h.Convert([]byte(tc.in), CountOnly())
			require.NoError(t, err)
			require.Nil(t, count.Bytes)

			_, err = h.Clear()
			require.NoError(t, err)

			raw, err := h.Convert([]byte(tc.in), WithOutputLen(4*len(tc.in)))
			require.NoError(t, err)
			require.Equal(t, len(raw.Bytes), count.Count)
		})
	}
}

func TestCountOnlyWithHint(t *testing.T) {
	h := openGeneric(t, "UTF-16LE", "UTF-8")

	res, err := h.Convert([]byte("AB"), CountOnly(), WithOutputLen(4))
	require.NoError(t, err)
	require.Equal(t, 4, res.Count)

	_, err = h.Convert([]byte("ABC"), CountOnly(), WithOutputLen(4))
	require.ErrorIs(t, err, syscall.E2BIG)
}

func TestClear(t *testing.T) {
	h := openGeneric(t, "ISO-2022-JP", "UTF-8")

	res, err := h.Convert([]byte("日"), WithOutputLen(16))
	require.NoError(t, err)
	require.Equal(t, []byte("\x1b$BF|"), res.Bytes)

	// The pending shift-out is discarded.
	res, err = h.Clear()
	require.NoError(t, err)
	require.Equal(t, []byte{}, res.Bytes)

	shift, err := h.Reset(0)
	require.NoError(t, err)
	require.Empty(t, shift)

	res, err = h.Clear(CountOnly())
	require.NoError(t, err)
	require.Equal(t, 0, res.Count)

	res, err = h.Clear(Wide())
	require.NoError(t, err)
	require.Equal(t, []rune{}, res.Wide)
}

func TestClearDiscardsIncompleteInput(t *testing.T) {
	h := openGeneric(t, "UTF-8", "UTF-7")

	// A base64 run left open carries decoder state into the next call.
	res, err := h.Convert([]byte("+AOk"), WithOutputLen(8))
	require.NoError(t, err)
	require.Equal(t, "é", string(res.Bytes))

	_, err = h.Clear()
	require.NoError(t, err)

	res, err = h.Convert([]byte("AOk"), WithOutputLen(8))
	require.NoError(t, err)
	require.Equal(t, "AOk", string(res.Bytes))
}

func TestConvertValue(t *testing.T) {
	h := openGeneric(t, "UTF-8", "ISO-8859-1")

	cases := []struct {
		name     string
		v        any
		expected []byte
	}{
		{"bytes", []byte("caf\xe9"), []byte("café")},
		{"string", "caf\xe9", []byte("café")},
		{"buffer", bytes.NewBufferString("caf\xe9"), []byte("café")},
		{"nil", nil, []byte{}},
		{"nil bytes", []byte(nil), []byte{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := h.ConvertValue(tc.v, WithOutputLen(8))
			require.NoError(t, err)
			require.Equal(t, tc.expected, res.Bytes)
		})
	}
}

func TestConvertValueInvalidType(t *testing.T) {
	d := new(mockDescriptor)
	d.On("Close").Return(nil)
	p := new(mockPrimitive)
	p.On("Open", "A", "B").Return(d, nil)

	h, err := OpenWith(p, "A", "B")
	require.NoError(t, err)

	for _, v := range []any{42, []rune("abc"), struct{}{}} {
		_, err := h.ConvertValue(v)
		require.ErrorIs(t, err, ErrInvalidInputType)
	}

	require.NoError(t, h.Close())
	d.AssertNotCalled(t, "Iconv", mock.Anything, mock.Anything, mock.Anything)
}

func TestConvertInvalidArgument(t *testing.T) {
	h := openGeneric(t, "UTF-8", "UTF-8")

	_, err := h.Convert([]byte("a"), WithOutputLen(-1))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.Clear(WithOutputLen(-1))
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.ConvertValue(nil, WithOutputLen(-1))
	require.ErrorIs(t, err, ErrInvalidArgument)

	res, err := h.Clear(WithOutputLen(0))
	require.NoError(t, err)
	require.Equal(t, []byte{}, res.Bytes)
}

func TestConvertAllocationFailed(t *testing.T) {
	h := openGeneric(t, "UTF-8", "UTF-8")

	_, err := h.Convert([]byte("a"), WithOutputLen(math.MaxInt), Wide())
	require.ErrorIs(t, err, ErrAllocationFailed)

	_, err = h.Convert([]byte("a"), WithOutputLen(math.MaxInt))
	require.ErrorIs(t, err, ErrAllocationFailed)

	// The handle is still usable.
	res, err := h.Convert([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("a"), res.Bytes)
}

func TestConvertWide(t *testing.T) {
	h := openGeneric(t, WideCharset(), "UTF-8")

	res, err := h.Convert([]byte("héllo"), Wide())
	require.NoError(t, err)
	require.Equal(t, FormWide, res.Form)
	require.Equal(t, []rune("héllo"), res.Wide)

	// Counting is in bytes, whatever the form.
	res, err = h.Convert([]byte("héllo"), Wide(), CountOnly())
	require.NoError(t, err)
	require.Equal(t, FormCount, res.Form)
	require.Equal(t, 5*WideUnitWidth(), res.Count)

	_, err = h.Convert([]byte("héllo"), Wide(), WithOutputLen(4))
	require.ErrorIs(t, err, syscall.E2BIG)
}

func TestConvertWideUnitWidth(t *testing.T) {
	for _, width := range []int{2, 4} {
		h := openGeneric(t, wideCharset(width), "UTF-8")

		res, err := h.Convert([]byte("ab€"), Wide(), withUnitWidth(width))
		require.NoError(t, err)
		require.Equal(t, []rune("ab€"), res.Wide, "width %d", width)

		res, err = h.Convert([]byte("ab€"), Wide(), CountOnly(), withUnitWidth(width))
		require.NoError(t, err)
		require.Equal(t, 3*width, res.Count, "width %d", width)
	}
}

func TestWideUnitWidth(t *testing.T) {
	require.Equal(t, 4, WideUnitWidth())
	require.Contains(t, []string{"UCS-4LE", "UCS-4BE"}, WideCharset())
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain ascii",
		"héllo wörld",
		"日本語のテキスト",
		"mixed 😀 emoji and   spaces",
	}
	pairs := []string{"UTF-16LE", "UTF-16BE", "UTF-32LE", "UTF-16", "UTF-7", "GB18030"}

	for _, name := range pairs {
		t.Run(name, func(t *testing.T) {
			to := openGeneric(t, name, "UTF-8")
			from := openGeneric(t, "UTF-8", name)

			for _, in := range inputs {
				mid := convertAll(t, to, []byte(in))
				out := convertAll(t, from, mid)
				require.Equal(t, in, string(out))
			}
		})
	}
}

// convertAll converts in through h with an exactly sized buffer, ending in the
// initial shift state.
func convertAll(t *testing.T, h *Handle, in []byte) []byte {
	t.Helper()

	_, err := h.Clear()
	require.NoError(t, err)
	count, err := h.Convert(in, CountOnly())
	require.NoError(t, err)

	_, err = h.Clear()
	require.NoError(t, err)
	res, err := h.Convert(in, WithOutputLen(count.Count))
	require.NoError(t, err)

	shift, err := h.Reset(16)
	require.NoError(t, err)
	return append(res.Bytes, shift...)
}
