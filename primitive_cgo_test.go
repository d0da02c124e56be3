//go:build cgo && iconv

package iconv

import (
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openSystem(t *testing.T, tocode, fromcode string) *Handle {
	t.Helper()

	h, err := OpenWith(System(), tocode, fromcode)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSystemScenario(t *testing.T) {
	h := openSystem(t, "UTF-16LE", "UTF-8")

	res, err := h.Convert([]byte("A"), WithOutputLen(2))
	require.NoError(t, err)
	require.Equal(t, []byte{0x41, 0x00}, res.Bytes)
	require.Equal(t, 1, res.Consumed)

	res, err = h.Convert([]byte("AB"), CountOnly())
	require.NoError(t, err)
	require.Equal(t, 4, res.Count)

	a := openSystem(t, "ASCII", "UTF-8")
	_, err = a.Convert([]byte("é"))
	require.ErrorIs(t, err, ErrConversionFailed)
	require.ErrorIs(t, err, syscall.EILSEQ)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, 0, e.Consumed)
}

func TestSystemOpenUnsupported(t *testing.T) {
	_, err := OpenWith(System(), "NO-SUCH-CHARSET", "UTF-8")
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
	require.ErrorIs(t, err, syscall.EINVAL)
}

// convertWithin runs Convert and fails the test if it does not return in time.
func convertWithin(t *testing.T, h *Handle, in []byte, opts ...ConvertOption) (Result, error) {
	t.Helper()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.Convert(in, opts...)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Convert did not return")
		return Result{}, nil
	}
}

func TestSystemCountOnlyTooSmall(t *testing.T) {
	h := openSystem(t, "UTF-16LE", "UTF-8")

	_, err := convertWithin(t, h, []byte("AB"), CountOnly(), WithOutputLen(3))
	require.ErrorIs(t, err, ErrConversionFailed)
	require.ErrorIs(t, err, syscall.E2BIG)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, 1, e.Consumed)

	_, err = h.Clear()
	require.NoError(t, err)
	_, err = convertWithin(t, h, []byte("AB"), CountOnly(), WithOutputLen(0))
	require.ErrorIs(t, err, syscall.E2BIG)

	_, err = h.Clear()
	require.NoError(t, err)
	res, err := convertWithin(t, h, []byte("AB"), CountOnly(), WithOutputLen(4))
	require.NoError(t, err)
	require.Equal(t, 4, res.Count)
}

func TestSystemCountOnlyAcrossChunks(t *testing.T) {
	h := openSystem(t, "UTF-16LE", "UTF-8")
	in := []byte(strings.Repeat("é", 5000))

	res, err := convertWithin(t, h, in, CountOnly())
	require.NoError(t, err)
	require.Equal(t, 10000, res.Count)

	_, err = h.Clear()
	require.NoError(t, err)
	res, err = convertWithin(t, h, in, CountOnly(), WithOutputLen(10000))
	require.NoError(t, err)
	require.Equal(t, 10000, res.Count)

	_, err = h.Clear()
	require.NoError(t, err)
	_, err = convertWithin(t, h, in, CountOnly(), WithOutputLen(9999))
	require.ErrorIs(t, err, syscall.E2BIG)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, 9998, e.Consumed)
}

func TestSystemReset(t *testing.T) {
	h := openSystem(t, "ISO-2022-JP", "UTF-8")

	res, err := h.Convert([]byte("a日"), WithOutputLen(16))
	require.NoError(t, err)
	require.Equal(t, []byte("a\x1b$BF|"), res.Bytes)

	_, err = h.Reset(0)
	require.ErrorIs(t, err, ErrResetFailed)
	require.ErrorIs(t, err, syscall.E2BIG)

	shift, err := h.Reset(3)
	require.NoError(t, err)
	require.Equal(t, []byte("\x1b(B"), shift)

	shift, err = h.Reset(0)
	require.NoError(t, err)
	require.Empty(t, shift)
}

func TestSystemClear(t *testing.T) {
	h := openSystem(t, "ISO-2022-JP", "UTF-8")

	_, err := h.Convert([]byte("日"), WithOutputLen(16))
	require.NoError(t, err)

	res, err := h.Clear()
	require.NoError(t, err)
	require.Equal(t, []byte{}, res.Bytes)

	// The pending shift sequence was discarded.
	shift, err := h.Reset(0)
	require.NoError(t, err)
	require.Empty(t, shift)
}

func TestSystemTranscode(t *testing.T) {
	h := openSystem(t, "ASCII", "UTF-8")

	tr := NewTranscoder(h)
	tr.Policy = Replace
	tr.Replacement = []byte("?")
	tr.Skip = SkipRune

	out, n, err := tr.Transcode([]byte("naïve"))
	require.NoError(t, err)
	require.Equal(t, "na?ve", string(out))
	require.Equal(t, 6, n)
}

func TestSystemInstrumentBalance(t *testing.T) {
	m := NewMetrics(nil)
	p := Instrument(System(), m)

	var handles []*Handle
	for _, to := range []string{"UTF-16LE", "ISO-2022-JP", "ASCII"} {
		h, err := OpenWith(p, to, "UTF-8")
		require.NoError(t, err)
		handles = append(handles, h)
	}
	_, err := OpenWith(p, "NO-SUCH-CHARSET", "UTF-8")
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
	require.Equal(t, float64(3), gaugeValue(t, m.Live))

	for _, h := range handles {
		_, err := h.Convert([]byte("abc"), WithOutputLen(16))
		require.NoError(t, err)
		require.NoError(t, h.Close())
		require.ErrorIs(t, h.Close(), ErrClosed)
	}

	require.Equal(t, float64(3), counterValue(t, m.Opened.WithLabelValues("ok")))
	require.Equal(t, float64(1), counterValue(t, m.Opened.WithLabelValues("unsupported")))
	require.Equal(t, float64(3), counterValue(t, m.Closed))
	require.Equal(t, float64(0), gaugeValue(t, m.Live))
}
