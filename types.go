package iconv

import "math"

// OutputForm selects what Convert returns.
type OutputForm int

const (
	FormBytes OutputForm = iota // raw bytes in the target encoding
	FormWide                    // wide characters, see WideUnitWidth
	FormCount                   // only the number of output bytes
)

func (f OutputForm) String() string {
	switch f {
	case FormBytes:
		return "bytes"
	case FormWide:
		return "wide"
	case FormCount:
		return "count"
	}
	return "unknown"
}

// unbounded is the capacity of a count-only conversion without an explicit
// output length.
const unbounded = math.MaxInt

type request struct {
	outLen    int
	hasOutLen bool
	wide      bool
	count     bool
	unitWidth int
}

func (r *request) form() OutputForm {
	switch {
	case r.count:
		return FormCount
	case r.wide:
		return FormWide
	}
	return FormBytes
}

type ConvertOption func(r *request)

// WithOutputLen sets the output capacity in output units (bytes, or wide
// characters with Wide). It defaults to the input length. Zero is valid and
// only succeeds if no output is needed.
func WithOutputLen(n int) ConvertOption {
	return func(r *request) {
		r.outLen = n
		r.hasOutLen = true
	}
}

// Wide makes Convert return wide characters. The handle's target encoding
// should be WideCharset.
func Wide() ConvertOption {
	return func(r *request) {
		r.wide = true
	}
}

// CountOnly makes Convert return only the number of output bytes, without
// materialising the output. It takes precedence over Wide.
func CountOnly() ConvertOption {
	return func(r *request) {
		r.count = true
	}
}

func withUnitWidth(width int) ConvertOption {
	return func(r *request) {
		r.unitWidth = width
	}
}

// Result is the outcome of a successful Convert. Exactly one of Bytes, Wide
// and Count is meaningful, depending on Form.
type Result struct {
	Form  OutputForm
	Bytes []byte
	Wide  []rune
	Count int

	// Consumed is the number of input bytes converted, which is always the
	// whole input.
	Consumed int
}
