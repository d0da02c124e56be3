package iconv

import (
	"errors"
	"unicode/utf8"
)

// Codec converts between Go strings and one named encoding.
type Codec struct {
	Name string

	enc *Handle // UTF-8 to Name
	dec *Handle // Name to UTF-8

	question []byte
}

// NewCodec opens a Codec for name with the Default primitive. It is the
// caller's responsibility to call Close on the codec.
func NewCodec(name string) (*Codec, error) {
	return NewCodecWith(Default(), name)
}

// NewCodecWith is like NewCodec but uses the primitive p.
func NewCodecWith(p Primitive, name string) (*Codec, error) {
	enc, err := OpenWith(p, name, "UTF-8")
	if err != nil {
		return nil, err
	}
	dec, err := OpenWith(p, "UTF-8", name)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &Codec{Name: name, enc: enc, dec: dec}, nil
}

// Close releases both directions of the codec.
func (c *Codec) Close() error {
	return errors.Join(c.enc.Close(), c.dec.Close())
}

// Encode converts s to the codec's encoding and returns the bytes and the
// number of bytes of s consumed. Characters the encoding cannot represent are
// handled by policy; Replace writes '?'. The output ends in the initial shift
// state.
func (c *Codec) Encode(s string, policy ErrorPolicy) ([]byte, int, error) {
	t := NewTranscoder(c.enc)
	t.Policy = policy
	t.Skip = SkipRune
	if policy == Replace {
		if c.question == nil {
			q, err := replacementFor(c.enc, "?")
			if err != nil {
				return nil, 0, err
			}
			c.question = q
		}
		t.Replacement = c.question
	}
	return t.Transcode([]byte(s))
}

// Decode converts b from the codec's encoding and returns the text and the
// number of bytes of b consumed. Invalid sequences are handled by policy;
// Replace writes U+FFFD. An incomplete sequence at the end of b is left
// unconsumed so that it can be completed by the caller.
func (c *Codec) Decode(b []byte, policy ErrorPolicy) (string, int, error) {
	return c.decode(b, policy, true)
}

func (c *Codec) decode(b []byte, policy ErrorPolicy, allowIncomplete bool) (string, int, error) {
	t := NewTranscoder(c.dec)
	t.Policy = policy
	t.Replacement = []byte(string(utf8.RuneError))
	t.AllowIncomplete = allowIncomplete
	out, n, err := t.Transcode(b)
	return string(out), n, err
}

// Encode converts s to the encoding name in one call.
func Encode(name, s string, policy ErrorPolicy) ([]byte, error) {
	c, err := NewCodec(name)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	out, _, err := c.Encode(s, policy)
	return out, err
}

// Decode converts b from the encoding name in one call. An incomplete
// sequence at the end of b is bad input.
func Decode(name string, b []byte, policy ErrorPolicy) (string, error) {
	c, err := NewCodec(name)
	if err != nil {
		return "", err
	}
	defer c.Close()

	s, _, err := c.decode(b, policy, false)
	return s, err
}
