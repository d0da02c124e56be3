// Package charset provides character-at-a-time decoders and encoders for the
// encodings understood by the generic conversion primitive.
//
// Decoders convert bytes to runes and encoders convert runes to bytes, one
// character per call, reporting how the call went through a Status. Encodings
// with shift state (UTF-7, ISO-2022-JP, UTF-16 with a byte order mark) keep
// that state inside the Decoder or Encoder value.
package charset

import (
	"bytes"
	"slices"
	"unicode"
)

// Status is the result of a single Decode or EncodeRune call.
type Status int

const (
	// Success means that one character was converted.
	Success Status = iota

	// InvalidChar means that the source bytes are not a valid sequence, or that
	// the rune cannot be represented in the encoding. Nothing was written and
	// no state was changed.
	InvalidChar

	// NoRoom means that the input ended in the middle of a character (Decode),
	// or that the output has no room for the character (EncodeRune, Flush).
	// Nothing was written and no state was changed.
	NoRoom

	// StateOnly means that bytes were consumed that only change the shift
	// state, like a byte order mark or an ISO-2022 escape sequence.
	StateOnly
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case InvalidChar:
		return "invalid character"
	case NoRoom:
		return "no room"
	case StateOnly:
		return "state only"
	}
	return "unknown"
}

// A Decoder decodes one character at a time.
//
// Decode never changes the decoder state; the state transition implied by the
// last Decode call only takes effect when Advance is called. This lets a caller
// give up on a character (because the output is full, say) without disturbing
// the shift state.
type Decoder interface {
	Decode(p []byte) (c rune, size int, status Status)
	Advance()
}

// An Encoder encodes one character at a time. An EncodeRune or Flush call that
// does not return Success changes neither p nor the encoder state.
type Encoder interface {
	EncodeRune(p []byte, c rune) (size int, status Status)

	// Flush writes the bytes that return the output to the initial shift
	// state and resets the encoder.
	Flush(p []byte) (size int, status Status)
}

// DecodeFunc adapts a stateless decoding function to a Decoder.
type DecodeFunc func(p []byte) (c rune, size int, status Status)

func (f DecodeFunc) Decode(p []byte) (rune, int, Status) { return f(p) }

func (DecodeFunc) Advance() {}

// EncodeFunc adapts a stateless encoding function to an Encoder.
type EncodeFunc func(p []byte, c rune) (size int, status Status)

func (f EncodeFunc) EncodeRune(p []byte, c rune) (int, Status) { return f(p, c) }

func (EncodeFunc) Flush([]byte) (int, Status) { return 0, Success }

// A Charset describes an encoding and how to build codecs for it.
type Charset struct {
	// Name is the canonical name.
	Name string

	Aliases []string

	// Stateful is set for encodings whose output depends on shift state.
	Stateful bool

	NewDecoder func() Decoder
	NewEncoder func() Encoder
}

var (
	charsets = make(map[string]*Charset)
	aliases  = make(map[string]string)
)

// simplifyName lower cases name and drops everything but letters and digits,
// so that "UTF-16LE", "utf16le" and "utf_16_le" all share a key.
func simplifyName(name string) string {
	var buf bytes.Buffer
	for _, c := range name {
		switch {
		case unicode.IsDigit(c):
			buf.WriteRune(c)
		case unicode.IsLetter(c):
			buf.WriteRune(unicode.ToLower(c))
		}
	}
	return buf.String()
}

// Register adds cs to the registry. It is meant to be called from init
// functions; the registry is not safe for concurrent modification.
func Register(cs *Charset) {
	charsets[cs.Name] = cs
	aliases[simplifyName(cs.Name)] = cs.Name
	for _, alias := range cs.Aliases {
		aliases[simplifyName(alias)] = cs.Name
	}
}

// Lookup returns the charset called name, matching names and aliases without
// regard to case or punctuation. Names only known to the IANA index are served
// through golang.org/x/text when the encoding is stateless. It returns nil if
// the name is unknown.
func Lookup(name string) *Charset {
	if cs := charsets[aliases[simplifyName(name)]]; cs != nil {
		return cs
	}
	return lookupIANA(name)
}

// Names returns the canonical names of the registered charsets, sorted.
func Names() []string {
	names := make([]string, 0, len(charsets))
	for name := range charsets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
