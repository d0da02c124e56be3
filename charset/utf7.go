package charset

import (
	"unicode/utf16"
	"unicode/utf8"
)

// UTF-7 as defined in RFC 2152. Characters outside the directly encoded set
// are written as modified base64 of their UTF-16 form between '+' and '-'. The
// bits of a partial base64 digit are shift state, so a stream ending inside a
// base64 run needs a Flush to be complete.

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var b64Values [256]int8

func init() {
	for i := range b64Values {
		b64Values[i] = -1
	}
	for i := 0; i < len(b64Alphabet); i++ {
		b64Values[b64Alphabet[i]] = int8(i)
	}

	Register(&Charset{
		Name:       "UTF-7",
		Aliases:    []string{"UTF7", "csUTF7", "UNICODE-1-1-UTF-7"},
		Stateful:   true,
		NewDecoder: func() Decoder { return new(utf7Decoder) },
		NewEncoder: func() Encoder { return new(utf7Encoder) },
	})
}

// utf7Direct reports whether c is in RFC 2152 set D or is white space.
func utf7Direct(c rune) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '\'', '(', ')', ',', '-', '.', '/', ':', '?', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

type utf7State struct {
	base64 bool
	bits   uint32
	nbits  uint
}

type utf7Encoder struct {
	state utf7State
}

func (e *utf7Encoder) EncodeRune(p []byte, c rune) (size int, status Status) {
	if !utf8.ValidRune(c) {
		return 0, InvalidChar
	}

	var buf [16]byte
	n := 0
	st := e.state
	if c == '+' || utf7Direct(c) {
		if st.base64 {
			n += st.close(buf[n:])
		}
		buf[n] = byte(c)
		n++
		if c == '+' {
			buf[n] = '-'
			n++
		}
	} else {
		if !st.base64 {
			buf[n] = '+'
			n++
			st.base64 = true
		}
		units := []rune{c}
		if c > 0xFFFF {
			r1, r2 := utf16.EncodeRune(c)
			units = []rune{r1, r2}
		}
		for _, u := range units {
			st.bits = st.bits<<16 | uint32(u)
			st.nbits += 16
			for st.nbits >= 6 {
				st.nbits -= 6
				buf[n] = b64Alphabet[st.bits>>st.nbits&0x3F]
				n++
			}
			st.bits &= 1<<st.nbits - 1
		}
	}

	if len(p) < n {
		return 0, NoRoom
	}
	e.state = st
	return copy(p, buf[:n]), Success
}

// close ends a base64 run, writing the last partial digit and the '-'.
func (st *utf7State) close(p []byte) int {
	n := 0
	if st.nbits > 0 {
		p[n] = b64Alphabet[st.bits<<(6-st.nbits)&0x3F]
		n++
	}
	p[n] = '-'
	n++
	*st = utf7State{}
	return n
}

func (e *utf7Encoder) Flush(p []byte) (int, Status) {
	if !e.state.base64 {
		return 0, Success
	}
	var buf [2]byte
	st := e.state
	n := st.close(buf[:])
	if len(p) < n {
		return 0, NoRoom
	}
	e.state = st
	return copy(p, buf[:n]), Success
}

type utf7Decoder struct {
	state   utf7State
	pending utf7State
}

func (d *utf7Decoder) Decode(p []byte) (c rune, size int, status Status) {
	st := d.state
	high := rune(-1)
	for i := 0; i < len(p); {
		b := p[i]
		if !st.base64 {
			switch {
			case b == '+':
				if i+1 >= len(p) {
					return 0, 0, NoRoom
				}
				if p[i+1] == '-' {
					d.pending = st
					return '+', i + 2, Success
				}
				st = utf7State{base64: true}
				i++
				continue
			case b >= utf8.RuneSelf:
				return utf8.RuneError, 1, InvalidChar
			}
			d.pending = st
			return rune(b), i + 1, Success
		}

		v := b64Values[b]
		if v < 0 {
			if high >= 0 {
				return utf8.RuneError, 1, InvalidChar
			}
			st = utf7State{}
			if b == '-' {
				i++
			}
			if i == len(p) {
				d.pending = st
				return 0, i, StateOnly
			}
			continue
		}

		st.bits = st.bits<<6 | uint32(v)
		st.nbits += 6
		i++
		if st.nbits < 16 {
			continue
		}
		st.nbits -= 16
		u := rune(st.bits >> st.nbits & 0xFFFF)
		st.bits &= 1<<st.nbits - 1
		switch {
		case high >= 0:
			if u < 0xDC00 || u > 0xDFFF {
				return utf8.RuneError, 1, InvalidChar
			}
			d.pending = st
			return utf16.DecodeRune(high, u), i, Success
		case u >= 0xD800 && u < 0xDC00:
			high = u
		case u >= 0xDC00 && u <= 0xDFFF:
			return utf8.RuneError, 1, InvalidChar
		default:
			d.pending = st
			return u, i, Success
		}
	}
	return 0, 0, NoRoom
}

func (d *utf7Decoder) Advance() { d.state = d.pending }
