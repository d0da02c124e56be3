package charset

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// converters for ISO-2022-JP encoding; JIS X 0208 is looked up through the
// EUC-JP tables, which hold the same code points with the high bits set.

const esc = 27

type jpMode int

const (
	jpASCII jpMode = iota
	jpRoman
	jpJIS0208
)

var jpEscapes = [...]string{
	jpASCII:   "\x1b(B",
	jpRoman:   "\x1b(J",
	jpJIS0208: "\x1b$B",
}

func init() {
	Register(&Charset{
		Name:     "ISO-2022-JP",
		Aliases:  []string{"csISO2022JP", "JIS"},
		Stateful: true,
		NewDecoder: func() Decoder {
			return &iso2022JPDecoder{euc: xtextDecoder{t: japanese.EUCJP.NewDecoder()}}
		},
		NewEncoder: func() Encoder {
			return &iso2022JPEncoder{euc: xtextEncoder{t: japanese.EUCJP.NewEncoder()}}
		},
	})
}

type iso2022JPDecoder struct {
	mode    jpMode
	pending jpMode
	euc     xtextDecoder
}

func (d *iso2022JPDecoder) Decode(p []byte) (c rune, size int, status Status) {
	d.pending = d.mode
	if len(p) == 0 {
		return 0, 0, NoRoom
	}

	b := p[0]
	if b == esc {
		if len(p) < 3 {
			return 0, 0, NoRoom
		}
		switch string(p[:3]) {
		case jpEscapes[jpASCII]:
			d.pending = jpASCII
		case jpEscapes[jpRoman]:
			d.pending = jpRoman
		case jpEscapes[jpJIS0208], "\x1b$@":
			d.pending = jpJIS0208
		default:
			return utf8.RuneError, 1, InvalidChar
		}
		return 0, 3, StateOnly
	}
	if b >= utf8.RuneSelf {
		return utf8.RuneError, 1, InvalidChar
	}

	switch d.mode {
	case jpRoman:
		switch b {
		case '\\':
			return 0xA5, 1, Success
		case '~':
			return 0x203E, 1, Success
		}
	case jpJIS0208:
		if b < 0x21 {
			break
		}
		if len(p) < 2 {
			return 0, 0, NoRoom
		}
		if p[1] < 0x21 || p[1] > 0x7E {
			return utf8.RuneError, 1, InvalidChar
		}
		c, _, status = d.euc.Decode([]byte{b | 0x80, p[1] | 0x80})
		if status != Success {
			return utf8.RuneError, 1, InvalidChar
		}
		return c, 2, Success
	}
	return rune(b), 1, Success
}

func (d *iso2022JPDecoder) Advance() { d.mode = d.pending }

type iso2022JPEncoder struct {
	mode jpMode
	euc  xtextEncoder
}

func (e *iso2022JPEncoder) EncodeRune(p []byte, c rune) (size int, status Status) {
	var code [2]byte
	n := 0
	want := jpASCII
	if c >= 0 && c < utf8.RuneSelf {
		code[0] = byte(c)
		n = 1
	} else {
		var euc [4]byte
		m, st := e.euc.EncodeRune(euc[:], c)
		if st != Success || m != 2 || euc[0] < 0xA1 || euc[1] < 0xA1 {
			return 0, InvalidChar
		}
		code[0], code[1] = euc[0]&0x7F, euc[1]&0x7F
		n = 2
		want = jpJIS0208
	}

	var buf [5]byte
	size = 0
	if want != e.mode {
		size += copy(buf[:], jpEscapes[want])
	}
	size += copy(buf[size:], code[:n])
	if len(p) < size {
		return 0, NoRoom
	}
	e.mode = want
	return copy(p, buf[:size]), Success
}

func (e *iso2022JPEncoder) Flush(p []byte) (int, Status) {
	if e.mode == jpASCII {
		return 0, Success
	}
	if len(p) < len(jpEscapes[jpASCII]) {
		return 0, NoRoom
	}
	e.mode = jpASCII
	return copy(p, jpEscapes[jpASCII]), Success
}
