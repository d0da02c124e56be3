package charset

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// converters for UTF-16, UCS-2 and UTF-32

func init() {
	be, le := binary.BigEndian, binary.LittleEndian

	Register(utfCharset("UTF-16", []string{"csUnicode", "UCS-2-BOM"}, 2, be, true, false))
	Register(utfCharset("UTF-16BE", []string{"csUTF16BE"}, 2, be, false, false))
	Register(utfCharset("UTF-16LE", []string{"csUTF16LE"}, 2, le, false, false))
	Register(utfCharset("UCS-2BE", []string{"UNICODEBIG", "ISO-10646-UCS-2"}, 2, be, false, true))
	Register(utfCharset("UCS-2LE", []string{"UNICODELITTLE"}, 2, le, false, true))
	Register(utfCharset("UTF-32", []string{"csUTF32"}, 4, be, true, false))
	Register(utfCharset("UTF-32BE", []string{"UCS-4BE", "UCS-4", "ISO-10646-UCS-4", "csUTF32BE"}, 4, be, false, false))
	Register(utfCharset("UTF-32LE", []string{"UCS-4LE", "csUTF32LE"}, 4, le, false, false))
}

func utfCharset(name string, aliases []string, width int, order binary.ByteOrder, bom, ucs2 bool) *Charset {
	return &Charset{
		Name:     name,
		Aliases:  aliases,
		Stateful: bom,
		NewDecoder: func() Decoder {
			return &utfDecoder{width: width, ucs2: ucs2, state: utfState{order: order, detect: bom}}
		},
		NewEncoder: func() Encoder {
			return &utfEncoder{width: width, ucs2: ucs2, order: order, bom: bom}
		},
	}
}

type utfState struct {
	order  binary.ByteOrder
	detect bool // still looking for a byte order mark
}

type utfDecoder struct {
	width   int
	ucs2    bool
	state   utfState
	pending utfState
}

func (d *utfDecoder) Decode(p []byte) (c rune, size int, status Status) {
	d.pending = d.state
	if d.pending.detect {
		if len(p) < d.width {
			return 0, 0, NoRoom
		}
		d.pending.detect = false
		if d.width == 2 {
			switch {
			case p[0] == 0xFE && p[1] == 0xFF:
				d.pending.order = binary.BigEndian
				return 0, 2, StateOnly
			case p[0] == 0xFF && p[1] == 0xFE:
				d.pending.order = binary.LittleEndian
				return 0, 2, StateOnly
			}
		} else {
			switch binary.BigEndian.Uint32(p) {
			case 0x0000FEFF:
				d.pending.order = binary.BigEndian
				return 0, 4, StateOnly
			case 0xFFFE0000:
				d.pending.order = binary.LittleEndian
				return 0, 4, StateOnly
			}
		}
	}
	if d.width == 4 {
		return decodeUTF32(d.pending.order, p)
	}
	return decodeUTF16(d.pending.order, d.ucs2, p)
}

func (d *utfDecoder) Advance() { d.state = d.pending }

func decodeUTF16(order binary.ByteOrder, ucs2 bool, p []byte) (rune, int, Status) {
	if len(p) < 2 {
		return 0, 0, NoRoom
	}
	u := rune(order.Uint16(p))
	if !utf16.IsSurrogate(u) {
		return u, 2, Success
	}
	if ucs2 || u >= 0xDC00 {
		return utf8.RuneError, 2, InvalidChar
	}
	if len(p) < 4 {
		return 0, 0, NoRoom
	}
	c := utf16.DecodeRune(u, rune(order.Uint16(p[2:])))
	if c == utf8.RuneError {
		return utf8.RuneError, 2, InvalidChar
	}
	return c, 4, Success
}

func decodeUTF32(order binary.ByteOrder, p []byte) (rune, int, Status) {
	if len(p) < 4 {
		return 0, 0, NoRoom
	}
	c := rune(order.Uint32(p))
	if !utf8.ValidRune(c) {
		return utf8.RuneError, 4, InvalidChar
	}
	return c, 4, Success
}

type utfEncoder struct {
	width    int
	ucs2     bool
	order    binary.ByteOrder
	bom      bool
	wroteBOM bool
}

func (e *utfEncoder) EncodeRune(p []byte, c rune) (size int, status Status) {
	if !utf8.ValidRune(c) || (e.ucs2 && c > 0xFFFF) {
		return 0, InvalidChar
	}

	var buf [8]byte
	n := 0
	if e.bom && !e.wroteBOM {
		n += e.put(buf[n:], 0xFEFF)
	}
	switch {
	case e.width == 4:
		n += e.put(buf[n:], c)
	case c > 0xFFFF:
		r1, r2 := utf16.EncodeRune(c)
		n += e.put(buf[n:], r1)
		n += e.put(buf[n:], r2)
	default:
		n += e.put(buf[n:], c)
	}

	if len(p) < n {
		return 0, NoRoom
	}
	e.wroteBOM = e.bom
	return copy(p, buf[:n]), Success
}

func (e *utfEncoder) put(p []byte, c rune) int {
	if e.width == 4 {
		e.order.PutUint32(p, uint32(c))
		return 4
	}
	e.order.PutUint16(p, uint16(c))
	return 2
}

// Flush writes nothing; it rearms the byte order mark so that the next
// character starts a fresh stream.
func (e *utfEncoder) Flush([]byte) (int, Status) {
	e.wroteBOM = false
	return 0, Success
}
