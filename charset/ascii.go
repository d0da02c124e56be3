package charset

import "unicode/utf8"

// converters for ASCII and ISO-8859-1

func init() {
	for i := range asciiCharsets {
		Register(&asciiCharsets[i])
	}
}

var asciiCharsets = []Charset{
	{
		Name:       "US-ASCII",
		Aliases:    []string{"ASCII", "US", "ISO646-US", "IBM367", "cp367", "ANSI_X3.4-1968", "iso-ir-6", "ANSI_X3.4-1986", "ISO_646.irv:1991", "csASCII"},
		NewDecoder: func() Decoder { return DecodeFunc(decodeASCII) },
		NewEncoder: func() Encoder { return EncodeFunc(encodeASCII) },
	},
	{
		Name:       "ISO-8859-1",
		Aliases:    []string{"latin1", "ISO Latin 1", "IBM819", "cp819", "ISO_8859-1:1987", "iso-ir-100", "l1", "csISOLatin1"},
		NewDecoder: func() Decoder { return DecodeFunc(decodeLatin1) },
		NewEncoder: func() Encoder { return EncodeFunc(encodeLatin1) },
	},
}

func decodeASCII(p []byte) (rune, int, Status) {
	if len(p) == 0 {
		return 0, 0, NoRoom
	}
	if p[0] >= utf8.RuneSelf {
		return utf8.RuneError, 1, InvalidChar
	}
	return rune(p[0]), 1, Success
}

func encodeASCII(p []byte, c rune) (int, Status) {
	if c < 0 || c >= utf8.RuneSelf {
		return 0, InvalidChar
	}
	if len(p) == 0 {
		return 0, NoRoom
	}
	p[0] = byte(c)
	return 1, Success
}

func decodeLatin1(p []byte) (rune, int, Status) {
	if len(p) == 0 {
		return 0, 0, NoRoom
	}
	return rune(p[0]), 1, Success
}

func encodeLatin1(p []byte, c rune) (int, Status) {
	if c < 0 || c > 0xFF {
		return 0, InvalidChar
	}
	if len(p) == 0 {
		return 0, NoRoom
	}
	p[0] = byte(c)
	return 1, Success
}
