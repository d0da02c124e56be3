package charset

import "unicode/utf8"

func init() {
	Register(&Charset{
		Name:       "UTF-8",
		Aliases:    []string{"UTF8", "csUTF8", "unicode-1-1-utf-8"},
		NewDecoder: func() Decoder { return DecodeFunc(decodeUTF8) },
		NewEncoder: func() Encoder { return EncodeFunc(encodeUTF8) },
	})
}

func decodeUTF8(p []byte) (c rune, size int, status Status) {
	if len(p) == 0 {
		return 0, 0, NoRoom
	}
	if p[0] < utf8.RuneSelf {
		return rune(p[0]), 1, Success
	}
	if !utf8.FullRune(p) {
		return 0, 0, NoRoom
	}
	c, size = utf8.DecodeRune(p)
	if c == utf8.RuneError && size == 1 {
		return utf8.RuneError, 1, InvalidChar
	}
	return c, size, Success
}

func encodeUTF8(p []byte, c rune) (size int, status Status) {
	if !utf8.ValidRune(c) {
		return 0, InvalidChar
	}
	if len(p) < utf8.RuneLen(c) {
		return 0, NoRoom
	}
	return utf8.EncodeRune(p, c), Success
}
