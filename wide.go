package iconv

import (
	"encoding/binary"
	"sync"
	"unicode"
)

var wideUnitWidth = sync.OnceValue(func() int {
	if unicode.MaxRune > 0xFFFF {
		return 4
	}
	return 2
})

// WideUnitWidth returns the size in bytes of one wide character: 4 when the
// largest rune does not fit in 16 bits, 2 otherwise. It is probed once.
func WideUnitWidth() int {
	return wideUnitWidth()
}

// WideCharset returns the name of the encoding whose code units are wide
// characters in host byte order, for use as the target of a handle that
// converts with Wide.
func WideCharset() string {
	return wideCharset(WideUnitWidth())
}

func wideCharset(width int) string {
	order := "BE"
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		order = "LE"
	}
	if width == 2 {
		return "UCS-2" + order
	}
	return "UCS-4" + order
}

// decodeUnits reads len(b)/width wide characters in host byte order.
func decodeUnits(b []byte, width int) []rune {
	units := make([]rune, len(b)/width)
	for i := range units {
		if width == 2 {
			units[i] = rune(binary.NativeEndian.Uint16(b[i*2:]))
		} else {
			units[i] = rune(binary.NativeEndian.Uint32(b[i*4:]))
		}
	}
	return units
}

// mulSize returns n*width, or false if that overflows an int.
func mulSize(n, width int) (int, bool) {
	if n > 0 && width > unbounded/n {
		return 0, false
	}
	return n * width, true
}
