//go:build cgo && iconv

package iconv

// Default returns the primitive used by Open: the C library's iconv(3).
func Default() Primitive {
	return System()
}

// Backend returns the name of the implementation behind Default.
func Backend() string {
	return "libiconv"
}
