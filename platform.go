//go:build !(cgo && iconv)

package iconv

// Default returns the primitive used by Open. Without the iconv build tag (or
// without cgo) this is the pure Go implementation.
func Default() Primitive {
	return Generic()
}

// Backend returns the name of the implementation behind Default.
func Backend() string {
	return "generic"
}
