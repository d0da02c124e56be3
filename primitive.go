package iconv

// Primitive creates conversion descriptors. It is the only thing a Handle
// needs from the platform, so the engine can run on libc iconv or on the pure
// Go tables alike.
type Primitive interface {
	// Open returns a descriptor converting from fromcode to tocode. Errors
	// are syscall.Errno values; EINVAL means the pair is not supported.
	Open(tocode, fromcode string) (Descriptor, error)
}

// Descriptor is a single conversion state, with the contract of iconv(3).
type Descriptor interface {
	// Iconv converts a prefix of in into out and reports how much of each
	// was left unused. It stops at the first character it cannot convert,
	// returning EILSEQ for an invalid or unrepresentable sequence, EINVAL
	// for an incomplete sequence at the end of in and E2BIG when out is
	// full; what was converted before the failure stays in out.
	//
	// A nil in is the reset form: the bytes returning the output to the
	// initial shift state are written to out and both directions of the
	// descriptor return to their initial state.
	//
	// A nil out counts output against outLen without storing it. Otherwise
	// outLen is ignored and len(out) is the room available.
	Iconv(in, out []byte, outLen int) (inLeft, outLeft int, err error)

	// Close releases the descriptor. It must be called exactly once.
	Close() error
}
