package iconv

import (
	"syscall"

	"github.com/mnightingale/iconv/charset"
)

// maxCharLen is enough room for any single character of any charset in the
// charset package, shift sequences included.
const maxCharLen = 16

type generic struct{}

// Generic returns the pure Go primitive, backed by the charset package.
func Generic() Primitive {
	return generic{}
}

func (generic) Open(tocode, fromcode string) (Descriptor, error) {
	to, from := charset.Lookup(tocode), charset.Lookup(fromcode)
	if to == nil || from == nil || to.NewEncoder == nil || from.NewDecoder == nil {
		return nil, syscall.EINVAL
	}
	return &genericDescriptor{
		from: from,
		dec:  from.NewDecoder(),
		enc:  to.NewEncoder(),
	}, nil
}

type genericDescriptor struct {
	from    *charset.Charset
	dec     charset.Decoder
	enc     charset.Encoder
	scratch [maxCharLen]byte
	closed  bool
}

// window returns where the next character is written: the unused tail of out,
// or the scratch buffer limited to outLeft when only counting.
func (d *genericDescriptor) window(out []byte, outLeft int) []byte {
	if out != nil {
		return out[len(out)-outLeft:]
	}
	return d.scratch[:min(outLeft, len(d.scratch))]
}

func (d *genericDescriptor) Iconv(in, out []byte, outLen int) (inLeft, outLeft int, err error) {
	if d.closed {
		return len(in), outLen, syscall.EBADF
	}
	if out != nil {
		outLen = len(out)
	}
	outLeft = outLen

	if in == nil {
		n, status := d.enc.Flush(d.window(out, outLeft))
		if status != charset.Success {
			return 0, outLeft, syscall.E2BIG
		}
		d.dec = d.from.NewDecoder()
		return 0, outLeft - n, nil
	}

	pos := 0
	for pos < len(in) {
		c, size, status := d.dec.Decode(in[pos:])
		switch status {
		case charset.NoRoom:
			return len(in) - pos, outLeft, syscall.EINVAL
		case charset.InvalidChar:
			return len(in) - pos, outLeft, syscall.EILSEQ
		case charset.StateOnly:
			d.dec.Advance()
			pos += size
			continue
		}

		n, status := d.enc.EncodeRune(d.window(out, outLeft), c)
		switch status {
		case charset.NoRoom:
			return len(in) - pos, outLeft, syscall.E2BIG
		case charset.InvalidChar:
			return len(in) - pos, outLeft, syscall.EILSEQ
		}
		d.dec.Advance()
		pos += size
		outLeft -= n
	}
	return 0, outLeft, nil
}

func (d *genericDescriptor) Close() error {
	if d.closed {
		return syscall.EBADF
	}
	d.closed = true
	return nil
}
