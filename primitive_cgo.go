//go:build cgo && iconv

package iconv

/*
#cgo darwin LDFLAGS: -liconv
#cgo freebsd CFLAGS: -I/usr/local/include
#cgo freebsd LDFLAGS: -L/usr/local/lib -liconv
#include <iconv.h>
#include <errno.h>
#include <stdlib.h>

// Like `iconv` but takes the buffer starts instead of pointers to pointers and
// reports errno as the result. A NULL `in` selects the reset form.
static int iconv_go(iconv_t cd, char* in, size_t* in_left, char* out, size_t* out_left) {
	char* in_ptr = in;
	char* out_ptr = out;
	size_t r;

	if (in == NULL) {
		r = iconv(cd, NULL, NULL, &out_ptr, out_left);
	} else {
		r = iconv(cd, &in_ptr, in_left, &out_ptr, out_left);
	}
	return r == (size_t)-1 ? errno : 0;
}

static iconv_t iconv_open_go(const char* tocode, const char* fromcode, int* err) {
	iconv_t cd = iconv_open(tocode, fromcode);
	*err = cd == (iconv_t)-1 ? errno : 0;
	return cd;
}
*/
import "C"
import (
	"errors"
	"syscall"
	"unsafe"
)

const countChunk = 4096

type system struct{}

// System returns the primitive backed by the C library's iconv(3).
func System() Primitive {
	return system{}
}

func (system) Open(tocode, fromcode string) (Descriptor, error) {
	cto, cfrom := C.CString(tocode), C.CString(fromcode)
	defer C.free(unsafe.Pointer(cto))
	defer C.free(unsafe.Pointer(cfrom))

	var cerr C.int
	cd := C.iconv_open_go(cto, cfrom, &cerr)
	if cerr != 0 {
		return nil, syscall.Errno(cerr)
	}
	return &systemDescriptor{cd: cd}, nil
}

type systemDescriptor struct {
	cd     C.iconv_t
	closed bool
}

func (d *systemDescriptor) Iconv(in, out []byte, outLen int) (inLeft, outLeft int, err error) {
	if d.closed {
		return len(in), outLen, syscall.EBADF
	}
	if out == nil {
		return d.count(in, outLen)
	}
	return d.call(in, out)
}

// call makes exactly one iconv(3) call.
func (d *systemDescriptor) call(in, out []byte) (inLeft, outLeft int, err error) {
	if in != nil && len(in) == 0 {
		return 0, len(out), nil
	}

	// A zero length but non-NULL output buffer makes the reset form report
	// E2BIG when a shift sequence is pending, instead of dropping it.
	var empty [1]byte
	outPtr := unsafe.Pointer(&empty[0])
	if len(out) > 0 {
		outPtr = unsafe.Pointer(&out[0])
	}
	var inPtr *C.char
	if in != nil {
		inPtr = (*C.char)(unsafe.Pointer(&in[0]))
	}

	cnIn, cnOut := C.size_t(len(in)), C.size_t(len(out))
	if errno := C.iconv_go(d.cd, inPtr, &cnIn, (*C.char)(outPtr), &cnOut); errno != 0 {
		err = syscall.Errno(errno)
	}
	if in == nil {
		cnIn = 0
	}
	return int(cnIn), int(cnOut), err
}

// count converts into a scratch buffer, chunk by chunk, until outLen bytes
// would have been produced.
//
// E2BIG is final once the room offered was the rest of outLen, or when a full
// chunk took no input. Otherwise only the chunk ran out and counting goes on.
func (d *systemDescriptor) count(in []byte, outLen int) (inLeft, outLeft int, err error) {
	var scratch [countChunk]byte
	outLeft = outLen
	for {
		room := min(outLeft, len(scratch))
		left := 0
		inLeft, left, err = d.call(in, scratch[:room])
		produced := room - left
		outLeft -= produced
		if !errors.Is(err, syscall.E2BIG) || room < len(scratch) || outLeft == 0 || produced == 0 {
			return inLeft, outLeft, err
		}
		if in != nil {
			in = in[len(in)-inLeft:]
		}
	}
}

func (d *systemDescriptor) Close() error {
	if d.closed {
		return syscall.EBADF
	}
	d.closed = true
	if r, err := C.iconv_close(d.cd); r != 0 {
		return err
	}
	return nil
}
