package iconv

import (
	"github.com/stretchr/testify/mock"
)

// mockPrimitive is a black-box conversion primitive for resource accounting.
type mockPrimitive struct {
	mock.Mock
}

func (m *mockPrimitive) Open(tocode, fromcode string) (Descriptor, error) {
	args := m.Called(tocode, fromcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Descriptor), args.Error(1)
}

// mockDescriptor plays back the progress and error configured for each call.
// Configured output bytes are copied into out the way a primitive would.
type mockDescriptor struct {
	mock.Mock
}

func (m *mockDescriptor) Iconv(in, out []byte, outLen int) (int, int, error) {
	args := m.Called(in, out, outLen)
	produced := args.Get(0).([]byte)
	if out != nil {
		outLen = len(out)
		copy(out, produced)
	}
	return args.Int(1), outLen - len(produced), args.Error(2)
}

func (m *mockDescriptor) Close() error {
	return m.Called().Error(0)
}
