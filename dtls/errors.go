package dtls

import (
	"github.com/pkg/errors"
)

// lengthError is a malformed length of some kind. Every lengthError
// matches ErrMalformedLength under errors.Is.
type lengthError string

func (e lengthError) Error() string {
	return "dtls: " + string(e)
}

func (e lengthError) Is(target error) bool {
	return target == ErrMalformedLength
}

var (
	ErrCookieTooLong          = errors.New("dtls: cookie must not be longer than 255 bytes")
	ErrTruncated              = errors.New("dtls: buffer is too small")
	ErrUnsupportedCipherSuite = errors.New("dtls: unsupported cipher suite")
	ErrFragmented             = errors.New("dtls: fragmented handshake message")
	ErrUnexpectedMessage      = errors.New("dtls: unexpected handshake message")
	ErrNoAEAD                 = errors.New("dtls: cipher suite has no AEAD construction")

	ErrMalformedLength     error = lengthError("malformed length")
	ErrMalformedExtensions error = lengthError("malformed extensions")
)
