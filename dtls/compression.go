package dtls

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type CompressionMethodID uint8

const CompressionMethodNull CompressionMethodID = 0

func (c CompressionMethodID) String() string {
	if c == CompressionMethodNull {
		return "null"
	}
	return "compression(" + strconv.Itoa(int(c)) + ")"
}

// CompressionMethods is the ordered list of methods offered by a client.
// Identifiers are kept as received, including ones this package has no
// name for.
type CompressionMethods []CompressionMethodID

func (m CompressionMethods) Equal(o CompressionMethods) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i] != o[i] {
			return false
		}
	}
	return true
}

func (m CompressionMethods) String() string {
	s := make([]string, len(m))
	for i, it := range m {
		s[i] = it.String()
	}
	return "[" + strings.Join(s, " ") + "]"
}

func (m CompressionMethods) Marshal() ([]byte, error) {
	return m.append(nil)
}

func (m *CompressionMethods) Unmarshal(b []byte) error {
	return m.read(&bufferReader{buf: b})
}

func (m CompressionMethods) append(b []byte) ([]byte, error) {
	n := len(m)
	if n > 0xff {
		return nil, errors.Wrapf(ErrMalformedLength, "%d compression methods", n)
	}
	v, b := grow(b, 1+n)
	v[0] = uint8(n)
	for i, it := range m {
		v[1+i] = uint8(it)
	}
	return b, nil
}

func (m *CompressionMethods) read(r reader) error {
	v, err := readVector8(r)
	if err != nil {
		return err
	}
	l := make(CompressionMethods, len(v))
	for i, it := range v {
		l[i] = CompressionMethodID(it)
	}
	*m = l
	return nil
}
