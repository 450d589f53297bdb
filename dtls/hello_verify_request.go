package dtls

import (
	"fmt"

	"github.com/pkg/errors"
)

// HelloVerifyRequest is the server's stateless cookie exchange. The client
// answers with a second ClientHello carrying Cookie.
type HelloVerifyRequest struct {
	Version ProtocolVersion
	Cookie  []byte
}

func (*HelloVerifyRequest) HandshakeType() HandshakeType {
	return HandshakeTypeHelloVerifyRequest
}

func (m *HelloVerifyRequest) Marshal() ([]byte, error) {
	if len(m.Cookie) > maxCookieLength {
		return nil, ErrCookieTooLong
	}
	b := m.Version.append(nil)
	return pack(b, m.Cookie)
}

func (m *HelloVerifyRequest) Unmarshal(b []byte) error {
	r := &bufferReader{buf: b}
	v, err := readProtocolVersion(r)
	if err != nil {
		return err
	}
	cookie, err := readVector8(r)
	if err != nil {
		return err
	}
	if r.Len() > 0 {
		return errors.Wrapf(ErrMalformedLength, "%d trailing bytes after hello verify request", r.Len())
	}
	m.Version, m.Cookie = v, clone(cookie)
	return nil
}

func (m *HelloVerifyRequest) String() string {
	return fmt.Sprintf("version: %v cookie: %x", m.Version, m.Cookie)
}
