package dtls

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

const maxCookieLength = 0xff

// ClientHello is sent by a client to open a session or to renegotiate one.
// In DTLS it is sent twice when the server asks for a cookie: the second
// copy echoes the cookie from HelloVerifyRequest.
//
//	version          2
//	random           32
//	session_id       1 + n (always empty when sent)
//	cookie           1 + n
//	cipher_suites    2 + 2*n
//	compression      1 + n
//	extensions       2 + n
type ClientHello struct {
	Version            ProtocolVersion
	Random             HandshakeRandom
	Cookie             []byte
	CipherSuites       []*CipherSuite
	CompressionMethods CompressionMethods
	Extensions         []Extension
}

func (*ClientHello) HandshakeType() HandshakeType {
	return HandshakeTypeClientHello
}

func (m *ClientHello) Marshal() ([]byte, error) {
	return m.append(nil)
}

// Unmarshal decodes b using the default cipher suite registry.
func (m *ClientHello) Unmarshal(b []byte) error {
	return m.unmarshal(b, nil)
}

// WriteTo writes the encoded message to w.
func (m *ClientHello) WriteTo(w io.Writer) (int64, error) {
	b, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	if err != nil {
		err = errors.Wrap(err, "dtls: write")
	}
	return int64(n), err
}

// ParseClientHello decodes a ClientHello that occupies all of b, resolving
// suites with res. A nil res uses DefaultCipherSuites.
func ParseClientHello(b []byte, res CipherSuiteResolver) (*ClientHello, error) {
	m := &ClientHello{}
	if err := m.unmarshal(b, res); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadClientHello decodes one ClientHello from r, reading exactly the bytes
// the message occupies.
func ReadClientHello(r io.Reader, res CipherSuiteResolver) (*ClientHello, error) {
	s := &streamReader{inner: r}
	m := &ClientHello{}
	if err := m.read(s, res); err != nil {
		logger().Debug().Err(err).Int64("read", s.n).Msg("client hello decode failed")
		return nil, err
	}
	return m, nil
}

func (m *ClientHello) unmarshal(b []byte, res CipherSuiteResolver) error {
	r := &bufferReader{buf: b}
	err := m.read(r, res)
	if err == nil && r.Len() > 0 {
		err = errors.Wrapf(ErrMalformedLength, "%d trailing bytes after client hello", r.Len())
	}
	if err != nil {
		logger().Debug().Err(err).Int("len", len(b)).Msg("client hello decode failed")
		return err
	}
	logger().Trace().Hex("raw", b).Stringer("hello", m).Msg("client hello decoded")
	return nil
}

func (m *ClientHello) append(b []byte) ([]byte, error) {
	if len(m.Cookie) > maxCookieLength {
		return nil, ErrCookieTooLong
	}
	var err error
	b = m.Version.append(b)
	b = m.Random.append(b)

	// Session ID
	v, b := grow(b, 1)
	v[0] = 0

	if b, err = pack(b, m.Cookie); err != nil {
		return nil, err
	}
	if b, err = appendCipherSuites(b, m.CipherSuites); err != nil {
		return nil, err
	}
	if b, err = m.CompressionMethods.append(b); err != nil {
		return nil, err
	}
	return appendExtensions(b, m.Extensions)
}

func (m *ClientHello) read(r reader, res CipherSuiteResolver) (err error) {
	if res == nil {
		res = DefaultCipherSuites()
	}
	h := ClientHello{}
	if h.Version, err = readProtocolVersion(r); err != nil {
		return
	}
	if err = h.Random.read(r); err != nil {
		return
	}
	// Never produced here, but a peer may send one.
	if _, err = readVector8(r); err != nil {
		return
	}
	var cookie []byte
	if cookie, err = readVector8(r); err != nil {
		return
	}
	h.Cookie = clone(cookie)
	if h.CipherSuites, err = readCipherSuites(r, res); err != nil {
		return
	}
	if err = h.CompressionMethods.read(r); err != nil {
		return
	}
	if h.Extensions, err = readExtensions(r); err != nil {
		return
	}
	*m = h
	return nil
}

func appendCipherSuites(b []byte, suites []*CipherSuite) ([]byte, error) {
	n := len(suites) << 1
	if n > 0xffff {
		return nil, errors.Wrapf(ErrMalformedLength, "%d cipher suites", len(suites))
	}
	v, b := grow(b, 2+n)
	_ = v[1]
	v[0], v[1], v = uint8(n>>8), uint8(n), v[2:]
	for _, s := range suites {
		if s == nil {
			return nil, errors.Wrap(ErrUnsupportedCipherSuite, "nil cipher suite")
		}
		_ = v[1]
		v[0], v[1], v = uint8(s.ID>>8), uint8(s.ID), v[2:]
	}
	return b, nil
}

func readCipherSuites(r reader, res CipherSuiteResolver) ([]*CipherSuite, error) {
	n, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	if n&1 != 0 {
		return nil, errors.Wrapf(ErrMalformedLength, "odd cipher suites length %d", n)
	}
	v, err := r.Next(int(n))
	if err != nil {
		return nil, err
	}
	suites := make([]*CipherSuite, 0, n>>1)
	for len(v) > 1 {
		id := CipherSuiteID(be.Uint16(v))
		s, ok := res.CipherSuite(id)
		if !ok || s == nil {
			return nil, errors.Wrapf(ErrUnsupportedCipherSuite, "0x%04x", uint16(id))
		}
		suites = append(suites, s)
		v = v[2:]
	}
	return suites, nil
}

// Equal reports whether m and o carry the same fields. Cipher suites are
// compared by id; extensions by type and encoded payload. Order matters
// in both lists.
func (m *ClientHello) Equal(o *ClientHello) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Version != o.Version || m.Random != o.Random ||
		string(m.Cookie) != string(o.Cookie) ||
		!m.CompressionMethods.Equal(o.CompressionMethods) ||
		len(m.CipherSuites) != len(o.CipherSuites) {
		return false
	}
	for i, s := range m.CipherSuites {
		t := o.CipherSuites[i]
		if s == nil || t == nil {
			if s != t {
				return false
			}
			continue
		}
		if s.ID != t.ID {
			return false
		}
	}
	return extensionsEqual(m.Extensions, o.Extensions)
}

func (m *ClientHello) String() string {
	suites := make([]string, len(m.CipherSuites))
	for i, s := range m.CipherSuites {
		if s == nil {
			suites[i] = "<nil>"
		} else {
			suites[i] = s.Name
		}
	}
	exts := make([]string, len(m.Extensions))
	for i, e := range m.Extensions {
		exts[i] = extensionString(e)
	}
	return fmt.Sprintf("version: %v random: %v cookie: %x cipher_suites: [%s] compression_methods: %v extensions: [%s]",
		m.Version, m.Random, m.Cookie, strings.Join(suites, " "), m.CompressionMethods, strings.Join(exts, " "))
}

func extensionString(e Extension) string {
	if e == nil {
		return "<nil>"
	}
	if s, ok := e.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v%+v", e.ExtensionType(), reflect.Indirect(reflect.ValueOf(e)))
}
