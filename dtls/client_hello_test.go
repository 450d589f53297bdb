package dtls

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/pixelbender/go-dtls-hello/internal/testutil/testlog"
)

// Captured from Chrome, handshake header stripped.
const chromeClientHello = "fefd9022059c50b987e4ba5d1d4cee973546184fe822c1bdadb140338fcf5aab651e00000022c02bc02f009ecca9cca8cc14cc13c009c0130033c00ac0140039009c002f0035000a01000042ff010001000017000000230000000d00140012040308040401050308050501080606010201000e000700040002000100000b00020100000a00080006001d00170018"

func mustSuite(t *testing.T, id CipherSuiteID) *CipherSuite {
	t.Helper()
	s, err := CipherSuiteForID(id)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testRandom() HandshakeRandom {
	r := HandshakeRandom{GMTUnixTime: 0x5a646f92}
	for i := range r.RandomBytes {
		r.RandomBytes[i] = byte(i)
	}
	return r
}

func TestClientHelloMinimal(t *testing.T) {
	t.Parallel()
	m := &ClientHello{
		Version:            ProtocolVersion{3, 1},
		Random:             testRandom(),
		CipherSuites:       []*CipherSuite{mustSuite(t, TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256)},
		CompressionMethods: CompressionMethods{CompressionMethodNull},
	}
	b, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 12+32 {
		t.Fatalf("length: %d", len(b))
	}
	rnd := hex.EncodeToString(m.Random.Marshal())
	if exp := "0301" + rnd + "00" + "00" + "0002c02b" + "0100" + "0000"; hex.EncodeToString(b) != exp {
		t.Fatalf("marshal:\n%s\nexpected:\n%s", hex.EncodeToString(b), exp)
	}
	d := &ClientHello{}
	if err := d.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if !d.Equal(m) {
		t.Fatalf("unmarshal: %v\nexpected: %v", d, m)
	}
	if d.HandshakeType() != HandshakeTypeClientHello {
		t.Fatalf("handshake type: %v", d.HandshakeType())
	}
}

func TestClientHelloChrome(t *testing.T) {
	l := testlog.Start(t)
	b, _ := hex.DecodeString(chromeClientHello)
	m, err := ParseClientHello(b, anySuite)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug().Stringer("hello", m).Msg("decoded")
	if m.Version != Version1_2 || len(m.Cookie) != 0 || len(m.CipherSuites) != 17 || len(m.CompressionMethods) != 1 || len(m.Extensions) != 7 {
		t.Fatalf("client hello: %v", m)
	}
	if m.CipherSuites[0].ID != TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256 || m.CipherSuites[16].ID != 0x000a {
		t.Fatalf("cipher suites: %v", m.CipherSuites)
	}
	ri, ok := m.Extensions[0].(*RenegotiationInfo)
	if !ok || len(ri.RenegotiatedConnection) != 0 {
		t.Fatalf("renegotiation info: %#v", m.Extensions[0])
	}
	if _, ok := m.Extensions[1].(*UseExtendedMasterSecret); !ok {
		t.Fatalf("extended master secret: %#v", m.Extensions[1])
	}
	if raw, ok := m.Extensions[2].(*RawExtension); !ok || raw.Type != ExtensionSessionTicket || len(raw.Data) != 0 {
		t.Fatalf("session ticket: %#v", m.Extensions[2])
	}
	if sig, ok := m.Extensions[3].(*SupportedSignatureAlgorithms); !ok || len(sig.Algorithms) != 9 {
		t.Fatalf("signature algorithms: %#v", m.Extensions[3])
	}
	srtp, ok := m.Extensions[4].(*UseSRTP)
	if !ok || len(srtp.ProtectionProfiles) != 2 || srtp.ProtectionProfiles[0] != SRTP_AES128_CM_HMAC_SHA1_32 || len(srtp.MasterKeyIdentifier) != 0 {
		t.Fatalf("use srtp: %#v", m.Extensions[4])
	}
	if pf, ok := m.Extensions[5].(*SupportedPointFormats); !ok || len(pf.Formats) != 1 {
		t.Fatalf("point formats: %#v", m.Extensions[5])
	}
	curves, ok := m.Extensions[6].(*SupportedEllipticCurves)
	if !ok || len(curves.Curves) != 3 || curves.Curves[0] != CurveX25519 {
		t.Fatalf("curves: %#v", m.Extensions[6])
	}
	p, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, p) {
		t.Fatalf("marshal: \n%sexpected:\n%s", hex.Dump(p), hex.Dump(b))
	}
	if _, err := ParseClientHello(b, nil); !errors.Is(err, ErrUnsupportedCipherSuite) {
		t.Fatalf("default registry: %v", err)
	}
}

func TestClientHelloRoundTrip(t *testing.T) {
	t.Parallel()
	a := mustSuite(t, TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
	b := mustSuite(t, TLS_PSK_WITH_AES_128_CCM_8)
	c := mustSuite(t, TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256)
	m := &ClientHello{
		Version:            Version1_2,
		Random:             testRandom(),
		Cookie:             []byte{1, 2, 3, 4},
		CipherSuites:       []*CipherSuite{a, b, c, a},
		CompressionMethods: CompressionMethods{CompressionMethodNull, 1, 64},
		Extensions: []Extension{
			&ServerName{Name: "example.com"},
			&SupportedEllipticCurves{Curves: []NamedCurve{CurveP256, CurveP384}},
			&RawExtension{Type: 0x1234, Data: []byte{0xde, 0xad}},
			&UseExtendedMasterSecret{},
		},
	}
	p, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	d, err := ParseClientHello(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(m) {
		t.Fatalf("unmarshal: %v\nexpected: %v", d, m)
	}
	for i, s := range []*CipherSuite{a, b, c, a} {
		if d.CipherSuites[i] != s {
			t.Fatalf("cipher suite %d: %v, expected %v", i, d.CipherSuites[i], s)
		}
	}
	if !d.CompressionMethods.Equal(CompressionMethods{0, 1, 64}) {
		t.Fatalf("compression methods: %v", d.CompressionMethods)
	}
	if raw, ok := d.Extensions[2].(*RawExtension); !ok || raw.Type != 0x1234 || !bytes.Equal(raw.Data, []byte{0xde, 0xad}) {
		t.Fatalf("raw extension: %#v", d.Extensions[2])
	}
}

func TestClientHelloCookieLimit(t *testing.T) {
	t.Parallel()
	m := &ClientHello{Version: Version1_2, Cookie: bytes.Repeat([]byte{0xaa}, 255)}
	p, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	d, err := ParseClientHello(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.Cookie, m.Cookie) {
		t.Fatalf("cookie: %x", d.Cookie)
	}
	m.Cookie = append(m.Cookie, 0xaa)
	if _, err := m.Marshal(); err != ErrCookieTooLong {
		t.Fatalf("256 byte cookie: %v", err)
	}
	if _, err := m.WriteTo(io.Discard); err != ErrCookieTooLong {
		t.Fatalf("write 256 byte cookie: %v", err)
	}
}

func TestClientHelloTruncated(t *testing.T) {
	t.Parallel()
	b, _ := hex.DecodeString(chromeClientHello)
	for i := 0; i < len(b); i++ {
		if _, err := ParseClientHello(b[:i], anySuite); err != ErrTruncated {
			t.Fatalf("prefix of %d bytes: %v", i, err)
		}
	}
}

func TestClientHelloCipherSuites(t *testing.T) {
	t.Parallel()
	head := "fefd" + hex.EncodeToString(testRandom().Marshal()) + "0000"
	for name, tc := range map[string]struct {
		hex string
		err error
	}{
		"unknown": {head + "0004c02bffff" + "0100" + "0000", ErrUnsupportedCipherSuite},
		"odd":     {head + "0003c02bc0" + "0100" + "0000", ErrMalformedLength},
		"empty":   {head + "0000" + "0100" + "0000", nil},
	} {
		b, err := hex.DecodeString(tc.hex)
		if err != nil {
			t.Fatal(err)
		}
		_, err = ParseClientHello(b, nil)
		if !errors.Is(err, tc.err) || (tc.err == nil && err != nil) {
			t.Errorf("%s: %v, expected %v", name, err, tc.err)
		}
	}
	if _, err := (&ClientHello{CipherSuites: []*CipherSuite{nil}}).Marshal(); !errors.Is(err, ErrUnsupportedCipherSuite) {
		t.Fatalf("nil suite: %v", err)
	}
}

func TestClientHelloSessionID(t *testing.T) {
	t.Parallel()
	b, _ := hex.DecodeString("fefd" + hex.EncodeToString(testRandom().Marshal()) + "03010203" + "02beef" + "0002c02b" + "0100" + "0000")
	m, err := ParseClientHello(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Cookie, []byte{0xbe, 0xef}) || len(m.CipherSuites) != 1 {
		t.Fatalf("client hello: %v", m)
	}
	p, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != len(b)-3 || p[34] != 0 {
		t.Fatalf("session id is not dropped: %x", p)
	}
}

func TestClientHelloTrailingBytes(t *testing.T) {
	t.Parallel()
	m := &ClientHello{Version: Version1_2, CompressionMethods: CompressionMethods{0}}
	p, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := new(ClientHello).Unmarshal(append(p, 0)); !errors.Is(err, ErrMalformedLength) {
		t.Fatalf("trailing byte: %v", err)
	}
}

func TestClientHelloUnmarshalKeepsTarget(t *testing.T) {
	t.Parallel()
	m := &ClientHello{Version: Version1_0, Cookie: []byte{1}}
	if err := m.Unmarshal([]byte{0xfe, 0xfd, 0}); err != ErrTruncated {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Version != Version1_0 || len(m.Cookie) != 1 {
		t.Fatalf("target modified: %v", m)
	}
}

func TestClientHelloStream(t *testing.T) {
	t.Parallel()
	b, _ := hex.DecodeString(chromeClientHello)
	next := []byte{0x16, 0xfe, 0xff}
	r := bytes.NewReader(append(append([]byte(nil), b...), next...))
	m, err := ReadClientHello(r, anySuite)
	if err != nil {
		t.Fatal(err)
	}
	if rest, _ := io.ReadAll(r); !bytes.Equal(rest, next) {
		t.Fatalf("read past message: %x", rest)
	}
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(b)) || !bytes.Equal(buf.Bytes(), b) {
		t.Fatalf("write: %d bytes\n%s", n, hex.Dump(buf.Bytes()))
	}

	if _, err := ReadClientHello(bytes.NewReader(b[:40]), anySuite); err != ErrTruncated {
		t.Fatalf("short stream: %v", err)
	}
	failure := errors.New("connection reset")
	if _, err := ReadClientHello(io.MultiReader(bytes.NewReader(b[:40]), &failingReader{failure}), anySuite); !errors.Is(err, failure) {
		t.Fatalf("stream error: %v", err)
	}
	if _, err := m.WriteTo(&failingWriter{failure}); !errors.Is(err, failure) {
		t.Fatalf("write error: %v", err)
	}
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

type failingWriter struct{ err error }

func (w *failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestClientHelloEqual(t *testing.T) {
	t.Parallel()
	a := mustSuite(t, TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256)
	b := mustSuite(t, TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
	base := func() *ClientHello {
		return &ClientHello{
			Version:            Version1_2,
			Random:             testRandom(),
			Cookie:             []byte{1},
			CipherSuites:       []*CipherSuite{a, b},
			CompressionMethods: CompressionMethods{0},
			Extensions:         []Extension{&RawExtension{Type: 1, Data: []byte{2}}},
		}
	}
	if !base().Equal(base()) {
		t.Fatal("equal messages differ")
	}
	for name, mod := range map[string]func(m *ClientHello){
		"version":     func(m *ClientHello) { m.Version = Version1_0 },
		"random":      func(m *ClientHello) { m.Random.GMTUnixTime++ },
		"cookie":      func(m *ClientHello) { m.Cookie = nil },
		"suite order": func(m *ClientHello) { m.CipherSuites[0], m.CipherSuites[1] = b, a },
		"suites":      func(m *ClientHello) { m.CipherSuites = m.CipherSuites[:1] },
		"compression": func(m *ClientHello) { m.CompressionMethods = CompressionMethods{1} },
		"extension":   func(m *ClientHello) { m.Extensions[0] = &RawExtension{Type: 1, Data: []byte{3}} },
		"extensions":  func(m *ClientHello) { m.Extensions = nil },
	} {
		m := base()
		mod(m)
		if m.Equal(base()) {
			t.Errorf("%s: modified message is equal", name)
		}
	}
}

func TestClientHelloString(t *testing.T) {
	t.Parallel()
	m := &ClientHello{
		Version:            Version1_2,
		Cookie:             []byte{0xca, 0xfe},
		CipherSuites:       []*CipherSuite{mustSuite(t, TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256)},
		CompressionMethods: CompressionMethods{0},
		Extensions:         []Extension{&SupportedPointFormats{Formats: []PointFormat{0}}, &RawExtension{Type: 0x23}},
	}
	s := m.String()
	for _, it := range []string{"DTLS 1.2", "cafe", "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", "[null]", "ec_point_formats{Formats:[0]}", "session_ticket()"} {
		if !strings.Contains(s, it) {
			t.Errorf("%q is missing %q", s, it)
		}
	}
}
