package dtls

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
)

func TestHandshakeClientHello(t *testing.T) {
	t.Parallel()
	b, _ := hex.DecodeString("0100008e000000000000008e" + chromeClientHello)
	h, err := ParseHandshake(b, anySuite)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := h.Message.(*ClientHello)
	if !ok || h.MessageSequence != 0 || len(m.CipherSuites) != 17 {
		t.Fatalf("handshake: %#v", h)
	}
	p, err := h.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, p) {
		t.Fatalf("marshal: \n%sexpected:\n%s", hex.Dump(p), hex.Dump(b))
	}
}

func TestHandshakeHelloVerifyRequest(t *testing.T) {
	t.Parallel()
	b, _ := hex.DecodeString("030000170000000000000017feff1479ce11df12ab98cf9f87df95cd4554c26b6f3701")
	h, err := ParseHandshake(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := h.Message.(*HelloVerifyRequest)
	if !ok || m.Version != Version1_0 || len(m.Cookie) != 20 {
		t.Fatalf("hello verify request: %#v", h.Message)
	}
	p, err := h.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, p) {
		t.Fatalf("marshal: \n%sexpected:\n%s", hex.Dump(p), hex.Dump(b))
	}

	// The cookie goes back in the second ClientHello.
	c := &ClientHello{Version: Version1_2, Cookie: m.Cookie, CompressionMethods: CompressionMethods{0}}
	p, err = (&Handshake{MessageSequence: 1, Message: c}).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	h, err = ParseHandshake(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.MessageSequence != 1 || !h.Message.(*ClientHello).Equal(c) {
		t.Fatalf("second client hello: %#v", h)
	}
}

func TestHandshakeHeader(t *testing.T) {
	t.Parallel()
	hdr := &HandshakeHeader{Type: HandshakeTypeClientHello, Length: 0x01020a, MessageSequence: 0x0102, FragmentOffset: 0x10, FragmentLength: 0x20}
	p := hdr.Marshal()
	if hex.EncodeToString(p) != "0101020a0102000010000020" {
		t.Fatalf("marshal: %x", p)
	}
	d := &HandshakeHeader{}
	if err := d.Unmarshal(p); err != nil {
		t.Fatal(err)
	}
	if *d != *hdr {
		t.Fatalf("unmarshal: %#v", d)
	}
	if err := d.Unmarshal(p[:11]); err != ErrTruncated {
		t.Fatalf("short header: %v", err)
	}
}

func TestHandshakeErrors(t *testing.T) {
	t.Parallel()
	for name, tc := range map[string]struct {
		hex string
		err error
	}{
		"fragment":   {"010000100000000000000008" + "fefd000000000000", ErrFragmented},
		"offset":     {"010000100000000008000008" + "fefd000000000000", ErrFragmented},
		"short body": {"010000100000000000000010" + "fefd", ErrTruncated},
		"trailing":   {"030000030000000000000003" + "feff00" + "00", ErrMalformedLength},
		"unexpected": {"0e0000000000000000000000", ErrUnexpectedMessage},
		"header":     {"0100", ErrTruncated},
		"hvr cookie": {"030000040000000000000004" + "feff0501", ErrTruncated},
	} {
		b, err := hex.DecodeString(tc.hex)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseHandshake(b, nil); !errors.Is(err, tc.err) {
			t.Errorf("%s: %v, expected %v", name, err, tc.err)
		}
	}
	if _, err := (&Handshake{}).Marshal(); err == nil {
		t.Fatal("empty handshake encoded")
	}
	if _, err := (&Handshake{Message: &HelloVerifyRequest{Cookie: make([]byte, 256)}}).Marshal(); err != ErrCookieTooLong {
		t.Fatalf("long cookie: %v", err)
	}
}

func TestHandshakeTypeString(t *testing.T) {
	t.Parallel()
	if HandshakeTypeHelloVerifyRequest.String() != "hello verify request" || HandshakeType(99).String() != "handshake(99)" {
		t.Fatal("handshake type names")
	}
}
