package dtls

import (
	"strconv"

	"github.com/pkg/errors"
)

type HandshakeType uint8

const (
	HandshakeTypeHelloRequest       HandshakeType = 0
	HandshakeTypeClientHello        HandshakeType = 1
	HandshakeTypeServerHello        HandshakeType = 2
	HandshakeTypeHelloVerifyRequest HandshakeType = 3
	HandshakeTypeCertificate        HandshakeType = 11
	HandshakeTypeServerKeyExchange  HandshakeType = 12
	HandshakeTypeCertificateRequest HandshakeType = 13
	HandshakeTypeServerHelloDone    HandshakeType = 14
	HandshakeTypeCertificateVerify  HandshakeType = 15
	HandshakeTypeClientKeyExchange  HandshakeType = 16
	HandshakeTypeFinished           HandshakeType = 20
)

var handshakeTexts = map[HandshakeType]string{
	HandshakeTypeHelloRequest:       "hello request",
	HandshakeTypeClientHello:        "client hello",
	HandshakeTypeServerHello:        "server hello",
	HandshakeTypeHelloVerifyRequest: "hello verify request",
	HandshakeTypeCertificate:        "certificate",
	HandshakeTypeServerKeyExchange:  "server key exchange",
	HandshakeTypeCertificateRequest: "certificate request",
	HandshakeTypeServerHelloDone:    "server hello done",
	HandshakeTypeCertificateVerify:  "certificate verify",
	HandshakeTypeClientKeyExchange:  "client key exchange",
	HandshakeTypeFinished:           "finished",
}

func (t HandshakeType) String() string {
	v, ok := handshakeTexts[t]
	if !ok {
		v = "handshake(" + strconv.Itoa(int(t)) + ")"
	}
	return v
}

// HandshakeMessage is the body of one handshake message.
type HandshakeMessage interface {
	HandshakeType() HandshakeType
	Marshal() ([]byte, error)
}

const (
	handshakeHeaderLength = 12
	maxHandshakeLength    = 1<<24 - 1
)

// HandshakeHeader precedes every DTLS handshake message (RFC 6347 4.2.2).
type HandshakeHeader struct {
	Type            HandshakeType
	Length          uint32
	MessageSequence uint16
	FragmentOffset  uint32
	FragmentLength  uint32
}

func (h *HandshakeHeader) Marshal() []byte {
	return h.append(nil)
}

func (h *HandshakeHeader) Unmarshal(b []byte) error {
	if len(b) < handshakeHeaderLength {
		return ErrTruncated
	}
	_ = b[11]
	h.Type = HandshakeType(b[0])
	h.Length = uint32(get3(b[1:]))
	h.MessageSequence = be.Uint16(b[4:])
	h.FragmentOffset = uint32(get3(b[6:]))
	h.FragmentLength = uint32(get3(b[9:]))
	return nil
}

func (h *HandshakeHeader) append(b []byte) []byte {
	v, b := grow(b, handshakeHeaderLength)
	_ = v[11]
	v[0] = uint8(h.Type)
	put3(v[1:], int(h.Length))
	put2(v[4:], int(h.MessageSequence))
	put3(v[6:], int(h.FragmentOffset))
	put3(v[9:], int(h.FragmentLength))
	return b
}

// Handshake is a complete, unfragmented handshake message. Fragmentation
// and reassembly belong to the transport.
type Handshake struct {
	MessageSequence uint16
	Message         HandshakeMessage
}

func (h *Handshake) Marshal() ([]byte, error) {
	if h.Message == nil {
		return nil, errors.New("dtls: empty handshake message")
	}
	body, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}
	if len(body) > maxHandshakeLength {
		return nil, errors.Wrapf(ErrMalformedLength, "%v of %d bytes", h.Message.HandshakeType(), len(body))
	}
	hdr := &HandshakeHeader{
		Type:            h.Message.HandshakeType(),
		Length:          uint32(len(body)),
		MessageSequence: h.MessageSequence,
		FragmentLength:  uint32(len(body)),
	}
	b := hdr.append(make([]byte, 0, handshakeHeaderLength+len(body)))
	return append(b, body...), nil
}

// ParseHandshake decodes the header and body in b. Only client hello and
// hello verify request bodies are understood.
func ParseHandshake(b []byte, res CipherSuiteResolver) (*Handshake, error) {
	hdr := &HandshakeHeader{}
	if err := hdr.Unmarshal(b); err != nil {
		return nil, err
	}
	if hdr.FragmentOffset != 0 || hdr.FragmentLength != hdr.Length {
		return nil, errors.Wrapf(ErrFragmented, "%v offset %d length %d of %d", hdr.Type, hdr.FragmentOffset, hdr.FragmentLength, hdr.Length)
	}
	body := b[handshakeHeaderLength:]
	if uint32(len(body)) < hdr.Length {
		return nil, ErrTruncated
	}
	if uint32(len(body)) > hdr.Length {
		return nil, errors.Wrapf(ErrMalformedLength, "%d trailing bytes after %v", uint32(len(body))-hdr.Length, hdr.Type)
	}
	h := &Handshake{MessageSequence: hdr.MessageSequence}
	switch hdr.Type {
	case HandshakeTypeClientHello:
		m, err := ParseClientHello(body, res)
		if err != nil {
			return nil, err
		}
		h.Message = m
	case HandshakeTypeHelloVerifyRequest:
		m := &HelloVerifyRequest{}
		if err := m.Unmarshal(body); err != nil {
			return nil, err
		}
		h.Message = m
	default:
		return nil, errors.Wrap(ErrUnexpectedMessage, hdr.Type.String())
	}
	return h, nil
}
