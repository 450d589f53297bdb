package dtls

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
)

type ExtensionType uint16

// http://www.iana.org/assignments/tls-extensiontype-values/tls-extensiontype-values.xhtml
const (
	ExtensionServerName                   ExtensionType = 0x0000 // RFC 6066
	ExtensionSupportedEllipticCurves      ExtensionType = 0x000a // RFC 8422
	ExtensionSupportedPointFormats        ExtensionType = 0x000b // RFC 8422
	ExtensionSupportedSignatureAlgorithms ExtensionType = 0x000d // RFC 5246
	ExtensionUseSRTP                      ExtensionType = 0x000e // RFC 5764
	ExtensionUseExtendedMasterSecret      ExtensionType = 0x0017 // RFC 7627
	ExtensionSessionTicket                ExtensionType = 0x0023 // RFC 5077
	ExtensionRenegotiationInfo            ExtensionType = 0xff01 // RFC 5746
)

var extensionTexts = map[ExtensionType]string{
	ExtensionServerName:                   "server_name",
	ExtensionSupportedEllipticCurves:      "supported_groups",
	ExtensionSupportedPointFormats:        "ec_point_formats",
	ExtensionSupportedSignatureAlgorithms: "signature_algorithms",
	ExtensionUseSRTP:                      "use_srtp",
	ExtensionUseExtendedMasterSecret:      "extended_master_secret",
	ExtensionSessionTicket:                "session_ticket",
	ExtensionRenegotiationInfo:            "renegotiation_info",
}

func (t ExtensionType) String() string {
	v, ok := extensionTexts[t]
	if !ok {
		v = "extension(" + strconv.Itoa(int(t)) + ")"
	}
	return v
}

const (
	extensionHeaderLength = 4
	maxExtensionLength    = 0xffff
)

// Extension is a single hello extension. AppendPayload and
// UnmarshalPayload deal with the extension data only; the type and length
// header is written and read by the block codec.
type Extension interface {
	ExtensionType() ExtensionType
	// AppendPayload appends the extension data to b.
	AppendPayload(b []byte) ([]byte, error)
	// UnmarshalPayload parses data and reports how many bytes it consumed.
	UnmarshalPayload(data []byte) (int, error)
}

// RawExtension carries an extension this package does not interpret, or
// one of a known type whose payload has no typed form. Its payload is kept
// byte for byte. A RawExtension of a known type must hold a payload the
// typed decoder would consume in full; anything else fails to encode.
type RawExtension struct {
	Type ExtensionType
	Data []byte
}

func (e *RawExtension) ExtensionType() ExtensionType {
	return e.Type
}

func (e *RawExtension) AppendPayload(b []byte) ([]byte, error) {
	return append(b, e.Data...), nil
}

func (e *RawExtension) UnmarshalPayload(data []byte) (int, error) {
	e.Data = clone(data)
	return len(data), nil
}

func (e *RawExtension) String() string {
	return fmt.Sprintf("%v(%x)", e.Type, e.Data)
}

// errNotTyped marks a well-formed payload that the typed extension cannot
// represent. The record decodes to a RawExtension instead.
var errNotTyped = errors.New("dtls: payload has no typed form")

// check reports whether a known-type payload would decode back to the
// same record.
func (e *RawExtension) check() error {
	t := newExtension(e.Type)
	if _, ok := t.(*RawExtension); ok {
		return nil
	}
	m, err := t.UnmarshalPayload(e.Data)
	switch {
	case errors.Is(err, errNotTyped):
		return nil
	case err != nil:
		return errors.Wrapf(err, "raw %v", e.Type)
	case m != len(e.Data):
		return errors.Wrapf(ErrMalformedExtensions, "raw %v: %d of %d bytes decode", e.Type, m, len(e.Data))
	}
	return nil
}

func newExtension(typ ExtensionType) Extension {
	switch typ {
	case ExtensionServerName:
		return &ServerName{}
	case ExtensionSupportedEllipticCurves:
		return &SupportedEllipticCurves{}
	case ExtensionSupportedPointFormats:
		return &SupportedPointFormats{}
	case ExtensionSupportedSignatureAlgorithms:
		return &SupportedSignatureAlgorithms{}
	case ExtensionUseSRTP:
		return &UseSRTP{}
	case ExtensionUseExtendedMasterSecret:
		return &UseExtendedMasterSecret{}
	case ExtensionRenegotiationInfo:
		return &RenegotiationInfo{}
	}
	return &RawExtension{Type: typ}
}

// MarshalExtension returns the full type-length-value record of e.
func MarshalExtension(e Extension) ([]byte, error) {
	return appendExtension(nil, e)
}

// UnmarshalExtension decodes the record at the start of b and returns the
// number of bytes it occupies.
func UnmarshalExtension(b []byte) (Extension, int, error) {
	if len(b) < extensionHeaderLength {
		return nil, 0, errors.Wrap(ErrMalformedExtensions, "short extension header")
	}
	_ = b[3]
	typ := ExtensionType(be.Uint16(b))
	n := int(be.Uint16(b[2:]))
	if len(b)-extensionHeaderLength < n {
		return nil, 0, errors.Wrapf(ErrMalformedExtensions, "%v: %d bytes declared, %d left", typ, n, len(b)-extensionHeaderLength)
	}
	payload := b[extensionHeaderLength : extensionHeaderLength+n]
	e := newExtension(typ)
	m, err := e.UnmarshalPayload(payload)
	if errors.Is(err, errNotTyped) {
		e = &RawExtension{Type: typ}
		m, err = e.UnmarshalPayload(payload)
	}
	if err != nil {
		return nil, 0, errors.Wrapf(err, "%v", typ)
	}
	return e, extensionHeaderLength + m, nil
}

func appendExtension(b []byte, e Extension) ([]byte, error) {
	if e == nil {
		return nil, errors.New("dtls: nil extension")
	}
	if raw, ok := e.(*RawExtension); ok {
		if err := raw.check(); err != nil {
			return nil, err
		}
	}
	p := len(b)
	v, b := grow(b, extensionHeaderLength)
	be.PutUint16(v, uint16(e.ExtensionType()))
	b, err := e.AppendPayload(b)
	if err != nil {
		return nil, err
	}
	n := len(b) - p - extensionHeaderLength
	if n > maxExtensionLength {
		return nil, errors.Wrapf(ErrMalformedLength, "%v payload of %d bytes", e.ExtensionType(), n)
	}
	put2(b[p+2:], n)
	return b, nil
}

// appendExtensions writes every record into a scratch buffer, then the
// buffer behind its 16-bit length.
func appendExtensions(b []byte, exts []Extension) ([]byte, error) {
	var scratch []byte
	for _, e := range exts {
		var err error
		if scratch, err = appendExtension(scratch, e); err != nil {
			return nil, err
		}
	}
	if len(scratch) > maxExtensionLength {
		return nil, errors.Wrapf(ErrMalformedLength, "extensions block of %d bytes", len(scratch))
	}
	v, b := grow(b, 2)
	put2(v, len(scratch))
	return append(b, scratch...), nil
}

// parseExtensions walks the block one record at a time. The offset is
// advanced from the raw record header and must agree with what the record
// decoder consumed; the walk must land exactly on the end of the block.
func parseExtensions(b []byte) ([]Extension, error) {
	var exts []Extension
	off := 0
	for off < len(b) {
		if len(b)-off < extensionHeaderLength {
			return nil, errors.Wrapf(ErrMalformedExtensions, "%d stray bytes at offset %d", len(b)-off, off)
		}
		n := extensionHeaderLength + int(be.Uint16(b[off+2:]))
		if off+n > len(b) {
			return nil, errors.Wrapf(ErrMalformedExtensions, "record at offset %d overruns block of %d bytes", off, len(b))
		}
		e, m, err := UnmarshalExtension(b[off:])
		if err != nil {
			return nil, err
		}
		if m != n {
			return nil, errors.Wrapf(ErrMalformedExtensions, "%v: decoded %d of %d bytes", e.ExtensionType(), m, n)
		}
		exts = append(exts, e)
		off += n
	}
	return exts, nil
}

func readExtensions(r reader) ([]Extension, error) {
	b, err := readVector16(r)
	if err != nil {
		return nil, err
	}
	return parseExtensions(b)
}

func extensionsEqual(a, b []Extension) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if a[i].ExtensionType() != b[i].ExtensionType() {
			return false
		}
		p, err := a[i].AppendPayload(nil)
		if err != nil {
			return false
		}
		q, err := b[i].AppendPayload(nil)
		if err != nil {
			return false
		}
		if string(p) != string(q) {
			return false
		}
	}
	return true
}

// builderBytes finishes a cryptobyte builder, reporting an overflowing
// length prefix as ErrMalformedLength.
func builderBytes(b *cryptobyte.Builder) ([]byte, error) {
	v, err := b.Bytes()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedLength, err.Error())
	}
	return v, nil
}
