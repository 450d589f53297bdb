package dtls

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
)

// Typed extensions consume their payload exactly as they would write it.
// Anything left over surfaces as ErrMalformedExtensions in the block codec,
// so a decoded record always re-encodes to the same bytes.

type NamedCurve uint16

// http://www.iana.org/assignments/tls-parameters/tls-parameters.xml#tls-parameters-8
const (
	CurveP256   NamedCurve = 0x0017
	CurveP384   NamedCurve = 0x0018
	CurveP521   NamedCurve = 0x0019
	CurveX25519 NamedCurve = 0x001d
)

type PointFormat uint8

const PointFormatUncompressed PointFormat = 0

type HashAlgorithm uint8

const (
	HashSHA1   HashAlgorithm = 2
	HashSHA256 HashAlgorithm = 4
	HashSHA384 HashAlgorithm = 5
	HashSHA512 HashAlgorithm = 6
)

type SignatureAlgorithm uint8

const (
	SignatureRSA     SignatureAlgorithm = 1
	SignatureECDSA   SignatureAlgorithm = 3
	SignatureEd25519 SignatureAlgorithm = 7
)

type SignatureHashAlgorithm struct {
	Hash      HashAlgorithm
	Signature SignatureAlgorithm
}

type SRTPProtectionProfile uint16

const (
	SRTP_AES128_CM_HMAC_SHA1_80 SRTPProtectionProfile = 0x0001
	SRTP_AES128_CM_HMAC_SHA1_32 SRTPProtectionProfile = 0x0002
	SRTP_NULL_HMAC_SHA1_80      SRTPProtectionProfile = 0x0005
	SRTP_NULL_HMAC_SHA1_32      SRTPProtectionProfile = 0x0006
	SRTP_AEAD_AES_128_GCM       SRTPProtectionProfile = 0x0007
	SRTP_AEAD_AES_256_GCM       SRTPProtectionProfile = 0x0008
)

const serverNameTypeHostName uint8 = 0

// ServerName is the server_name extension with a single host_name entry.
// Lists of any other shape decode as RawExtension.
type ServerName struct {
	Name string
}

func (*ServerName) ExtensionType() ExtensionType {
	return ExtensionServerName
}

func (e *ServerName) AppendPayload(b []byte) ([]byte, error) {
	c := cryptobyte.NewBuilder(b)
	c.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddUint8(serverNameTypeHostName)
		c.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
			c.AddBytes([]byte(e.Name))
		})
	})
	return builderBytes(c)
}

// UnmarshalPayload accepts a list holding exactly one host_name entry.
// Other well-formed lists are left to RawExtension.
func (e *ServerName) UnmarshalPayload(data []byte) (int, error) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) {
		return 0, ErrMalformedExtensions
	}
	var (
		name    cryptobyte.String
		entries int
		typed   = true
	)
	for !list.Empty() {
		var typ uint8
		if !list.ReadUint8(&typ) || !list.ReadUint16LengthPrefixed(&name) {
			return 0, ErrMalformedExtensions
		}
		entries++
		typed = typed && typ == serverNameTypeHostName
	}
	if entries != 1 || !typed {
		return 0, errNotTyped
	}
	e.Name = string(name)
	return len(data) - len(s), nil
}

type SupportedEllipticCurves struct {
	Curves []NamedCurve
}

func (*SupportedEllipticCurves) ExtensionType() ExtensionType {
	return ExtensionSupportedEllipticCurves
}

func (e *SupportedEllipticCurves) AppendPayload(b []byte) ([]byte, error) {
	c := cryptobyte.NewBuilder(b)
	c.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		for _, it := range e.Curves {
			c.AddUint16(uint16(it))
		}
	})
	return builderBytes(c)
}

func (e *SupportedEllipticCurves) UnmarshalPayload(data []byte) (int, error) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) || len(list)%2 != 0 {
		return 0, ErrMalformedExtensions
	}
	e.Curves = make([]NamedCurve, 0, len(list)/2)
	for !list.Empty() {
		var v uint16
		list.ReadUint16(&v)
		e.Curves = append(e.Curves, NamedCurve(v))
	}
	return len(data) - len(s), nil
}

type SupportedPointFormats struct {
	Formats []PointFormat
}

func (*SupportedPointFormats) ExtensionType() ExtensionType {
	return ExtensionSupportedPointFormats
}

func (e *SupportedPointFormats) AppendPayload(b []byte) ([]byte, error) {
	c := cryptobyte.NewBuilder(b)
	c.AddUint8LengthPrefixed(func(c *cryptobyte.Builder) {
		for _, it := range e.Formats {
			c.AddUint8(uint8(it))
		}
	})
	return builderBytes(c)
}

func (e *SupportedPointFormats) UnmarshalPayload(data []byte) (int, error) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&list) {
		return 0, ErrMalformedExtensions
	}
	e.Formats = make([]PointFormat, len(list))
	for i, it := range list {
		e.Formats[i] = PointFormat(it)
	}
	return len(data) - len(s), nil
}

type SupportedSignatureAlgorithms struct {
	Algorithms []SignatureHashAlgorithm
}

func (*SupportedSignatureAlgorithms) ExtensionType() ExtensionType {
	return ExtensionSupportedSignatureAlgorithms
}

func (e *SupportedSignatureAlgorithms) AppendPayload(b []byte) ([]byte, error) {
	c := cryptobyte.NewBuilder(b)
	c.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		for _, it := range e.Algorithms {
			c.AddUint8(uint8(it.Hash))
			c.AddUint8(uint8(it.Signature))
		}
	})
	return builderBytes(c)
}

func (e *SupportedSignatureAlgorithms) UnmarshalPayload(data []byte) (int, error) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) || len(list)%2 != 0 {
		return 0, ErrMalformedExtensions
	}
	e.Algorithms = make([]SignatureHashAlgorithm, 0, len(list)/2)
	for !list.Empty() {
		var h, sig uint8
		list.ReadUint8(&h)
		list.ReadUint8(&sig)
		e.Algorithms = append(e.Algorithms, SignatureHashAlgorithm{HashAlgorithm(h), SignatureAlgorithm(sig)})
	}
	return len(data) - len(s), nil
}

type UseSRTP struct {
	ProtectionProfiles  []SRTPProtectionProfile
	MasterKeyIdentifier []byte
}

func (*UseSRTP) ExtensionType() ExtensionType {
	return ExtensionUseSRTP
}

func (e *UseSRTP) AppendPayload(b []byte) ([]byte, error) {
	if len(e.MasterKeyIdentifier) > 0xff {
		return nil, errors.Wrapf(ErrMalformedLength, "srtp_mki of %d bytes", len(e.MasterKeyIdentifier))
	}
	c := cryptobyte.NewBuilder(b)
	c.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		for _, it := range e.ProtectionProfiles {
			c.AddUint16(uint16(it))
		}
	})
	c.AddUint8LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(e.MasterKeyIdentifier)
	})
	return builderBytes(c)
}

func (e *UseSRTP) UnmarshalPayload(data []byte) (int, error) {
	s := cryptobyte.String(data)
	var list, mki cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) || len(list)%2 != 0 || !s.ReadUint8LengthPrefixed(&mki) {
		return 0, ErrMalformedExtensions
	}
	e.ProtectionProfiles = make([]SRTPProtectionProfile, 0, len(list)/2)
	for !list.Empty() {
		var v uint16
		list.ReadUint16(&v)
		e.ProtectionProfiles = append(e.ProtectionProfiles, SRTPProtectionProfile(v))
	}
	e.MasterKeyIdentifier = clone(mki)
	return len(data) - len(s), nil
}

// UseExtendedMasterSecret has no payload; its presence is the signal.
type UseExtendedMasterSecret struct{}

func (*UseExtendedMasterSecret) ExtensionType() ExtensionType {
	return ExtensionUseExtendedMasterSecret
}

func (*UseExtendedMasterSecret) AppendPayload(b []byte) ([]byte, error) {
	return b, nil
}

func (*UseExtendedMasterSecret) UnmarshalPayload(data []byte) (int, error) {
	return 0, nil
}

// RenegotiationInfo carries renegotiated_connection, empty on an initial
// handshake.
type RenegotiationInfo struct {
	RenegotiatedConnection []byte
}

func (*RenegotiationInfo) ExtensionType() ExtensionType {
	return ExtensionRenegotiationInfo
}

func (e *RenegotiationInfo) AppendPayload(b []byte) ([]byte, error) {
	return pack(b, e.RenegotiatedConnection)
}

func (e *RenegotiationInfo) UnmarshalPayload(data []byte) (int, error) {
	s := cryptobyte.String(data)
	var v cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&v) {
		return 0, ErrMalformedExtensions
	}
	e.RenegotiatedConnection = clone(v)
	return len(data) - len(s), nil
}
