package dtls

import "strconv"

// ProtocolVersion is the two byte version carried by handshake messages.
// DTLS versions are the one's complement of the TLS version they derive from.
type ProtocolVersion struct {
	Major, Minor uint8
}

var (
	Version1_0 = ProtocolVersion{0xfe, 0xff}
	Version1_2 = ProtocolVersion{0xfe, 0xfd}
)

func (v ProtocolVersion) Uint16() uint16 {
	return uint16(v.Major)<<8 | uint16(v.Minor)
}

func (v ProtocolVersion) String() string {
	switch v {
	case Version1_0:
		return "DTLS 1.0"
	case Version1_2:
		return "DTLS 1.2"
	}
	return "{" + strconv.Itoa(int(v.Major)) + "," + strconv.Itoa(int(v.Minor)) + "}"
}

func (v ProtocolVersion) append(b []byte) []byte {
	p, b := grow(b, 2)
	_ = p[1]
	p[0], p[1] = v.Major, v.Minor
	return b
}

func readProtocolVersion(r reader) (v ProtocolVersion, err error) {
	var b []byte
	if b, err = r.Next(2); err != nil {
		return
	}
	_ = b[1]
	v.Major, v.Minor = b[0], b[1]
	return
}
