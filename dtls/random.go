package dtls

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strconv"
	"time"
)

const (
	handshakeRandomLength = 32
	randomBytesLength     = handshakeRandomLength - 4
)

// HandshakeRandom is the hello random: a 32-bit GMT unix time followed
// by 28 bytes from a secure generator. It is comparable with ==.
type HandshakeRandom struct {
	GMTUnixTime uint32
	RandomBytes [randomBytesLength]byte
}

// Populate fills the random from r at time now. A nil r uses crypto/rand.
func (h *HandshakeRandom) Populate(r io.Reader, now time.Time) error {
	if r == nil {
		r = rand.Reader
	}
	h.GMTUnixTime = uint32(now.Unix())
	_, err := io.ReadFull(r, h.RandomBytes[:])
	return err
}

func (h HandshakeRandom) Time() time.Time {
	return time.Unix(int64(h.GMTUnixTime), 0).UTC()
}

func (h HandshakeRandom) Marshal() []byte {
	return h.append(nil)
}

func (h *HandshakeRandom) Unmarshal(b []byte) error {
	return h.read(&bufferReader{buf: b})
}

func (h HandshakeRandom) String() string {
	return strconv.FormatUint(uint64(h.GMTUnixTime), 10) + ":" + hex.EncodeToString(h.RandomBytes[:])
}

func (h HandshakeRandom) append(b []byte) []byte {
	v, b := grow(b, handshakeRandomLength)
	be.PutUint32(v, h.GMTUnixTime)
	copy(v[4:], h.RandomBytes[:])
	return b
}

func (h *HandshakeRandom) read(r reader) error {
	b, err := r.Next(handshakeRandomLength)
	if err != nil {
		return err
	}
	h.GMTUnixTime = be.Uint32(b)
	copy(h.RandomBytes[:], b[4:])
	return nil
}
