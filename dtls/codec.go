package dtls

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var be = binary.BigEndian

type reader interface {
	Next(n int) ([]byte, error)
}

type bufferReader struct {
	buf []byte
	pos int
}

func (r *bufferReader) Next(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.pos < n {
		return nil, ErrTruncated
	}
	off := r.pos
	r.pos += n
	return r.buf[off:r.pos], nil
}

func (r *bufferReader) Len() int {
	return len(r.buf) - r.pos
}

// streamReader reads fields straight off an io.Reader. Every returned
// slice is freshly allocated.
type streamReader struct {
	inner io.Reader
	n     int64
}

func (r *streamReader) Next(n int) ([]byte, error) {
	b := make([]byte, n)
	m, err := io.ReadFull(r.inner, b)
	r.n += int64(m)
	switch err {
	case nil:
		return b, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return nil, ErrTruncated
	}
	return nil, errors.Wrap(err, "dtls: read")
}

func readUint8(r reader) (uint8, error) {
	b, err := r.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func readUint16(r reader) (uint16, error) {
	b, err := r.Next(2)
	if err != nil {
		return 0, err
	}
	return be.Uint16(b), nil
}

// readVector8 reads an opaque vector with a one byte length prefix.
func readVector8(r reader) ([]byte, error) {
	n, err := readUint8(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.Next(int(n))
}

func readVector16(r reader) ([]byte, error) {
	n, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.Next(int(n))
}

func put2(b []byte, n int) {
	_ = b[1]
	b[0], b[1] = uint8(n>>8), uint8(n)
}

func put3(b []byte, n int) {
	_ = b[2]
	b[0], b[1], b[2] = uint8(n>>16), uint8(n>>8), uint8(n)
}

func get3(b []byte) int {
	_ = b[2]
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2])
}

func grow(b []byte, n int) (v, next []byte) {
	l := len(b)
	r := l + n
	if r > cap(b) {
		next := make([]byte, r, (1+((r-1)>>10))<<10)
		if l > 0 {
			copy(next, b[:l])
		}
		b = next
	}
	return b[l:r], b[:r]
}

func pack(b []byte, raw []byte) ([]byte, error) {
	if len(raw) > 0xff {
		return nil, errors.Wrapf(ErrMalformedLength, "vector of %d bytes", len(raw))
	}
	v, b := grow(b, 1)
	v[0] = uint8(len(raw))
	return append(b, raw...), nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
