package dtls

import (
	"strconv"

	"github.com/pkg/errors"
)

type AlertLevel uint8

const (
	AlertLevelWarning AlertLevel = 1
	AlertLevelFatal   AlertLevel = 2
)

type AlertDescription uint8

const (
	AlertCloseNotify            AlertDescription = 0
	AlertUnexpectedMessage      AlertDescription = 10
	AlertBadRecordMAC           AlertDescription = 20
	AlertRecordOverflow         AlertDescription = 22
	AlertHandshakeFailure       AlertDescription = 40
	AlertBadCertificate         AlertDescription = 42
	AlertUnsupportedCertificate AlertDescription = 43
	AlertIllegalParameter       AlertDescription = 47
	AlertDecodeError            AlertDescription = 50
	AlertDecryptError           AlertDescription = 51
	AlertProtocolVersion        AlertDescription = 70
	AlertInsufficientSecurity   AlertDescription = 71
	AlertInternalError          AlertDescription = 80
	AlertNoRenegotiation        AlertDescription = 100
	AlertUnsupportedExtension   AlertDescription = 110
)

var alertTexts = map[AlertDescription]string{
	AlertCloseNotify:            "close notify",
	AlertUnexpectedMessage:      "unexpected message",
	AlertBadRecordMAC:           "bad record MAC",
	AlertRecordOverflow:         "record overflow",
	AlertHandshakeFailure:       "handshake failure",
	AlertBadCertificate:         "bad certificate",
	AlertUnsupportedCertificate: "unsupported certificate",
	AlertIllegalParameter:       "illegal parameter",
	AlertDecodeError:            "error decoding message",
	AlertDecryptError:           "error decrypting message",
	AlertProtocolVersion:        "protocol version not supported",
	AlertInsufficientSecurity:   "insufficient security level",
	AlertInternalError:          "internal error",
	AlertNoRenegotiation:        "no renegotiation",
	AlertUnsupportedExtension:   "unsupported extension",
}

func (a AlertDescription) String() string {
	v, ok := alertTexts[a]
	if !ok {
		v = "alert(" + strconv.Itoa(int(a)) + ")"
	}
	return v
}

// AlertFor returns the fatal alert a handshake driver should send after a
// codec failure. It reports false for a nil error.
func AlertFor(err error) (AlertDescription, bool) {
	switch {
	case err == nil:
		return 0, false
	case errors.Is(err, ErrUnsupportedCipherSuite):
		return AlertHandshakeFailure, true
	case errors.Is(err, ErrUnexpectedMessage):
		return AlertUnexpectedMessage, true
	case errors.Is(err, ErrTruncated), errors.Is(err, ErrMalformedLength), errors.Is(err, ErrFragmented):
		return AlertDecodeError, true
	}
	return AlertInternalError, true
}
