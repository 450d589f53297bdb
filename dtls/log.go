package dtls

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var pkgLogger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	pkgLogger.Store(&nop)
}

// SetLogger replaces the logger used for decode diagnostics. The default
// discards everything.
func SetLogger(l zerolog.Logger) {
	l = l.With().Str("component", "dtls").Logger()
	pkgLogger.Store(&l)
}

func logger() *zerolog.Logger {
	return pkgLogger.Load()
}
