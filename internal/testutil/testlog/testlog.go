package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/pixelbender/go-dtls-hello/internal/logging"
)

// Start returns a logger that writes through t at the test log level.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	lvl := logging.ConfigureTests().GetLevel()
	l := zerolog.New(zerolog.NewTestWriter(t)).Level(lvl).With().Str("test", t.Name()).Logger()
	l.Debug().Msg("start")
	return l
}
