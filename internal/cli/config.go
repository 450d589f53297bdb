package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/pixelbender/go-dtls-hello/dtls"
	"github.com/pixelbender/go-dtls-hello/internal/logging"
)

type Config struct {
	LogLevel   string
	NoColor    bool
	Profile    string
	Input      string
	Framed     bool
	MessageSeq uint16
	Logger     zerolog.Logger
}

func GetLogLevel(level string) zerolog.Level {
	if lvl, ok := logging.ParseLevel(level); ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// NewConfigFromCLI reads the flags and installs the resulting logger as
// the dtls package logger.
func NewConfigFromCLI(c *cli.Context) *Config {
	cfg := &Config{
		LogLevel:   c.String(LogLevelFlag.Name),
		NoColor:    c.Bool(NoColorFlag.Name),
		Profile:    c.String(ProfileFlag.Name),
		Input:      c.String(InputFlag.Name),
		Framed:     c.Bool(FramedFlag.Name),
		MessageSeq: uint16(c.Uint(MessageSeqFlag.Name)),
	}

	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.Level = GetLogLevel(cfg.LogLevel)
	lc.NoColor = cfg.NoColor
	lc.Out = os.Stderr
	cfg.Logger = logging.New(lc)
	dtls.SetLogger(cfg.Logger)
	return cfg
}
