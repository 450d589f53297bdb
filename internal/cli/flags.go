package cli

import "github.com/urfave/cli/v2"

var (
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		Usage:   "Log level (trace, debug, info, warn, error)",
		EnvVars: []string{"DTLSHELLO_LOG_LEVEL"},
	}

	NoColorFlag = &cli.BoolFlag{
		Name:    "no-color",
		Usage:   "Disable colored log output",
		EnvVars: []string{"DTLSHELLO_LOG_NOCOLOR"},
	}

	ProfileFlag = &cli.StringFlag{
		Name:    "profile",
		Aliases: []string{"p"},
		Usage:   "Path to a TOML hello profile (defaults apply when omitted)",
		EnvVars: []string{"DTLSHELLO_PROFILE"},
	}

	InputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Read hex from this file instead of the argument or stdin",
	}

	FramedFlag = &cli.BoolFlag{
		Name:  "framed",
		Usage: "Input or output carries the 12 byte handshake header",
	}

	MessageSeqFlag = &cli.UintFlag{
		Name:  "message-seq",
		Usage: "Handshake message sequence written with --framed",
	}
)
