package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pixelbender/go-dtls-hello/dtls"
	hellocli "github.com/pixelbender/go-dtls-hello/internal/cli"
	"github.com/pixelbender/go-dtls-hello/internal/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dtlshello",
		Usage: "Encode and decode DTLS ClientHello messages",
		Flags: []cli.Flag{
			hellocli.LogLevelFlag,
			hellocli.NoColorFlag,
		},
		Commands: []*cli.Command{
			{
				Name:   "encode",
				Usage:  "Build a ClientHello from a profile and print it as hex",
				Flags:  []cli.Flag{hellocli.ProfileFlag, hellocli.FramedFlag, hellocli.MessageSeqFlag},
				Action: runEncode,
			},
			{
				Name:      "decode",
				Usage:     "Decode a hex ClientHello and print its fields",
				ArgsUsage: "[hex]",
				Flags:     []cli.Flag{hellocli.InputFlag, hellocli.FramedFlag},
				Action:    runDecode,
			},
			{
				Name:   "suites",
				Usage:  "List the known cipher suites",
				Action: runSuites,
			},
		},
	}
}

func runEncode(c *cli.Context) error {
	cfg := hellocli.NewConfigFromCLI(c)

	var (
		p   config.HelloProfile
		err error
	)
	if cfg.Profile != "" {
		cfg.Logger.Debug().Str("file", cfg.Profile).Msg("loading hello profile")
		p, err = config.LoadHelloProfile(cfg.Profile)
	} else {
		p, err = config.ParseHelloProfile("")
	}
	if err != nil {
		return err
	}
	m, err := p.ClientHello(nil, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build client hello: %w", err)
	}

	var b []byte
	if cfg.Framed {
		b, err = (&dtls.Handshake{MessageSequence: cfg.MessageSeq, Message: m}).Marshal()
	} else {
		b, err = m.Marshal()
	}
	if err != nil {
		return fmt.Errorf("failed to encode client hello: %w", err)
	}
	cfg.Logger.Info().Int("bytes", len(b)).Int("suites", len(m.CipherSuites)).Int("extensions", len(m.Extensions)).Msg("client hello encoded")
	fmt.Fprintln(c.App.Writer, hex.EncodeToString(b))
	return nil
}

func runDecode(c *cli.Context) error {
	cfg := hellocli.NewConfigFromCLI(c)

	raw, err := readHex(c, cfg.Input)
	if err != nil {
		return err
	}
	var msg fmt.Stringer
	if cfg.Framed {
		var h *dtls.Handshake
		if h, err = dtls.ParseHandshake(raw, nil); err == nil {
			cfg.Logger.Debug().Uint16("message_seq", h.MessageSequence).Stringer("type", h.Message.HandshakeType()).Msg("handshake decoded")
			msg, _ = h.Message.(fmt.Stringer)
		}
	} else {
		var m *dtls.ClientHello
		if m, err = dtls.ParseClientHello(raw, nil); err == nil {
			msg = m
		}
	}
	if err != nil {
		if alert, ok := dtls.AlertFor(err); ok {
			cfg.Logger.Warn().Err(err).Stringer("alert", alert).Msg("decode failed")
		}
		return err
	}
	if msg != nil {
		fmt.Fprintln(c.App.Writer, msg.String())
	}
	return nil
}

func runSuites(c *cli.Context) error {
	hellocli.NewConfigFromCLI(c)
	for _, s := range dtls.DefaultCipherSuites().Suites() {
		fmt.Fprintf(c.App.Writer, "0x%04x  %-46s %-12s %-18s %v\n", uint16(s.ID), s.Name, s.KeyExchange, s.Cipher, s.Hash)
	}
	return nil
}

// readHex takes the input from the file, the first argument or stdin, in
// that order. Whitespace is ignored.
func readHex(c *cli.Context, file string) ([]byte, error) {
	var text string
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		text = string(b)
	case c.Args().Present():
		text = strings.Join(c.Args().Slice(), "")
	default:
		b, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(b)
	}
	text = strings.Join(strings.Fields(text), "")
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return raw, nil
}
