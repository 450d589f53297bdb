package config

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pixelbender/go-dtls-hello/dtls"
)

// HelloProfile describes a ClientHello in TOML.
type HelloProfile struct {
	Version            string           `toml:"version"`
	Cookie             string           `toml:"cookie"`
	Random             *RandomConfig    `toml:"random"`
	CipherSuites       []string         `toml:"cipher_suites"`
	CompressionMethods []uint8          `toml:"compression_methods"`
	Extensions         ExtensionsConfig `toml:"extensions"`
}

// RandomConfig pins the hello random. Without it the random is generated.
type RandomConfig struct {
	GMTUnixTime uint32 `toml:"gmt_unix_time"`
	Bytes       string `toml:"bytes"`
}

type ExtensionsConfig struct {
	ServerName           string      `toml:"server_name"`
	SupportedCurves      []uint16    `toml:"supported_curves"`
	PointFormats         []uint8     `toml:"point_formats"`
	SignatureAlgorithms  []uint16    `toml:"signature_algorithms"`
	SRTPProfiles         []uint16    `toml:"srtp_profiles"`
	SRTPMKI              string      `toml:"srtp_mki"`
	ExtendedMasterSecret bool        `toml:"extended_master_secret"`
	RenegotiationInfo    bool        `toml:"renegotiation_info"`
	Raw                  []RawConfig `toml:"raw"`
}

type RawConfig struct {
	Type uint16 `toml:"type"`
	Data string `toml:"data"`
}

func LoadHelloProfile(path string) (HelloProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HelloProfile{}, fmt.Errorf("profile load failed (%s): %w", path, err)
	}
	p, err := ParseHelloProfile(string(data))
	if err != nil {
		return HelloProfile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func ParseHelloProfile(data string) (HelloProfile, error) {
	var p HelloProfile
	if err := toml.Unmarshal([]byte(data), &p); err != nil {
		return HelloProfile{}, fmt.Errorf("profile parse failed: %w", err)
	}
	return finish(p)
}

func finish(p HelloProfile) (HelloProfile, error) {
	applyDefaults(&p)
	if err := ValidateHelloProfile(p); err != nil {
		return HelloProfile{}, err
	}
	return p, nil
}

func applyDefaults(p *HelloProfile) {
	if strings.TrimSpace(p.Version) == "" {
		p.Version = "1.2"
	}
	if len(p.CipherSuites) == 0 {
		for _, s := range dtls.DefaultCipherSuites().Suites() {
			p.CipherSuites = append(p.CipherSuites, s.Name)
		}
	}
	if p.CompressionMethods == nil {
		p.CompressionMethods = []uint8{uint8(dtls.CompressionMethodNull)}
	}
}

func ValidateHelloProfile(p HelloProfile) error {
	if _, err := ParseVersion(p.Version); err != nil {
		return err
	}
	cookie, err := hex.DecodeString(p.Cookie)
	if err != nil {
		return fmt.Errorf("cookie: %w", err)
	}
	if len(cookie) > 255 {
		return fmt.Errorf("cookie: %d bytes, at most 255 allowed", len(cookie))
	}
	if p.Random != nil {
		b, err := hex.DecodeString(p.Random.Bytes)
		if err != nil {
			return fmt.Errorf("random: %w", err)
		}
		if len(b) != 28 {
			return fmt.Errorf("random: bytes must be 28 bytes, got %d", len(b))
		}
	}
	for i, name := range p.CipherSuites {
		if _, err := lookupCipherSuite(name); err != nil {
			return fmt.Errorf("cipher_suites[%d]: %w", i, err)
		}
	}
	if len(p.CompressionMethods) > 255 {
		return fmt.Errorf("compression_methods: %d entries, at most 255 allowed", len(p.CompressionMethods))
	}
	if _, err := hex.DecodeString(p.Extensions.SRTPMKI); err != nil {
		return fmt.Errorf("extensions.srtp_mki: %w", err)
	}
	for i, raw := range p.Extensions.Raw {
		if _, err := hex.DecodeString(raw.Data); err != nil {
			return fmt.Errorf("extensions.raw[%d]: %w", i, err)
		}
	}
	return nil
}

// ParseVersion accepts "1.0", "1.2" or a four digit hex wire value such
// as "0xfefd".
func ParseVersion(s string) (dtls.ProtocolVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1.0", "dtls1.0":
		return dtls.Version1_0, nil
	case "1.2", "dtls1.2":
		return dtls.Version1_2, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return dtls.ProtocolVersion{}, fmt.Errorf("version %q: want 1.0, 1.2 or 0xMMmm", s)
	}
	return dtls.ProtocolVersion{Major: uint8(v >> 8), Minor: uint8(v)}, nil
}

// lookupCipherSuite accepts an IANA name or a hex id such as "0xc02b".
func lookupCipherSuite(name string) (*dtls.CipherSuite, error) {
	name = strings.TrimSpace(name)
	if s, ok := dtls.CipherSuiteByName(name); ok {
		return s, nil
	}
	if strings.HasPrefix(strings.ToLower(name), "0x") {
		v, err := strconv.ParseUint(name[2:], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("cipher suite %q: %w", name, err)
		}
		return dtls.CipherSuiteForID(dtls.CipherSuiteID(v))
	}
	return nil, fmt.Errorf("cipher suite %q: unknown name", name)
}

// ClientHello builds the message the profile describes. rand and now feed
// the random when the profile does not pin it.
func (p HelloProfile) ClientHello(rand io.Reader, now time.Time) (*dtls.ClientHello, error) {
	v, err := ParseVersion(p.Version)
	if err != nil {
		return nil, err
	}
	m := &dtls.ClientHello{Version: v}
	if m.Cookie, err = hex.DecodeString(p.Cookie); err != nil {
		return nil, fmt.Errorf("cookie: %w", err)
	}
	if p.Random != nil {
		b, err := hex.DecodeString(p.Random.Bytes)
		if err != nil || len(b) != 28 {
			return nil, fmt.Errorf("random: invalid bytes %q", p.Random.Bytes)
		}
		m.Random.GMTUnixTime = p.Random.GMTUnixTime
		copy(m.Random.RandomBytes[:], b)
	} else if err := m.Random.Populate(rand, now); err != nil {
		return nil, fmt.Errorf("random: %w", err)
	}
	for _, name := range p.CipherSuites {
		s, err := lookupCipherSuite(name)
		if err != nil {
			return nil, err
		}
		m.CipherSuites = append(m.CipherSuites, s)
	}
	for _, c := range p.CompressionMethods {
		m.CompressionMethods = append(m.CompressionMethods, dtls.CompressionMethodID(c))
	}
	if m.Extensions, err = p.Extensions.extensions(); err != nil {
		return nil, err
	}
	return m, nil
}

func (c ExtensionsConfig) extensions() ([]dtls.Extension, error) {
	var exts []dtls.Extension
	if c.ServerName != "" {
		exts = append(exts, &dtls.ServerName{Name: c.ServerName})
	}
	if len(c.SupportedCurves) > 0 {
		e := &dtls.SupportedEllipticCurves{}
		for _, it := range c.SupportedCurves {
			e.Curves = append(e.Curves, dtls.NamedCurve(it))
		}
		exts = append(exts, e)
	}
	if len(c.PointFormats) > 0 {
		e := &dtls.SupportedPointFormats{}
		for _, it := range c.PointFormats {
			e.Formats = append(e.Formats, dtls.PointFormat(it))
		}
		exts = append(exts, e)
	}
	if len(c.SignatureAlgorithms) > 0 {
		e := &dtls.SupportedSignatureAlgorithms{}
		for _, it := range c.SignatureAlgorithms {
			e.Algorithms = append(e.Algorithms, dtls.SignatureHashAlgorithm{
				Hash:      dtls.HashAlgorithm(it >> 8),
				Signature: dtls.SignatureAlgorithm(it),
			})
		}
		exts = append(exts, e)
	}
	if len(c.SRTPProfiles) > 0 {
		mki, err := hex.DecodeString(c.SRTPMKI)
		if err != nil {
			return nil, fmt.Errorf("extensions.srtp_mki: %w", err)
		}
		e := &dtls.UseSRTP{MasterKeyIdentifier: mki}
		for _, it := range c.SRTPProfiles {
			e.ProtectionProfiles = append(e.ProtectionProfiles, dtls.SRTPProtectionProfile(it))
		}
		exts = append(exts, e)
	}
	if c.ExtendedMasterSecret {
		exts = append(exts, &dtls.UseExtendedMasterSecret{})
	}
	if c.RenegotiationInfo {
		exts = append(exts, &dtls.RenegotiationInfo{})
	}
	for i, raw := range c.Raw {
		data, err := hex.DecodeString(raw.Data)
		if err != nil {
			return nil, fmt.Errorf("extensions.raw[%d]: %w", i, err)
		}
		exts = append(exts, &dtls.RawExtension{Type: dtls.ExtensionType(raw.Type), Data: data})
	}
	return exts, nil
}
