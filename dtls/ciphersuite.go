package dtls

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

type CipherSuiteID uint16

// https://www.iana.org/assignments/tls-parameters/tls-parameters.xhtml#tls-parameters-4
const (
	TLS_ECDHE_ECDSA_WITH_AES_128_CCM              CipherSuiteID = 0xc0ac // RFC 7251
	TLS_ECDHE_ECDSA_WITH_AES_128_CCM_8            CipherSuiteID = 0xc0ae // RFC 7251
	TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256       CipherSuiteID = 0xc02b
	TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384       CipherSuiteID = 0xc02c
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256         CipherSuiteID = 0xc02f
	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384         CipherSuiteID = 0xc030
	TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA          CipherSuiteID = 0xc00a
	TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA            CipherSuiteID = 0xc014
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256   CipherSuiteID = 0xcca8 // RFC 7905
	TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256 CipherSuiteID = 0xcca9 // RFC 7905
	TLS_PSK_WITH_AES_128_CCM                      CipherSuiteID = 0xc0a4 // RFC 6655
	TLS_PSK_WITH_AES_128_CCM_8                    CipherSuiteID = 0xc0a8 // RFC 6655
	TLS_PSK_WITH_AES_128_GCM_SHA256               CipherSuiteID = 0x00a8 // RFC 5487
)

func (id CipherSuiteID) String() string {
	if s, ok := DefaultCipherSuites().CipherSuite(id); ok {
		return s.Name
	}
	return fmt.Sprintf("0x%04x", uint16(id))
}

type KeyExchange uint8

const (
	KeyExchangeECDHEECDSA KeyExchange = iota + 1
	KeyExchangeECDHERSA
	KeyExchangePSK
)

var keyExchangeTexts = map[KeyExchange]string{
	KeyExchangeECDHEECDSA: "ECDHE_ECDSA",
	KeyExchangeECDHERSA:   "ECDHE_RSA",
	KeyExchangePSK:        "PSK",
}

func (k KeyExchange) String() string {
	v, ok := keyExchangeTexts[k]
	if !ok {
		v = "key_exchange(" + strconv.Itoa(int(k)) + ")"
	}
	return v
}

type BulkCipher uint8

const (
	CipherAES128CCM BulkCipher = iota + 1
	CipherAES128CCM8
	CipherAES128GCM
	CipherAES256GCM
	CipherAES256CBC
	CipherChaCha20Poly1305
)

var bulkCipherTexts = map[BulkCipher]string{
	CipherAES128CCM:        "AES_128_CCM",
	CipherAES128CCM8:       "AES_128_CCM_8",
	CipherAES128GCM:        "AES_128_GCM",
	CipherAES256GCM:        "AES_256_GCM",
	CipherAES256CBC:        "AES_256_CBC",
	CipherChaCha20Poly1305: "CHACHA20_POLY1305",
}

func (c BulkCipher) String() string {
	v, ok := bulkCipherTexts[c]
	if !ok {
		v = "cipher(" + strconv.Itoa(int(c)) + ")"
	}
	return v
}

// CipherSuite describes what a suite needs from the record layer. The
// algorithms themselves live elsewhere; NewAEAD is only a convenience for
// suites the standard and x/crypto libraries can construct.
type CipherSuite struct {
	ID          CipherSuiteID
	Name        string
	KeyExchange KeyExchange
	Cipher      BulkCipher
	// Hash is the PRF hash.
	Hash   crypto.Hash
	KeyLen int
	// IVLen is the implicit nonce length for AEAD suites and the record IV
	// length for CBC suites.
	IVLen  int
	MACLen int
	aead   func(key []byte) (cipher.AEAD, error)
}

func (s *CipherSuite) String() string {
	return s.Name
}

// NewAEAD returns the AEAD keyed with key, or ErrNoAEAD when the suite is
// not an AEAD suite this package can build.
func (s *CipherSuite) NewAEAD(key []byte) (cipher.AEAD, error) {
	if s.aead == nil {
		return nil, errors.Wrap(ErrNoAEAD, s.Name)
	}
	if len(key) != s.KeyLen {
		return nil, errors.Errorf("dtls: %s key must be %d bytes, got %d", s.Name, s.KeyLen, len(key))
	}
	return s.aead(key)
}

func aeadAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func aeadChaCha20Poly1305(key []byte) (cipher.AEAD, error) {
	return chacha20poly1305.New(key)
}

var cipherSuites = []*CipherSuite{
	{TLS_ECDHE_ECDSA_WITH_AES_128_CCM, "TLS_ECDHE_ECDSA_WITH_AES_128_CCM", KeyExchangeECDHEECDSA, CipherAES128CCM, crypto.SHA256, 16, 4, 0, nil},
	{TLS_ECDHE_ECDSA_WITH_AES_128_CCM_8, "TLS_ECDHE_ECDSA_WITH_AES_128_CCM_8", KeyExchangeECDHEECDSA, CipherAES128CCM8, crypto.SHA256, 16, 4, 0, nil},
	{TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256, "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", KeyExchangeECDHEECDSA, CipherAES128GCM, crypto.SHA256, 16, 4, 0, aeadAESGCM},
	{TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384, "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384", KeyExchangeECDHEECDSA, CipherAES256GCM, crypto.SHA384, 32, 4, 0, aeadAESGCM},
	{TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", KeyExchangeECDHERSA, CipherAES128GCM, crypto.SHA256, 16, 4, 0, aeadAESGCM},
	{TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384, "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384", KeyExchangeECDHERSA, CipherAES256GCM, crypto.SHA384, 32, 4, 0, aeadAESGCM},
	{TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256, "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256", KeyExchangeECDHEECDSA, CipherChaCha20Poly1305, crypto.SHA256, 32, 12, 0, aeadChaCha20Poly1305},
	{TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256, "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256", KeyExchangeECDHERSA, CipherChaCha20Poly1305, crypto.SHA256, 32, 12, 0, aeadChaCha20Poly1305},
	{TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA, "TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA", KeyExchangeECDHEECDSA, CipherAES256CBC, crypto.SHA256, 32, 16, 20, nil},
	{TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA, "TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA", KeyExchangeECDHERSA, CipherAES256CBC, crypto.SHA256, 32, 16, 20, nil},
	{TLS_PSK_WITH_AES_128_CCM, "TLS_PSK_WITH_AES_128_CCM", KeyExchangePSK, CipherAES128CCM, crypto.SHA256, 16, 4, 0, nil},
	{TLS_PSK_WITH_AES_128_CCM_8, "TLS_PSK_WITH_AES_128_CCM_8", KeyExchangePSK, CipherAES128CCM8, crypto.SHA256, 16, 4, 0, nil},
	{TLS_PSK_WITH_AES_128_GCM_SHA256, "TLS_PSK_WITH_AES_128_GCM_SHA256", KeyExchangePSK, CipherAES128GCM, crypto.SHA256, 16, 4, 0, aeadAESGCM},
}

// CipherSuiteResolver maps wire identifiers to suite descriptors.
// Implementations must be safe for concurrent use.
type CipherSuiteResolver interface {
	CipherSuite(id CipherSuiteID) (*CipherSuite, bool)
}

// CipherSuiteRegistry is an immutable CipherSuiteResolver.
type CipherSuiteRegistry struct {
	suites []*CipherSuite
	byID   map[CipherSuiteID]*CipherSuite
	byName map[string]*CipherSuite
}

func NewCipherSuiteRegistry(suites ...*CipherSuite) (*CipherSuiteRegistry, error) {
	r := &CipherSuiteRegistry{
		suites: make([]*CipherSuite, 0, len(suites)),
		byID:   make(map[CipherSuiteID]*CipherSuite, len(suites)),
		byName: make(map[string]*CipherSuite, len(suites)),
	}
	for _, s := range suites {
		if s == nil {
			return nil, errors.New("dtls: nil cipher suite")
		}
		if _, ok := r.byID[s.ID]; ok {
			return nil, errors.Errorf("dtls: duplicate cipher suite 0x%04x", uint16(s.ID))
		}
		r.suites = append(r.suites, s)
		r.byID[s.ID] = s
		if s.Name != "" {
			r.byName[s.Name] = s
		}
	}
	return r, nil
}

func (r *CipherSuiteRegistry) CipherSuite(id CipherSuiteID) (*CipherSuite, bool) {
	s, ok := r.byID[id]
	return s, ok
}

func (r *CipherSuiteRegistry) ByName(name string) (*CipherSuite, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Suites returns the registered suites in registration order.
func (r *CipherSuiteRegistry) Suites() []*CipherSuite {
	return append([]*CipherSuite(nil), r.suites...)
}

var (
	once                   sync.Once
	varDefaultCipherSuites *CipherSuiteRegistry
)

// DefaultCipherSuites returns the registry of every suite known to this
// package.
func DefaultCipherSuites() *CipherSuiteRegistry {
	once.Do(initDefaultCipherSuites)
	return varDefaultCipherSuites
}

func initDefaultCipherSuites() {
	r, err := NewCipherSuiteRegistry(cipherSuites...)
	if err != nil {
		panic(err)
	}
	varDefaultCipherSuites = r
}

// CipherSuiteForID looks id up in the default registry.
func CipherSuiteForID(id CipherSuiteID) (*CipherSuite, error) {
	if s, ok := DefaultCipherSuites().CipherSuite(id); ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedCipherSuite, "0x%04x", uint16(id))
}

// CipherSuiteByName looks name up in the default registry.
func CipherSuiteByName(name string) (*CipherSuite, bool) {
	return DefaultCipherSuites().ByName(name)
}
