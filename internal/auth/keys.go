package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"

	"github.com/vinotel/cellar-service/internal/config"
)

// KeyPair holds the process-wide RSA signing keypair. It is loaded once at
// startup and read-only afterwards; every token operation shares it.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeyPair reads the PKCS#12 keystore named in the configuration. An
// unreadable store, a wrong password, a non-RSA key, or an alias mismatch is
// returned as an error; callers treat it as fatal since no token can be
// issued or verified without the keypair.
func LoadKeyPair(cfg config.KeystoreConfig) (*KeyPair, error) {
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("read keystore %s: %w", cfg.Path, err)
	}

	key, cert, err := pkcs12.Decode(data, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("decode keystore %s: %w", cfg.Path, err)
	}

	private, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keystore %s: key is not RSA", cfg.Path)
	}

	// The PKCS#12 decoder exposes a single key entry; the configured alias is
	// checked against the certificate subject so a store built for a different
	// key fails at boot rather than at first verification.
	if cfg.KeyAlias != "" && cert != nil && cert.Subject.CommonName != cfg.KeyAlias {
		return nil, fmt.Errorf("keystore %s: no key for alias %q", cfg.Path, cfg.KeyAlias)
	}

	return &KeyPair{Private: private, Public: &private.PublicKey}, nil
}

// GenerateKeyPair creates a throwaway RSA keypair, used by tests.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}
	private, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}
	return &KeyPair{Private: private, Public: &private.PublicKey}, nil
}
