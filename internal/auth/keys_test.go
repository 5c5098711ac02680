package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinotel/cellar-service/internal/config"
)

func TestGenerateKeyPair(t *testing.T) {
	keys, err := GenerateKeyPair(2048)
	require.NoError(t, err)
	require.NotNil(t, keys.Private)
	require.NotNil(t, keys.Public)

	assert.Equal(t, &keys.Private.PublicKey, keys.Public)
}

func TestGenerateKeyPairEnforcesMinimumBits(t *testing.T) {
	keys, err := GenerateKeyPair(512)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, keys.Private.N.BitLen(), 2048)
}

func TestLoadKeyPairMissingFile(t *testing.T) {
	_, err := LoadKeyPair(config.KeystoreConfig{Path: filepath.Join(t.TempDir(), "absent.p12")})
	assert.Error(t, err)
}

func TestLoadKeyPairCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.p12")
	require.NoError(t, os.WriteFile(path, []byte("not a keystore"), 0o600))

	_, err := LoadKeyPair(config.KeystoreConfig{Path: path, Password: "changeit"})
	assert.Error(t, err)
}
