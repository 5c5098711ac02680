package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) *TokenCodec {
	t.Helper()
	keys, err := GenerateKeyPair(2048)
	require.NoError(t, err)
	return NewTokenCodec(keys)
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := testCodec(t)

	claims := Claims{
		PrincipalID: "42b6cb2c-9f2e-4d51-a339-0a62ad02a34a",
		Username:    "alice@example.com",
		Scope:       "ROLE_ADMIN",
	}
	claims.Subject = "alice@example.com"

	token, expiresAt, err := codec.Mint(claims, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", decoded.Subject)
	assert.Equal(t, "alice@example.com", decoded.Username)
	assert.Equal(t, "ROLE_ADMIN", decoded.Scope)
	assert.Equal(t, claims.PrincipalID, decoded.PrincipalID)
	assert.NotEmpty(t, decoded.ID)
	assert.WithinDuration(t, expiresAt, decoded.ExpiresAt.Time, time.Second)
	assert.False(t, codec.IsExpired(decoded))
}

func TestTokenCodecMintsUniqueIDs(t *testing.T) {
	codec := testCodec(t)

	claims := Claims{Username: "bob"}
	claims.Subject = "bob"

	first, _, err := codec.Mint(claims, time.Hour)
	require.NoError(t, err)
	second, _, err := codec.Mint(claims, time.Hour)
	require.NoError(t, err)

	firstClaims, err := codec.Decode(first)
	require.NoError(t, err)
	secondClaims, err := codec.Decode(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestTokenCodecRejectsForeignSignature(t *testing.T) {
	codec := testCodec(t)
	other := testCodec(t)

	claims := Claims{Username: "alice"}
	claims.Subject = "alice"
	token, _, err := other.Mint(claims, time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejectsGarbage(t *testing.T) {
	codec := testCodec(t)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Decode(input)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", input)
	}
}

func TestTokenCodecExpiryBoundary(t *testing.T) {
	codec := testCodec(t)

	base := time.Now()
	codec.now = func() time.Time { return base }

	claims := Claims{Username: "alice"}
	claims.Subject = "alice"

	atNow, _, err := codec.Mint(claims, 0)
	require.NoError(t, err)
	justAfter, _, err := codec.Mint(claims, time.Second)
	require.NoError(t, err)

	atNowClaims, err := codec.Decode(atNow)
	require.NoError(t, err)
	justAfterClaims, err := codec.Decode(justAfter)
	require.NoError(t, err)

	// exp == now is already expired; exp == now+1s is still good.
	assert.True(t, codec.IsExpired(atNowClaims))
	assert.False(t, codec.IsExpired(justAfterClaims))
}

func TestTokenCodecDecodeDoesNotEnforceExpiry(t *testing.T) {
	codec := testCodec(t)

	claims := Claims{Username: "alice"}
	claims.Subject = "alice"
	token, _, err := codec.Mint(claims, -time.Hour)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.True(t, codec.IsExpired(decoded))
}
