package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Codec errors. Anything that is not a clean signature/shape failure is
// wrapped as ErrInvalidToken; expiry is reported separately because decoding
// and expiry enforcement are distinct steps for refresh handling.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims describes the JWT payload shared by access and refresh tokens.
// Subject is the principal's login identifier; PrincipalID carries the row id.
// Scope is the space-joined ROLE_-prefixed authority list.
type Claims struct {
	PrincipalID string `json:"uid"`
	Username    string `json:"username"`
	Scope       string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenCodec mints and decodes RS256-signed tokens with the shared keypair.
// It is stateless beyond the keypair and safe for concurrent use.
type TokenCodec struct {
	keys *KeyPair

	// now is overridable in tests.
	now func() time.Time
}

// NewTokenCodec builds a codec around the given keypair.
func NewTokenCodec(keys *KeyPair) *TokenCodec {
	return &TokenCodec{keys: keys, now: time.Now}
}

// Mint signs a token for the claim set with a fresh unique id and the given
// lifetime, returning the compact token and its expiry. The caller's subject,
// principal id, username and scope are preserved as-is.
func (tc *TokenCodec) Mint(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := tc.now()
	expiresAt := now.Add(ttl)
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &claims)
	signed, err := token.SignedString(tc.keys.Private)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and parses the claims. Expiry is deliberately
// not enforced here; use IsExpired so refresh and access paths can treat it
// differently.
func (tc *TokenCodec) Decode(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodRS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tc.keys.Public, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsExpired reports whether the claims' expiry has passed. A token expiring
// exactly now is already expired.
func (tc *TokenCodec) IsExpired(claims *Claims) bool {
	return !claims.ExpiresAt.Time.After(tc.now())
}
