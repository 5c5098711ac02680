package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "auth_principal"

// Authenticator populates the request context from a bearer token. It never
// rejects a request itself: a missing, malformed, expired or forged token
// simply leaves the request anonymous, and the authorization gate decides
// whether anonymous is acceptable for the target route.
type Authenticator struct {
	codec    *TokenCodec
	resolver *Resolver
}

// NewAuthenticator constructs the per-request authenticator.
func NewAuthenticator(codec *TokenCodec, resolver *Resolver) *Authenticator {
	return &Authenticator{codec: codec, resolver: resolver}
}

// Handle extracts and validates the bearer token, resolving the subject
// against both identity sources (employee before customer).
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	token, ok := extractBearer(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Next()
	}

	claims, err := a.codec.Decode(token)
	if err != nil || a.codec.IsExpired(claims) {
		return c.Next()
	}

	principal, err := a.resolver.Resolve(c.UserContext(), claims.Subject)
	if err != nil {
		return c.Next()
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func extractBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
