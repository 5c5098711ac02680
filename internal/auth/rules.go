package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vinotel/cellar-service/internal/domain"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// Access describes what a rule demands of the caller.
type Access int

const (
	// AccessPublic permits anonymous callers.
	AccessPublic Access = iota
	// AccessAuthenticated requires some principal, any role.
	AccessAuthenticated
	// AccessRole requires one of the rule's listed roles.
	AccessRole
)

// Rule maps a path pattern (and optionally methods) to a requirement.
// Patterns match exactly, or by prefix when ending in "/*".
type Rule struct {
	Methods []string
	Pattern string
	Access  Access
	Roles   []string
}

// DefaultRules is the service's route authorization table, evaluated in
// order with first match winning.
func DefaultRules() []Rule {
	return []Rule{
		{Methods: []string{fiber.MethodPost}, Pattern: "/auth/*", Access: AccessPublic},
		{Pattern: "/health/*", Access: AccessPublic},
		{Pattern: "/swagger/*", Access: AccessPublic},
		{Pattern: "/api/v1/employees/*", Access: AccessRole, Roles: []string{domain.RoleAdmin}},
		{Pattern: "/api/v1/customers/*", Access: AccessRole, Roles: []string{domain.RoleCustomer}},
		{Pattern: "/*", Access: AccessAuthenticated},
	}
}

// Gate enforces the rule table against the principal the Authenticator
// attached. Anonymous callers on protected routes get 401; authenticated
// callers lacking the required role get 403.
func Gate(rules []Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rule, ok := matchRule(rules, c.Method(), c.Path())
		if !ok || rule.Access == AccessPublic {
			return c.Next()
		}

		principal, authed := PrincipalFromContext(c)
		if !authed {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if rule.Access == AccessRole && !hasAnyRole(principal, rule.Roles) {
			return apperrors.NewAccessDenied("insufficient role")
		}
		return c.Next()
	}
}

// RequireRole is a route-level gate demanding one of the given roles,
// regardless of what the path table says.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if !hasAnyRole(principal, roles) {
			return apperrors.NewAccessDenied("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated demands some principal without caring about roles.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		return c.Next()
	}
}

func matchRule(rules []Rule, method, path string) (Rule, bool) {
	for _, rule := range rules {
		if len(rule.Methods) > 0 && !containsFold(rule.Methods, method) {
			continue
		}
		if matchPattern(rule.Pattern, path) {
			return rule, true
		}
	}
	return Rule{}, false
}

func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}

func hasAnyRole(principal *Principal, roles []string) bool {
	for _, role := range roles {
		if principal.HasRole(role) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
