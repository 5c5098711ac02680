package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vinotel/cellar-service/internal/auth"
	"github.com/vinotel/cellar-service/internal/config"
	"github.com/vinotel/cellar-service/internal/domain"
	"github.com/vinotel/cellar-service/internal/events"
	"github.com/vinotel/cellar-service/internal/repository"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// TokenPair carries an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates login, registration, refresh and the expired-token
// sweep. Unknown identifier and wrong password surface as the same error so
// callers cannot probe which accounts exist.
type AuthService struct {
	resolver      *auth.Resolver
	customers     repository.CustomerRepository
	refreshTokens repository.RefreshTokenRepository
	codec         *auth.TokenCodec
	dispatcher    events.Dispatcher
	logger        *zap.Logger

	bcryptCost int
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	Resolver         *auth.Resolver
	CustomerRepo     repository.CustomerRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Codec            *auth.TokenCodec
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		resolver:      deps.Resolver,
		customers:     deps.CustomerRepo,
		refreshTokens: deps.RefreshTokenRepo,
		codec:         deps.Codec,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		bcryptCost:    cfg.BcryptCost,
		accessTTL:     cfg.AccessTokenTTL(),
		refreshTTL:    cfg.RefreshTokenTTL(),
		now:           time.Now,
	}
}

// Login authenticates an identifier/password pair against both identity
// sources (employee store first) and issues a token pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	principal, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}

	if err := auth.ComparePassword(principal.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	pair, err := s.issuePair(ctx, principal)
	if err != nil {
		return nil, err
	}

	if principal.Source == domain.SubjectTypeCustomer {
		if err := s.customers.TouchLastLogin(ctx, principal.Identifier); err != nil {
			s.logger.Warn("failed to update last login", zap.Error(err))
		}
	}

	s.publish(ctx, events.EventLoginSucceeded, principal, events.LoginSucceededPayload{
		Identifier: principal.Identifier,
		Source:     principal.Source,
	})
	return pair, nil
}

// Register creates a customer account and, like the original login flow,
// immediately issues a token pair for it.
func (s *AuthService) Register(ctx context.Context, identifier, password string) (*domain.Customer, *TokenPair, error) {
	exists, err := s.customers.ExistsByUsername(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, apperrors.NewAlreadyExists("customer", map[string]any{"username": identifier})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	customer := &domain.Customer{
		Username:     identifier,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, nil, err
	}

	principal := &auth.Principal{
		ID:           customer.ID,
		Identifier:   customer.Username,
		PasswordHash: customer.PasswordHash,
		Source:       domain.SubjectTypeCustomer,
		Role:         customer.Role,
	}
	pair, err := s.issuePair(ctx, principal)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.EventCustomerRegistered, principal, events.CustomerRegisteredPayload{
		CustomerID: customer.ID,
		Username:   customer.Username,
	})
	return customer, pair, nil
}

// Refresh exchanges a persisted refresh token for a fresh pair. The presented
// token is invalidated in the same transaction that stores its successor, so
// a stolen refresh token stops working after the legitimate holder rotates.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, apperrors.NewInvalidToken("malformed or badly signed refresh token")
	}
	if s.codec.IsExpired(claims) {
		return nil, apperrors.NewExpiredToken()
	}

	exists, err := s.refreshTokens.Exists(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFound("refresh token", nil)
	}

	principal, err := s.resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return nil, apperrors.NewNotFound("principal", nil)
		}
		return nil, err
	}

	// Preserve the original claim set; only jti, iat and exp are renewed.
	next := auth.Claims{
		PrincipalID: claims.PrincipalID,
		Username:    claims.Username,
		Scope:       claims.Scope,
	}
	next.Subject = claims.Subject

	accessToken, _, err := s.codec.Mint(next, s.accessTTL)
	if err != nil {
		return nil, err
	}
	newRefresh, refreshExpiry, err := s.codec.Mint(next, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokens.Rotate(ctx, refreshToken, &domain.RefreshToken{
		Token:       newRefresh,
		ExpiresAt:   refreshExpiry,
		SubjectID:   principal.ID,
		SubjectType: principal.Source,
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTokenRefreshed, principal, events.TokenRefreshedPayload{
		Identifier: principal.Identifier,
		Source:     principal.Source,
	})
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// SweepExpired bulk-deletes refresh tokens whose expiry has passed. Safe to
// run repeatedly and concurrently with issuance; a refresh racing the sweep
// simply finds its row gone and fails with not-found.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.refreshTokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("swept expired refresh tokens", zap.Int64("removed", removed))
	}
	return removed, nil
}

func (s *AuthService) issuePair(ctx context.Context, principal *auth.Principal) (*TokenPair, error) {
	claims := auth.Claims{
		PrincipalID: principal.ID,
		Username:    principal.Identifier,
		Scope:       principal.Scope(),
	}
	claims.Subject = principal.Identifier

	accessToken, _, err := s.codec.Mint(claims, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiry, err := s.codec.Mint(claims, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokens.Create(ctx, &domain.RefreshToken{
		Token:       refreshToken,
		ExpiresAt:   refreshExpiry,
		SubjectID:   principal.ID,
		SubjectType: principal.Source,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, principal *auth.Principal, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Actor: events.Actor{
			Type:      principal.Source,
			SubjectID: principal.ID,
		},
		Timestamp: s.now(),
		Payload:   payload,
	})
}
