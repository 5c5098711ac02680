package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vinotel/cellar-service/internal/auth"
	"github.com/vinotel/cellar-service/internal/config"
	"github.com/vinotel/cellar-service/internal/domain"
	"github.com/vinotel/cellar-service/internal/events"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

type memCustomerRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Customer
	nextID int
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{byID: make(map[string]*domain.Customer)}
}

func (r *memCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	customer.ID = "cust-" + strconv.Itoa(r.nextID)
	customer.CreatedAt = time.Now()
	clone := *customer
	r.byID[customer.ID] = &clone
	return nil
}

func (r *memCustomerRepo) Update(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[customer.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *customer
	r.byID[customer.ID] = &clone
	return nil
}

func (r *memCustomerRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *customer
	return &clone, nil
}

func (r *memCustomerRepo) GetByUsername(_ context.Context, username string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.byID {
		if customer.Username == username {
			clone := *customer
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCustomerRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *memCustomerRepo) TouchLastLogin(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.byID {
		if customer.Username == username {
			now := time.Now()
			customer.LastLogin = &now
			return nil
		}
	}
	return nil
}

type memRefreshRepo struct {
	mu   sync.Mutex
	rows map[string]domain.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{rows: make(map[string]domain.RefreshToken)}
}

func (r *memRefreshRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.CreatedAt = time.Now()
	r.rows[token.Token] = *token
	return nil
}

func (r *memRefreshRepo) Exists(_ context.Context, tokenValue string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[tokenValue]
	return ok, nil
}

func (r *memRefreshRepo) Rotate(_ context.Context, oldTokenValue string, next *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, oldTokenValue)
	next.CreatedAt = time.Now()
	r.rows[next.Token] = *next
	return nil
}

func (r *memRefreshRepo) Delete(_ context.Context, tokenValue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, tokenValue)
	return nil
}

func (r *memRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, row := range r.rows {
		if !row.ExpiresAt.After(now) {
			delete(r.rows, token)
			removed++
		}
	}
	return removed, nil
}

func (r *memRefreshRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type memEmployeeStore struct {
	byEmail map[string]*domain.Employee
}

func (s *memEmployeeStore) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	employee, ok := s.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return employee, nil
}

type authFixture struct {
	svc       *AuthService
	codec     *auth.TokenCodec
	customers *memCustomerRepo
	refresh   *memRefreshRepo
	employees *memEmployeeStore
	events    *capturedEvents
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) record(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	keys, err := auth.GenerateKeyPair(2048)
	require.NoError(t, err)
	codec := auth.NewTokenCodec(keys)

	customers := newMemCustomerRepo()
	refresh := newMemRefreshRepo()
	employees := &memEmployeeStore{byEmail: make(map[string]*domain.Employee)}

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	captured := &capturedEvents{}
	for _, eventType := range []events.EventType{
		events.EventCustomerRegistered,
		events.EventLoginSucceeded,
		events.EventTokenRefreshed,
	} {
		dispatcher.Subscribe(eventType, captured.record)
	}

	resolver := auth.NewResolver(
		auth.NewEmployeeProvider(employees),
		auth.NewCustomerProvider(customers),
	)

	svc := NewAuthService(config.AuthConfig{
		AccessTokenTTLMinutes: 60,
		RefreshTokenTTLHours:  1,
		BcryptCost:            4,
	}, AuthDependencies{
		Resolver:         resolver,
		CustomerRepo:     customers,
		RefreshTokenRepo: refresh,
		Codec:            codec,
		Dispatcher:       dispatcher,
		Logger:           zap.NewNop(),
	})

	return &authFixture{
		svc:       svc,
		codec:     codec,
		customers: customers,
		refresh:   refresh,
		employees: employees,
		events:    captured,
	}
}

func (f *authFixture) addEmployee(t *testing.T, email, password string, role domain.EmployeeRole, active bool) {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	f.employees.byEmail[email] = &domain.Employee{
		ID:           "emp-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	customer, pair, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)
	require.NotNil(t, customer)
	require.NotNil(t, pair)

	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, domain.RoleCustomer, customer.Role)
	assert.NoError(t, auth.ComparePassword(customer.PasswordHash, "secret123"))

	claims, err := f.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject)
	assert.Equal(t, "ROLE_CUSTOMER", claims.Scope)
	assert.Equal(t, customer.ID, claims.PrincipalID)

	// The refresh half is persisted; the access half is not.
	stored, err := f.refresh.Exists(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored)
	stored, err = f.refresh.Exists(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, stored)

	assert.Contains(t, f.events.types(), events.EventCustomerRegistered)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	_, _, err = f.svc.Register(ctx, "carol", "othersecret")
	assert.Equal(t, "ALREADY_EXISTS", domainCode(t, err))
}

func TestLoginCustomer(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	pair, err := f.svc.Login(ctx, "carol", "secret123")
	require.NoError(t, err)

	claims, err := f.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject)
	assert.Equal(t, "ROLE_CUSTOMER", claims.Scope)

	customer, err := f.customers.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, customer.LastLogin)

	assert.Contains(t, f.events.types(), events.EventLoginSucceeded)
}

func TestLoginEmployee(t *testing.T) {
	f := newAuthFixture(t)
	f.addEmployee(t, "boss@example.com", "adminpass", domain.EmployeeRoleAdmin, true)

	pair, err := f.svc.Login(context.Background(), "boss@example.com", "adminpass")
	require.NoError(t, err)

	claims, err := f.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", claims.Subject)
	assert.Equal(t, "ROLE_ADMIN", claims.Scope)
}

func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	_, wrongPassErr := f.svc.Login(ctx, "carol", "wrongpass")
	_, unknownErr := f.svc.Login(ctx, "ghost", "wrongpass")

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, wrongPassErr))
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, unknownErr))
}

func TestLoginInactiveEmployee(t *testing.T) {
	f := newAuthFixture(t)
	f.addEmployee(t, "gone@example.com", "adminpass", domain.EmployeeRoleAdmin, false)

	_, err := f.svc.Login(context.Background(), "gone@example.com", "adminpass")
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, pair, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, pair.AccessToken, next.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// Claims carry over unchanged; only the token ids and lifetimes renew.
	oldClaims, err := f.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	newClaims, err := f.codec.Decode(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, oldClaims.Subject, newClaims.Subject)
	assert.Equal(t, oldClaims.Scope, newClaims.Scope)
	assert.Equal(t, oldClaims.PrincipalID, newClaims.PrincipalID)

	// The presented token was invalidated by the rotation.
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	// Its successor works.
	_, err = f.svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)

	assert.Contains(t, f.events.types(), events.EventTokenRefreshed)
}

func TestRefreshUnknownButWellSignedToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	// Well signed, in date, for an existing principal, but never persisted.
	claims := auth.Claims{Username: "carol", Scope: "ROLE_CUSTOMER"}
	claims.Subject = "carol"
	orphan, _, err := f.codec.Mint(claims, time.Hour)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, orphan)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestRefreshMalformedToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "not-a-token")
	assert.Equal(t, "INVALID_TOKEN", domainCode(t, err))
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	claims := auth.Claims{Username: "carol", Scope: "ROLE_CUSTOMER"}
	claims.Subject = "carol"
	expired, expiresAt, err := f.codec.Mint(claims, -time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.refresh.Create(ctx, &domain.RefreshToken{
		Token:       expired,
		ExpiresAt:   expiresAt,
		SubjectID:   "cust-1",
		SubjectType: domain.SubjectTypeCustomer,
	}))

	_, err = f.svc.Refresh(ctx, expired)
	assert.Equal(t, "TOKEN_EXPIRED", domainCode(t, err))
}

func TestRefreshForDeletedPrincipal(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	customer, pair, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)
	require.NoError(t, f.customers.Delete(ctx, customer.ID))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestSweepExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	now := time.Now()
	for i, expiresAt := range []time.Time{
		now.Add(-time.Hour),
		now.Add(-time.Minute),
		now.Add(time.Hour),
	} {
		require.NoError(t, f.refresh.Create(ctx, &domain.RefreshToken{
			Token:       "token-" + strconv.Itoa(i),
			ExpiresAt:   expiresAt,
			SubjectID:   "cust-1",
			SubjectType: domain.SubjectTypeCustomer,
		}))
	}

	removed, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, f.refresh.count())

	// A second pass finds nothing left to do.
	removed, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, f.refresh.count())
}

func TestRegisterLoginRefreshFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, registered, err := f.svc.Register(ctx, "carol", "secret123")
	require.NoError(t, err)

	loggedIn, err := f.svc.Login(ctx, "carol", "secret123")
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, loggedIn.RefreshToken)
	require.NoError(t, err)

	// The register-time pair is independent of the login-time chain and still
	// rotates on its own.
	_, err = f.svc.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)

	claims, err := f.codec.Decode(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject)
	assert.Equal(t, "ROLE_CUSTOMER", claims.Scope)
	assert.False(t, f.codec.IsExpired(claims))
}
