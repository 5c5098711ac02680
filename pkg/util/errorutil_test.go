package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, domainErr.Error(), "connection reset")
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewAccessDenied("insufficient role")

	converted := ToDomainError(original)
	assert.Equal(t, "ACCESS_DENIED", converted.Code)
	assert.Equal(t, http.StatusForbidden, converted.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	converted := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", converted.Code)
	assert.Equal(t, http.StatusNotFound, converted.HTTPStatus)
}

func TestToDomainErrorMapsUniqueViolation(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: "customers_username_key"}

	converted := ToDomainError(fmt.Errorf("insert customer: %w", cause))
	assert.Equal(t, "ALREADY_EXISTS", converted.Code)
	assert.Equal(t, http.StatusConflict, converted.HTTPStatus)
	assert.ErrorIs(t, converted, cause)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	converted := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", converted.Code)
	assert.Equal(t, http.StatusInternalServerError, converted.HTTPStatus)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad input", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewInvalidCredentials(), "INVALID_CREDENTIALS", http.StatusUnauthorized},
		{NewUnauthenticated("authentication required"), "UNAUTHENTICATED", http.StatusUnauthorized},
		{NewInvalidToken("bad token"), "INVALID_TOKEN", http.StatusUnauthorized},
		{NewExpiredToken(), "TOKEN_EXPIRED", http.StatusUnauthorized},
		{NewAccessDenied("insufficient role"), "ACCESS_DENIED", http.StatusForbidden},
		{NewNotFound("employee", nil), "NOT_FOUND", http.StatusNotFound},
		{NewAlreadyExists("customer", nil), "ALREADY_EXISTS", http.StatusConflict},
		{NewConflict("duplicate reading", nil), "CONFLICT", http.StatusConflict},
	}
	for _, tc := range cases {
		var domainErr *DomainError
		require.ErrorAs(t, tc.err, &domainErr)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus, tc.code)
	}
}
