package domain

import "time"

// SubjectType differentiates employee vs customer principals.
type SubjectType string

const (
	SubjectTypeEmployee SubjectType = "EMPLOYEE"
	SubjectTypeCustomer SubjectType = "CUSTOMER"
)

// Role constants shared across both identity sources.
const (
	RoleAdmin    = "ADMIN"
	RoleWorker   = "WORKER"
	RoleCustomer = "CUSTOMER"
)

// RefreshToken is the persisted half of an issued token pair. The token value
// itself is the primary key; validity is the row's existence plus ExpiresAt.
type RefreshToken struct {
	Token       string
	ExpiresAt   time.Time
	SubjectID   string
	SubjectType SubjectType
	CreatedAt   time.Time
}
