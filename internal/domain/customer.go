package domain

import "time"

// Customer models an external account. Customers always carry the CUSTOMER
// role; it is stored so future role grants do not require a schema change.
type Customer struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLogin    *time.Time
}
