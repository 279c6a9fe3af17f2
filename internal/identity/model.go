package identity

import "time"

// User statuses.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// User represents a registered account holder. Every user owns one wallet
// per supported currency, provisioned at registration.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Status       string
	CreatedAt    time.Time
}

// Registration carries the data needed to open an account.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Credentials is an email/password login request.
type Credentials struct {
	Email    string
	Password string
}
