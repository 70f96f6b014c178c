package user

import (
	"strings"
	"time"
)

// User represents a user entity in the system.
type User struct {
	ID        string    // ID is the unique identifier for the user, a hex object id
	Name      string    // Name is the first name of the user
	Surname   string    // Surname is the family name of the user
	Email     string    // Email is the unique email address of the user, stored normalized
	JobTitle  string    // JobTitle is the user's job title
	CreatedAt time.Time // CreatedAt is when the user was first stored
	UpdatedAt time.Time // UpdatedAt is when the user was last modified
}

// NormalizeEmail canonicalizes an email address for storage and comparison.
// Uniqueness is case-insensitive, so "John@X.com" and "john@x.com" are the
// same address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
