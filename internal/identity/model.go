package identity

import "time"

// User represents a registered account holder.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Email       string
	Password    string
	DisplayName string
}
