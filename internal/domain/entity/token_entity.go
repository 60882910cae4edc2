package entity

import "time"

type TokenType string

const (
	TokenRefresh TokenType = "REFRESH"
	TokenReset   TokenType = "RESET"
)

// Token is a persisted refresh or reset credential.
// For REFRESH the Value is the signed token itself; for RESET it is the
// SHA-256 hex digest of the signed token.
type Token struct {
	ID        string
	UserID    string
	Value     string
	Type      TokenType
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the record is still usable at now.
func (t *Token) Live(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}
