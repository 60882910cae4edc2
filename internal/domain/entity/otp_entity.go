package entity

import "time"

// OneTimeCode is a 6-digit email verification code. It expires on its own
// after the store TTL.
type OneTimeCode struct {
	Email     string
	Value     string
	CreatedAt time.Time
}
