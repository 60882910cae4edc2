package repository

import (
	"context"
	"time"
)

// OTPRepository stores one-time codes with automatic expiry.
type OTPRepository interface {
	// FindByEmail returns the live code for email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (string, error)

	// Reserve atomically stores code for email with the given ttl. When email
	// already holds a live code, that code is returned and nothing is written.
	// When code is already live for another email, ok is false.
	Reserve(ctx context.Context, email, code string, ttl time.Duration) (stored string, ok bool, err error)

	// Consume deletes the code if it is the live code for email. It reports
	// whether a code was consumed.
	Consume(ctx context.Context, email, code string) (bool, error)
}
