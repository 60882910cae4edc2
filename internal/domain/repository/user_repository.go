package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned by stores when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines the interface for user-related database operations.
// The Set*, MarkSession and ChangeEmail writes touch only their own columns
// and return the row as stored.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	SetVerifiedByEmail(ctx context.Context, email string) error
	MarkSession(ctx context.Context, id string, active bool, at time.Time) (*entity.User, error)
	SetPassword(ctx context.Context, id, hash string) (*entity.User, error)
	ChangeEmail(ctx context.Context, id, email string) (*entity.User, error)
	SetFullName(ctx context.Context, id, name string) (*entity.User, error)
	SetProfileImage(ctx context.Context, id, key string) (*entity.User, error)
}
