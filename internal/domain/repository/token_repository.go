package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
)

// TokenRepository persists refresh and reset tokens. At most one record
// exists per (user, type); expired records are never returned.
type TokenRepository interface {
	// FindLive returns the unexpired record for the user and type, or ErrNotFound.
	FindLive(ctx context.Context, userID string, typ entity.TokenType) (*entity.Token, error)

	// CreateIfAbsent stores t unless a live record for the same user and type
	// already exists. It returns whichever record won.
	CreateIfAbsent(ctx context.Context, t *entity.Token) (*entity.Token, error)

	// Replace stores t, overwriting any record for the same user and type.
	Replace(ctx context.Context, t *entity.Token) error

	// DeleteByUser removes every record of the given type for the user.
	DeleteByUser(ctx context.Context, userID string, typ entity.TokenType) error

	// DeleteExpired purges records whose expiry is before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
