package application

import (
	"context"
	"io"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
)

// Mailer hands an email job to whatever delivers it (queue, Mailgun, noop).
type Mailer interface {
	Dispatch(ctx context.Context, job mailer.EmailJob) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// ObjectStore keeps avatar images. Keys are opaque to callers.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// UserIndexer mirrors profiles into a search index.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, q string, size int) ([]entity.User, error)
}
