package application

import (
	"context"
	"errors"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
)

// CredentialVerifier authenticates email/password pairs.
type CredentialVerifier struct {
	users  repository.UserRepository
	hasher PasswordHasher
	// compared against when the email is unknown so both paths cost one hash
	dummyHash string
}

func NewCredentialVerifier(users repository.UserRepository, hasher PasswordHasher) *CredentialVerifier {
	dummy, _ := hasher.Hash("not-a-real-password-0")
	return &CredentialVerifier{users: users, hasher: hasher, dummyHash: dummy}
}

func (v *CredentialVerifier) FindByCredential(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := v.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		v.hasher.Compare(v.dummyHash, password)
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("load user", err)
	}
	if !v.hasher.Compare(u.Password, password) {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	return u, nil
}
