package application

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

// TokenIssuer mints access, refresh and reset tokens and keeps the
// persisted refresh/reset records in step with what was handed out.
type TokenIssuer struct {
	jwt    *helpers.JWTManager
	tokens repository.TokenRepository
	now    func() time.Time
}

func NewTokenIssuer(jwt *helpers.JWTManager, tokens repository.TokenRepository) *TokenIssuer {
	return &TokenIssuer{jwt: jwt, tokens: tokens, now: time.Now}
}

// HashToken is the at-rest form of a reset token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (i *TokenIssuer) sign(class helpers.TokenClass, id entity.Identity) (string, time.Time, error) {
	tok, exp, err := i.jwt.Sign(class, id.UserID, id.Email, id.Role.String(), id.Verified)
	if err != nil {
		return "", time.Time{}, apperror.Generation("token generation failed", err)
	}
	return tok, exp, nil
}

// IssueAccessToken is stateless; nothing is stored.
func (i *TokenIssuer) IssueAccessToken(id entity.Identity) (string, time.Time, error) {
	return i.sign(helpers.AccessToken, id)
}

// IssueRefreshToken returns the live refresh token of the user when there is
// one. Otherwise it signs a new one; if a concurrent call stored its token
// first, that token is returned instead.
func (i *TokenIssuer) IssueRefreshToken(ctx context.Context, id entity.Identity) (string, time.Time, error) {
	existing, err := i.tokens.FindLive(ctx, id.UserID, entity.TokenRefresh)
	if err == nil {
		return existing.Value, existing.ExpiresAt, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", time.Time{}, apperror.Internal("load refresh token", err)
	}

	tok, exp, err := i.sign(helpers.RefreshToken, id)
	if err != nil {
		return "", time.Time{}, err
	}
	winner, err := i.tokens.CreateIfAbsent(ctx, &entity.Token{
		UserID:    id.UserID,
		Value:     tok,
		Type:      entity.TokenRefresh,
		CreatedAt: i.now().UTC(),
		ExpiresAt: exp,
	})
	if err != nil {
		return "", time.Time{}, apperror.Internal("store refresh token", err)
	}
	return winner.Value, winner.ExpiresAt, nil
}

// IssueResetToken replaces any reset record of the user. Only the digest of
// the token is stored.
func (i *TokenIssuer) IssueResetToken(ctx context.Context, id entity.Identity) (string, time.Time, error) {
	tok, exp, err := i.sign(helpers.ResetToken, id)
	if err != nil {
		return "", time.Time{}, err
	}
	err = i.tokens.Replace(ctx, &entity.Token{
		UserID:    id.UserID,
		Value:     HashToken(tok),
		Type:      entity.TokenReset,
		CreatedAt: i.now().UTC(),
		ExpiresAt: exp,
	})
	if err != nil {
		return "", time.Time{}, apperror.Internal("store reset token", err)
	}
	return tok, exp, nil
}

// Verify checks a token against the secret of its class. Errors are
// helpers.ErrTokenExpired or helpers.ErrTokenInvalid.
func (i *TokenIssuer) Verify(token string, class helpers.TokenClass) (*helpers.Claims, error) {
	return i.jwt.Verify(token, class)
}

// MatchRefresh succeeds only when presented is byte-identical to the stored
// refresh token of the user.
func (i *TokenIssuer) MatchRefresh(ctx context.Context, userID, presented string) error {
	return i.match(ctx, userID, entity.TokenRefresh, presented)
}

func (i *TokenIssuer) MatchReset(ctx context.Context, userID, presented string) error {
	return i.match(ctx, userID, entity.TokenReset, HashToken(presented))
}

func (i *TokenIssuer) match(ctx context.Context, userID string, typ entity.TokenType, value string) error {
	rec, err := i.tokens.FindLive(ctx, userID, typ)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Unauthorized("token is not recognised")
	}
	if err != nil {
		return apperror.Internal("load token", err)
	}
	if value == "" || subtle.ConstantTimeCompare([]byte(rec.Value), []byte(value)) != 1 {
		return apperror.Unauthorized("token is not recognised")
	}
	return nil
}

func (i *TokenIssuer) RevokeRefresh(ctx context.Context, userID string) error {
	if err := i.tokens.DeleteByUser(ctx, userID, entity.TokenRefresh); err != nil {
		return apperror.Internal("delete refresh tokens", err)
	}
	return nil
}

func (i *TokenIssuer) RevokeReset(ctx context.Context, userID string) error {
	if err := i.tokens.DeleteByUser(ctx, userID, entity.TokenReset); err != nil {
		return apperror.Internal("delete reset tokens", err)
	}
	return nil
}
