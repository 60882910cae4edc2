package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
)

// TokenRepository stores refresh and reset tokens in the tokens table.
// The (user_id, type) unique constraint keeps a single record per user and
// type, so concurrent issuers converge on one winner.
type TokenRepository struct {
	db DB
}

func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) FindLive(ctx context.Context, userID string, typ entity.TokenType) (*entity.Token, error) {
	t := &entity.Token{}
	var tt string

	row := r.db.QueryRow(ctx, `
		SELECT id::text, user_id::text, value, type, created_at, expires_at
		FROM tokens
		WHERE user_id = $1 AND type = $2 AND expires_at > now()
	`, userID, string(typ))
	if err := row.Scan(&t.ID, &t.UserID, &t.Value, &tt, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select token: %w", err)
	}
	t.Type = entity.TokenType(tt)
	return t, nil
}

// CreateIfAbsent inserts t. An existing record for the same user and type is
// only overwritten when it has expired; otherwise the live record is returned.
func (r *TokenRepository) CreateIfAbsent(ctx context.Context, t *entity.Token) (*entity.Token, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO tokens (user_id, value, type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, type) DO UPDATE
		SET value = EXCLUDED.value, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		WHERE tokens.expires_at <= now()
		RETURNING id::text
	`, t.UserID, t.Value, string(t.Type), t.CreatedAt, t.ExpiresAt)

	err := row.Scan(&t.ID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert token: %w", err)
	}

	// Conflict with a live record: someone else won.
	return r.FindLive(ctx, t.UserID, t.Type)
}

func (r *TokenRepository) Replace(ctx context.Context, t *entity.Token) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO tokens (user_id, value, type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, type) DO UPDATE
		SET value = EXCLUDED.value, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		RETURNING id::text
	`, t.UserID, t.Value, string(t.Type), t.CreatedAt, t.ExpiresAt)
	if err := row.Scan(&t.ID); err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string, typ entity.TokenType) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1 AND type = $2`, userID, string(typ)); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return res.RowsAffected(), nil
}

var _ repository.TokenRepository = (*TokenRepository)(nil)
