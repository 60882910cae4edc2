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

const userColumns = `id::text, email, password_hash, full_name, profile_image, role, active, verified, last_login, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	if u.LastLogin.IsZero() {
		u.LastLogin = time.Now().UTC()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, profile_image, role, active, verified, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at, updated_at
	`, u.Email, u.Password, u.FullName, u.ProfileImage, string(u.Role), u.Active, u.Verified, u.LastLogin)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", u.Email, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Update overwrites every column of u. Request paths use the column-scoped
// writes below; this is for admin tooling such as the seeder.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, full_name = $3, profile_image = $4, role = $5,
		    active = $6, verified = $7, last_login = $8, updated_at = $9
		WHERE id = $10
	`, u.Email, u.Password, u.FullName, u.ProfileImage, string(u.Role),
		u.Active, u.Verified, u.LastLogin, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %q: %w", u.Email, repository.ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetVerifiedByEmail flips the verified flag for the account owning email.
func (r *UserRepository) SetVerifiedByEmail(ctx context.Context, email string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET verified = TRUE, updated_at = now() WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkSession records a login or logout. Only active and last_login change,
// so a concurrent verification or avatar update is never reverted.
func (r *UserRepository) MarkSession(ctx context.Context, id string, active bool, at time.Time) (*entity.User, error) {
	return r.patch(ctx, "mark session", `active = $1, last_login = $2`, id, active, at)
}

func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) (*entity.User, error) {
	return r.patch(ctx, "set password", `password_hash = $1`, id, hash)
}

// ChangeEmail moves the account to email and drops it back to unverified
// and inactive in the same statement.
func (r *UserRepository) ChangeEmail(ctx context.Context, id, email string) (*entity.User, error) {
	return r.patch(ctx, "change email", `email = $1, verified = FALSE, active = FALSE`, id, email)
}

func (r *UserRepository) SetFullName(ctx context.Context, id, name string) (*entity.User, error) {
	return r.patch(ctx, "set full name", `full_name = $1`, id, name)
}

func (r *UserRepository) SetProfileImage(ctx context.Context, id, key string) (*entity.User, error) {
	return r.patch(ctx, "set profile image", `profile_image = $1`, id, key)
}

// patch updates the columns in set (placeholders $1..$n for args) on one row
// and returns the row as stored.
func (r *UserRepository) patch(ctx context.Context, op, set, id string, args ...any) (*entity.User, error) {
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		set, len(args)+1, userColumns)
	u, err := r.scanOne(ctx, query, append(args, id)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u := &entity.User{}
	var role string

	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.ProfileImage, &role,
		&u.Active, &u.Verified, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Role = entity.Role(role)

	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
