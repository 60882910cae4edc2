package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/config"
	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

// seed creates (or promotes) a verified ADMIN account for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	email := getenvDefault("SEED_ADMIN_EMAIL", "admin@example.com")
	password := getenvDefault("SEED_ADMIN_PASSWORD", "Admin#12345")
	name := getenvDefault("SEED_ADMIN_NAME", "Admin")

	hash, err := helpers.NewBcryptHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}

	users := pginfra.NewUserRepository(pool)
	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &entity.User{
			Email:    email,
			Password: hash,
			FullName: name,
			Role:     entity.RoleAdmin,
			Active:   true,
			Verified: true,
		}
		if err := users.Create(ctx, u); err != nil {
			logger.Fatalf("failed to seed admin: %v", err)
		}
	case err != nil:
		logger.Fatalf("failed to look up admin: %v", err)
	default:
		u.Password = hash
		u.Role = entity.RoleAdmin
		u.Active = true
		u.Verified = true
		if err := users.Update(ctx, u); err != nil {
			logger.Fatalf("failed to promote admin: %v", err)
		}
	}

	logger.WithFields(logrus.Fields{"id": u.ID, "email": u.Email, "role": u.Role}).Info("seeded admin user")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
