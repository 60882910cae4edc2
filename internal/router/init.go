package router

import (
	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/internal/container"
	pginfra "github.com/oksasatya/go-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-auth-service/internal/infrastructure/redisstore"
	handlers "github.com/oksasatya/go-auth-service/internal/interface/http"
	"github.com/oksasatya/go-auth-service/internal/router/modules"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

type coreDeps struct {
	Sessions *application.SessionManager
	Profiles *application.Service
	Issuer   *application.TokenIssuer
	Cookies  *helpers.Manager
}

func buildCoreDeps() coreDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	tokens := pginfra.NewTokenRepository(pool)
	otps := redisstore.NewOTPStore(container.GetRedis())
	hasher := helpers.NewBcryptHasher(cfg.BcryptCost)

	issuer := application.NewTokenIssuer(container.GetJWT(), tokens)
	indexer := container.GetIndexer()

	sessions := application.NewSessionManager(application.SessionDeps{
		Users:    users,
		OTPs:     otps,
		Issuer:   issuer,
		Verifier: application.NewCredentialVerifier(users, hasher),
		Hasher:   hasher,
		Notifier: application.NewNotifier(container.GetMailer(), cfg, logger),
		Indexer:  indexer,
		Metrics:  application.NewMetrics(container.GetRegistry()),
		Logger:   logger,
	}, application.SessionConfig{
		OTPTTL:               cfg.OTPTTL,
		RequireVerifiedLogin: cfg.RequireVerifiedLogin,
	})

	profiles := application.NewService(users, container.GetObjectStore(), indexer, logger, cfg.AvatarMaxBytes)

	return coreDeps{
		Sessions: sessions,
		Profiles: profiles,
		Issuer:   issuer,
		Cookies:  helpers.NewCookie(cfg.RefreshCookieName, cfg.CookieDomain, cfg.CookieSecure),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	deps := buildCoreDeps()

	authHandler := handlers.NewAuthHandler(deps.Sessions, deps.Profiles, deps.Cookies, logger)
	userHandler := handlers.NewUserHandler(deps.Profiles, deps.Sessions, deps.Cookies, logger)
	emailHandler := handlers.NewEmailHandler(container.GetMailer(), logger)

	checks := map[string]modules.Pinger{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = modules.RedisPinger(rdb)
	}

	r.Add(modules.NewAuthModule(authHandler, deps.Issuer, deps.Cookies))
	r.Add(modules.NewUserModule(userHandler, deps.Issuer))
	r.Add(modules.NewEmailModule(emailHandler, deps.Issuer))
	r.Add(modules.NewDebugModule(container.GetRegistry(), cfg.MetricsEnabled, checks))
}
