package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/config"
	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/internal/container"
	esinfra "github.com/oksasatya/go-auth-service/internal/infrastructure/elasticsearch"
	pginfra "github.com/oksasatya/go-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-auth-service/internal/router"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	// Redis
	rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	// JWT
	jwtManager := helpers.NewJWTManager(helpers.JWTOptions{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		ResetSecret:   cfg.JWTResetSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		ResetTTL:      cfg.ResetTTL,
	})

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetJWT(jwtManager)

	closeStore := setupObjectStore(ctx, cfg, logger)
	defer closeStore()

	setupIndexer(cfg, logger)

	closeMail := setupMailer(cfg, logger)
	defer closeMail()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	container.SetRegistry(reg)
	httpMetrics := middleware.NewHTTPMetrics(reg)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(middleware.Prometheus(httpMetrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	registry := router.NewRegistry(r, cfg.APIPrefix)
	router.InitModules(registry)
	registry.RegisterAll()

	sweeper := application.NewTokenSweeper(pginfra.NewTokenRepository(pool), cfg.TokenSweepInterval, logger)
	go sweeper.Run(ctx)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// setupObjectStore registers the avatar backend selected by AVATAR_STORAGE.
// Without a bucket, avatar uploads are disabled.
func setupObjectStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) func() {
	switch cfg.AvatarStorage {
	case "s3":
		if cfg.S3Bucket == "" {
			logger.Warn("S3_BUCKET not set; avatar uploads disabled")
			return func() {}
		}
		store, err := helpers.NewS3Store(ctx, helpers.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
			PublicURL:    cfg.S3PublicURL,
		})
		if err != nil {
			logger.Fatalf("failed to init S3 store: %v", err)
		}
		container.SetObjectStore(store)
		return func() {}
	default:
		if cfg.GCSBucket == "" {
			logger.Warn("GCS_BUCKET not set; avatar uploads disabled")
			return func() {}
		}
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.Fatalf("failed to init GCS client: %v", err)
		}
		container.SetObjectStore(helpers.NewGCSStore(client, cfg.GCSBucket))
		return func() { _ = client.Close() }
	}
}

func setupIndexer(cfg *config.Config, logger *logrus.Logger) {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		return
	}
	es, err := esinfra.NewClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable; user search disabled")
		return
	}
	container.SetIndexer(esinfra.NewUserIndexer(es, cfg.ESUsersIndex))
}

// setupMailer picks how emails leave the API: dropped, sent inline through
// Mailgun, or queued on RabbitMQ for the email worker.
func setupMailer(cfg *config.Config, logger *logrus.Logger) func() {
	if !cfg.MailSendEnabled {
		container.SetMailer(mailer.NoopDispatcher{Logger: logger})
		return func() {}
	}
	if cfg.MailDispatch == "direct" {
		mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		if !mg.Configured() {
			logger.Warn("mailgun not configured; emails will be dropped")
			container.SetMailer(mailer.NoopDispatcher{Logger: logger})
			return func() {}
		}
		container.SetMailer(mailer.NewDirectDispatcher(mg))
		return func() {}
	}
	q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	container.SetMailer(mailer.NewQueueDispatcher(q))
	return q.Close
}
