package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/config"
	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router auto-wires modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	jwtManager *helpers.JWTManager

	objectStore application.ObjectStore
	mail        application.Mailer
	indexer     application.UserIndexer
	registry    *prometheus.Registry
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetObjectStore(s application.ObjectStore) { objectStore = s }
func GetObjectStore() application.ObjectStore  { return objectStore }
func SetMailer(m application.Mailer)           { mail = m }
func GetMailer() application.Mailer            { return mail }
func SetIndexer(i application.UserIndexer)     { indexer = i }
func GetIndexer() application.UserIndexer      { return indexer }

func SetRegistry(r *prometheus.Registry) { registry = r }

// GetRegistry returns the metrics registry, creating it on first use.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}
