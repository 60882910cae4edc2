package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-auth-service/pkg/response"
)

// Pinger is satisfied by *pgxpool.Pool and by RedisPinger.
type Pinger interface {
	Ping(ctx context.Context) error
}

type DebugModule struct {
	Gatherer prometheus.Gatherer
	Checks   map[string]Pinger
	Metrics  bool
}

func NewDebugModule(g prometheus.Gatherer, metrics bool, checks map[string]Pinger) *DebugModule {
	return &DebugModule{Gatherer: g, Metrics: metrics, Checks: checks}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.health)

	if m.Metrics && m.Gatherer != nil {
		// Prometheus scrape endpoint, rate-limited per IP except from private networks
		rl := rateLimit(120, middleware.KeyByIP(), middleware.AllowPrivateIP())
		rg.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
	}
}

func (m *DebugModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(m.Checks))
	for name, p := range m.Checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	if status != http.StatusOK {
		response.Error(c, status, "unhealthy", deps)
		return
	}
	response.Success(c, status, deps, "ok")
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

// RedisPinger adapts a redis client to Pinger.
func RedisPinger(rdb *redis.Client) Pinger { return redisPinger{rdb: rdb} }
