package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-auth-service/internal/container"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
)

// rateLimit builds a per-minute limiter on the shared redis client. Without
// redis the route is not limited.
func rateLimit(max int, keyFn middleware.KeyFunc, allow middleware.AllowFunc) gin.HandlerFunc {
	rdb := container.GetRedis()
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(rdb, max, time.Minute, keyFn, allow, container.GetLogger())
}
