package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	handlers "github.com/oksasatya/go-auth-service/internal/interface/http"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
)

type EmailModule struct {
	Handler  *handlers.EmailHandler
	Verifier middleware.TokenVerifier
}

func NewEmailModule(h *handlers.EmailHandler, v middleware.TokenVerifier) *EmailModule {
	return &EmailModule{Handler: h, Verifier: v}
}

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	// Admin-only raw email endpoint
	email := rg.Group("/email")
	email.Use(
		middleware.Auth(m.Verifier),
		middleware.RequireRole(false, entity.RoleAdmin.String()),
		rateLimit(60, middleware.KeyByUserID(), nil),
	)
	{
		email.POST("/send", m.Handler.Send)
	}
}
