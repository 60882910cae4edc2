package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	handlers "github.com/oksasatya/go-auth-service/internal/interface/http"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
)

// UserModule serves profile management under /users. Every route needs a
// bearer access token.
type UserModule struct {
	Handler  *handlers.UserHandler
	Verifier middleware.TokenVerifier
}

func NewUserModule(h *handlers.UserHandler, v middleware.TokenVerifier) *UserModule {
	return &UserModule{Handler: h, Verifier: v}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(
		middleware.Auth(m.Verifier),
		rateLimit(120, middleware.KeyByUserID(), nil),
	)

	member := middleware.RequireRole(false, entity.RoleUser.String(), entity.RoleAdmin.String())
	{
		users.GET("", m.Handler.GetProfile)
		users.PATCH("", member, m.Handler.UpdateProfile)
		users.PATCH("/profile", member, m.Handler.UploadAvatar)
		users.DELETE("/profile", member, m.Handler.DeleteAvatar)
		users.PATCH("/change-password", m.Handler.ChangePassword)
		users.PATCH("/change-email", member, m.Handler.ChangeEmail)
		// Search users via Elasticsearch
		users.GET("/search", middleware.RequireRole(true, entity.RoleAdmin.String()), m.Handler.Search)
	}
}
