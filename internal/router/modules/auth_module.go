package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-auth-service/internal/interface/http"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

// AuthModule serves the session lifecycle under /auth plus signup.
type AuthModule struct {
	Handler  *handlers.AuthHandler
	Verifier middleware.TokenVerifier
	Cookies  *helpers.Manager
}

func NewAuthModule(h *handlers.AuthHandler, v middleware.TokenVerifier, cookies *helpers.Manager) *AuthModule {
	return &AuthModule{Handler: h, Verifier: v, Cookies: cookies}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	signupLimiter := rateLimit(10, middleware.KeyByIPAndPath(), nil)
	otpLimiter := rateLimit(5, middleware.KeyByIPAndPath(), nil)
	verifyLimiter := rateLimit(30, middleware.KeyByIPAndPath(), nil)
	loginLimiter := rateLimit(10, middleware.KeyByIPAndPath(), nil)
	forgotLimiter := rateLimit(5, middleware.KeyByIPAndPath(), nil)
	resetLimiter := rateLimit(30, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := rateLimit(60, middleware.KeyByIP(), nil)

	rg.POST("/users/signup", signupLimiter, m.Handler.Signup)

	auth := rg.Group("/auth")
	auth.POST("/send-otp", otpLimiter, m.Handler.SendOTP)
	auth.PATCH("/verify-email", verifyLimiter, m.Handler.VerifyEmail)
	auth.POST("/login", loginLimiter, m.Handler.Login)
	auth.POST("/forgot-password", forgotLimiter, m.Handler.ForgotPassword)

	auth.GET("/refresh-token", refreshLimiter, middleware.RefreshCookie(m.Verifier, m.Cookies), m.Handler.RefreshToken)

	reset := middleware.ResetToken(m.Verifier)
	auth.POST("/verify-reset-token/:token", resetLimiter, reset, m.Handler.VerifyResetToken)
	auth.PATCH("/reset-password/:token", resetLimiter, reset, m.Handler.ResetPassword)

	bearer := middleware.Auth(m.Verifier)
	auth.POST("/logout", bearer, m.Handler.Logout)
	auth.POST("/master-logout", bearer, m.Handler.LogoutAllDevices)
}
