package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/response"
)

type AuthHandler struct {
	Sessions SessionService
	Profiles ProfileService
	Cookies  *helpers.Manager
	Logger   logrus.FieldLogger
}

func NewAuthHandler(sessions SessionService, profiles ProfileService, cookies *helpers.Manager, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Profiles: profiles, Cookies: cookies, Logger: logger}
}

type signupRequest struct {
	FullName     string `json:"fullName" binding:"required,max=128"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,strongpwd"`
	ConfPassword string `json:"confPassword" binding:"required,eqfield=Password"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Password     string `json:"password" binding:"required,strongpwd"`
	ConfPassword string `json:"confPassword" binding:"required,eqfield=Password"`
}

func (h *AuthHandler) avatarURL() func(*entity.User) string {
	if h.Profiles == nil {
		return nil
	}
	return h.Profiles.AvatarURL
}

// Signup POST /users/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.Sessions.Signup(c.Request.Context(), application.SignupInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Password:     req.Password,
		ConfPassword: req.ConfPassword,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toView(u, h.avatarURL()), "Signup success, please verify your email")
}

// SendOTP POST /auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.Sessions.RequestOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "OTP sent, please check your email")
}

// VerifyEmail PATCH /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.Sessions.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Email verified successfully")
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	s, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.writeSession(c, s, "Login success")
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.ClearRefresh(c)
	if err := h.Sessions.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Logout success")
}

// LogoutAllDevices POST /auth/master-logout
func (h *AuthHandler) LogoutAllDevices(c *gin.Context) {
	h.Cookies.ClearRefresh(c)
	if err := h.Sessions.LogoutAllDevices(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Logout all devices success")
}

// RefreshToken GET /auth/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	s, err := h.Sessions.RefreshAccessToken(c.Request.Context(), middleware.UserID(c), middleware.PresentedToken(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.SuccessWithToken(c, http.StatusOK, toView(s.User, h.avatarURL()), "Access token refreshed", s.AccessToken)
}

// ForgotPassword POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.Sessions.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Reset password link sent, please check your email")
}

// VerifyResetToken POST /auth/verify-reset-token/:token
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	token := h.Sessions.VerifyResetToken(middleware.PresentedToken(c))
	response.Success(c, http.StatusOK, gin.H{"token": token}, "Reset token is valid")
}

// ResetPassword PATCH /auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	s, err := h.Sessions.ResetPassword(c.Request.Context(), middleware.UserID(c), middleware.PresentedToken(c), req.Password, req.ConfPassword)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.writeSession(c, s, "Password reset success")
}

// writeSession sets the refresh cookie and returns the access token in the
// envelope.
func (h *AuthHandler) writeSession(c *gin.Context, s *application.Session, message string) {
	h.Cookies.SetRefresh(c, s.RefreshToken, s.RefreshExpiresAt)
	response.SuccessWithToken(c, http.StatusOK, toView(s.User, h.avatarURL()), message, s.AccessToken)
}
