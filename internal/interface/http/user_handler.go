package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/response"
)

type UserHandler struct {
	Svc      ProfileService
	Sessions SessionService
	Cookies  *helpers.Manager
	Logger   logrus.FieldLogger
}

func NewUserHandler(svc ProfileService, sessions SessionService, cookies *helpers.Manager, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{Svc: svc, Sessions: sessions, Cookies: cookies, Logger: logger}
}

// updateProfileRequest accepts only the display name. The pointer fields
// exist to reject attempts to change sensitive attributes through this route.
type updateProfileRequest struct {
	FullName     string  `json:"fullName" binding:"required,max=128"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	Role         *string `json:"role"`
	Verified     *bool   `json:"verified"`
	Active       *bool   `json:"active"`
	LastLogin    *string `json:"lastLogin"`
	Profile      *string `json:"profile"`
	ProfileImage *string `json:"profileImage"`
}

func (r updateProfileRequest) touchesSensitive() bool {
	return r.Email != nil || r.Password != nil || r.Role != nil || r.Verified != nil ||
		r.Active != nil || r.LastLogin != nil || r.Profile != nil || r.ProfileImage != nil
}

type changePasswordRequest struct {
	OldPassword  string `json:"oldPassword" binding:"required"`
	Password     string `json:"password" binding:"required,strongpwd"`
	ConfPassword string `json:"confPassword" binding:"required,eqfield=Password"`
}

type changeEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GetProfile GET /users
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u, h.Svc.AvatarURL), "Success get user profile")
}

// UpdateProfile PATCH /users
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if req.touchesSensitive() {
			respondError(c, h.Logger, apperror.Client("sensitive fields cannot be updated"))
			return
		}
		respondBindError(c, err)
		return
	}
	if req.touchesSensitive() {
		respondError(c, h.Logger, apperror.Client("sensitive fields cannot be updated"))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.FullName)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u, h.Svc.AvatarURL), "Success update user data")
}

// UploadAvatar PATCH /users/profile (multipart field profileImage)
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("profileImage")
	if err != nil {
		respondError(c, h.Logger, apperror.Validation("profileImage file is required").WithInfo(map[string]string{"profileImage": "is required"}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, h.Logger, apperror.Internal("open upload", err))
		return
	}
	defer func() { _ = f.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), middleware.UserID(c), application.AvatarUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u, h.Svc.AvatarURL), "Success upload profile image")
}

// DeleteAvatar DELETE /users/profile
func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	u, err := h.Svc.DeleteAvatar(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u, h.Svc.AvatarURL), "Success delete profile image")
}

// ChangePassword PATCH /users/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	s, err := h.Sessions.ChangePassword(c.Request.Context(), middleware.UserID(c), req.OldPassword, req.Password, req.ConfPassword)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.SetRefresh(c, s.RefreshToken, s.RefreshExpiresAt)
	response.SuccessWithToken(c, http.StatusOK, toView(s.User, h.Svc.AvatarURL), "Success change password", s.AccessToken)
}

// ChangeEmail PATCH /users/change-email
func (h *UserHandler) ChangeEmail(c *gin.Context) {
	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.Sessions.ChangeEmail(c.Request.Context(), middleware.UserID(c), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.ClearRefresh(c)
	response.Success(c, http.StatusOK, toView(u, h.Svc.AvatarURL), "Success change email, please verify the new address and log in again")
}

// Search GET /users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	users, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, toView(&users[i], h.Svc.AvatarURL))
	}
	response.Success(c, http.StatusOK, out, "Success search users")
}
