package handlers

import (
	"context"
	"time"

	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/internal/domain/entity"
)

// SessionService is the slice of application.SessionManager the handlers use.
type SessionService interface {
	Signup(ctx context.Context, in application.SignupInput) (*entity.User, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*application.Session, error)
	Logout(ctx context.Context, userID string) error
	LogoutAllDevices(ctx context.Context, userID string) error
	RefreshAccessToken(ctx context.Context, userID, presented string) (*application.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetToken(token string) string
	ResetPassword(ctx context.Context, userID, token, password, confirm string) (*application.Session, error)
	ChangePassword(ctx context.Context, userID, oldPassword, password, confirm string) (*application.Session, error)
	ChangeEmail(ctx context.Context, userID, newEmail, password string) (*entity.User, error)
}

// ProfileService is the slice of application.Service the handlers use.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID, fullName string) (*entity.User, error)
	UploadAvatar(ctx context.Context, userID string, in application.AvatarUpload) (*entity.User, error)
	DeleteAvatar(ctx context.Context, userID string) (*entity.User, error)
	AvatarURL(u *entity.User) string
	SearchUsers(ctx context.Context, q string, size int) ([]entity.User, error)
}

var (
	_ SessionService = (*application.SessionManager)(nil)
	_ ProfileService = (*application.Service)(nil)
)

// userView is the public shape of a user. The password hash never leaves
// the service.
type userView struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	Verified     bool      `json:"verified"`
	LastLogin    time.Time `json:"lastLogin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toView(u *entity.User, avatarURL func(*entity.User) string) userView {
	v := userView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role.String(),
		Active:    u.Active,
		Verified:  u.Verified,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if avatarURL != nil {
		v.ProfileImage = avatarURL(u)
	}
	return v
}
