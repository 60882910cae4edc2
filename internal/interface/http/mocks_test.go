package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-auth-service/internal/application"
	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
)

type mockSessions struct{ mock.Mock }

func sessionOrNil(v any) *application.Session {
	s, _ := v.(*application.Session)
	return s
}

func userOrNil(v any) *entity.User {
	u, _ := v.(*entity.User)
	return u
}

func (m *mockSessions) Signup(ctx context.Context, in application.SignupInput) (*entity.User, error) {
	args := m.Called(ctx, in)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockSessions) RequestOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockSessions) VerifyOTP(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockSessions) Login(ctx context.Context, email, password string) (*application.Session, error) {
	args := m.Called(ctx, email, password)
	return sessionOrNil(args.Get(0)), args.Error(1)
}

func (m *mockSessions) Logout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessions) LogoutAllDevices(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessions) RefreshAccessToken(ctx context.Context, userID, presented string) (*application.Session, error) {
	args := m.Called(ctx, userID, presented)
	return sessionOrNil(args.Get(0)), args.Error(1)
}

func (m *mockSessions) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockSessions) VerifyResetToken(token string) string {
	return m.Called(token).String(0)
}

func (m *mockSessions) ResetPassword(ctx context.Context, userID, token, password, confirm string) (*application.Session, error) {
	args := m.Called(ctx, userID, token, password, confirm)
	return sessionOrNil(args.Get(0)), args.Error(1)
}

func (m *mockSessions) ChangePassword(ctx context.Context, userID, oldPassword, password, confirm string) (*application.Session, error) {
	args := m.Called(ctx, userID, oldPassword, password, confirm)
	return sessionOrNil(args.Get(0)), args.Error(1)
}

func (m *mockSessions) ChangeEmail(ctx context.Context, userID, newEmail, password string) (*entity.User, error) {
	args := m.Called(ctx, userID, newEmail, password)
	return userOrNil(args.Get(0)), args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, userID, fullName string) (*entity.User, error) {
	args := m.Called(ctx, userID, fullName)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProfiles) UploadAvatar(ctx context.Context, userID string, in application.AvatarUpload) (*entity.User, error) {
	args := m.Called(ctx, userID, in)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProfiles) DeleteAvatar(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockProfiles) AvatarURL(u *entity.User) string {
	if u == nil || u.ProfileImage == "" {
		return ""
	}
	return "https://cdn.test/" + u.ProfileImage
}

func (m *mockProfiles) SearchUsers(ctx context.Context, q string, size int) ([]entity.User, error) {
	args := m.Called(ctx, q, size)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Dispatch(ctx context.Context, job mailer.EmailJob) error {
	return m.Called(ctx, job).Error(0)
}
