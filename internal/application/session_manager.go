package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/validation"
)

const defaultOTPAttempts = 10

type SessionConfig struct {
	OTPTTL time.Duration
	// RequireVerifiedLogin rejects login of unverified accounts with 403.
	// When false they log in and their tokens carry verified=false.
	RequireVerifiedLogin bool
	OTPAttempts          int
}

type SessionDeps struct {
	Users    repository.UserRepository
	OTPs     repository.OTPRepository
	Issuer   *TokenIssuer
	Verifier *CredentialVerifier
	Hasher   PasswordHasher
	Notifier *Notifier
	Indexer  UserIndexer // optional
	Metrics  *Metrics    // optional
	Logger   logrus.FieldLogger
}

// SessionManager runs the account and session lifecycle: signup, email
// verification, login/logout, refresh and password/email changes. It keeps
// no state of its own; everything lives in the stores.
type SessionManager struct {
	SessionDeps
	cfg     SessionConfig
	now     func() time.Time
	genCode func() (string, error)
}

func NewSessionManager(deps SessionDeps, cfg SessionConfig) *SessionManager {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.OTPAttempts <= 0 {
		cfg.OTPAttempts = defaultOTPAttempts
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &SessionManager{SessionDeps: deps, cfg: cfg, now: time.Now, genCode: helpers.GenOTPCode}
}

// Session is what a successful login hands back to the HTTP layer.
type Session struct {
	User             *entity.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type SignupInput struct {
	FullName     string
	Email        string
	Password     string
	ConfPassword string
}

func checkNewPassword(password, confirm string) error {
	if !validation.IsStrongPassword(password) {
		return apperror.Validation("password is too weak").WithInfo(map[string]string{
			"password": "must be at least 6 characters with uppercase, lowercase and a number",
		})
	}
	if password != confirm {
		return apperror.Validation("passwords do not match").WithInfo(map[string]string{
			"confPassword": "must match password",
		})
	}
	return nil
}

func (m *SessionManager) Signup(ctx context.Context, in SignupInput) (u *entity.User, err error) {
	defer func() { m.Metrics.Observe("signup", err) }()

	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, apperror.Validation("full name is required").WithInfo(map[string]string{"fullName": "is required"})
	}
	if !validation.IsEmail(email) {
		return nil, apperror.Validation("invalid email").WithInfo(map[string]string{"email": "must be a valid email"})
	}
	if err := checkNewPassword(in.Password, in.ConfPassword); err != nil {
		return nil, err
	}

	hash, err := m.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}
	u = &entity.User{
		Email:     email,
		Password:  hash,
		FullName:  name,
		Role:      entity.RoleUser,
		LastLogin: m.now().UTC(),
	}
	if err := m.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Internal("create user", err)
	}
	m.index(ctx, u)
	helpers.LogInfo(m.Logger, "user signed up", logrus.Fields{"user_id": u.ID, "email": u.Email})
	return u, nil
}

// RequestOTP sends the live verification code of email, creating one when
// none exists. Repeated calls before expiry resend the same code.
func (m *SessionManager) RequestOTP(ctx context.Context, email string) (err error) {
	defer func() { m.Metrics.Observe("request_otp", err) }()

	u, err := m.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Verified {
		return apperror.Conflict("email already verified")
	}

	for attempt := 0; attempt < m.cfg.OTPAttempts; attempt++ {
		candidate, gerr := m.genCode()
		if gerr != nil {
			return apperror.Generation("otp generation failed", gerr)
		}
		code, ok, rerr := m.OTPs.Reserve(ctx, u.Email, candidate, m.cfg.OTPTTL)
		if rerr != nil {
			return apperror.Internal("store otp", rerr)
		}
		if !ok {
			continue
		}
		m.Notifier.VerificationCode(ctx, u, code, m.cfg.OTPTTL)
		return nil
	}
	return apperror.Generation("could not generate a unique code", nil)
}

// VerifyOTP consumes the code and marks the email verified.
func (m *SessionManager) VerifyOTP(ctx context.Context, email, code string) (err error) {
	defer func() { m.Metrics.Observe("verify_otp", err) }()

	ok, err := m.OTPs.Consume(ctx, email, code)
	if err != nil {
		return apperror.Internal("consume otp", err)
	}
	if !ok {
		return apperror.Client("invalid or expired code")
	}
	if err := m.Users.SetVerifiedByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("verify user", err)
	}
	if u, gerr := m.Users.GetByEmail(ctx, email); gerr == nil {
		m.index(ctx, u)
	}
	return nil
}

func (m *SessionManager) Login(ctx context.Context, email, password string) (s *Session, err error) {
	defer func() { m.Metrics.Observe("login", err) }()

	u, err := m.Verifier.FindByCredential(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if m.cfg.RequireVerifiedLogin && !u.Verified {
		return nil, apperror.Forbidden("email not verified")
	}
	s, err = m.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	helpers.LogInfo(m.Logger, "user logged in", logrus.Fields{"user_id": u.ID})
	return s, nil
}

// openSession marks the user active and issues the token pair. Claims are
// taken from the row as stored after the write.
func (m *SessionManager) openSession(ctx context.Context, u *entity.User) (*Session, error) {
	u, err := m.Users.MarkSession(ctx, u.ID, true, m.now().UTC())
	if err != nil {
		return nil, storeErr("mark session", err)
	}
	access, aexp, err := m.Issuer.IssueAccessToken(u.Identity())
	if err != nil {
		return nil, err
	}
	refresh, rexp, err := m.Issuer.IssueRefreshToken(ctx, u.Identity())
	if err != nil {
		return nil, err
	}
	return &Session{
		User:             u,
		AccessToken:      access,
		AccessExpiresAt:  aexp,
		RefreshToken:     refresh,
		RefreshExpiresAt: rexp,
	}, nil
}

// Logout ends the caller's session only. The refresh record stays, so other
// sessions sharing it keep working.
func (m *SessionManager) Logout(ctx context.Context, userID string) (err error) {
	defer func() { m.Metrics.Observe("logout", err) }()
	return m.deactivate(ctx, userID)
}

// LogoutAllDevices deletes every refresh token of the user.
func (m *SessionManager) LogoutAllDevices(ctx context.Context, userID string) (err error) {
	defer func() { m.Metrics.Observe("logout_all", err) }()

	if err := m.Issuer.RevokeRefresh(ctx, userID); err != nil {
		return err
	}
	return m.deactivate(ctx, userID)
}

func (m *SessionManager) deactivate(ctx context.Context, userID string) error {
	if _, err := m.Users.MarkSession(ctx, userID, false, m.now().UTC()); err != nil {
		return storeErr("mark session", err)
	}
	return nil
}

// RefreshAccessToken mints a new access token when presented matches the
// stored refresh token of userID. The refresh token is not rotated.
func (m *SessionManager) RefreshAccessToken(ctx context.Context, userID, presented string) (s *Session, err error) {
	defer func() { m.Metrics.Observe("refresh", err) }()

	if err := m.Issuer.MatchRefresh(ctx, userID, presented); err != nil {
		return nil, err
	}
	u, err := m.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized("token is not recognised")
	}
	if err != nil {
		return nil, apperror.Internal("load user", err)
	}
	access, aexp, err := m.Issuer.IssueAccessToken(u.Identity())
	if err != nil {
		return nil, err
	}
	return &Session{User: u, AccessToken: access, AccessExpiresAt: aexp}, nil
}

// ForgotPassword issues a reset token and mails the reset link.
func (m *SessionManager) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { m.Metrics.Observe("forgot_password", err) }()

	u, err := m.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, exp, err := m.Issuer.IssueResetToken(ctx, u.Identity())
	if err != nil {
		return err
	}
	m.Notifier.PasswordReset(ctx, u, token, exp)
	return nil
}

// VerifyResetToken acknowledges a reset token the middleware already
// verified. The token is not consumed.
func (m *SessionManager) VerifyResetToken(token string) string {
	return token
}

func (m *SessionManager) ResetPassword(ctx context.Context, userID, token, password, confirm string) (s *Session, err error) {
	defer func() { m.Metrics.Observe("reset_password", err) }()

	if err := checkNewPassword(password, confirm); err != nil {
		return nil, err
	}
	if err := m.Issuer.MatchReset(ctx, userID, token); err != nil {
		return nil, err
	}
	u, err := m.setPassword(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	if err := m.Issuer.RevokeReset(ctx, userID); err != nil {
		return nil, err
	}
	s, err = m.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	m.Notifier.AccountChanged(ctx, u, u.Email, map[string]string{"password": "reset"})
	return s, nil
}

// ChangePassword re-checks the current password, signs every other device
// out and opens a fresh session.
func (m *SessionManager) ChangePassword(ctx context.Context, userID, oldPassword, password, confirm string) (s *Session, err error) {
	defer func() { m.Metrics.Observe("change_password", err) }()

	if err := checkNewPassword(password, confirm); err != nil {
		return nil, err
	}
	u, err := m.reauthenticate(ctx, userID, oldPassword)
	if err != nil {
		return nil, err
	}
	if u, err = m.setPassword(ctx, u.ID, password); err != nil {
		return nil, err
	}
	if err := m.Issuer.RevokeRefresh(ctx, userID); err != nil {
		return nil, err
	}
	s, err = m.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	m.Notifier.AccountChanged(ctx, u, u.Email, map[string]string{"password": "changed"})
	return s, nil
}

// ChangeEmail moves the account to newEmail. The account must verify the
// new address and log in again.
func (m *SessionManager) ChangeEmail(ctx context.Context, userID, newEmail, password string) (u *entity.User, err error) {
	defer func() { m.Metrics.Observe("change_email", err) }()

	newEmail = strings.TrimSpace(newEmail)
	if !validation.IsEmail(newEmail) {
		return nil, apperror.Validation("invalid email").WithInfo(map[string]string{"email": "must be a valid email"})
	}
	u, err = m.reauthenticate(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	if newEmail == u.Email {
		return nil, apperror.Client("new email must differ from the current one")
	}
	if _, err := m.Users.GetByEmail(ctx, newEmail); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal("load user", err)
	}

	previous := u.Email
	if u, err = m.Users.ChangeEmail(ctx, userID, newEmail); err != nil {
		return nil, storeErr("change email", err)
	}
	if err := m.Issuer.RevokeRefresh(ctx, userID); err != nil {
		return nil, err
	}
	m.index(ctx, u)
	m.Notifier.AccountChanged(ctx, u, previous, map[string]string{"email": newEmail})
	return u, nil
}

func (m *SessionManager) reauthenticate(ctx context.Context, userID, password string) (*entity.User, error) {
	u, err := m.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := m.Verifier.FindByCredential(ctx, u.Email, password); err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			return nil, apperror.Unauthorized("invalid password")
		}
		return nil, err
	}
	return u, nil
}

// setPassword hashes and persists the new password.
func (m *SessionManager) setPassword(ctx context.Context, userID, password string) (*entity.User, error) {
	hash, err := m.Hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}
	u, err := m.Users.SetPassword(ctx, userID, hash)
	if err != nil {
		return nil, storeErr("set password", err)
	}
	return u, nil
}

func (m *SessionManager) userByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := m.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("load user", err)
	}
	return u, nil
}

func (m *SessionManager) userByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := m.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("load user", err)
	}
	return u, nil
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict("email already registered")
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("user not found")
	}
	return apperror.Internal(op, err)
}

func (m *SessionManager) index(ctx context.Context, u *entity.User) {
	if m.Indexer == nil {
		return
	}
	if err := m.Indexer.Index(ctx, u); err != nil {
		m.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}
