package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/go-auth-service/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04") }
}

func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }

func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

func WithCode(code string) Option { return func(d *EmailData) { d.Code = code } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04")
	}
}

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) { d.ExpiresInMin = int(dur.Round(time.Minute) / time.Minute) }
}

// NewBaseEmailData fills the branding fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           strings.TrimSpace(name),
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,

		VerifyURL: cfg.VerifyEmailURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(cfg *config.Config, name, email, code string, ttl time.Duration) map[string]any {
	d := NewBaseEmailData(cfg, VerifyEmail, name, email, WithCode(code), WithExpiresIn(ttl))
	return ToMap(d)
}

// NewForgotPasswordData links to the front end with the reset token appended.
func NewForgotPasswordData(cfg *config.Config, name, email, token string, expiresAt time.Time) map[string]any {
	d := NewBaseEmailData(cfg, ForgotPassword, name, email,
		WithResetURL(ResetLink(cfg.ResetPasswordURL, token)),
		WithExpiresAt(expiresAt),
	)
	return ToMap(d)
}

func NewProfileUpdatedData(cfg *config.Config, name, email string, changes map[string]string, at time.Time) map[string]any {
	d := NewBaseEmailData(cfg, ProfileUpdated, name, email, WithChanges(changes), WithTime(at))
	return ToMap(d)
}

func ResetLink(base, token string) string {
	return strings.TrimRight(base, "/") + "/" + token
}
