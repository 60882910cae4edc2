package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/config"
	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-auth-service/pkg/mailer/templates"
)

// Notifier turns account events into email jobs. Dispatch failures are
// logged and never returned: the enclosing operation has already succeeded.
type Notifier struct {
	mail   Mailer
	cfg    *config.Config
	logger logrus.FieldLogger
}

func NewNotifier(mail Mailer, cfg *config.Config, logger logrus.FieldLogger) *Notifier {
	return &Notifier{mail: mail, cfg: cfg, logger: logger}
}

func (n *Notifier) VerificationCode(ctx context.Context, u *entity.User, code string, ttl time.Duration) {
	n.dispatch(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.VerifyEmail,
		Data:     mailtpl.NewVerifyEmailData(n.cfg, u.FullName, u.Email, code, ttl),
	})
}

func (n *Notifier) PasswordReset(ctx context.Context, u *entity.User, token string, expiresAt time.Time) {
	n.dispatch(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.ForgotPassword,
		Data:     mailtpl.NewForgotPasswordData(n.cfg, u.FullName, u.Email, token, expiresAt),
	})
}

// AccountChanged goes to to, which may be the previous address of u.
func (n *Notifier) AccountChanged(ctx context.Context, u *entity.User, to string, changes map[string]string) {
	n.dispatch(ctx, mailer.EmailJob{
		To:       to,
		Template: mailtpl.ProfileUpdated,
		Data:     mailtpl.NewProfileUpdatedData(n.cfg, u.FullName, to, changes, time.Now()),
	})
}

func (n *Notifier) dispatch(ctx context.Context, job mailer.EmailJob) {
	if n == nil || n.mail == nil {
		return
	}
	if err := n.mail.Dispatch(ctx, job); err != nil {
		helpers.LogError(n.logger, "email dispatch failed", err, logrus.Fields{
			"to":       job.To,
			"template": job.Template,
		})
	}
}
