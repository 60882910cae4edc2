package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/internal/domain/repository"
)

// TokenSweeper purges expired token rows. Reads already ignore them; this
// only keeps the table small.
type TokenSweeper struct {
	tokens   repository.TokenRepository
	interval time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewTokenSweeper(tokens repository.TokenRepository, interval time.Duration, logger logrus.FieldLogger) *TokenSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &TokenSweeper{tokens: tokens, interval: interval, logger: logger, now: time.Now}
}

func (s *TokenSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.WithError(err).Warn("token sweep failed")
		return 0, err
	}
	if n > 0 {
		s.logger.WithField("deleted", n).Debug("expired tokens purged")
	}
	return n, nil
}

// Run sweeps on every tick until ctx is cancelled.
func (s *TokenSweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}
