package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Retry publishes the job again after Backoff, with the attempt count bumped.
	Retry
	// Drop rejects the delivery; the broker moves it to the dead-letter queue.
	Drop
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = 2 * time.Second
	maxRetryDelay      = time.Minute
)

// Worker turns queued jobs into sent emails.
type Worker struct {
	Sender      Sender
	Logger      logrus.FieldLogger
	SendTimeout time.Duration
	// MaxAttempts caps sends per job, the first one included.
	MaxAttempts int
	RetryDelay  time.Duration
}

// Handle processes one queue message; attempt starts at 1. Bad payloads are
// dropped so they do not loop. Send failures are retried until MaxAttempts
// is reached, then dropped.
func (w *Worker) Handle(ctx context.Context, body []byte, attempt int) Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad email message")
		return Drop
	}
	msg, err := Render(job)
	if err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Warn("render email failed")
		return Drop
	}

	timeout := w.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.Sender.Send(c, msg.To, msg.Subject, msg.Text, msg.HTML); err != nil {
		entry := w.Logger.WithError(err).WithFields(logrus.Fields{"to": msg.To, "attempt": attempt})
		if attempt >= w.maxAttempts() {
			entry.Error("send email failed; giving up")
			return Drop
		}
		entry.Warn("send email failed; will retry")
		return Retry
	}
	w.Logger.WithFields(logrus.Fields{"to": msg.To, "template": job.Template}).Info("email sent")
	return Ack
}

// Backoff is the wait before retry number attempt. It grows linearly and is
// capped at one minute.
func (w *Worker) Backoff(attempt int) time.Duration {
	base := w.RetryDelay
	if base <= 0 {
		base = defaultRetryDelay
	}
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * base
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

func (w *Worker) maxAttempts() int {
	if w.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return w.MaxAttempts
}
