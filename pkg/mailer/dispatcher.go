package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Publisher puts a JSON payload on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueDispatcher hands jobs to the email worker through RabbitMQ.
type QueueDispatcher struct {
	pub Publisher
}

func NewQueueDispatcher(pub Publisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, job EmailJob) error {
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidJob)
	}
	if err := d.pub.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

// DirectDispatcher renders and sends inline, without a queue.
type DirectDispatcher struct {
	sender Sender
}

func NewDirectDispatcher(sender Sender) *DirectDispatcher {
	return &DirectDispatcher{sender: sender}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, job EmailJob) error {
	msg, err := Render(job)
	if err != nil {
		return err
	}
	if err := d.sender.Send(ctx, msg.To, msg.Subject, msg.Text, msg.HTML); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NoopDispatcher only logs; used when MAIL_SEND_ENABLED=false.
type NoopDispatcher struct {
	Logger logrus.FieldLogger
}

func (d NoopDispatcher) Dispatch(_ context.Context, job EmailJob) error {
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).
			Info("mail sending disabled; email dropped")
	}
	return nil
}
