package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/config"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	if !mg.Configured() {
		logger.Fatal("Mailgun not configured")
	}

	q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.Fatalf("rabbitmq: %v", err)
	}
	defer q.Close()

	// Prefetch for fair dispatch across workers
	msgs, err := q.Consume(16)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := &mailer.Worker{
		Sender:      mg,
		Logger:      logger,
		SendTimeout: 15 * time.Second,
		MaxAttempts: cfg.MailMaxAttempts,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			attempt := helpers.Attempt(msg)
			settle(ctx, q, w, msg, attempt, w.Handle(ctx, msg.Body, attempt), logger)
		}
	}()

	logger.Infof("email worker consuming %s (dead letters: %s)",
		cfg.RabbitMQEmailQueue, helpers.DeadLetterQueue(cfg.RabbitMQEmailQueue))
	select {
	case <-ctx.Done():
		logger.Info("shutting down email worker")
	case <-done:
		logger.Warn("delivery channel closed")
	}
}

// settle acks, retries or dead-letters msg. A retry waits Backoff, publishes
// a copy with the attempt bumped and acks the original; if that publish
// fails the original is requeued as is.
func settle(ctx context.Context, q *helpers.RabbitQueue, w *mailer.Worker, msg amqp.Delivery, attempt int, out mailer.Outcome, logger logrus.FieldLogger) {
	switch out {
	case mailer.Ack:
		_ = msg.Ack(false)
	case mailer.Retry:
		select {
		case <-ctx.Done():
			_ = msg.Nack(false, true)
			return
		case <-time.After(w.Backoff(attempt)):
		}
		if err := q.Republish(ctx, msg, attempt+1); err != nil {
			logger.WithError(err).Warn("republish email failed")
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
	default:
		_ = msg.Nack(false, false)
	}
}
