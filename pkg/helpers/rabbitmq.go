package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AttemptHeader counts how many times a message has been handled.
const AttemptHeader = "x-attempt"

// DeadLetterQueue names the queue that receives rejected messages of queue.
func DeadLetterQueue(queue string) string { return queue + ".dead" }

// RabbitQueue wraps an AMQP connection bound to one durable queue. The API
// publishes email jobs through it and the email worker consumes them.
type RabbitQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func NewRabbitQueue(url, queue string) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	// Rejected messages are routed to <queue>.dead through the default exchange.
	dead := DeadLetterQueue(queue)
	declare := func(name string, args amqp.Table) error {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			args,
		)
		return err
	}
	if err := declare(dead, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare %s: %w", dead, err)
	}
	if err := declare(queue, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	}); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	return &RabbitQueue{conn: conn, ch: ch, Queue: queue}, nil
}

func (q *RabbitQueue) Close() {
	if q == nil {
		return
	}
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

// PublishJSON publishes a JSON-encoded persistent message to the queue.
func (q *RabbitQueue) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return q.ch.PublishWithContext(ctx,
		"",      // default exchange
		q.Queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
}

// Consume starts manual-ack delivery with the given prefetch.
func (q *RabbitQueue) Consume(prefetch int) (<-chan amqp.Delivery, error) {
	if err := q.ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	msgs, err := q.ch.Consume(q.Queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Queue, err)
	}
	return msgs, nil
}

// Republish puts the body of d back on the queue with its attempt count set
// to attempt. The caller acks d once this succeeds.
func (q *RabbitQueue) Republish(ctx context.Context, d amqp.Delivery, attempt int) error {
	return q.ch.PublishWithContext(ctx, "", q.Queue, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{AttemptHeader: int32(attempt)},
		Body:         d.Body,
	})
}

// Attempt reports which attempt d is, starting at 1 for a fresh message.
func Attempt(d amqp.Delivery) int {
	var n int
	switch v := d.Headers[AttemptHeader].(type) {
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case int:
		n = v
	}
	if n < 1 {
		return 1
	}
	return n
}
