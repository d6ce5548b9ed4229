package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names. Both queues are durable; messages are persistent.
const (
	auditQueueName      = "presenca.audit"
	registeredQueueName = "presenca.attendance.registered"
)

// Publisher publishes domain events to RabbitMQ. A zero URL disables
// publishing entirely, and publish failures are logged and returned but
// must never abort the request that produced the event.
type Publisher struct {
	url string
	log *slog.Logger
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Enabled reports whether a broker URL was configured.
func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// PublishAudit sends an audit event, stamping envelope id and timestamp.
func (p *Publisher) PublishAudit(ctx context.Context, ev AuditEvent) error {
	if !p.Enabled() {
		return nil
	}
	ev.EventID = uuid.NewString()
	ev.At = time.Now().UTC().Format(time.RFC3339)
	return p.publish(ctx, auditQueueName, ev)
}

// PublishAttendanceRegistered announces a committed registration.
func (p *Publisher) PublishAttendanceRegistered(ctx context.Context, ev AttendanceRegisteredEvent) error {
	if !p.Enabled() {
		return nil
	}
	ev.EventID = uuid.NewString()
	ev.RegisteredAt = time.Now().UTC().Format(time.RFC3339)
	return p.publish(ctx, registeredQueueName, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, payload any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", "queue", queueName, "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", "queue", queueName, "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", "queue", queueName, "error", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", "queue", queueName, "error", err)
		return err
	}
	return nil
}
