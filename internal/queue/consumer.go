package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/repository"
)

// StartAuditConsumer connects to the broker, declares the audit queue and
// persists each event as an audit_logs row. It runs a reconnect loop with
// backoff and never returns under normal operation; failed messages are
// rejected without requeue so a poison message cannot wedge the queue.
func StartAuditConsumer(url string, audits *repository.AuditRepo, log *slog.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("audit consumer dial failed", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeAudits(conn, audits, log); err != nil {
			log.Warn("audit consume loop ended", "error", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeAudits(conn *amqp.Connection, audits *repository.AuditRepo, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit consumer set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(auditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := persistAudit(d.Body, audits); err != nil {
			log.Warn("audit message rejected", "error", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func persistAudit(body []byte, audits *repository.AuditRepo) error {
	var ev AuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	details := ev.Details
	if details == "" {
		details = "envelope " + ev.EventID
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return audits.Insert(ctx, &model.AuditLog{
		TenantID: ev.TenantID,
		UserID:   ev.UserID,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Details:  details,
	})
}

// EntityKey formats a numeric id for the audit envelope.
func EntityKey(id uint64) string { return strconv.FormatUint(id, 10) }
