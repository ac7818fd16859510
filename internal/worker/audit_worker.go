package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/infrastructure/client"
)

const consumerTag = "audit_worker"

// AuditStore - куда воркер складывает записи аудита
type AuditStore interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDrop
)

// AuditWorker читает очередь аудита и сохраняет записи в БД.
// Подтверждение ручное: при ошибке БД сообщение возвращается в очередь.
type AuditWorker struct {
	cfg       config.RabbitMQConfig
	auditRepo AuditStore
	log       zerolog.Logger
}

func NewAuditWorker(cfg config.RabbitMQConfig, auditRepo AuditStore, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		cfg:       cfg,
		auditRepo: auditRepo,
		log:       log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start работает до отмены ctx и переподключается при обрыве соединения
func (w *AuditWorker) Start(ctx context.Context) error {
	delay := w.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	for {
		err := w.consume(ctx)
		if ctx.Err() != nil {
			w.log.Info().Msg("audit worker stopped")
			return nil
		}
		w.log.Error().Err(err).Dur("retry_in", delay).Msg("audit consumer failed, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, time.Minute)
	}
}

func (w *AuditWorker) consume(ctx context.Context) error {
	conn, err := amqp.Dial(w.cfg.URL())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	if err := client.DeclareAuditQueue(channel, w.cfg.AuditQueue); err != nil {
		return err
	}
	if err := channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := channel.Consume(
		w.cfg.AuditQueue, // queue
		consumerTag,      // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	w.log.Info().Str("queue", w.cfg.AuditQueue).Msg("audit worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.settle(msg, w.handle(ctx, msg.Body, msg.MessageId))
		}
	}
}

func (w *AuditWorker) settle(msg amqp.Delivery, result outcome) {
	var err error
	switch result {
	case outcomeAck:
		err = msg.Ack(false)
	case outcomeRequeue:
		err = msg.Nack(false, true)
	case outcomeDrop:
		err = msg.Nack(false, false)
	}
	if err != nil {
		w.log.Error().Err(err).Str("message_id", msg.MessageId).Msg("failed to settle delivery")
	}
}

// handle разбирает и сохраняет одно сообщение. Нечитаемые сообщения
// выбрасываются, ошибки БД приводят к повторной доставке.
func (w *AuditWorker) handle(ctx context.Context, body []byte, deliveryID string) outcome {
	var msg entity.AuditMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		w.log.Error().Err(err).Bytes("body", body).Msg("dropping malformed audit message")
		return outcomeDrop
	}
	if msg.ID == "" {
		msg.ID = deliveryID
	}

	audit, err := convertToTaskAudit(&msg)
	if err != nil {
		w.log.Error().Err(err).Str("message_id", msg.ID).Msg("dropping unconvertible audit message")
		return outcomeDrop
	}

	if err := w.auditRepo.Create(ctx, audit); err != nil {
		w.log.Error().Err(err).Str("message_id", audit.MessageID).Msg("failed to store audit record")
		return outcomeRequeue
	}

	w.log.Debug().
		Str("message_id", audit.MessageID).
		Str("action", string(audit.Action)).
		Int("task_id", audit.TaskID).
		Msg("audit record stored")
	return outcomeAck
}

func convertToTaskAudit(msg *entity.AuditMessage) (*entity.TaskAudit, error) {
	oldValues, err := marshalValues(msg.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := marshalValues(msg.NewValues)
	if err != nil {
		return nil, err
	}
	changes, err := marshalValues(msg.Changes)
	if err != nil {
		return nil, err
	}

	messageID := msg.ID
	if _, err := uuid.Parse(messageID); err != nil {
		// без валидного id повторы не отсеять, но запись не теряем
		messageID = uuid.NewString()
	}

	entityType := msg.EntityType
	if entityType == "" {
		entityType = entity.EntityTask
	}
	taskID := msg.TaskID
	if taskID == 0 && entityType == entity.EntityTask {
		taskID = msg.EntityID
	}
	changedAt := msg.Timestamp
	if changedAt.IsZero() {
		changedAt = time.Now().UTC()
	}

	return &entity.TaskAudit{
		MessageID:  messageID,
		UserID:     msg.UserID,
		Action:     msg.Action,
		EntityType: entityType,
		EntityID:   msg.EntityID,
		TaskID:     taskID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Changes:    changes,
		ChangesAt:  changedAt,
	}, nil
}

func marshalValues(values map[string]any) (*string, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit values: %w", err)
	}
	s := string(raw)
	return &s, nil
}
