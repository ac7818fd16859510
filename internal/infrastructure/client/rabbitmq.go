package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

var ErrPublisherClosed = errors.New("rabbitmq publisher is closed")

// RabbitMQClient публикует сообщения аудита. Канал AMQP не потокобезопасен
// для публикации, поэтому вызовы сериализуются мьютексом.
type RabbitMQClient struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     zerolog.Logger
}

func NewRabbitMQClient(cfg config.RabbitMQConfig, log zerolog.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareAuditQueue(channel, cfg.AuditQueue); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
		queue:   cfg.AuditQueue,
		log:     log.With().Str("component", "audit_publisher").Logger(),
	}, nil
}

// DeclareAuditQueue объявляет durable очередь аудита.
// Используется и публикатором, и воркером, поэтому параметры должны совпадать.
func DeclareAuditQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

func (c *RabbitMQClient) PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal audit message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil || c.channel.IsClosed() {
		return ErrPublisherClosed
	}

	err = c.channel.PublishWithContext(
		ctx,
		"",      // exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    message.ID,
			Timestamp:    message.Timestamp,
			Body:         body,
			DeliveryMode: amqp.Persistent, // Сообщения сохраняются на диск
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish audit message: %w", err)
	}

	c.log.Debug().
		Str("message_id", message.ID).
		Str("action", string(message.Action)).
		Int("task_id", message.TaskID).
		Msg("audit message published")
	return nil
}

func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		errs = append(errs, c.channel.Close())
		c.channel = nil
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
		c.conn = nil
	}
	return errors.Join(errs...)
}
