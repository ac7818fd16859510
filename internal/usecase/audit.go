package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

// RabbitMQPublisher интерфейс для публикации в RabbitMQ
type RabbitMQPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}

const auditPublishTimeout = 5 * time.Second

// Auditor отправляет события аудита асинхронно: ошибка публикации
// логируется и не влияет на результат запроса.
type Auditor struct {
	publisher RabbitMQPublisher
	wg        sync.WaitGroup
	now       func() time.Time
}

func NewAuditor(publisher RabbitMQPublisher) *Auditor {
	return &Auditor{
		publisher: publisher,
		now:       time.Now,
	}
}

// Send проставляет ID и время и публикует сообщение в фоне
func (a *Auditor) Send(ctx context.Context, msg *entity.AuditMessage) {
	if a == nil || a.publisher == nil {
		return
	}
	msg.ID = uuid.NewString()
	msg.Timestamp = a.now().UTC()

	log := zerolog.Ctx(ctx).With().
		Str("message_id", msg.ID).
		Str("action", string(msg.Action)).
		Int("task_id", msg.TaskID).
		Logger()

	// контекст запроса отменится раньше, чем уйдет сообщение
	pubCtx := context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(pubCtx, auditPublishTimeout)
		defer cancel()

		if err := a.publisher.PublishAuditMessage(ctx, msg); err != nil {
			log.Error().Err(err).Msg("failed to publish audit message")
		}
	}()
}

// Wait дожидается отправки всех сообщений, используется при остановке
func (a *Auditor) Wait() {
	a.wg.Wait()
}

// taskSnapshot - значения задачи, которые попадают в аудит
func taskSnapshot(t *entity.Task) map[string]any {
	if t == nil {
		return nil
	}
	return map[string]any{
		"title":            t.Title,
		"description":      t.Description,
		"category":         t.Category,
		"location":         t.Location,
		"deadline":         t.Deadline,
		"urgency_level":    t.UrgencyLevel,
		"volunteer_number": t.VolunteerSlots,
		"status":           t.Status,
		"creator_id":       t.CreatorID,
	}
}

// diff - поля, значения которых различаются
func diff(oldValues, newValues map[string]any) map[string]any {
	changes := make(map[string]any)
	for field, newValue := range newValues {
		oldValue := oldValues[field]
		if !sameValue(oldValue, newValue) {
			changes[field] = map[string]any{"old": oldValue, "new": newValue}
		}
	}
	return changes
}

func sameValue(a, b any) bool {
	at, aok := a.(*time.Time)
	bt, bok := b.(*time.Time)
	if aok || bok {
		switch {
		case at == nil || bt == nil:
			return at == nil && bt == nil
		default:
			return at.Equal(*bt)
		}
	}
	return a == b
}
