package repository

import (
	"context"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskAuditRepository struct {
	db *pgxpool.Pool
}

func NewTaskAuditRepository(db *pgxpool.Pool) *TaskAuditRepository {
	return &TaskAuditRepository{
		db: db,
	}
}

// Create сохраняет запись аудита. Повторная доставка того же сообщения
// (тот же message_id) ничего не меняет.
func (r *TaskAuditRepository) Create(ctx context.Context, audit *entity.TaskAudit) error {
	query := `
	INSERT INTO task_audit (message_id, user_id, action, entity_type, entity_id, task_id, old_values, new_values, changes, changed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (message_id) DO NOTHING
	`

	_, err := conn(ctx, r.db).Exec(
		ctx,
		query,
		audit.MessageID,
		audit.UserID,
		audit.Action,
		audit.EntityType,
		audit.EntityID,
		audit.TaskID,
		audit.OldValues,
		audit.NewValues,
		audit.Changes,
		audit.ChangesAt,
	)
	return err
}

// ListByTask - история задачи и всех связанных с ней сущностей
func (r *TaskAuditRepository) ListByTask(ctx context.Context, taskID int) ([]entity.TaskAudit, error) {
	query := `
	SELECT id, message_id, user_id, action, entity_type, entity_id, task_id, old_values, new_values, changes, changed_at
	FROM task_audit
	WHERE task_id = $1
	ORDER BY changed_at DESC, id DESC
	`
	rows, err := conn(ctx, r.db).Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := []entity.TaskAudit{}
	for rows.Next() {
		var audit entity.TaskAudit
		err := rows.Scan(
			&audit.ID,
			&audit.MessageID,
			&audit.UserID,
			&audit.Action,
			&audit.EntityType,
			&audit.EntityID,
			&audit.TaskID,
			&audit.OldValues,
			&audit.NewValues,
			&audit.Changes,
			&audit.ChangesAt,
		)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
