package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, category, location, deadline, urgency_level,
	volunteer_number, status, creator_id, completed_at, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern - шаблон ILIKE для подстроки; спецсимволы LIKE экранируются
func searchPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// колонки, которые разрешено менять через Update
var taskUpdatableColumns = map[string]bool{
	"title":            true,
	"description":      true,
	"category":         true,
	"location":         true,
	"deadline":         true,
	"urgency_level":    true,
	"volunteer_number": true,
	"status":           true,
	"completed_at":     true,
}

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var task entity.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Category,
		&task.Location,
		&task.Deadline,
		&task.UrgencyLevel,
		&task.VolunteerSlots,
		&task.Status,
		&task.CreatorID,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error) {
	query := `
	INSERT INTO task (title, description, category, location, deadline, urgency_level, volunteer_number, status, creator_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + taskColumns

	return scanTask(conn(ctx, r.db).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Category,
		task.Location,
		task.Deadline,
		task.UrgencyLevel,
		task.VolunteerSlots,
		entity.TaskStatusOpen,
		task.CreatorID,
	))
}

func (r *TaskRepository) GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM task WHERE id = $1`, taskId)
}

func (r *TaskRepository) GetForUpdate(ctx context.Context, taskId int) (*entity.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM task WHERE id = $1 FOR UPDATE`, taskId)
}

func (r *TaskRepository) get(ctx context.Context, query string, taskId int) (*entity.Task, error) {
	task, err := scanTask(conn(ctx, r.db).QueryRow(ctx, query, taskId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// Update - обновление задачи
func (r *TaskRepository) Update(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error) {
	// порядок полей фиксируем, чтобы запрос был детерминированным
	fields := make([]string, 0, len(updates))
	for field := range updates {
		if !taskUpdatableColumns[field] {
			continue
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return nil, entity.ErrNoFieldsToUpdate
	}
	sort.Strings(fields)

	setClause := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+1)
	for i, field := range fields {
		setClause = append(setClause, field+" = $"+strconv.Itoa(i+1))
		args = append(args, updates[field])
	}
	setClause = append(setClause, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := `
	UPDATE task
	SET ` + strings.Join(setClause, ", ") + `
	WHERE id = $` + strconv.Itoa(len(args)) + `
	RETURNING ` + taskColumns

	task, err := scanTask(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// List - список задач с фильтрацией и пагинацией
func (r *TaskRepository) List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.CreatorID != 0 {
		args = append(args, filter.CreatorID)
		where = append(where, "creator_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, searchPattern(filter.Search))
		n := strconv.Itoa(len(args))
		where = append(where, "(title ILIKE $"+n+" OR description ILIKE $"+n+")")
	}
	whereClause := strings.Join(where, " AND ")

	db := conn(ctx, r.db)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM task WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Limit, filter.Page.Offset())
	query := `SELECT ` + taskColumns + ` FROM task WHERE ` + whereClause +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, total, rows.Err()
}
