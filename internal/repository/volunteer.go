package repository

import (
	"context"
	"errors"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const volunteerColumns = `id, task_id, user_id, status, volunteered_at, updated_at`

// uniq_active_volunteer - частичный уникальный индекс из миграции
const activeVolunteerConstraint = "uniq_active_volunteer"

type VolunteerRepository struct {
	db *pgxpool.Pool
}

func NewVolunteerRepository(db *pgxpool.Pool) *VolunteerRepository {
	return &VolunteerRepository{
		db: db,
	}
}

func scanApplication(row pgx.Row) (*entity.VolunteerApplication, error) {
	var app entity.VolunteerApplication
	err := row.Scan(
		&app.ID,
		&app.TaskID,
		&app.VolunteerUserID,
		&app.Status,
		&app.VolunteeredAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func collectApplications(rows pgx.Rows) ([]entity.VolunteerApplication, error) {
	defer rows.Close()

	apps := []entity.VolunteerApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// Create - новая заявка в статусе PENDING
func (r *VolunteerRepository) Create(ctx context.Context, taskID, userID int) (*entity.VolunteerApplication, error) {
	query := `
	INSERT INTO volunteer (task_id, user_id, status)
	VALUES ($1, $2, $3)
	RETURNING ` + volunteerColumns

	app, err := scanApplication(conn(ctx, r.db).QueryRow(ctx, query, taskID, userID, entity.VolunteerStatusPending))
	if err != nil {
		if isUniqueViolation(err, activeVolunteerConstraint) {
			return nil, entity.ErrDuplicateApplication
		}
		return nil, err
	}
	return app, nil
}

func (r *VolunteerRepository) GetById(ctx context.Context, id int) (*entity.VolunteerApplication, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteer WHERE id = $1`

	app, err := scanApplication(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return app, nil
}

// ListByTask - все заявки на задачу, включая отозванные
func (r *VolunteerRepository) ListByTask(ctx context.Context, taskID int) ([]entity.VolunteerApplication, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteer WHERE task_id = $1 ORDER BY volunteered_at DESC, id DESC`

	rows, err := conn(ctx, r.db).Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ListByUser - заявки пользователя. Без фильтра отозванные не возвращаются.
func (r *VolunteerRepository) ListByUser(ctx context.Context, userID int, filter entity.ApplicationFilter) ([]entity.VolunteerApplication, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteer WHERE user_id = $1`
	args := []interface{}{userID}

	switch {
	case filter.Status != "":
		query += ` AND status = $2`
		args = append(args, filter.Status)
	case !filter.All:
		query += ` AND status <> $2`
		args = append(args, entity.VolunteerStatusWithdrawn)
	}
	query += ` ORDER BY volunteered_at DESC, id DESC`

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (r *VolunteerRepository) UpdateStatus(ctx context.Context, id int, status entity.VolunteerStatus) (*entity.VolunteerApplication, error) {
	query := `
	UPDATE volunteer
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $2
	RETURNING ` + volunteerColumns

	app, err := scanApplication(conn(ctx, r.db).QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}
