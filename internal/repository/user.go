package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, surname, username, email, password_hash, is_active, last_login, created_at, updated_at`

const userEmailConstraint = "users_email_key"

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Surname,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// создаем пользователя
func (r *UserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `
	INSERT INTO users (name, surname, username, email, password_hash)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + userColumns

	created, err := scanUser(conn(ctx, r.db).QueryRow(ctx, query,
		user.Name,
		user.Surname,
		user.Username,
		user.Email,
		user.PasswordHash,
	))
	if err != nil {
		if isUniqueViolation(err, userEmailConstraint) {
			return nil, entity.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// получаем данные по id
func (r *UserRepository) GetById(ctx context.Context, id int) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user, err := scanUser(conn(ctx, r.db).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE users SET last_login = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, at, id)
	return err
}
