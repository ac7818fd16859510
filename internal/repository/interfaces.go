package repository

import (
	"context"
	"time"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

// ITxManager - интерфейс для TxManager
type ITxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ITaskRepository - интерфейс для TaskRepository
type ITaskRepository interface {
	Create(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error)
	GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error)
	// GetForUpdate блокирует строку задачи до конца транзакции
	GetForUpdate(ctx context.Context, taskId int) (*entity.Task, error)
	Update(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error)
	List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, int, error)
}

// IVolunteerRepository - интерфейс для VolunteerRepository
type IVolunteerRepository interface {
	Create(ctx context.Context, taskID, userID int) (*entity.VolunteerApplication, error)
	GetById(ctx context.Context, id int) (*entity.VolunteerApplication, error)
	ListByTask(ctx context.Context, taskID int) ([]entity.VolunteerApplication, error)
	ListByUser(ctx context.Context, userID int, filter entity.ApplicationFilter) ([]entity.VolunteerApplication, error)
	UpdateStatus(ctx context.Context, id int, status entity.VolunteerStatus) (*entity.VolunteerApplication, error)
}

// IReviewRepository - интерфейс для ReviewRepository
type IReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) (*entity.Review, error)
	GetById(ctx context.Context, id int) (*entity.Review, error)
	Update(ctx context.Context, id int, score int, comment string) (*entity.Review, error)
	ListByTask(ctx context.Context, taskID int) ([]entity.Review, error)
	ListByReviewee(ctx context.Context, userID int, page entity.Page) ([]entity.Review, int, error)
	ScoresByReviewee(ctx context.Context, userID int) ([]int, error)
}

// IUserRepository - интерфейс для UserRepository
type IUserRepository interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	GetById(ctx context.Context, id int) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

// IRefreshTokenRepository - интерфейс для RefreshTokenRepository
type IRefreshTokenRepository interface {
	Save(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAll(ctx context.Context, userID int) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// ITaskAuditRepository - интерфейс для TaskAuditRepository
type ITaskAuditRepository interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
	ListByTask(ctx context.Context, taskID int) ([]entity.TaskAudit, error)
}
