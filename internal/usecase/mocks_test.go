package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
)

// MockTxManager выполняет функцию без транзакции
type MockTxManager struct {
	Calls int
}

var _ repository.ITxManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// MockTaskRepository - мок для ITaskRepository
type MockTaskRepository struct {
	CreateFunc       func(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error)
	GetByTaskIdFunc  func(ctx context.Context, taskId int) (*entity.Task, error)
	GetForUpdateFunc func(ctx context.Context, taskId int) (*entity.Task, error)
	UpdateFunc       func(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error)
	ListFunc         func(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, int, error)
}

var _ repository.ITaskRepository = (*MockTaskRepository)(nil)

func (m *MockTaskRepository) Create(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	return nil, nil
}

func (m *MockTaskRepository) GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error) {
	if m.GetByTaskIdFunc != nil {
		return m.GetByTaskIdFunc(ctx, taskId)
	}
	return nil, nil
}

func (m *MockTaskRepository) GetForUpdate(ctx context.Context, taskId int) (*entity.Task, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, taskId)
	}
	return m.GetByTaskId(ctx, taskId)
}

func (m *MockTaskRepository) Update(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, updates)
	}
	return nil, nil
}

func (m *MockTaskRepository) List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, 0, nil
}

// MockVolunteerRepository - мок для IVolunteerRepository
type MockVolunteerRepository struct {
	CreateFunc       func(ctx context.Context, taskID, userID int) (*entity.VolunteerApplication, error)
	GetByIdFunc      func(ctx context.Context, id int) (*entity.VolunteerApplication, error)
	ListByTaskFunc   func(ctx context.Context, taskID int) ([]entity.VolunteerApplication, error)
	ListByUserFunc   func(ctx context.Context, userID int, filter entity.ApplicationFilter) ([]entity.VolunteerApplication, error)
	UpdateStatusFunc func(ctx context.Context, id int, status entity.VolunteerStatus) (*entity.VolunteerApplication, error)
}

var _ repository.IVolunteerRepository = (*MockVolunteerRepository)(nil)

func (m *MockVolunteerRepository) Create(ctx context.Context, taskID, userID int) (*entity.VolunteerApplication, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, taskID, userID)
	}
	return nil, nil
}

func (m *MockVolunteerRepository) GetById(ctx context.Context, id int) (*entity.VolunteerApplication, error) {
	if m.GetByIdFunc != nil {
		return m.GetByIdFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockVolunteerRepository) ListByTask(ctx context.Context, taskID int) ([]entity.VolunteerApplication, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return nil, nil
}

func (m *MockVolunteerRepository) ListByUser(ctx context.Context, userID int, filter entity.ApplicationFilter) ([]entity.VolunteerApplication, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockVolunteerRepository) UpdateStatus(ctx context.Context, id int, status entity.VolunteerStatus) (*entity.VolunteerApplication, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, nil
}

// MockReviewRepository - мок для IReviewRepository
type MockReviewRepository struct {
	CreateFunc           func(ctx context.Context, review *entity.Review) (*entity.Review, error)
	GetByIdFunc          func(ctx context.Context, id int) (*entity.Review, error)
	UpdateFunc           func(ctx context.Context, id int, score int, comment string) (*entity.Review, error)
	ListByTaskFunc       func(ctx context.Context, taskID int) ([]entity.Review, error)
	ListByRevieweeFunc   func(ctx context.Context, userID int, page entity.Page) ([]entity.Review, int, error)
	ScoresByRevieweeFunc func(ctx context.Context, userID int) ([]int, error)
}

var _ repository.IReviewRepository = (*MockReviewRepository)(nil)

func (m *MockReviewRepository) Create(ctx context.Context, review *entity.Review) (*entity.Review, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, review)
	}
	return nil, nil
}

func (m *MockReviewRepository) GetById(ctx context.Context, id int) (*entity.Review, error) {
	if m.GetByIdFunc != nil {
		return m.GetByIdFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockReviewRepository) Update(ctx context.Context, id int, score int, comment string) (*entity.Review, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, score, comment)
	}
	return nil, nil
}

func (m *MockReviewRepository) ListByTask(ctx context.Context, taskID int) ([]entity.Review, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return nil, nil
}

func (m *MockReviewRepository) ListByReviewee(ctx context.Context, userID int, page entity.Page) ([]entity.Review, int, error) {
	if m.ListByRevieweeFunc != nil {
		return m.ListByRevieweeFunc(ctx, userID, page)
	}
	return nil, 0, nil
}

func (m *MockReviewRepository) ScoresByReviewee(ctx context.Context, userID int) ([]int, error) {
	if m.ScoresByRevieweeFunc != nil {
		return m.ScoresByRevieweeFunc(ctx, userID)
	}
	return nil, nil
}

// MockUserRepository - мок для IUserRepository
type MockUserRepository struct {
	CreateFunc          func(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByIdFunc         func(ctx context.Context, id int) (*entity.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*entity.User, error)
	UpdateLastLoginFunc func(ctx context.Context, id int, at time.Time) error
}

var _ repository.IUserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, nil
}

func (m *MockUserRepository) GetById(ctx context.Context, id int) (*entity.User, error) {
	if m.GetByIdFunc != nil {
		return m.GetByIdFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockRefreshTokenRepository хранит токены в памяти
type MockRefreshTokenRepository struct {
	Tokens map[string]*repository.RefreshToken
}

var _ repository.IRefreshTokenRepository = (*MockRefreshTokenRepository)(nil)

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{Tokens: make(map[string]*repository.RefreshToken)}
}

func (m *MockRefreshTokenRepository) Save(_ context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	m.Tokens[tokenHash] = &repository.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *MockRefreshTokenRepository) GetByHash(_ context.Context, tokenHash string) (*repository.RefreshToken, error) {
	token, ok := m.Tokens[tokenHash]
	if !ok || token.Revoked {
		return nil, nil
	}
	return token, nil
}

func (m *MockRefreshTokenRepository) Revoke(_ context.Context, tokenHash string) error {
	if token, ok := m.Tokens[tokenHash]; ok {
		token.Revoked = true
	}
	return nil
}

func (m *MockRefreshTokenRepository) RevokeAll(_ context.Context, userID int) error {
	for _, token := range m.Tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *MockRefreshTokenRepository) CleanupExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// MockTaskAuditRepository - мок для ITaskAuditRepository
type MockTaskAuditRepository struct {
	CreateFunc     func(ctx context.Context, audit *entity.TaskAudit) error
	ListByTaskFunc func(ctx context.Context, taskID int) ([]entity.TaskAudit, error)
}

var _ repository.ITaskAuditRepository = (*MockTaskAuditRepository)(nil)

func (m *MockTaskAuditRepository) Create(ctx context.Context, audit *entity.TaskAudit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, audit)
	}
	return nil
}

func (m *MockTaskAuditRepository) ListByTask(ctx context.Context, taskID int) ([]entity.TaskAudit, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return nil, nil
}

// MockRabbitMQPublisher запоминает опубликованные сообщения
type MockRabbitMQPublisher struct {
	mu       sync.Mutex
	Err      error
	Messages []*entity.AuditMessage
}

var _ RabbitMQPublisher = (*MockRabbitMQPublisher)(nil)

func (m *MockRabbitMQPublisher) PublishAuditMessage(_ context.Context, message *entity.AuditMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, message)
	return nil
}

func (m *MockRabbitMQPublisher) Published() []*entity.AuditMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.AuditMessage(nil), m.Messages...)
}

// memVolunteers - заявки в памяти, для сценариев с несколькими вызовами
type memVolunteers struct {
	MockVolunteerRepository
	apps   []entity.VolunteerApplication
	nextID int
}

func newMemVolunteers(apps ...entity.VolunteerApplication) *memVolunteers {
	m := &memVolunteers{apps: apps, nextID: 100}
	m.CreateFunc = func(_ context.Context, taskID, userID int) (*entity.VolunteerApplication, error) {
		m.nextID++
		app := entity.VolunteerApplication{ID: m.nextID, TaskID: taskID, VolunteerUserID: userID, Status: entity.VolunteerStatusPending}
		m.apps = append(m.apps, app)
		return &app, nil
	}
	m.GetByIdFunc = func(_ context.Context, id int) (*entity.VolunteerApplication, error) {
		for _, app := range m.apps {
			if app.ID == id {
				return &app, nil
			}
		}
		return nil, nil
	}
	m.ListByTaskFunc = func(_ context.Context, taskID int) ([]entity.VolunteerApplication, error) {
		var out []entity.VolunteerApplication
		for _, app := range m.apps {
			if app.TaskID == taskID {
				out = append(out, app)
			}
		}
		return out, nil
	}
	m.UpdateStatusFunc = func(_ context.Context, id int, status entity.VolunteerStatus) (*entity.VolunteerApplication, error) {
		for i := range m.apps {
			if m.apps[i].ID == id {
				m.apps[i].Status = status
				app := m.apps[i]
				return &app, nil
			}
		}
		return nil, entity.ErrApplicationNotFound
	}
	return m
}

func taskRepoWith(task *entity.Task) *MockTaskRepository {
	return &MockTaskRepository{
		GetByTaskIdFunc: func(_ context.Context, id int) (*entity.Task, error) {
			if task == nil || id != task.ID {
				return nil, nil
			}
			copied := *task
			return &copied, nil
		},
	}
}
