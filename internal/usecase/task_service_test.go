package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

func newTestTaskService(taskRepo *MockTaskRepository, volunteers *memVolunteers, userRepo *MockUserRepository) (*TaskService, *MockRabbitMQPublisher, *Auditor) {
	publisher := &MockRabbitMQPublisher{}
	auditor := NewAuditor(publisher)
	if userRepo == nil {
		userRepo = &MockUserRepository{}
	}
	if volunteers == nil {
		volunteers = newMemVolunteers()
	}
	service := NewTaskService(&MockTxManager{}, taskRepo, volunteers, userRepo, &MockTaskAuditRepository{}, auditor)
	return service, publisher, auditor
}

func TestCreateTaskSuccess(t *testing.T) {
	ctx := context.Background()
	mockUser := &entity.User{ID: 1, Name: "Test User"}

	var created *entity.CreateTaskRequest
	mockTaskRepo := &MockTaskRepository{
		CreateFunc: func(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error) {
			created = task
			return &entity.Task{
				ID:             1,
				Title:          task.Title,
				Description:    task.Description,
				VolunteerSlots: task.VolunteerSlots,
				UrgencyLevel:   task.UrgencyLevel,
				Status:         entity.TaskStatusOpen,
				CreatorID:      task.CreatorID,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}, nil
		},
	}
	mockUserRepo := &MockUserRepository{
		GetByIdFunc: func(ctx context.Context, id int) (*entity.User, error) {
			if id == 1 {
				return mockUser, nil
			}
			return nil, nil
		},
	}

	service, publisher, auditor := newTestTaskService(mockTaskRepo, nil, mockUserRepo)

	req := &entity.CreateTaskRequest{
		Title:       "Test Task",
		Description: "Test Description",
		CreatorID:   99,
	}

	result, err := service.CreateTask(ctx, req, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Status != entity.TaskStatusOpen {
		t.Errorf("Expected status OPEN, got %s", result.Status)
	}
	if created.CreatorID != 1 {
		t.Errorf("Expected creator from caller, got %d", created.CreatorID)
	}

	auditor.Wait()
	msgs := publisher.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, entity.ActionCreate, msgs[0].Action)
	assert.NotEmpty(t, msgs[0].ID)
	assert.Equal(t, 1, msgs[0].TaskID)
}

func TestCreateTaskUserNotFound(t *testing.T) {
	service, _, _ := newTestTaskService(&MockTaskRepository{}, nil, &MockUserRepository{})

	req := &entity.CreateTaskRequest{
		Title:       "Test Task",
		Description: "Test Description",
	}

	result, err := service.CreateTask(context.Background(), req, 999)
	if !errors.Is(err, entity.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil task, got %v", result)
	}
}

func TestCreateTaskInvalid(t *testing.T) {
	service, _, _ := newTestTaskService(&MockTaskRepository{}, nil, nil)

	_, err := service.CreateTask(context.Background(), &entity.CreateTaskRequest{Title: "  "}, 1)
	assert.ErrorIs(t, err, entity.ErrInvalidTaskData)
}

func TestGetTaskAffordances(t *testing.T) {
	task := &entity.Task{ID: 5, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
	volunteers := newMemVolunteers(
		entity.VolunteerApplication{ID: 1, TaskID: 5, VolunteerUserID: 2, Status: entity.VolunteerStatusPending},
	)
	service, _, _ := newTestTaskService(taskRepoWith(task), volunteers, nil)
	ctx := context.Background()

	t.Run("creator sees transitions", func(t *testing.T) {
		detail, err := service.GetTask(ctx, 5, 1)
		require.NoError(t, err)
		assert.Equal(t, []entity.TaskStatus{entity.TaskStatusInProgress, entity.TaskStatusCancelled}, detail.AllowedTransitions)
		assert.False(t, detail.CanApply)
		assert.Equal(t, "own_task", detail.ApplyBlockedReason)
		assert.Equal(t, 1, detail.Volunteers.Pending)
	})

	t.Run("applicant with pending application", func(t *testing.T) {
		detail, err := service.GetTask(ctx, 5, 2)
		require.NoError(t, err)
		assert.Empty(t, detail.AllowedTransitions)
		assert.False(t, detail.CanApply)
		assert.Equal(t, "duplicate_application", detail.ApplyBlockedReason)
	})

	t.Run("new user can apply", func(t *testing.T) {
		detail, err := service.GetTask(ctx, 5, 3)
		require.NoError(t, err)
		assert.True(t, detail.CanApply)
		assert.Empty(t, detail.ApplyBlockedReason)
	})

	t.Run("anonymous", func(t *testing.T) {
		detail, err := service.GetTask(ctx, 5, 0)
		require.NoError(t, err)
		assert.False(t, detail.CanApply)
		assert.NotNil(t, detail.AllowedTransitions)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := service.GetTask(ctx, 6, 1)
		assert.ErrorIs(t, err, entity.ErrTaskNotFound)
	})
}

func TestListTasksNormalizesPage(t *testing.T) {
	var got entity.TaskFilter
	repo := &MockTaskRepository{
		ListFunc: func(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, int, error) {
			got = filter
			return []entity.Task{{ID: 1}}, 45, nil
		},
	}
	service, _, _ := newTestTaskService(repo, nil, nil)

	list, err := service.ListTasks(context.Background(), entity.TaskFilter{
		Category: entity.CategoryTutoring,
		Search:   "math",
		Page:     entity.Page{Number: 0, Limit: 500},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.Page{Number: 1, Limit: entity.MaxPageLimit}, got.Page)
	assert.Equal(t, entity.CategoryTutoring, got.Category)
	assert.Equal(t, "math", got.Search)
	assert.Equal(t, 45, list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.TotalPages)
}

func TestUpdateTaskSuccess(t *testing.T) {
	oldTask := &entity.Task{ID: 1, Title: "Old Title", Description: "Old", Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}

	repo := taskRepoWith(oldTask)
	repo.UpdateFunc = func(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error) {
		updated := *oldTask
		updated.Title = updates["title"].(string)
		return &updated, nil
	}
	service, publisher, auditor := newTestTaskService(repo, nil, nil)

	title := "  New Title "
	result, err := service.UpdateTask(context.Background(), 1, 1, &entity.UpdateTaskRequest{Title: &title})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Title != "New Title" {
		t.Errorf("Expected title %q, got %q", "New Title", result.Title)
	}

	auditor.Wait()
	msgs := publisher.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]any{"old": "Old Title", "new": "New Title"}, msgs[0].Changes["title"])
	assert.Len(t, msgs[0].Changes, 1)
}

func TestUpdateTaskRules(t *testing.T) {
	title := "x"
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		service, _, _ := newTestTaskService(taskRepoWith(nil), nil, nil)
		_, err := service.UpdateTask(ctx, 999, 1, &entity.UpdateTaskRequest{Title: &title})
		assert.ErrorIs(t, err, entity.ErrTaskNotFound)
	})

	t.Run("not creator", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
		service, _, _ := newTestTaskService(taskRepoWith(task), nil, nil)
		_, err := service.UpdateTask(ctx, 1, 2, &entity.UpdateTaskRequest{Title: &title})
		assert.ErrorIs(t, err, entity.ErrForbidden)
	})

	t.Run("not open", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusInProgress, CreatorID: 1, VolunteerSlots: 1}
		service, _, _ := newTestTaskService(taskRepoWith(task), nil, nil)
		_, err := service.UpdateTask(ctx, 1, 1, &entity.UpdateTaskRequest{Title: &title})
		assert.ErrorIs(t, err, entity.ErrTaskNotEditable)
	})

	t.Run("no fields", func(t *testing.T) {
		service, _, _ := newTestTaskService(taskRepoWith(nil), nil, nil)
		_, err := service.UpdateTask(ctx, 1, 1, &entity.UpdateTaskRequest{})
		assert.ErrorIs(t, err, entity.ErrNoFieldsToUpdate)
	})

	t.Run("slots below accepted", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 3}
		volunteers := newMemVolunteers(
			entity.VolunteerApplication{ID: 1, TaskID: 1, VolunteerUserID: 2, Status: entity.VolunteerStatusAccepted},
			entity.VolunteerApplication{ID: 2, TaskID: 1, VolunteerUserID: 3, Status: entity.VolunteerStatusAccepted},
		)
		service, _, _ := newTestTaskService(taskRepoWith(task), volunteers, nil)
		slots := 1
		_, err := service.UpdateTask(ctx, 1, 1, &entity.UpdateTaskRequest{VolunteerSlots: &slots})
		assert.ErrorIs(t, err, entity.ErrInvalidTaskData)
	})

	t.Run("unknown category", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
		service, _, _ := newTestTaskService(taskRepoWith(task), nil, nil)
		category := entity.TaskCategory("GARDENING")
		_, err := service.UpdateTask(ctx, 1, 1, &entity.UpdateTaskRequest{Category: &category})
		assert.ErrorIs(t, err, entity.ErrInvalidTaskData)
	})

	t.Run("title counted in characters", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
		repo := taskRepoWith(task)
		var updates map[string]interface{}
		repo.UpdateFunc = func(ctx context.Context, id int, u map[string]interface{}) (*entity.Task, error) {
			updates = u
			return task, nil
		}
		service, _, _ := newTestTaskService(repo, nil, nil)

		// 200 символов, 400 байт
		long := strings.Repeat("ğ", 200)
		_, err := service.UpdateTask(ctx, 1, 1, &entity.UpdateTaskRequest{Title: &long})
		require.NoError(t, err)
		assert.Equal(t, long, updates["title"])

		tooLong := strings.Repeat("ğ", entity.MaxTitleLength+1)
		_, err = service.UpdateTask(ctx, 1, 1, &entity.UpdateTaskRequest{Title: &tooLong})
		assert.ErrorIs(t, err, entity.ErrInvalidTaskData)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	newService := func(status entity.TaskStatus) (*TaskService, *map[string]interface{}, *MockRabbitMQPublisher, *Auditor) {
		task := &entity.Task{ID: 1, Status: status, CreatorID: 1, VolunteerSlots: 1}
		var applied map[string]interface{}
		repo := taskRepoWith(task)
		repo.UpdateFunc = func(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error) {
			applied = updates
			updated := *task
			updated.Status = updates["status"].(entity.TaskStatus)
			return &updated, nil
		}
		service, publisher, auditor := newTestTaskService(repo, nil, nil)
		service.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
		return service, &applied, publisher, auditor
	}

	t.Run("open to in progress", func(t *testing.T) {
		service, applied, publisher, auditor := newService(entity.TaskStatusOpen)
		task, err := service.UpdateStatus(ctx, 1, 1, entity.TaskStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, entity.TaskStatusInProgress, task.Status)
		assert.NotContains(t, *applied, "completed_at")

		auditor.Wait()
		msgs := publisher.Published()
		require.Len(t, msgs, 1)
		assert.Equal(t, entity.ActionStatusChange, msgs[0].Action)
	})

	t.Run("completion stamps completed_at", func(t *testing.T) {
		service, applied, _, _ := newService(entity.TaskStatusInProgress)
		_, err := service.UpdateStatus(ctx, 1, 1, entity.TaskStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC), (*applied)["completed_at"])
	})

	t.Run("skip in progress", func(t *testing.T) {
		service, applied, _, _ := newService(entity.TaskStatusOpen)
		_, err := service.UpdateStatus(ctx, 1, 1, entity.TaskStatusCompleted)
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
		assert.Nil(t, *applied)
	})

	t.Run("not creator", func(t *testing.T) {
		service, _, publisher, auditor := newService(entity.TaskStatusOpen)
		_, err := service.UpdateStatus(ctx, 1, 2, entity.TaskStatusCancelled)
		assert.ErrorIs(t, err, entity.ErrUnauthorized)
		auditor.Wait()
		assert.Empty(t, publisher.Published())
	})

	t.Run("terminal", func(t *testing.T) {
		service, _, _, _ := newService(entity.TaskStatusCancelled)
		_, err := service.UpdateStatus(ctx, 1, 1, entity.TaskStatusOpen)
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})
}

func TestHistoryOnlyForCreator(t *testing.T) {
	task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
	publisher := &MockRabbitMQPublisher{}
	auditRepo := &MockTaskAuditRepository{
		ListByTaskFunc: func(ctx context.Context, taskID int) ([]entity.TaskAudit, error) {
			return []entity.TaskAudit{{ID: 1, TaskID: taskID, Action: entity.ActionCreate}}, nil
		},
	}
	service := NewTaskService(&MockTxManager{}, taskRepoWith(task), newMemVolunteers(), &MockUserRepository{}, auditRepo, NewAuditor(publisher))

	records, err := service.History(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = service.History(context.Background(), 1, 2)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestAuditorPublishFailureDoesNotPropagate(t *testing.T) {
	publisher := &MockRabbitMQPublisher{Err: errors.New("broker down")}
	auditor := NewAuditor(publisher)

	auditor.Send(context.Background(), &entity.AuditMessage{Action: entity.ActionCreate})
	auditor.Wait()
	assert.Empty(t, publisher.Published())
}

func TestDiff(t *testing.T) {
	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	same := deadline
	oldValues := map[string]any{"title": "a", "deadline": &deadline, "status": entity.TaskStatusOpen}
	newValues := map[string]any{"title": "b", "deadline": &same, "status": entity.TaskStatusOpen}

	changes := diff(oldValues, newValues)
	assert.Equal(t, map[string]any{"title": map[string]any{"old": "a", "new": "b"}}, changes)
}
