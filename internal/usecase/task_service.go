package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/lifecycle"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
)

type TaskService struct {
	tx            repository.ITxManager
	taskRepo      repository.ITaskRepository
	volunteerRepo repository.IVolunteerRepository
	userRepo      repository.IUserRepository
	auditRepo     repository.ITaskAuditRepository
	audit         *Auditor
	now           func() time.Time
}

func NewTaskService(
	tx repository.ITxManager,
	taskRepo repository.ITaskRepository,
	volunteerRepo repository.IVolunteerRepository,
	userRepo repository.IUserRepository,
	auditRepo repository.ITaskAuditRepository,
	audit *Auditor,
) *TaskService {
	return &TaskService{
		tx:            tx,
		taskRepo:      taskRepo,
		volunteerRepo: volunteerRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		audit:         audit,
		now:           time.Now,
	}
}

// CreateTask создает задачу в статусе OPEN, создатель - текущий пользователь
func (s *TaskService) CreateTask(ctx context.Context, req *entity.CreateTaskRequest, userID int) (*entity.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetById(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entity.ErrUserNotFound
	}

	// владелец берется из токена, а не из тела запроса
	req.CreatorID = userID

	task, err := s.taskRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	zerolog.Ctx(ctx).Info().Int("task_id", task.ID).Int("user_id", userID).Msg("task created")

	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     userID,
		Action:     entity.ActionCreate,
		EntityType: entity.EntityTask,
		EntityID:   task.ID,
		TaskID:     task.ID,
		NewValues:  taskSnapshot(task),
	})

	return task, nil
}

// GetTask возвращает задачу и действия, доступные viewerID (0 - аноним).
// Кнопки в интерфейсе и проверки при записи используют одни и те же правила.
func (s *TaskService) GetTask(ctx context.Context, taskID, viewerID int) (*entity.TaskDetail, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	apps, err := s.volunteerRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	detail := &entity.TaskDetail{
		Task:               task,
		AllowedTransitions: []entity.TaskStatus{},
		Volunteers:         entity.CountApplications(task.VolunteerSlots, apps),
	}

	if viewerID == 0 {
		return detail, nil
	}

	if viewerID == task.CreatorID {
		detail.AllowedTransitions = lifecycle.NextTaskStatuses(task.Status)
	}

	if err := lifecycle.CanUserApply(*task, viewerID, apps); err != nil {
		detail.ApplyBlockedReason = entity.ErrorCode(err)
	} else {
		detail.CanApply = true
	}

	return detail, nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter entity.TaskFilter) (*entity.TaskList, error) {
	filter.Page = entity.NewPage(filter.Page.Number, filter.Page.Limit)

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &entity.TaskList{
		Tasks:      tasks,
		Pagination: entity.NewPagination(filter.Page, total),
	}, nil
}

// UpdateTask меняет поля задачи. Редактировать можно только открытую задачу
// и только ее создателю. Число мест нельзя опустить ниже числа принятых.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID int, req *entity.UpdateTaskRequest) (*entity.Task, error) {
	updates, err := taskUpdates(req)
	if err != nil {
		return nil, err
	}

	var oldTask, updated *entity.Task
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.taskRepo.GetForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}
		if task == nil {
			return entity.ErrTaskNotFound
		}
		if task.CreatorID != userID {
			return entity.ErrForbidden
		}
		if task.Status != entity.TaskStatusOpen {
			return entity.ErrTaskNotEditable
		}

		if slots, ok := updates["volunteer_number"].(int); ok {
			apps, err := s.volunteerRepo.ListByTask(ctx, taskID)
			if err != nil {
				return fmt.Errorf("failed to list applications: %w", err)
			}
			if accepted := entity.CountApplications(task.VolunteerSlots, apps).Accepted; slots < accepted {
				return fmt.Errorf("%w: volunteer_number %d is below %d accepted volunteers",
					entity.ErrInvalidTaskData, slots, accepted)
			}
		}

		updated, err = s.taskRepo.Update(ctx, taskID, updates)
		if err != nil {
			return err
		}
		oldTask = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	oldValues, newValues := taskSnapshot(oldTask), taskSnapshot(updated)
	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     userID,
		Action:     entity.ActionUpdate,
		EntityType: entity.EntityTask,
		EntityID:   taskID,
		TaskID:     taskID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Changes:    diff(oldValues, newValues),
	})

	return updated, nil
}

func taskUpdates(req *entity.UpdateTaskRequest) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || utf8.RuneCountInString(title) > entity.MaxTitleLength {
			return nil, fmt.Errorf("%w: title must be 1..%d characters", entity.ErrInvalidTaskData, entity.MaxTitleLength)
		}
		updates["title"] = title
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, fmt.Errorf("%w: description is required", entity.ErrInvalidTaskData)
		}
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		category, err := entity.ParseTaskCategory(string(*req.Category))
		if err != nil {
			return nil, err
		}
		updates["category"] = category
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.UrgencyLevel != nil {
		if *req.UrgencyLevel < entity.UrgencyLow || *req.UrgencyLevel > entity.UrgencyHigh {
			return nil, fmt.Errorf("%w: urgency_level must be between %d and %d",
				entity.ErrInvalidTaskData, entity.UrgencyLow, entity.UrgencyHigh)
		}
		updates["urgency_level"] = *req.UrgencyLevel
	}
	if req.VolunteerSlots != nil {
		if *req.VolunteerSlots < 1 {
			return nil, fmt.Errorf("%w: volunteer_number must be positive", entity.ErrInvalidTaskData)
		}
		updates["volunteer_number"] = *req.VolunteerSlots
	}

	if len(updates) == 0 {
		return nil, entity.ErrNoFieldsToUpdate
	}
	return updates, nil
}

// UpdateStatus переводит задачу в новый статус от имени userID.
// Строка задачи блокируется, чтобы два параллельных перехода не прошли оба.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, userID int, target entity.TaskStatus) (*entity.Task, error) {
	var from entity.TaskStatus
	var updated *entity.Task

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.taskRepo.GetForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}
		if task == nil {
			return entity.ErrTaskNotFound
		}

		next, err := lifecycle.ApplyTaskTransition(*task, target, userID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"status": next.Status}
		if next.Status == entity.TaskStatusCompleted {
			updates["completed_at"] = s.now().UTC()
		}

		updated, err = s.taskRepo.Update(ctx, taskID, updates)
		if err != nil {
			return err
		}
		from = task.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int("task_id", taskID).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Msg("task status changed")

	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     userID,
		Action:     entity.ActionStatusChange,
		EntityType: entity.EntityTask,
		EntityID:   taskID,
		TaskID:     taskID,
		OldValues:  map[string]any{"status": from},
		NewValues:  map[string]any{"status": updated.Status},
		Changes:    map[string]any{"status": map[string]any{"old": from, "new": updated.Status}},
	})

	return updated, nil
}

// History - журнал изменений задачи, доступен только создателю
func (s *TaskService) History(ctx context.Context, taskID, userID int) ([]entity.TaskAudit, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CreatorID != userID {
		return nil, entity.ErrForbidden
	}

	records, err := s.auditRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}

func (s *TaskService) getTask(ctx context.Context, taskID int) (*entity.Task, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}
	return task, nil
}
