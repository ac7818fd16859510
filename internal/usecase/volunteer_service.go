package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/lifecycle"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
)

type VolunteerService struct {
	tx            repository.ITxManager
	taskRepo      repository.ITaskRepository
	volunteerRepo repository.IVolunteerRepository
	audit         *Auditor
}

func NewVolunteerService(
	tx repository.ITxManager,
	taskRepo repository.ITaskRepository,
	volunteerRepo repository.IVolunteerRepository,
	audit *Auditor,
) *VolunteerService {
	return &VolunteerService{
		tx:            tx,
		taskRepo:      taskRepo,
		volunteerRepo: volunteerRepo,
		audit:         audit,
	}
}

// Apply создает заявку userID на задачу. Строка задачи блокируется на время
// проверки, поэтому параллельные отклики видят друг друга.
func (s *VolunteerService) Apply(ctx context.Context, taskID, userID int) (*entity.VolunteerApplication, error) {
	var created *entity.VolunteerApplication

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, apps, err := s.lockTask(ctx, taskID)
		if err != nil {
			return err
		}

		if err := lifecycle.CanUserApply(*task, userID, apps); err != nil {
			return err
		}

		created, err = s.volunteerRepo.Create(ctx, taskID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int("task_id", taskID).
		Int("application_id", created.ID).
		Int("user_id", userID).
		Msg("volunteer applied")

	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     userID,
		Action:     entity.ActionApply,
		EntityType: entity.EntityApplication,
		EntityID:   created.ID,
		TaskID:     taskID,
		NewValues:  map[string]any{"status": created.Status, "volunteer_id": userID},
	})

	return created, nil
}

// ListForTask - заявки на задачу. Создатель видит все, остальные только принятые.
func (s *VolunteerService) ListForTask(
	ctx context.Context,
	taskID, viewerID int,
	status entity.VolunteerStatus,
) ([]entity.VolunteerApplication, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}

	apps, err := s.volunteerRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	if viewerID != task.CreatorID {
		status = entity.VolunteerStatusAccepted
	}

	result := make([]entity.VolunteerApplication, 0, len(apps))
	for _, app := range apps {
		if status != "" && app.Status != status {
			continue
		}
		result = append(result, app)
	}
	return result, nil
}

// ListMine - заявки пользователя
func (s *VolunteerService) ListMine(ctx context.Context, userID int, filter entity.ApplicationFilter) ([]entity.VolunteerApplication, error) {
	apps, err := s.volunteerRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// Respond меняет статус заявки: создатель задачи принимает или отклоняет,
// заявитель отзывает. При принятии повторно считаются занятые места.
func (s *VolunteerService) Respond(
	ctx context.Context,
	applicationID, userID int,
	target entity.VolunteerStatus,
) (*entity.VolunteerApplication, error) {
	var before, after *entity.VolunteerApplication

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, err := s.volunteerRepo.GetById(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		if app == nil {
			return entity.ErrApplicationNotFound
		}

		task, apps, err := s.lockTask(ctx, app.TaskID)
		if err != nil {
			return err
		}

		// после блокировки задачи статус заявки мог измениться
		if i := slices.IndexFunc(apps, func(a entity.VolunteerApplication) bool { return a.ID == app.ID }); i >= 0 {
			app = &apps[i]
		}

		isOwner := task.CreatorID == userID
		next, err := lifecycle.ApplyVolunteerTransition(*app, target, userID, isOwner)
		if err != nil {
			return err
		}

		if isOwner && task.Status.IsTerminal() {
			return fmt.Errorf("%w: status is %s", entity.ErrTaskNotOpen, task.Status)
		}
		if next.Status == entity.VolunteerStatusAccepted {
			if entity.CountApplications(task.VolunteerSlots, apps).AvailableSlots == 0 {
				return entity.ErrSlotsFull
			}
		}

		after, err = s.volunteerRepo.UpdateStatus(ctx, app.ID, next.Status)
		if err != nil {
			return err
		}
		before = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int("application_id", applicationID).
		Str("from", string(before.Status)).
		Str("to", string(after.Status)).
		Msg("application status changed")

	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     userID,
		Action:     entity.ActionRespond,
		EntityType: entity.EntityApplication,
		EntityID:   applicationID,
		TaskID:     after.TaskID,
		OldValues:  map[string]any{"status": before.Status},
		NewValues:  map[string]any{"status": after.Status},
		Changes:    map[string]any{"status": map[string]any{"old": before.Status, "new": after.Status}},
	})

	return after, nil
}

// Withdraw - отзыв заявки ее автором
func (s *VolunteerService) Withdraw(ctx context.Context, applicationID, userID int) (*entity.VolunteerApplication, error) {
	return s.Respond(ctx, applicationID, userID, entity.VolunteerStatusWithdrawn)
}

// Assign принимает несколько заявок разом. Либо принимаются все, либо ни одна.
// Уже принятые заявки из списка пропускаются.
func (s *VolunteerService) Assign(ctx context.Context, taskID, userID int, applicationIDs []int) ([]entity.VolunteerApplication, error) {
	if len(applicationIDs) == 0 {
		return nil, fmt.Errorf("%w: volunteer_ids must not be empty", entity.ErrInvalidTaskData)
	}

	var accepted []entity.VolunteerApplication

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, apps, err := s.lockTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.CreatorID != userID {
			return fmt.Errorf("%w: only the task creator can assign volunteers", entity.ErrUnauthorized)
		}
		if task.Status.IsTerminal() {
			return fmt.Errorf("%w: status is %s", entity.ErrTaskNotOpen, task.Status)
		}

		byID := make(map[int]entity.VolunteerApplication, len(apps))
		for _, app := range apps {
			byID[app.ID] = app
		}

		toAccept := make([]entity.VolunteerApplication, 0, len(applicationIDs))
		seen := make(map[int]bool, len(applicationIDs))
		for _, id := range applicationIDs {
			if seen[id] {
				continue
			}
			seen[id] = true

			app, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: application %d does not belong to task %d", entity.ErrApplicationNotFound, id, taskID)
			}
			if app.Status == entity.VolunteerStatusAccepted {
				continue
			}
			if _, err := lifecycle.ApplyVolunteerTransition(app, entity.VolunteerStatusAccepted, userID, true); err != nil {
				return err
			}
			toAccept = append(toAccept, app)
		}

		if free := entity.CountApplications(task.VolunteerSlots, apps).AvailableSlots; len(toAccept) > free {
			return fmt.Errorf("%w: %d applications for %d free slots", entity.ErrSlotsFull, len(toAccept), free)
		}

		for _, app := range toAccept {
			updated, err := s.volunteerRepo.UpdateStatus(ctx, app.ID, entity.VolunteerStatusAccepted)
			if err != nil {
				return err
			}
			accepted = append(accepted, *updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, app := range accepted {
		s.audit.Send(ctx, &entity.AuditMessage{
			UserID:     userID,
			Action:     entity.ActionRespond,
			EntityType: entity.EntityApplication,
			EntityID:   app.ID,
			TaskID:     taskID,
			OldValues:  map[string]any{"status": entity.VolunteerStatusPending},
			NewValues:  map[string]any{"status": app.Status},
		})
	}

	return accepted, nil
}

// lockTask блокирует строку задачи и читает ее заявки в текущей транзакции
func (s *VolunteerService) lockTask(ctx context.Context, taskID int) (*entity.Task, []entity.VolunteerApplication, error) {
	task, err := s.taskRepo.GetForUpdate(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock task: %w", err)
	}
	if task == nil {
		return nil, nil, entity.ErrTaskNotFound
	}

	apps, err := s.volunteerRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return task, apps, nil
}
