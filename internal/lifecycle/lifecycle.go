// Package lifecycle решает, какие переходы статусов допустимы для задач
// и заявок волонтеров и кто может их выполнять.
//
// Пакет не делает I/O и не хранит состояния: на вход значения, на выход
// новые значения или типизированная ошибка из entity. Одни и те же
// проверки используются и для валидации запросов, и для выбора действий,
// которые показываются пользователю.
package lifecycle

import (
	"fmt"
	"slices"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

// Таблицы переходов. Только на чтение, наружу отдаются копии.
var (
	taskTransitions = map[entity.TaskStatus][]entity.TaskStatus{
		entity.TaskStatusOpen:       {entity.TaskStatusInProgress, entity.TaskStatusCancelled},
		entity.TaskStatusInProgress: {entity.TaskStatusCompleted, entity.TaskStatusCancelled},
		entity.TaskStatusCompleted:  {},
		entity.TaskStatusCancelled:  {},
	}

	ownerVolunteerTransitions = map[entity.VolunteerStatus][]entity.VolunteerStatus{
		entity.VolunteerStatusPending: {entity.VolunteerStatusAccepted, entity.VolunteerStatusRejected},
	}

	applicantVolunteerTransitions = map[entity.VolunteerStatus][]entity.VolunteerStatus{
		entity.VolunteerStatusPending: {entity.VolunteerStatusWithdrawn},
	}
)

// NextTaskStatuses возвращает статусы, в которые задача может перейти из current.
// Для терминальных и неизвестных статусов - пустой срез.
func NextTaskStatuses(current entity.TaskStatus) []entity.TaskStatus {
	return slices.Clone(taskTransitions[current])
}

func CanTransitionTask(current, target entity.TaskStatus) bool {
	return slices.Contains(taskTransitions[current], target)
}

// ApplyTaskTransition переводит задачу в target от имени requestingUserID.
// Сначала проверяется, что пользователь - создатель задачи, затем таблица переходов.
// Исходное значение не меняется.
func ApplyTaskTransition(task entity.Task, target entity.TaskStatus, requestingUserID int) (entity.Task, error) {
	if requestingUserID != task.CreatorID {
		return entity.Task{}, fmt.Errorf("%w: user %d is not the creator of task %d",
			entity.ErrUnauthorized, requestingUserID, task.ID)
	}
	if !CanTransitionTask(task.Status, target) {
		return entity.Task{}, fmt.Errorf("%w: task %s -> %s", entity.ErrInvalidTransition, task.Status, target)
	}

	task.Status = target
	return task, nil
}

// NextVolunteerStatuses возвращает статусы, доступные для заявки в зависимости от роли:
// владелец задачи принимает или отклоняет, заявитель может только отозвать.
func NextVolunteerStatuses(current entity.VolunteerStatus, isTaskOwner bool) []entity.VolunteerStatus {
	if isTaskOwner {
		return slices.Clone(ownerVolunteerTransitions[current])
	}
	return slices.Clone(applicantVolunteerTransitions[current])
}

// CanUserApply проверяет, может ли userID откликнуться на задачу.
// existing - заявки на эту задачу, все они участвуют в проверках; TaskID не сверяется.
// Порядок проверок фиксирован, возвращается первая ошибка.
func CanUserApply(task entity.Task, userID int, existing []entity.VolunteerApplication) error {
	if userID == task.CreatorID {
		return entity.ErrOwnTaskForbidden
	}
	if task.Status != entity.TaskStatusOpen {
		return fmt.Errorf("%w: status is %s", entity.ErrTaskNotOpen, task.Status)
	}

	accepted := 0
	for _, app := range existing {
		if app.VolunteerUserID == userID && app.Status.IsActive() {
			return entity.ErrDuplicateApplication
		}
		if app.Status == entity.VolunteerStatusAccepted {
			accepted++
		}
	}

	if accepted >= task.VolunteerSlots {
		return entity.ErrSlotsFull
	}
	return nil
}

// ApplyVolunteerTransition меняет статус заявки.
//
// При переходе в ACCEPTED вызывающий обязан сам убедиться, что у задачи есть
// свободные места: соседних заявок эта функция не видит.
func ApplyVolunteerTransition(
	app entity.VolunteerApplication,
	target entity.VolunteerStatus,
	requestingUserID int,
	isTaskOwner bool,
) (entity.VolunteerApplication, error) {
	switch target {
	case entity.VolunteerStatusAccepted, entity.VolunteerStatusRejected:
		if !isTaskOwner {
			return entity.VolunteerApplication{}, fmt.Errorf("%w: only the task owner can set %s",
				entity.ErrUnauthorized, target)
		}
	case entity.VolunteerStatusWithdrawn:
		if requestingUserID != app.VolunteerUserID {
			return entity.VolunteerApplication{}, fmt.Errorf("%w: only the applicant can withdraw",
				entity.ErrUnauthorized)
		}
	}

	if !slices.Contains(NextVolunteerStatuses(app.Status, isTaskOwner), target) {
		return entity.VolunteerApplication{}, fmt.Errorf("%w: application %s -> %s",
			entity.ErrInvalidTransition, app.Status, target)
	}

	app.Status = target
	return app, nil
}
