package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
	"time"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses - все известные статусы задачи
var TaskStatuses = []TaskStatus{
	TaskStatusOpen,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// ParseTaskStatus приводит строку с границы (HTTP, БД) к статусу задачи.
// Регистр и пробелы по краям не важны, неизвестное значение - ошибка.
func ParseTaskStatus(s string) (TaskStatus, error) {
	normalized := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range TaskStatuses {
		if st == normalized {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: task status %q", ErrInvalidStatus, s)
}

// IsTerminal - из статуса нет переходов
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Task struct {
	ID             int          `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Category       TaskCategory `json:"category"`
	Location       string       `json:"location"`
	Deadline       *time.Time   `json:"deadline,omitempty"`
	UrgencyLevel   int          `json:"urgency_level"`
	VolunteerSlots int          `json:"volunteer_number"`
	Status         TaskStatus   `json:"status"`
	CreatorID      int          `json:"creator_id"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// валидация
type CreateTaskRequest struct {
	Title          string       `json:"title" validate:"required,min=1,max=255"`
	Description    string       `json:"description" validate:"required"`
	Category       TaskCategory `json:"category"`
	Location       string       `json:"location"`
	Deadline       *time.Time   `json:"deadline"`
	UrgencyLevel   int          `json:"urgency_level" validate:"omitempty,min=1,max=3"`
	VolunteerSlots int          `json:"volunteer_number" validate:"omitempty,min=1"`
	CreatorID      int          `json:"-"`
}

// Validate проверяет запрос и проставляет значения по умолчанию
func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" || utf8.RuneCountInString(r.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title must be 1..%d characters", ErrInvalidTaskData, MaxTitleLength)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidTaskData)
	}
	if r.Category == "" {
		r.Category = CategoryOther
	}
	category, err := ParseTaskCategory(string(r.Category))
	if err != nil {
		return err
	}
	r.Category = category
	if r.UrgencyLevel == 0 {
		r.UrgencyLevel = UrgencyMedium
	}
	if r.UrgencyLevel < UrgencyLow || r.UrgencyLevel > UrgencyHigh {
		return fmt.Errorf("%w: urgency_level must be between %d and %d", ErrInvalidTaskData, UrgencyLow, UrgencyHigh)
	}
	if r.VolunteerSlots == 0 {
		r.VolunteerSlots = 1
	}
	if r.VolunteerSlots < 1 {
		return fmt.Errorf("%w: volunteer_number must be positive", ErrInvalidTaskData)
	}
	return nil
}

// MaxTitleLength - в символах, не в байтах
const MaxTitleLength = 255

const (
	UrgencyLow    = 1
	UrgencyMedium = 2
	UrgencyHigh   = 3
)

type UpdateTaskRequest struct {
	Title          *string       `json:"title" validate:"omitempty,min=1,max=255"`
	Description    *string       `json:"description"` // опциональные поля для обновления
	Category       *TaskCategory `json:"category"`
	Location       *string       `json:"location"`
	Deadline       *time.Time    `json:"deadline"`
	UrgencyLevel   *int          `json:"urgency_level" validate:"omitempty,min=1,max=3"`
	VolunteerSlots *int          `json:"volunteer_number" validate:"omitempty,min=1"`
}

type UpdateTaskStatusRequest struct {
	Status TaskStatus `json:"status" validate:"required"`
}

// TaskFilter - фильтры списка задач
type TaskFilter struct {
	Status    TaskStatus
	Category  TaskCategory
	Search    string // подстрока в title или description
	CreatorID int
	Page      Page
}

// TaskDetail - задача вместе с действиями, доступными текущему пользователю
type TaskDetail struct {
	Task               *Task            `json:"task"`
	AllowedTransitions []TaskStatus     `json:"allowed_transitions"`
	CanApply           bool             `json:"can_apply"`
	ApplyBlockedReason string           `json:"apply_blocked_reason,omitempty"`
	Volunteers         ApplicationStats `json:"volunteers"`
}

type TaskList struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}
