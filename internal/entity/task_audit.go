package entity

import (
	"time"
)

type ActionType string

const (
	ActionCreate       ActionType = "Create"
	ActionUpdate       ActionType = "Update"
	ActionStatusChange ActionType = "StatusChange"
	ActionApply        ActionType = "Apply"
	ActionRespond      ActionType = "Respond"
	ActionReview       ActionType = "Review"
)

const (
	EntityTask        = "task"
	EntityApplication = "volunteer"
	EntityReview      = "review"
)

type TaskAudit struct {
	ID         int        `json:"id"`
	MessageID  string     `json:"message_id"`
	UserID     int        `json:"user_id"`
	Action     ActionType `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   int        `json:"entity_id"`
	TaskID     int        `json:"task_id"`
	OldValues  *string    `json:"old_values"`
	NewValues  *string    `json:"new_values"`
	Changes    *string    `json:"changes"`
	ChangesAt  time.Time  `json:"changed_at"`
}

// AuditMessage - сообщение в очереди аудита
type AuditMessage struct {
	ID         string         `json:"id"`
	UserID     int            `json:"user_id"`
	Action     ActionType     `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int            `json:"entity_id"`
	TaskID     int            `json:"task_id"`
	OldValues  map[string]any `json:"old_values"`
	NewValues  map[string]any `json:"new_values"`
	Changes    map[string]any `json:"changes"`
	Timestamp  time.Time      `json:"timestamp"`
}
