package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type VolunteerStatus string

const (
	VolunteerStatusPending   VolunteerStatus = "PENDING"
	VolunteerStatusAccepted  VolunteerStatus = "ACCEPTED"
	VolunteerStatusRejected  VolunteerStatus = "REJECTED"
	VolunteerStatusWithdrawn VolunteerStatus = "WITHDRAWN"
)

var VolunteerStatuses = []VolunteerStatus{
	VolunteerStatusPending,
	VolunteerStatusAccepted,
	VolunteerStatusRejected,
	VolunteerStatusWithdrawn,
}

// ParseVolunteerStatus работает так же, как ParseTaskStatus
func ParseVolunteerStatus(s string) (VolunteerStatus, error) {
	normalized := VolunteerStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range VolunteerStatuses {
		if st == normalized {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: volunteer status %q", ErrInvalidStatus, s)
}

// IsActive - заявка учитывается при проверке дублей
func (s VolunteerStatus) IsActive() bool {
	return s != VolunteerStatusWithdrawn
}

func (s *VolunteerStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseVolunteerStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type VolunteerApplication struct {
	ID              int             `json:"id"`
	TaskID          int             `json:"task_id"`
	VolunteerUserID int             `json:"volunteer_id"`
	Status          VolunteerStatus `json:"status"`
	VolunteeredAt   time.Time       `json:"volunteered_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ApplyRequest struct {
	TaskID int `json:"task_id" validate:"required,min=1"`
}

type RespondApplicationRequest struct {
	Status VolunteerStatus `json:"status" validate:"required"`
}

type AssignVolunteersRequest struct {
	ApplicationIDs []int `json:"volunteer_ids" validate:"required,min=1,dive,min=1"`
}

// ApplicationFilter - фильтр заявок. All включает отозванные.
type ApplicationFilter struct {
	Status VolunteerStatus
	All    bool
}

type ApplicationStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Accepted       int `json:"accepted"`
	Rejected       int `json:"rejected"`
	AvailableSlots int `json:"available_slots"`
}

// CountApplications считает заявки по статусам
func CountApplications(slots int, apps []VolunteerApplication) ApplicationStats {
	var stats ApplicationStats
	for _, app := range apps {
		switch app.Status {
		case VolunteerStatusPending:
			stats.Pending++
		case VolunteerStatusAccepted:
			stats.Accepted++
		case VolunteerStatusRejected:
			stats.Rejected++
		case VolunteerStatusWithdrawn:
			continue
		}
		stats.Total++
	}
	stats.AvailableSlots = max(0, slots-stats.Accepted)
	return stats
}
