package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TaskCategory string

const (
	CategoryGroceryShopping TaskCategory = "GROCERY_SHOPPING"
	CategoryTutoring        TaskCategory = "TUTORING"
	CategoryHomeRepair      TaskCategory = "HOME_REPAIR"
	CategoryMovingHelp      TaskCategory = "MOVING_HELP"
	CategoryHouseCleaning   TaskCategory = "HOUSE_CLEANING"
	CategoryOther           TaskCategory = "OTHER"
)

var TaskCategories = []TaskCategory{
	CategoryGroceryShopping,
	CategoryTutoring,
	CategoryHomeRepair,
	CategoryMovingHelp,
	CategoryHouseCleaning,
	CategoryOther,
}

// ParseTaskCategory - как ParseTaskStatus, но ошибка несет ErrInvalidTaskData
func ParseTaskCategory(s string) (TaskCategory, error) {
	normalized := TaskCategory(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range TaskCategories {
		if c == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidTaskData, s)
}

func (c *TaskCategory) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// пустое значение заменяется по умолчанию в Validate
	if strings.TrimSpace(raw) == "" {
		*c = ""
		return nil
	}
	parsed, err := ParseTaskCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
