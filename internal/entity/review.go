package entity

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
	"time"
)

const (
	MinReviewScore   = 1
	MaxReviewScore   = 5
	MaxReviewComment = 1000
)

type Review struct {
	ID         int       `json:"id"`
	TaskID     int       `json:"task_id"`
	ReviewerID int       `json:"reviewer_id"`
	RevieweeID int       `json:"reviewee_id"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateReviewRequest struct {
	RevieweeID int    `json:"reviewee_id" validate:"required,min=1"`
	Score      int    `json:"score" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=1000"`
}

type UpdateReviewRequest struct {
	Score   *int    `json:"score" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func ValidateReview(score int, comment string) error {
	if score < MinReviewScore || score > MaxReviewScore {
		return fmt.Errorf("%w: score must be between %d and %d", ErrInvalidReview, MinReviewScore, MaxReviewScore)
	}
	if utf8.RuneCountInString(strings.TrimSpace(comment)) > MaxReviewComment {
		return fmt.Errorf("%w: comment is longer than %d characters", ErrInvalidReview, MaxReviewComment)
	}
	return nil
}

type ReviewList struct {
	Reviews    []Review   `json:"reviews"`
	Pagination Pagination `json:"pagination"`
}

// RatingSummary - сводка оценок пользователя
type RatingSummary struct {
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"`
}

// SummarizeRatings - среднее округляется до одного знака, распределение по 1..5
func SummarizeRatings(scores []int) RatingSummary {
	summary := RatingSummary{Distribution: make(map[int]int, MaxReviewScore)}
	for i := MinReviewScore; i <= MaxReviewScore; i++ {
		summary.Distribution[i] = 0
	}
	if len(scores) == 0 {
		return summary
	}

	total := 0
	for _, score := range scores {
		if score < MinReviewScore || score > MaxReviewScore {
			continue
		}
		summary.Distribution[score]++
		total += score
		summary.Count++
	}
	if summary.Count > 0 {
		summary.Average = math.Round(float64(total)/float64(summary.Count)*10) / 10
	}
	return summary
}
