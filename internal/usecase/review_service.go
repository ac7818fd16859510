package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
)

type ReviewService struct {
	taskRepo      repository.ITaskRepository
	volunteerRepo repository.IVolunteerRepository
	reviewRepo    repository.IReviewRepository
	audit         *Auditor
}

func NewReviewService(
	taskRepo repository.ITaskRepository,
	volunteerRepo repository.IVolunteerRepository,
	reviewRepo repository.IReviewRepository,
	audit *Auditor,
) *ReviewService {
	return &ReviewService{
		taskRepo:      taskRepo,
		volunteerRepo: volunteerRepo,
		reviewRepo:    reviewRepo,
		audit:         audit,
	}
}

// Submit - отзыв одного участника завершенной задачи о другом.
// Участники: создатель задачи и принятые волонтеры.
func (s *ReviewService) Submit(ctx context.Context, taskID, reviewerID int, req *entity.CreateReviewRequest) (*entity.Review, error) {
	comment := strings.TrimSpace(req.Comment)
	if err := entity.ValidateReview(req.Score, comment); err != nil {
		return nil, err
	}
	if req.RevieweeID == reviewerID {
		return nil, entity.ErrSelfReview
	}

	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}
	if task.Status != entity.TaskStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", entity.ErrTaskNotCompleted, task.Status)
	}

	participants, err := s.participants(ctx, task)
	if err != nil {
		return nil, err
	}
	if !participants[reviewerID] {
		return nil, fmt.Errorf("%w: reviewer %d", entity.ErrNotParticipant, reviewerID)
	}
	if !participants[req.RevieweeID] {
		return nil, fmt.Errorf("%w: reviewee %d", entity.ErrNotParticipant, req.RevieweeID)
	}

	review, err := s.reviewRepo.Create(ctx, &entity.Review{
		TaskID:     taskID,
		ReviewerID: reviewerID,
		RevieweeID: req.RevieweeID,
		Score:      req.Score,
		Comment:    comment,
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int("task_id", taskID).
		Int("review_id", review.ID).
		Int("reviewee_id", review.RevieweeID).
		Msg("review submitted")

	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     reviewerID,
		Action:     entity.ActionReview,
		EntityType: entity.EntityReview,
		EntityID:   review.ID,
		TaskID:     taskID,
		NewValues:  map[string]any{"reviewee_id": review.RevieweeID, "score": review.Score},
	})

	return review, nil
}

func (s *ReviewService) participants(ctx context.Context, task *entity.Task) (map[int]bool, error) {
	apps, err := s.volunteerRepo.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	participants := map[int]bool{task.CreatorID: true}
	for _, app := range apps {
		if app.Status == entity.VolunteerStatusAccepted {
			participants[app.VolunteerUserID] = true
		}
	}
	return participants, nil
}

// Update - автор меняет оценку или комментарий
func (s *ReviewService) Update(ctx context.Context, reviewID, userID int, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	if req.Score == nil && req.Comment == nil {
		return nil, entity.ErrNoFieldsToUpdate
	}

	review, err := s.reviewRepo.GetById(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, entity.ErrReviewNotFound
	}
	if review.ReviewerID != userID {
		return nil, entity.ErrForbidden
	}

	score, comment := review.Score, review.Comment
	if req.Score != nil {
		score = *req.Score
	}
	if req.Comment != nil {
		comment = strings.TrimSpace(*req.Comment)
	}
	if err := entity.ValidateReview(score, comment); err != nil {
		return nil, err
	}

	updated, err := s.reviewRepo.Update(ctx, reviewID, score, comment)
	if err != nil {
		return nil, err
	}

	s.audit.Send(ctx, &entity.AuditMessage{
		UserID:     userID,
		Action:     entity.ActionUpdate,
		EntityType: entity.EntityReview,
		EntityID:   reviewID,
		TaskID:     review.TaskID,
		OldValues:  map[string]any{"score": review.Score, "comment": review.Comment},
		NewValues:  map[string]any{"score": updated.Score, "comment": updated.Comment},
	})

	return updated, nil
}

func (s *ReviewService) ListByTask(ctx context.Context, taskID int) ([]entity.Review, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}

	reviews, err := s.reviewRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListByUser - отзывы о пользователе, новые первыми
func (s *ReviewService) ListByUser(ctx context.Context, userID int, page entity.Page) (*entity.ReviewList, error) {
	page = entity.NewPage(page.Number, page.Limit)

	reviews, total, err := s.reviewRepo.ListByReviewee(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return &entity.ReviewList{
		Reviews:    reviews,
		Pagination: entity.NewPagination(page, total),
	}, nil
}

func (s *ReviewService) Rating(ctx context.Context, userID int) (entity.RatingSummary, error) {
	scores, err := s.reviewRepo.ScoresByReviewee(ctx, userID)
	if err != nil {
		return entity.RatingSummary{}, fmt.Errorf("failed to load scores: %w", err)
	}
	return entity.SummarizeRatings(scores), nil
}
