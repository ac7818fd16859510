package usecase

import (
	"context"
	"fmt"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
)

type UserService struct {
	userRepo   repository.IUserRepository
	reviewRepo repository.IReviewRepository
}

func NewUserService(userRepo repository.IUserRepository, reviewRepo repository.IReviewRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		reviewRepo: reviewRepo,
	}
}

// GetUser получает пользователя по ID
func (s *UserService) GetUser(ctx context.Context, userID int) (*entity.User, error) {
	user, err := s.userRepo.GetById(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entity.ErrUserNotFound
	}
	return user, nil
}

// GetProfile - публичный профиль вместе со сводкой оценок
func (s *UserService) GetProfile(ctx context.Context, userID int) (*entity.UserProfile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	scores, err := s.reviewRepo.ScoresByReviewee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	return &entity.UserProfile{
		ID:       user.ID,
		Name:     user.Name,
		Surname:  user.Surname,
		Username: user.Username,
		Rating:   entity.SummarizeRatings(scores),
	}, nil
}
