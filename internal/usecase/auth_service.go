package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
)

const (
	minPasswordLength = 8
	// bcrypt учитывает только первые 72 байта
	maxPasswordBytes = 72
	maxNameLength    = 255
)

// PasswordHasher - bcrypt в проде, упрощенная реализация в тестах
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
}

type TokenIssuer interface {
	GenerateAccessToken(userID int, email string) (string, error)
	GenerateRefreshToken(userID int, email string) (string, error)
	ValidateRefreshToken(token string) (*entity.JWTClaims, error)
	RefreshTTL() time.Duration
}

type AuthService struct {
	tx               repository.ITxManager
	userRepo         repository.IUserRepository
	refreshTokenRepo repository.IRefreshTokenRepository
	passwords        PasswordHasher
	tokens           TokenIssuer
	now              func() time.Time
}

func NewAuthService(
	tx repository.ITxManager,
	userRepo repository.IUserRepository,
	refreshTokenRepo repository.IRefreshTokenRepository,
	passwords PasswordHasher,
	tokens TokenIssuer,
) *AuthService {
	return &AuthService{
		tx:               tx,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		passwords:        passwords,
		tokens:           tokens,
		now:              time.Now,
	}
}

// Register регистрирует нового пользователя и сразу выдает токены
func (s *AuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.LoginResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	// Проверяем, что пользователь с таким email не существует
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, entity.ErrEmailTaken
	}

	passwordHash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, &entity.User{
		Name:         req.Name,
		Surname:      req.Surname,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Int("user_id", user.ID).Msg("user registered")

	return s.issue(ctx, user)
}

func validateRegistration(req *entity.RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || utf8.RuneCountInString(req.Name) > maxNameLength {
		return fmt.Errorf("%w: name must be 1..%d characters", entity.ErrInvalidUserData, maxNameLength)
	}
	if req.Username == "" {
		return fmt.Errorf("%w: username is required", entity.ErrInvalidUserData)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: invalid email", entity.ErrInvalidUserData)
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", entity.ErrInvalidUserData, minPasswordLength)
	}
	if len(req.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", entity.ErrInvalidUserData, maxPasswordBytes)
	}
	return nil
}

// Login проверяет email и пароль и выдает пару токенов
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	// неизвестный email и неверный пароль неразличимы для клиента
	if user == nil || !user.IsActive || !s.passwords.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, entity.ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *entity.User) (*entity.LoginResponse, error) {
	pair, err := s.newPair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last_login: %w", err)
	}
	user.LastLogin = &now

	return &entity.LoginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// RefreshToken меняет refresh token на новую пару, старый отзывается
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*entity.RefreshTokenResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	var pair *entity.RefreshTokenResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		hash := hashToken(refreshToken)
		stored, err := s.refreshTokenRepo.GetByHash(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to get refresh token: %w", err)
		}
		if stored == nil || stored.UserID != claims.UserID {
			return fmt.Errorf("%w: refresh token revoked or unknown", entity.ErrInvalidToken)
		}

		if err := s.refreshTokenRepo.Revoke(ctx, hash); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}

		pair, err = s.newPair(ctx, claims.UserID, claims.Email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout отзывает все refresh токены пользователя
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	if err := s.refreshTokenRepo.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) newPair(ctx context.Context, userID int, email string) (*entity.RefreshTokenResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, err
	}

	// в БД хранится только хеш refresh token
	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if err := s.refreshTokenRepo.Save(ctx, userID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &entity.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// hashToken генерирует хеш токена для хранения в БД
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
