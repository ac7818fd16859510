package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		cfg: cfg,
		now: time.Now,
	}
}

// RefreshTTL - время жизни refresh token, нужно для записи в БД
func (m *JWTManager) RefreshTTL() time.Duration {
	return m.cfg.RefreshTTL
}

// GenerateAccessToken генерирует короткоживущий access token
func (m *JWTManager) GenerateAccessToken(userID int, email string) (string, error) {
	return m.generate(userID, email, tokenTypeAccess, m.cfg.AccessTTL)
}

// GenerateRefreshToken генерирует refresh token
func (m *JWTManager) GenerateRefreshToken(userID int, email string) (string, error) {
	return m.generate(userID, email, tokenTypeRefresh, m.cfg.RefreshTTL)
}

func (m *JWTManager) generate(userID int, email, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := tokenClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает токены уникальными даже в пределах одной секунды
			ID:        uuid.NewString(),
			Issuer:    m.cfg.Issuer,
			Subject:   strconv.Itoa(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateAccessToken проверяет access token
func (m *JWTManager) ValidateAccessToken(tokenString string) (*entity.JWTClaims, error) {
	return m.validate(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken проверяет refresh token
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*entity.JWTClaims, error) {
	return m.validate(tokenString, tokenTypeRefresh)
}

func (m *JWTManager) validate(tokenString, tokenType string) (*entity.JWTClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", entity.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, entity.ErrInvalidToken
	}

	// Проверяем тип токена
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", entity.ErrInvalidToken, tokenType)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", entity.ErrInvalidToken)
	}

	return &entity.JWTClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
