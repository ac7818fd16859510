package handlers

import (
	"context"
	"net/http"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

type AuthUsecase interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.LoginResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*entity.RefreshTokenResponse, error)
	Logout(ctx context.Context, userID int) error
}

type AuthHandler struct {
	authService AuthUsecase
}

func NewAuthHandler(authService AuthUsecase) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req entity.RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	resp, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Logout отзывает все refresh токены пользователя
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.authService.Logout(r.Context(), userID); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "logged out")
}
