package handlers

import (
	"context"
	"net/http"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

type UserUsecase interface {
	GetUser(ctx context.Context, userID int) (*entity.User, error)
	GetProfile(ctx context.Context, userID int) (*entity.UserProfile, error)
}

type UserHandler struct {
	userService UserUsecase
}

func NewUserHandler(userService UserUsecase) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// Profile - публичный профиль с рейтингом
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}
