package handlers

import (
	"context"
	"net/http"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

type ReviewUsecase interface {
	Submit(ctx context.Context, taskID, reviewerID int, req *entity.CreateReviewRequest) (*entity.Review, error)
	Update(ctx context.Context, reviewID, userID int, req *entity.UpdateReviewRequest) (*entity.Review, error)
	ListByTask(ctx context.Context, taskID int) ([]entity.Review, error)
	ListByUser(ctx context.Context, userID int, page entity.Page) (*entity.ReviewList, error)
}

type ReviewHandler struct {
	reviewService ReviewUsecase
}

func NewReviewHandler(reviewService ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req entity.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	review, err := h.reviewService.Submit(r.Context(), taskID, userID, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, review)
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req entity.UpdateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	review, err := h.reviewService.Update(r.Context(), reviewID, userID, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, review)
}

func (h *ReviewHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	reviews, err := h.reviewService.ListByTask(r.Context(), taskID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reviews)
}

func (h *ReviewHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	list, err := h.reviewService.ListByUser(r.Context(), userID, page)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}
