package handlers

import (
	"errors"
	"net/http"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{entity.ErrUnauthorized, http.StatusForbidden},
	{entity.ErrOwnTaskForbidden, http.StatusForbidden},
	{entity.ErrForbidden, http.StatusForbidden},
	{entity.ErrInvalidTransition, http.StatusConflict},
	{entity.ErrTaskNotOpen, http.StatusConflict},
	{entity.ErrDuplicateApplication, http.StatusConflict},
	{entity.ErrSlotsFull, http.StatusConflict},
	{entity.ErrTaskNotEditable, http.StatusConflict},
	{entity.ErrTaskNotCompleted, http.StatusConflict},
	{entity.ErrDuplicateReview, http.StatusConflict},
	{entity.ErrEmailTaken, http.StatusConflict},
	{entity.ErrNotParticipant, http.StatusForbidden},
	{entity.ErrTaskNotFound, http.StatusNotFound},
	{entity.ErrUserNotFound, http.StatusNotFound},
	{entity.ErrApplicationNotFound, http.StatusNotFound},
	{entity.ErrReviewNotFound, http.StatusNotFound},
	{entity.ErrValidation, http.StatusBadRequest},
	{entity.ErrInvalidStatus, http.StatusBadRequest},
	{entity.ErrInvalidTaskData, http.StatusBadRequest},
	{entity.ErrInvalidUserData, http.StatusBadRequest},
	{entity.ErrInvalidReview, http.StatusBadRequest},
	{entity.ErrSelfReview, http.StatusBadRequest},
	{entity.ErrNoFieldsToUpdate, http.StatusBadRequest},
	{entity.ErrInvalidCredentials, http.StatusUnauthorized},
	{entity.ErrInvalidToken, http.StatusUnauthorized},
}

// StatusFor - HTTP статус для ошибки, 500 для неизвестных
func StatusFor(err error) int {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return es.status
		}
	}
	return http.StatusInternalServerError
}
