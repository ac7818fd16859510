package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

type VolunteerUsecase interface {
	Apply(ctx context.Context, taskID, userID int) (*entity.VolunteerApplication, error)
	ListForTask(ctx context.Context, taskID, viewerID int, status entity.VolunteerStatus) ([]entity.VolunteerApplication, error)
	ListMine(ctx context.Context, userID int, filter entity.ApplicationFilter) ([]entity.VolunteerApplication, error)
	Respond(ctx context.Context, applicationID, userID int, target entity.VolunteerStatus) (*entity.VolunteerApplication, error)
	Withdraw(ctx context.Context, applicationID, userID int) (*entity.VolunteerApplication, error)
	Assign(ctx context.Context, taskID, userID int, applicationIDs []int) ([]entity.VolunteerApplication, error)
}

type VolunteerHandler struct {
	volunteerService VolunteerUsecase
}

func NewVolunteerHandler(volunteerService VolunteerUsecase) *VolunteerHandler {
	return &VolunteerHandler{volunteerService: volunteerService}
}

// Apply - отклик на задачу, task_id в теле запроса
func (h *VolunteerHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req entity.ApplyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	app, err := h.volunteerService.Apply(r.Context(), req.TaskID, userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, app)
}

func (h *VolunteerHandler) ListForTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	status, err := statusFromQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	apps, err := h.volunteerService.ListForTask(r.Context(), taskID, UserIDFromContext(r.Context()), status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apps)
}

// ListMine - заявки текущего пользователя. По умолчанию без отозванных,
// ?volunteer_status=all возвращает все.
func (h *VolunteerHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var filter entity.ApplicationFilter
	switch raw := r.URL.Query().Get("volunteer_status"); {
	case raw == "":
	case strings.EqualFold(raw, "all"):
		filter.All = true
	default:
		status, err := entity.ParseVolunteerStatus(raw)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		filter.Status = status
	}

	apps, err := h.volunteerService.ListMine(r.Context(), userID, filter)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apps)
}

func (h *VolunteerHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req entity.RespondApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	app, err := h.volunteerService.Respond(r.Context(), appID, userID, req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, app)
}

func (h *VolunteerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	app, err := h.volunteerService.Withdraw(r.Context(), appID, userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, app)
}

// Assign - создатель задачи принимает сразу несколько заявок
func (h *VolunteerHandler) Assign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req entity.AssignVolunteersRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	apps, err := h.volunteerService.Assign(r.Context(), taskID, userID, req.ApplicationIDs)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apps)
}

func statusFromQuery(r *http.Request) (entity.VolunteerStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", nil
	}
	return entity.ParseVolunteerStatus(raw)
}
