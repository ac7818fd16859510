package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

type TaskUsecase interface {
	CreateTask(ctx context.Context, req *entity.CreateTaskRequest, userID int) (*entity.Task, error)
	GetTask(ctx context.Context, taskID, viewerID int) (*entity.TaskDetail, error)
	ListTasks(ctx context.Context, filter entity.TaskFilter) (*entity.TaskList, error)
	UpdateTask(ctx context.Context, taskID, userID int, req *entity.UpdateTaskRequest) (*entity.Task, error)
	UpdateStatus(ctx context.Context, taskID, userID int, target entity.TaskStatus) (*entity.Task, error)
	History(ctx context.Context, taskID, userID int) ([]entity.TaskAudit, error)
}

type TaskHandler struct {
	taskService TaskUsecase
}

func NewTaskHandler(taskService TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// создаем новую задачу
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req entity.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), &req, userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, task)
}

// GetTask доступен анонимно, тогда список переходов пустой
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	detail, err := h.taskService.GetTask(r.Context(), taskID, UserIDFromContext(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	creatorID, err := queryInt(r, "creator_id", 0)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := entity.TaskFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		CreatorID: creatorID,
		Page:      page,
	}
	if raw := q.Get("category"); raw != "" {
		category, err := entity.ParseTaskCategory(raw)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		filter.Category = category
	}
	if raw := q.Get("status"); raw != "" {
		status, err := entity.ParseTaskStatus(raw)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		filter.Status = status
	}

	list, err := h.taskService.ListTasks(r.Context(), filter)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req entity.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskID, userID, &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, task)
}

// UpdateStatus - смена статуса задачи создателем
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req entity.UpdateTaskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), taskID, userID, req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	history, err := h.taskService.History(r.Context(), taskID, userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, history)
}
