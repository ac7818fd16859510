package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type successResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Status: "success", Data: data}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Status: "success", Message: message}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// WriteError пишет ошибку в едином формате. Внутренние ошибки логируются,
// а клиенту отдается только общий текст.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Status:  "error",
		Code:    entity.ErrorCode(err),
		Message: message,
	})
}

// decodeJSON читает тело запроса и проверяет его по тегам validate
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// ошибки разбора статуса и категории уже несут свой sentinel
		if errors.Is(err, entity.ErrInvalidStatus) || errors.Is(err, entity.ErrInvalidTaskData) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", entity.ErrValidation, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed on %s", entity.ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s", entity.ErrValidation, name)
	}
	return id, nil
}

// queryInt - целый параметр запроса, def если не задан
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", entity.ErrValidation, name)
	}
	return v, nil
}

func pageFromQuery(r *http.Request) (entity.Page, error) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return entity.Page{}, err
	}
	if page > entity.MaxPageNumber {
		return entity.Page{}, fmt.Errorf("%w: page must be at most %d", entity.ErrValidation, entity.MaxPageNumber)
	}
	limit, err := queryInt(r, "limit", entity.DefaultPageLimit)
	if err != nil {
		return entity.Page{}, err
	}
	return entity.NewPage(page, limit), nil
}
