package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker - зависимость, которую нужно проверить в /healthz
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]HealthChecker
}

func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz опрашивает зависимости параллельно
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	errs := make([]error, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}

	var g errgroup.Group
	for i, name := range names {
		i := i
		check := h.checks[name]
		g.Go(func() error {
			errs[i] = check.HealthCheck(ctx)
			return nil
		})
	}
	_ = g.Wait()

	healthy := true
	for i, name := range names {
		if errs[i] != nil {
			results[name] = errs[i].Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "code": "unavailable", "checks": results})
		return
	}
	writeJSON(w, r, http.StatusOK, results)
}
