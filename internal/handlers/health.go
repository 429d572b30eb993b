package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
)

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthHandlers serves /api/health, /healthz and /readyz
type HealthHandlers struct {
	board  *board.Service
	store  dal.DocumentDAL
	checks map[string]Check
}

// NewHealthHandlers creates health handlers. store may be nil.
func NewHealthHandlers(b *board.Service, store dal.DocumentDAL) *HealthHandlers {
	return &HealthHandlers{board: b, store: store, checks: make(map[string]Check)}
}

// AddCheck registers an extra dependency check reported by /api/health
func (h *HealthHandlers) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// Health reports every dependency
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	fail := func(name string, err error) {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks[name] = map[string]any{"status": "unhealthy", "error": err.Error()}
	}

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			fail("database", err)
		} else {
			checks["database"] = map[string]any{"status": "healthy"}
		}
	} else {
		checks["database"] = map[string]any{"status": "not_configured"}
	}

	view := h.board.View()
	if view.Error != "" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["board"] = map[string]any{"status": "unhealthy", "error": view.Error}
	} else {
		checks["board"] = map[string]any{"status": "healthy", "players": len(view.Rows)}
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			fail(name, err)
		} else {
			checks[name] = map[string]any{"status": "healthy"}
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness returns 200 while the process runs
func (h *HealthHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness returns 200 once the board has data to serve
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if !h.board.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    "board_not_loaded",
			"timestamp": time.Now().Unix(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
