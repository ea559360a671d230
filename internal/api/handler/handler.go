// Package handler provides HTTP handlers for the migration API. Handlers
// drive the migration engine directly against the store — no service layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shuttlebook/shuttlebook-data/internal/api/respond"
	"github.com/shuttlebook/shuttlebook-data/internal/config"
	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

// Pinger verifies the database is reachable. *db.Pool satisfies it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	db     Pinger
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(st store.Store, db Pinger, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: st, db: db, cfg: cfg, logger: logger}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Shuttlebook Migration API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckDB reports database reachability.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.WriteErrorDetail(w, http.StatusServiceUnavailable, "DB_UNREACHABLE", "Database is unreachable", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}
