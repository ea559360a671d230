package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shuttlebook/shuttlebook-data/internal/api/respond"
	"github.com/shuttlebook/shuttlebook-data/internal/migrate"
)

// maxBatchBytes caps the migration payload; legacy exports are large but a
// gigabyte body is an input error.
const maxBatchBytes = 32 << 20

// RunMigration handles POST /api/v1/organizers/{organizerID}/migrations.
//
// The body is one MigrationData document. Query parameters: strict=1
// disables fuzzy identity resolution, dry_run=1 runs without writing.
// Responds 200 with the MigrationResult (success may still be false when
// per-record errors occurred), 422 when structural validation rejected the
// batch, 400 on malformed input, 500 on infrastructure failure.
func (h *Handler) RunMigration(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(chi.URLParam(r, "organizerID"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ORGANIZER_ID", "organizerID must be a UUID")
		return
	}

	var batch migrate.MigrationData
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err := dec.Decode(&batch); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "BAD_BATCH", "Request body is not a valid migration batch", err.Error())
		return
	}

	// Structural validation refuses the run up front; report it as
	// unprocessable rather than OK. Execute below skips re-validation.
	if errs := migrate.Validate(&batch); len(errs) > 0 {
		respond.WriteJSONObject(w, http.StatusUnprocessableEntity, migrate.ValidationRefusal(errs))
		return
	}

	opts := migrate.Options{
		StrictResolution: queryFlag(r, "strict") || h.cfg.MigrationStrict,
		DryRun:           queryFlag(r, "dry_run"),
		PaymentWorkers:   h.cfg.MigrationPaymentWorkers,
	}

	h.logger.Info("migration requested",
		"organizer", organizerID,
		"players", len(batch.Players),
		"sessions", len(batch.Sessions),
		"flat_payments", len(batch.Payments),
		"strict", opts.StrictResolution,
		"dry_run", opts.DryRun)

	result := migrate.New(h.store, h.logger, opts).Execute(r.Context(), organizerID, &batch)
	respond.WriteJSONObject(w, http.StatusOK, result)
}

func queryFlag(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
