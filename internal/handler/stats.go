package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/service"
)

// StatsAPI computes prediction accuracy.
type StatsAPI interface {
	Stats(ctx context.Context, caller domain.Caller, accountID uuid.UUID) (*service.Stats, error)
}

// StatsHandler serves accuracy figures.
type StatsHandler struct {
	scoring StatsAPI
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(scoring StatsAPI) *StatsHandler {
	return &StatsHandler{scoring: scoring}
}

// Mine handles GET /stats/me.
func (h *StatsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	h.respond(w, r, caller, caller.AccountID)
}

// ForAccount handles GET /accounts/{id}/stats. Only the owner or an admin
// may read it.
func (h *StatsHandler) ForAccount(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id", "account")
	if err != nil {
		RespondError(w, err)
		return
	}
	h.respond(w, r, auth.CallerFromContext(r.Context()), id)
}

func (h *StatsHandler) respond(w http.ResponseWriter, r *http.Request, caller domain.Caller, accountID uuid.UUID) {
	stats, err := h.scoring.Stats(r.Context(), caller, accountID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}
