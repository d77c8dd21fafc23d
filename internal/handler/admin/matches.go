package admin

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/handler"
)

// MatchAdmin is the write side of match administration.
type MatchAdmin interface {
	CreateMatch(ctx context.Context, caller domain.Caller, input domain.NewMatchInput) (*domain.Match, error)
	SetResult(ctx context.Context, caller domain.Caller, matchID uuid.UUID, score domain.Score) (*domain.Match, error)
}

// MatchAdminHandler handles manual fixture entry and result setting.
type MatchAdminHandler struct {
	matches MatchAdmin
}

// NewMatchAdminHandler creates a new MatchAdminHandler.
func NewMatchAdminHandler(matches MatchAdmin) *MatchAdminHandler {
	return &MatchAdminHandler{matches: matches}
}

// CreateMatch handles POST /admin/matches.
func (h *MatchAdminHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input domain.NewMatchInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	m, err := h.matches.CreateMatch(r.Context(), auth.CallerFromContext(r.Context()), input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, m)
}

// SetResult handles PUT /admin/matches/{id}/result.
func (h *MatchAdminHandler) SetResult(w http.ResponseWriter, r *http.Request) {
	id, err := handler.URLUUID(r, "id", "match")
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var input struct {
		HomeScore *int `json:"home_score"`
		AwayScore *int `json:"away_score"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if input.HomeScore == nil || input.AwayScore == nil {
		handler.RespondError(w, domain.ErrValidation("home_score and away_score are both required"))
		return
	}

	m, err := h.matches.SetResult(r.Context(), auth.CallerFromContext(r.Context()), id,
		domain.Score{Home: *input.HomeScore, Away: *input.AwayScore})
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, m)
}
