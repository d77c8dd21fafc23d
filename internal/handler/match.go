package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
)

// MatchReader is the read side of match administration.
type MatchReader interface {
	GetMatch(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	ListMatches(ctx context.Context, filter repository.MatchFilter) ([]domain.Match, error)
}

// MatchHandler serves the public fixture list.
type MatchHandler struct {
	matches MatchReader
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matches MatchReader) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// List handles GET /matches?finished=&from=&to=&limit=.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseMatchFilter(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	list, err := h.matches.ListMatches(r.Context(), filter)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, list)
}

// Get handles GET /matches/{id}.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id", "match")
	if err != nil {
		RespondError(w, err)
		return
	}
	m, err := h.matches.GetMatch(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, m)
}
