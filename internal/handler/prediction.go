package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
)

// PredictionAPI is the prediction lifecycle as seen by a logged-in user.
type PredictionAPI interface {
	Submit(ctx context.Context, caller domain.Caller, input domain.SubmitPredictionInput) (*domain.Prediction, error)
	Delete(ctx context.Context, caller domain.Caller, predictionID uuid.UUID) error
	MyPredictions(ctx context.Context, caller domain.Caller) ([]domain.PredictionWithMatch, error)
	MatchBoard(ctx context.Context, caller domain.Caller, filter repository.MatchFilter) ([]domain.MatchWithPrediction, error)
}

// PredictionHandler handles prediction endpoints.
type PredictionHandler struct {
	predictions PredictionAPI
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictions PredictionAPI) *PredictionHandler {
	return &PredictionHandler{predictions: predictions}
}

// Board handles GET /board.
func (h *PredictionHandler) Board(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseMatchFilter(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	board, err := h.predictions.MatchBoard(r.Context(), auth.CallerFromContext(r.Context()), filter)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, board)
}

// Submit handles POST /predictions. The same (account, match) pair updates
// the existing prediction and answers 200 instead of 201.
func (h *PredictionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input domain.SubmitPredictionInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	p, err := h.predictions.Submit(r.Context(), auth.CallerFromContext(r.Context()), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusCreated
	if p.UpdatedAt != nil {
		status = http.StatusOK
	}
	RespondJSON(w, status, p)
}

// Mine handles GET /predictions/me.
func (h *PredictionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.predictions.MyPredictions(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, list)
}

// Delete handles DELETE /predictions/{id}.
func (h *PredictionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id", "prediction")
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.predictions.Delete(r.Context(), auth.CallerFromContext(r.Context()), id); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}
