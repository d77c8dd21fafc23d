package admin

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/handler"
	"github.com/scorecast/platform/internal/policy"
	"github.com/scorecast/platform/internal/service"
)

// Syncer reconciles local matches with the fixture feed.
type Syncer interface {
	SyncWindow(ctx context.Context, competition string, daysBack, daysAhead int) (*service.SyncResult, error)
	RefreshResultsOnly(ctx context.Context, competition string, daysBack int) (*service.SyncResult, error)
}

// SyncDefaults are used for any window field the request leaves out.
type SyncDefaults struct {
	Competition     string
	DaysBack        int
	DaysAhead       int
	RefreshDaysBack int
}

// SyncAdminHandler triggers fixture sync runs on demand.
type SyncAdminHandler struct {
	sync     Syncer
	defaults SyncDefaults
}

// NewSyncAdminHandler creates a new SyncAdminHandler.
func NewSyncAdminHandler(sync Syncer, defaults SyncDefaults) *SyncAdminHandler {
	return &SyncAdminHandler{sync: sync, defaults: defaults}
}

type syncRequest struct {
	Competition string `json:"competition"`
	DaysBack    *int   `json:"days_back"`
	DaysAhead   *int   `json:"days_ahead"`
}

// Sync handles POST /admin/sync. An empty body uses the configured window.
func (h *SyncAdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	back, ahead := h.defaults.DaysBack, h.defaults.DaysAhead
	if req.DaysBack != nil {
		back = *req.DaysBack
	}
	if req.DaysAhead != nil {
		ahead = *req.DaysAhead
	}

	res, err := h.sync.SyncWindow(r.Context(), req.Competition, back, ahead)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, res)
}

// Refresh handles POST /admin/sync/refresh.
func (h *SyncAdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	back := h.defaults.RefreshDaysBack
	if req.DaysBack != nil {
		back = *req.DaysBack
	}

	res, err := h.sync.RefreshResultsOnly(r.Context(), req.Competition, back)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, res)
}

func (h *SyncAdminHandler) decode(w http.ResponseWriter, r *http.Request) (syncRequest, bool) {
	var req syncRequest
	if err := policy.RequireAdmin(auth.CallerFromContext(r.Context())); err != nil {
		handler.RespondError(w, err)
		return req, false
	}
	if err := handler.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return req, false
	}
	if req.Competition == "" {
		req.Competition = h.defaults.Competition
	}
	return req, true
}
