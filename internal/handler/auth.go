package handler

import (
	"context"
	"net/http"

	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/service"
)

// AuthAPI is the account surface the auth endpoints need.
type AuthAPI interface {
	Register(ctx context.Context, input service.Credentials) (*service.AuthResult, error)
	Login(ctx context.Context, input service.Credentials) (*service.AuthResult, error)
	Me(ctx context.Context, caller domain.Caller) (*domain.Account, error)
	ChangePassword(ctx context.Context, caller domain.Caller, input service.ChangePasswordInput) error
}

// AuthHandler handles registration, login and account endpoints.
type AuthHandler struct {
	authSvc AuthAPI
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc AuthAPI) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.Credentials
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.Register(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.Credentials
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.Login(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// Me handles GET /accounts/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.authSvc.Me(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

// ChangePassword handles PUT /accounts/me/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input service.ChangePasswordInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	if err := h.authSvc.ChangePassword(r.Context(), auth.CallerFromContext(r.Context()), input); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}
