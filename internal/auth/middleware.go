package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/scorecast/platform/internal/domain"
)

type contextKey string

const callerKey contextKey = "auth_caller"

// CallerFromContext returns the authenticated caller, or the zero Caller
// (which fails every access check) when the request is anonymous.
func CallerFromContext(ctx context.Context) domain.Caller {
	caller, _ := ctx.Value(callerKey).(domain.Caller)
	return caller
}

// WithCaller stores a caller on the context.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// Authenticate returns middleware that validates bearer tokens.
func Authenticate(jwtMgr *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidate(r, jwtMgr)
			if err != nil {
				writeError(w, domain.ErrUnauthorized(err.Error()))
				return
			}
			caller, err := claims.Caller()
			if err != nil {
				writeError(w, domain.ErrUnauthorized("invalid token subject"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireAdmin rejects authenticated non-admin callers before the handler runs.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := CallerFromContext(r.Context())
		if !caller.Authenticated() {
			writeError(w, domain.ErrUnauthorized("no auth context"))
			return
		}
		if !caller.IsAdmin() {
			writeError(w, domain.ErrPermission("administrator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAndValidate(r *http.Request, jwtMgr *JWTManager) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, fmt.Errorf("invalid Authorization format")
	}

	return jwtMgr.ValidateToken(parts[1])
}

func writeError(w http.ResponseWriter, appErr *domain.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
