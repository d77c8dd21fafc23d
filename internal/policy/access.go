package policy

import (
	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
)

// RequireAuthenticated passes any logged-in account.
func RequireAuthenticated(caller domain.Caller) error {
	if !caller.Authenticated() {
		return domain.ErrPermission("login required")
	}
	return nil
}

// RequireAdmin passes only callers holding the ADMIN role.
func RequireAdmin(caller domain.Caller) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return domain.ErrPermission("administrator role required")
	}
	return nil
}

// RequireOwner passes when the caller is the owner of a resource. Admins get
// no exemption: predictions are only ever mutated by their owner.
func RequireOwner(caller domain.Caller, ownerID uuid.UUID) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.AccountID != ownerID {
		return domain.ErrPermission("not the owner")
	}
	return nil
}
