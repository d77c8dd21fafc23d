package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/scorecast/platform/internal/domain"
)

const pgUniqueViolation = "23505"

// mapUniqueViolation turns a unique-constraint failure into a CONFLICT error
// and passes everything else through.
func mapUniqueViolation(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		appErr := domain.ErrConflict(msg)
		appErr.Cause = err
		return appErr
	}
	return err
}
