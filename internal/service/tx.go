package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
)

// inTx runs fn in a transaction and commits when it returns nil.
func inTx(ctx context.Context, pool repository.TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}
	return nil
}

// internal passes AppErrors through and wraps anything else as INTERNAL_ERROR.
func internal(msg string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrInternal(msg, err)
}
