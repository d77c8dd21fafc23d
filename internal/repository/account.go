package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
)

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

const accountColumns = `id, username, password_hash, role, created_at`

func (r *accountRepo) Create(ctx context.Context, db DBTX, a *domain.Account) error {
	err := db.QueryRow(ctx, `
		INSERT INTO accounts (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		a.ID, a.Username, a.PasswordHash, string(a.Role),
	).Scan(&a.CreatedAt)
	if err != nil {
		return mapUniqueViolation(fmt.Errorf("insert account: %w", err), "username already taken")
	}
	return nil
}

func (r *accountRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error) {
	row := db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *accountRepo) FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Account, error) {
	row := db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

func (r *accountRepo) UpdatePasswordHash(ctx context.Context, db DBTX, id uuid.UUID, hash string) error {
	tag, err := db.Exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("account", id.String())
	}
	return nil
}

func (r *accountRepo) DeleteAll(ctx context.Context, db DBTX) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM accounts`)
	if err != nil {
		return 0, fmt.Errorf("delete accounts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var role string
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Role = domain.Role(role)
	return &a, nil
}
