package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

// AccountRepo backs the self-hosted identity provider.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Put(ctx context.Context, a *domain.LocalAccount) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO accounts (account_id, identifier, email, phone, password_hash, created_at, updated_at)
		VALUES (:account_id, :identifier, :email, :phone, :password_hash, :created_at, :updated_at)
	`, a)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("account exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *AccountRepo) GetByIdentifier(ctx context.Context, identifier string) (*domain.LocalAccount, error) {
	var a domain.LocalAccount
	err := r.db.GetContext(ctx, &a, `
		SELECT account_id, identifier, email, phone, password_hash, created_at, updated_at
		FROM accounts WHERE identifier = $1
	`, identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, accountID, hash string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE account_id = $1`,
		accountID, hash, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return nil
}
