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

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

type TokenRepo struct {
	db *sqlx.DB
}

func NewTokenRepo(db *sqlx.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Put(ctx context.Context, t *domain.VerificationToken) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO verification_tokens (token, identifier, purpose, used, expires_at, created_at, used_at)
		VALUES (:token, :identifier, :purpose, :used, :expires_at, :created_at, :used_at)
	`, t)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("token collision: %w", domain.ErrConflict)
	}
	return err
}

func (r *TokenRepo) Get(ctx context.Context, tok string) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.GetContext(ctx, &t, `
		SELECT token, identifier, purpose, used, expires_at, created_at, used_at
		FROM verification_tokens WHERE token = $1
	`, tok)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t.TTL = t.ExpiresAt.Unix()
	return &t, nil
}

// Claim marks the token used. The used=false guard lets exactly one
// concurrent caller through.
func (r *TokenRepo) Claim(ctx context.Context, tok string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_tokens SET used = true, used_at = $2
		WHERE token = $1 AND used = false
	`, tok, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("token already used: %w", domain.ErrConflict)
	}
	return nil
}

func (r *TokenRepo) Release(ctx context.Context, tok string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE verification_tokens SET used = false, used_at = NULL WHERE token = $1`, tok)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
