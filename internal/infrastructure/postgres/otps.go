package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

const otpColumns = `id, identifier, type, purpose, code, verified, expires_at, created_at`

type OTPRepo struct {
	db *sqlx.DB
}

func NewOTPRepo(db *sqlx.DB) *OTPRepo {
	return &OTPRepo{db: db}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OTPRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO otp_verifications (`+otpColumns+`)
		VALUES (:id, :identifier, :type, :purpose, :code, :verified, :expires_at, :created_at)
	`, o)
	return err
}

// ListUnverified returns unverified records for identifier, newest first.
func (r *OTPRepo) ListUnverified(ctx context.Context, identifier string) ([]domain.OTPRecord, error) {
	var recs []domain.OTPRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT `+otpColumns+` FROM otp_verifications
		WHERE identifier = $1 AND verified = false
		ORDER BY created_at DESC, id DESC
	`, identifier)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].TTL = recs[i].ExpiresAt.Unix()
	}
	return recs, nil
}

// MarkVerified flips verified only while it is still false.
func (r *OTPRepo) MarkVerified(ctx context.Context, identifier, otpID string) error {
	var id string
	err := r.db.GetContext(ctx, &id, `
		UPDATE otp_verifications SET verified = true
		WHERE identifier = $1 AND id = $2 AND verified = false
		RETURNING id
	`, identifier, otpID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("otp already consumed: %w", domain.ErrConflict)
	}
	return err
}

func (r *OTPRepo) Delete(ctx context.Context, identifier, otpID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_verifications WHERE identifier = $1 AND id = $2`, identifier, otpID)
	return err
}

func (r *OTPRepo) DeleteUnverified(ctx context.Context, identifier string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_verifications WHERE identifier = $1 AND verified = false`, identifier)
	return err
}

func (r *OTPRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_verifications WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
