package repository

import (
	"context"
	"time"

	"ask-io/internal/domain"
)

// OTPRepository define el contrato de persistencia para codigos de un solo uso.
type OTPRepository interface {
	Create(ctx context.Context, code domain.OneTimeCode) error
	LatestActive(ctx context.Context, email string, now time.Time) (domain.OneTimeCode, error)
	IncrementAttempts(ctx context.Context, id string) error
	MarkConsumed(ctx context.Context, id string, consumedAt time.Time) (bool, error)
}

// PgOTPRepository implementa OTPRepository usando pgx.
type PgOTPRepository struct {
	db DBTX
}

func NewPgOTPRepository(db DBTX) *PgOTPRepository {
	return &PgOTPRepository{db: db}
}

func (r *PgOTPRepository) Create(ctx context.Context, code domain.OneTimeCode) error {
	const query = `
		INSERT INTO otp_codes (id, email, code_hash, attempts, consumed, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		code.ID,
		code.Email,
		code.CodeHash,
		code.Attempts,
		code.Consumed,
		code.ExpiresAt,
		code.CreatedAt,
	)
	return err
}

// LatestActive devuelve el codigo sin consumir y sin expirar mas reciente del email.
func (r *PgOTPRepository) LatestActive(ctx context.Context, email string, now time.Time) (domain.OneTimeCode, error) {
	const query = `
		SELECT id, email, code_hash, attempts, consumed, consumed_at, expires_at, created_at
		FROM otp_codes
		WHERE email = $1 AND consumed = FALSE AND expires_at >= $2
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	var c domain.OneTimeCode
	err := r.db.QueryRow(ctx, query, email, now).Scan(
		&c.ID,
		&c.Email,
		&c.CodeHash,
		&c.Attempts,
		&c.Consumed,
		&c.ConsumedAt,
		&c.ExpiresAt,
		&c.CreatedAt,
	)
	if err != nil {
		return domain.OneTimeCode{}, err
	}
	return c, nil
}

func (r *PgOTPRepository) IncrementAttempts(ctx context.Context, id string) error {
	const query = `UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// MarkConsumed marca el codigo como usado; false si otro request ya lo consumio.
func (r *PgOTPRepository) MarkConsumed(ctx context.Context, id string, consumedAt time.Time) (bool, error) {
	const query = `
		UPDATE otp_codes
		SET consumed = TRUE, consumed_at = $2
		WHERE id = $1 AND consumed = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id, consumedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
