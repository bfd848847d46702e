package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"ask-io/internal/domain"
)

// CreditRepository define el contrato de persistencia para saldos de creditos.
type CreditRepository interface {
	GetByUserID(ctx context.Context, userID string) (domain.CreditAccount, error)
	CreateIfMissing(ctx context.Context, account domain.CreditAccount) error
	IncrementUsed(ctx context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error)
	IncrementTotal(ctx context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error)
	ChargeIfAvailable(ctx context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, bool, error)
}

// PgCreditRepository implementa CreditRepository usando pgx.
type PgCreditRepository struct {
	db DBTX
}

func NewPgCreditRepository(db DBTX) *PgCreditRepository {
	return &PgCreditRepository{db: db}
}

func (r *PgCreditRepository) GetByUserID(ctx context.Context, userID string) (domain.CreditAccount, error) {
	const query = `
		SELECT user_id, total_credits, used_credits, last_updated
		FROM credit_accounts
		WHERE user_id = $1
	`
	return scanCreditAccount(r.db.QueryRow(ctx, query, userID))
}

// CreateIfMissing inserta la cuenta salvo que ya exista una para el usuario.
func (r *PgCreditRepository) CreateIfMissing(ctx context.Context, account domain.CreditAccount) error {
	const query = `
		INSERT INTO credit_accounts (user_id, total_credits, used_credits, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		account.UserID,
		account.TotalCredits,
		account.UsedCredits,
		account.LastUpdated,
	)
	return err
}

func (r *PgCreditRepository) IncrementUsed(ctx context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error) {
	const query = `
		UPDATE credit_accounts
		SET used_credits = used_credits + $2, last_updated = $3
		WHERE user_id = $1
		RETURNING user_id, total_credits, used_credits, last_updated
	`
	return scanCreditAccount(r.db.QueryRow(ctx, query, userID, amount, at))
}

func (r *PgCreditRepository) IncrementTotal(ctx context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error) {
	const query = `
		UPDATE credit_accounts
		SET total_credits = total_credits + $2, last_updated = $3
		WHERE user_id = $1
		RETURNING user_id, total_credits, used_credits, last_updated
	`
	return scanCreditAccount(r.db.QueryRow(ctx, query, userID, amount, at))
}

// ChargeIfAvailable descuenta amount solo si el saldo alcanza, en una sola sentencia.
func (r *PgCreditRepository) ChargeIfAvailable(ctx context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, bool, error) {
	const query = `
		UPDATE credit_accounts
		SET used_credits = used_credits + $2, last_updated = $3
		WHERE user_id = $1 AND total_credits - used_credits >= $2
		RETURNING user_id, total_credits, used_credits, last_updated
	`
	account, err := scanCreditAccount(r.db.QueryRow(ctx, query, userID, amount, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CreditAccount{}, false, nil
	}
	if err != nil {
		return domain.CreditAccount{}, false, err
	}
	return account, true, nil
}

func scanCreditAccount(row pgx.Row) (domain.CreditAccount, error) {
	var a domain.CreditAccount
	if err := row.Scan(&a.UserID, &a.TotalCredits, &a.UsedCredits, &a.LastUpdated); err != nil {
		return domain.CreditAccount{}, err
	}
	return a, nil
}
