package repository

import (
	"context"

	"ask-io/internal/domain"
)

type CreditUsageRepository interface {
	Create(ctx context.Context, record domain.CreditUsageRecord) error
	ListByUserID(ctx context.Context, userID string) ([]domain.CreditUsageRecord, error)
}

type PgCreditUsageRepository struct {
	db DBTX
}

func NewPgCreditUsageRepository(db DBTX) *PgCreditUsageRepository {
	return &PgCreditUsageRepository{db: db}
}

func (r *PgCreditUsageRepository) Create(ctx context.Context, record domain.CreditUsageRecord) error {
	const query = `
		INSERT INTO credit_usage_records (id, user_id, operation, credits_used, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.UserID,
		string(record.Operation),
		record.CreditsUsed,
		record.Description,
		record.CreatedAt,
	)
	return err
}

func (r *PgCreditUsageRepository) ListByUserID(ctx context.Context, userID string) ([]domain.CreditUsageRecord, error) {
	const query = `
		SELECT id, user_id, operation, credits_used, description, created_at
		FROM credit_usage_records
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.CreditUsageRecord{}
	for rows.Next() {
		var rec domain.CreditUsageRecord
		var operation string
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&operation,
			&rec.CreditsUsed,
			&rec.Description,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Operation = domain.OperationKind(operation)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
