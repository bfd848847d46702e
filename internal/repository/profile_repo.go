package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"ask-io/internal/domain"
)

// ProfileRepository define el contrato de persistencia para perfiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) error
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (domain.Profile, error)
	Update(ctx context.Context, profile domain.Profile) error
	MarkEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
}

// PgProfileRepository implementa ProfileRepository usando pgx.
type PgProfileRepository struct {
	db DBTX
}

func NewPgProfileRepository(db DBTX) *PgProfileRepository {
	return &PgProfileRepository{db: db}
}

const profileColumns = `id, email, name, bio, profile_picture, email_verified_at, created_at, updated_at`

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (id, email, name, bio, profile_picture, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.Name,
		profile.Bio,
		profile.ProfilePicture,
		profile.EmailVerifiedAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

func (r *PgProfileRepository) GetByEmail(ctx context.Context, email string) (domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(r.db.QueryRow(ctx, query, email))
}

func (r *PgProfileRepository) Update(ctx context.Context, profile domain.Profile) error {
	const query = `
		UPDATE profiles
		SET name = $2, bio = $3, profile_picture = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		profile.ID,
		profile.Name,
		profile.Bio,
		profile.ProfilePicture,
		profile.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgProfileRepository) MarkEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `
		UPDATE profiles
		SET email_verified_at = $2, updated_at = $2
		WHERE id = $1 AND email_verified_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, id, verifiedAt)
	return err
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.Bio,
		&p.ProfilePicture,
		&p.EmailVerifiedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
