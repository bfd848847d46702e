package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ask-io/internal/domain"
)

var profileRowColumns = []string{"id", "email", "name", "bio", "profile_picture", "email_verified_at", "created_at", "updated_at"}

func TestPgProfileRepository_GetByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProfileRepository(mock)
	now := time.Now().UTC()
	verified := now

	mock.ExpectQuery(`SELECT .* FROM profiles WHERE email = \$1`).
		WithArgs("ana@example.com").
		WillReturnRows(pgxmock.NewRows(profileRowColumns).
			AddRow("p1", "ana@example.com", "Ana", "", "", &verified, now, now))

	p, err := repo.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Ana", p.Name)
	require.NotNil(t, p.EmailVerifiedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgProfileRepository_GetByIDMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProfileRepository(mock)

	mock.ExpectQuery(`FROM profiles WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

func TestPgProfileRepository_UpdateMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProfileRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE profiles\s+SET name = \$2`).
		WithArgs("ghost", "n", "", "", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), domain.Profile{ID: "ghost", Name: "n", UpdatedAt: now})
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgProfileRepository_MarkEmailVerifiedOnlyOnce(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProfileRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec(`WHERE id = \$1 AND email_verified_at IS NULL`).
		WithArgs("p1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.MarkEmailVerified(context.Background(), "p1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}
