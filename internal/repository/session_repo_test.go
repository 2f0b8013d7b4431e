package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"adboard/internal/model"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "6f2e8c1e-9d3b-4a53-8f0a-0c9e1c2d3b4a"

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	s := &model.Session{ID: sessionID, UserID: 4, ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (id, user_id, expires_at, created_at)")).
		WithArgs(sessionID, 4, s.ExpiresAt, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewSessionRepository(mock)
	require.NoError(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}).
			AddRow(sessionID, 4, expires, created))

	repo := NewSessionRepository(mock)
	s, err := repo.FindByID(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 4, s.UserID)
	assert.Equal(t, expires, s.ExpiresAt)
}

func TestSessionRepository_FindByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}))

	repo := NewSessionRepository(mock)
	s, err := repo.FindByID(context.Background(), sessionID)
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs(sessionID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewSessionRepository(mock)
	assert.NoError(t, repo.Delete(context.Background(), sessionID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	repo := NewSessionRepository(mock)
	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
