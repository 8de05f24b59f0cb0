package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func mockTime() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestFilterKnownReturnsRecordedSubset(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeenLinkRepository(db)

	mock.ExpectQuery(`SELECT url FROM seen_links`).
		WithArgs("site-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).
			AddRow("https://example.com/a"))

	known, err := repo.FilterKnown(context.Background(), "site-1", []string{
		"https://example.com/a",
		"https://example.com/b",
	})

	require.NoError(t, err)
	assert.True(t, known["https://example.com/a"])
	assert.False(t, known["https://example.com/b"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterKnownEmptyCandidatesSkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeenLinkRepository(db)

	known, err := repo.FilterKnown(context.Background(), "site-1", nil)

	require.NoError(t, err)
	assert.Empty(t, known)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsentUsesConflictDoNothing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeenLinkRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO seen_links.+ON CONFLICT \(site_id, url\) DO NOTHING`).
		WithArgs("site-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.InsertIfAbsent(context.Background(), "site-1", []string{
		"https://example.com/a",
		"https://example.com/b",
	}, time.Now().UTC())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsentEmptyIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeenLinkRepository(db)

	require.NoError(t, repo.InsertIfAbsent(context.Background(), "site-1", nil, time.Now().UTC()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountBySite(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeenLinkRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM seen_links`).
		WithArgs("site-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountBySite(context.Background(), "site-1")

	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
