package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webwatch/internal/domain"
)

func TestHitInsertAssignsIDAndTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHitRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO hits`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	hit := &domain.Hit{
		TaskID:  "task-1",
		TopicID: "topic-1",
		URL:     "https://example.com/x",
		Score:   0.82,
	}
	err := repo.Insert(context.Background(), hit)

	require.NoError(t, err)
	assert.NotEmpty(t, hit.ID)
	assert.False(t, hit.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkNotified(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHitRepository(db)

	mock.ExpectExec(`UPDATE hits SET notified = TRUE`).
		WithArgs("hit-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkNotified(context.Background(), "hit-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkNotifiedMissingHit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHitRepository(db)

	mock.ExpectExec(`UPDATE hits SET notified = TRUE`).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkNotified(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrHitNotFound)
}

func TestHitListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHitRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "task_id", "topic_id", "url", "title", "score", "summary", "notified", "created_at",
	}).AddRow("hit-1", "task-1", "topic-1", "https://example.com/x", "Title", 0.9, "text", true, mockTime())

	mock.ExpectQuery(`(?s)SELECT .+ FROM hits ORDER BY created_at DESC`).
		WithArgs(10).
		WillReturnRows(rows)

	hits, err := repo.ListRecent(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "hit-1", hits[0].ID)
	assert.True(t, hits[0].Notified)
}

func TestHitListRecentDefaultsLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHitRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM hits`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	hits, err := repo.ListRecent(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
