package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/domain"
)

// ErrHitNotFound is returned when a hit lookup matches no row.
var ErrHitNotFound = errors.New("hit not found")

const hitColumns = `id, task_id, topic_id, url, title, score, summary, notified, created_at`

// HitRepository handles the append-only hit records.
type HitRepository struct {
	db *sqlx.DB
}

// NewHitRepository creates a new hit repository.
func NewHitRepository(db *sqlx.DB) *HitRepository {
	return &HitRepository{db: db}
}

// Insert appends one hit row.
func (r *HitRepository) Insert(ctx context.Context, hit *domain.Hit) error {
	if hit.ID == "" {
		hit.ID = uuid.New().String()
	}
	if hit.CreatedAt.IsZero() {
		hit.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO hits (id, task_id, topic_id, url, title, score, summary, notified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		hit.ID, hit.TaskID, hit.TopicID, hit.URL, hit.Title,
		hit.Score, hit.Summary, hit.Notified, hit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert hit: %w", err)
	}
	return nil
}

// MarkNotified flips the notified flag, the only permitted mutation.
func (r *HitRepository) MarkNotified(ctx context.Context, id string) error {
	query := `UPDATE hits SET notified = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark hit notified: %w", err)
	}
	return requireRows(result, fmt.Errorf("%w: %s", ErrHitNotFound, id))
}

// ListRecent retrieves the most recent hits across all tasks.
func (r *HitRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Hit, error) {
	if limit <= 0 {
		limit = 50
	}

	var hits []*domain.Hit
	query := `SELECT ` + hitColumns + ` FROM hits ORDER BY created_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &hits, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list hits: %w", err)
	}

	if hits == nil {
		hits = []*domain.Hit{}
	}
	return hits, nil
}
