package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/domain"
)

const crawlLogColumns = `id, task_id, site_id, started_at, finished_at, outcome,
       links_found, new_links, hits, error`

// CrawlLogRepository handles the append-only crawl audit trail.
type CrawlLogRepository struct {
	db *sqlx.DB
}

// NewCrawlLogRepository creates a new crawl log repository.
func NewCrawlLogRepository(db *sqlx.DB) *CrawlLogRepository {
	return &CrawlLogRepository{db: db}
}

// Insert appends one crawl log row. Rows are never updated afterwards.
func (r *CrawlLogRepository) Insert(ctx context.Context, log *domain.CrawlLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO crawl_logs (id, task_id, site_id, started_at, finished_at,
		                        outcome, links_found, new_links, hits, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.TaskID, log.SiteID, log.StartedAt, log.FinishedAt,
		log.Outcome, log.LinksFound, log.NewLinks, log.Hits, log.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl log: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent crawl logs across all tasks.
func (r *CrawlLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.CrawlLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []*domain.CrawlLog
	query := `SELECT ` + crawlLogColumns + ` FROM crawl_logs ORDER BY started_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list crawl logs: %w", err)
	}

	if logs == nil {
		logs = []*domain.CrawlLog{}
	}
	return logs, nil
}

// ListByTask retrieves recent crawl logs for one task.
func (r *CrawlLogRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]*domain.CrawlLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []*domain.CrawlLog
	query := `SELECT ` + crawlLogColumns + ` FROM crawl_logs
		WHERE task_id = $1 ORDER BY started_at DESC LIMIT $2`

	if err := r.db.SelectContext(ctx, &logs, query, taskID, limit); err != nil {
		return nil, fmt.Errorf("failed to list crawl logs: %w", err)
	}

	if logs == nil {
		logs = []*domain.CrawlLog{}
	}
	return logs, nil
}
