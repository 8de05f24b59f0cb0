package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SeenLinkRepository handles the per-site diff baseline. The set grows
// monotonically and is only ever written by the crawl pipeline.
type SeenLinkRepository struct {
	db *sqlx.DB
}

// NewSeenLinkRepository creates a new seen link repository.
func NewSeenLinkRepository(db *sqlx.DB) *SeenLinkRepository {
	return &SeenLinkRepository{db: db}
}

// FilterKnown returns the subset of candidates already recorded for the site.
func (r *SeenLinkRepository) FilterKnown(ctx context.Context, siteID string, candidates []string) (map[string]bool, error) {
	known := make(map[string]bool, len(candidates))
	if len(candidates) == 0 {
		return known, nil
	}

	var urls []string
	query := `SELECT url FROM seen_links WHERE site_id = $1 AND url = ANY($2)`

	if err := r.db.SelectContext(ctx, &urls, query, siteID, pq.Array(candidates)); err != nil {
		return nil, fmt.Errorf("failed to filter seen links: %w", err)
	}

	for _, u := range urls {
		known[u] = true
	}
	return known, nil
}

// InsertIfAbsent records URLs for a site. Duplicate inserts are a no-op,
// never an error, which is what makes the diff idempotent.
func (r *SeenLinkRepository) InsertIfAbsent(ctx context.Context, siteID string, urls []string, seenAt time.Time) error {
	if len(urls) == 0 {
		return nil
	}

	query := `
		INSERT INTO seen_links (site_id, url, first_seen_at)
		SELECT $1, unnest($2::text[]), $3
		ON CONFLICT (site_id, url) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, siteID, pq.Array(urls), seenAt); err != nil {
		return fmt.Errorf("failed to insert seen links: %w", err)
	}
	return nil
}

// CountBySite returns the size of a site's baseline.
func (r *SeenLinkRepository) CountBySite(ctx context.Context, siteID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM seen_links WHERE site_id = $1`

	if err := r.db.GetContext(ctx, &count, query, siteID); err != nil {
		return 0, fmt.Errorf("failed to count seen links: %w", err)
	}
	return count, nil
}
