package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/domain"
)

// ErrSiteNotFound is returned when a site lookup matches no row.
var ErrSiteNotFound = errors.New("site not found")

const siteColumns = `id, name, url, interval_minutes, schedule, follow_subpages,
       proxy_id, user_agent, enabled, last_crawled_at, created_at, updated_at`

// SiteRepository handles database operations for sites.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository creates a new site repository.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// GetByID retrieves a site by its ID.
func (r *SiteRepository) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	var site domain.Site
	query := `SELECT ` + siteColumns + ` FROM sites WHERE id = $1`

	err := r.db.GetContext(ctx, &site, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, id)
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	return &site, nil
}

// ListEnabled retrieves all enabled sites.
func (r *SiteRepository) ListEnabled(ctx context.Context) ([]*domain.Site, error) {
	var sites []*domain.Site
	query := `SELECT ` + siteColumns + ` FROM sites WHERE enabled = TRUE ORDER BY name`

	if err := r.db.SelectContext(ctx, &sites, query); err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	if sites == nil {
		sites = []*domain.Site{}
	}
	return sites, nil
}

// MarkCrawlStarted sets last_crawled_at at job start. Updating at start,
// not completion, is what keeps one tick from dispatching the same site
// twice while a job is still running.
func (r *SiteRepository) MarkCrawlStarted(ctx context.Context, id string, startedAt time.Time) error {
	query := `UPDATE sites SET last_crawled_at = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, startedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark crawl started: %w", err)
	}
	return requireRows(result, fmt.Errorf("%w: %s", ErrSiteNotFound, id))
}
