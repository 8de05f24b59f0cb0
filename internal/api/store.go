package api

import (
	"context"

	"github.com/jonesrussell/webwatch/internal/database"
	"github.com/jonesrussell/webwatch/internal/domain"
)

// Store bundles the audit repositories behind the AuditStore interface.
type Store struct {
	crawlLogs        *database.CrawlLogRepository
	hits             *database.HitRepository
	notificationLogs *database.NotificationLogRepository
}

// NewStore creates the audit store.
func NewStore(
	crawlLogs *database.CrawlLogRepository,
	hits *database.HitRepository,
	notificationLogs *database.NotificationLogRepository,
) *Store {
	return &Store{
		crawlLogs:        crawlLogs,
		hits:             hits,
		notificationLogs: notificationLogs,
	}
}

// ListRecentCrawlLogs lists the most recent crawl logs.
func (s *Store) ListRecentCrawlLogs(ctx context.Context, limit int) ([]*domain.CrawlLog, error) {
	return s.crawlLogs.ListRecent(ctx, limit)
}

// ListRecentHits lists the most recent hits.
func (s *Store) ListRecentHits(ctx context.Context, limit int) ([]*domain.Hit, error) {
	return s.hits.ListRecent(ctx, limit)
}

// ListRecentNotificationLogs lists the most recent delivery attempts.
func (s *Store) ListRecentNotificationLogs(ctx context.Context, limit int) ([]*domain.NotificationLog, error) {
	return s.notificationLogs.ListRecent(ctx, limit)
}
