package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/domain"
)

// ProxyRepository handles database operations for proxy endpoints.
type ProxyRepository struct {
	db *sqlx.DB
}

// NewProxyRepository creates a new proxy repository.
func NewProxyRepository(db *sqlx.DB) *ProxyRepository {
	return &ProxyRepository{db: db}
}

// ListEnabled retrieves all enabled proxies in creation order.
func (r *ProxyRepository) ListEnabled(ctx context.Context) ([]*domain.Proxy, error) {
	var proxies []*domain.Proxy
	query := `SELECT id, name, url, enabled, created_at, updated_at
		FROM proxies WHERE enabled = TRUE ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &proxies, query); err != nil {
		return nil, fmt.Errorf("failed to list proxies: %w", err)
	}

	if proxies == nil {
		proxies = []*domain.Proxy{}
	}
	return proxies, nil
}
