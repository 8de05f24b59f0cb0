// Package domain provides domain models used across the application.
package domain

import "time"

// Site represents a configured web origin to be crawled.
type Site struct {
	// Unique identifier for the site
	ID string `json:"id" db:"id"`
	// Human-readable site name
	Name string `json:"name" db:"name"`
	// Origin URL to poll
	URL string `json:"url" db:"url"`
	// Minimum minutes between crawls
	IntervalMinutes int `json:"interval_minutes" db:"interval_minutes"`
	// Optional cron expression overriding the fixed interval
	Schedule *string `json:"schedule,omitempty" db:"schedule"`
	// Whether newly discovered subpage links are crawled and scored
	FollowSubpages bool `json:"follow_subpages" db:"follow_subpages"`
	// Optional proxy used for all fetches of this site
	ProxyID *string `json:"proxy_id,omitempty" db:"proxy_id"`
	// Custom User-Agent sent on fetches; empty means the global default
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`
	// Soft-disable flag; disabled sites are never scheduled
	Enabled bool `json:"enabled" db:"enabled"`
	// Set at job start, the scheduler's double-dispatch guard
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty" db:"last_crawled_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Interval returns the site's minimum crawl interval as a duration.
func (s *Site) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// SeenLink is a (site, URL) pair already observed, the diff baseline.
// The set grows monotonically; a URL appears at most once per site.
type SeenLink struct {
	SiteID      string    `json:"site_id" db:"site_id"`
	URL         string    `json:"url" db:"url"`
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
}

// Proxy is an outbound proxy endpoint, hot-reloadable without restart.
type Proxy struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	URL       string    `json:"url" db:"url"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
