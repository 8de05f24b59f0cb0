package domain

import "time"

// Task status values.
const (
	TaskStatusEnabled = "enabled"
	TaskStatusPaused  = "paused"
)

// Notification channel kinds.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// WatchTopic is a reusable keyword or summary string defining a monitoring
// interest. Edits only affect future scoring; prior hits are never
// invalidated retroactively.
type WatchTopic struct {
	ID        string    `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Task binds one site, one or more watch topics, and one or more
// notification channels. A task is the unit the scheduler schedules.
type Task struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	SiteID string `json:"site_id" db:"site_id"`
	// Relevance cutoff for this task; 0 means the global default applies
	Threshold float64 `json:"threshold" db:"threshold"`
	// enabled or paused
	Status string `json:"status" db:"status"`
	// Channel kinds notified on a hit (email, webhook)
	Channels []string `json:"channels" db:"-"`
	// Delivery target for the channels (address list or webhook URL)
	Target string `json:"target" db:"target"`
	// Outcome of the most recent crawl, mirrored from its CrawlLog
	LastStatus *string   `json:"last_status,omitempty" db:"last_status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Topics loaded alongside the task; not a column
	Topics []*WatchTopic `json:"topics,omitempty" db:"-"`
}

// EffectiveThreshold returns the task threshold, falling back to the
// provided global default when the task does not set one.
func (t *Task) EffectiveThreshold(def float64) float64 {
	if t.Threshold > 0 {
		return t.Threshold
	}
	return def
}

// IsEnabled reports whether the task is eligible for scheduling.
func (t *Task) IsEnabled() bool {
	return t.Status == TaskStatusEnabled
}
