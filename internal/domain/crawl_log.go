package domain

import "time"

// Crawl outcome values.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// CrawlLog is one row per crawl attempt. Append-only audit trail; exactly
// one row is written per job, at job completion.
type CrawlLog struct {
	ID         string     `json:"id" db:"id"`
	TaskID     string     `json:"task_id" db:"task_id"`
	SiteID     string     `json:"site_id" db:"site_id"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	// success, partial or failure
	Outcome    string  `json:"outcome" db:"outcome"`
	LinksFound int     `json:"links_found" db:"links_found"`
	NewLinks   int     `json:"new_links" db:"new_links"`
	Hits       int     `json:"hits" db:"hits"`
	Error      *string `json:"error,omitempty" db:"error"`
}

// Hit is a recorded match between a newly discovered link and a watch topic
// above threshold. Append-only; the only permitted mutation after creation
// is the Notified flag.
type Hit struct {
	ID      string  `json:"id" db:"id"`
	TaskID  string  `json:"task_id" db:"task_id"`
	TopicID string  `json:"topic_id" db:"topic_id"`
	URL     string  `json:"url" db:"url"`
	Title   string  `json:"title" db:"title"`
	Score   float64 `json:"score" db:"score"`
	// Leading snippet of the summarized page content
	Summary   string    `json:"summary" db:"summary"`
	Notified  bool      `json:"notified" db:"notified"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification outcome values.
const (
	NotifySuccess = "success"
	NotifyFailure = "failure"
)

// NotificationLog is one row per dispatch attempt. Multiple rows per hit
// are expected across retries; at most one row per attempt.
type NotificationLog struct {
	ID      string `json:"id" db:"id"`
	HitID   string `json:"hit_id" db:"hit_id"`
	TaskID  string `json:"task_id" db:"task_id"`
	Channel string `json:"channel" db:"channel"`
	Target  string `json:"target" db:"target"`
	// 1-based attempt counter within one dispatch
	Attempt   int       `json:"attempt" db:"attempt"`
	Outcome   string    `json:"outcome" db:"outcome"`
	Error     *string   `json:"error,omitempty" db:"error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
