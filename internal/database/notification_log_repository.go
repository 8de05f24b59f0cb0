package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/domain"
)

const notificationLogColumns = `id, hit_id, task_id, channel, target, attempt, outcome, error, created_at`

// NotificationLogRepository handles the append-only delivery audit trail.
type NotificationLogRepository struct {
	db *sqlx.DB
}

// NewNotificationLogRepository creates a new notification log repository.
func NewNotificationLogRepository(db *sqlx.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// Insert appends one delivery attempt row.
func (r *NotificationLogRepository) Insert(ctx context.Context, log *domain.NotificationLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notification_logs (id, hit_id, task_id, channel, target, attempt, outcome, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.HitID, log.TaskID, log.Channel, log.Target,
		log.Attempt, log.Outcome, log.Error, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification log: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent delivery attempts.
func (r *NotificationLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []*domain.NotificationLog
	query := `SELECT ` + notificationLogColumns + ` FROM notification_logs
		ORDER BY created_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}

	if logs == nil {
		logs = []*domain.NotificationLog{}
	}
	return logs, nil
}

// ListByHit retrieves every delivery attempt for one hit, oldest first.
func (r *NotificationLogRepository) ListByHit(ctx context.Context, hitID string) ([]*domain.NotificationLog, error) {
	var logs []*domain.NotificationLog
	query := `SELECT ` + notificationLogColumns + ` FROM notification_logs
		WHERE hit_id = $1 ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &logs, query, hitID); err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}

	if logs == nil {
		logs = []*domain.NotificationLog{}
	}
	return logs, nil
}
