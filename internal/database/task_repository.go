package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/domain"
)

// ErrTaskNotFound is returned when a task lookup matches no row.
var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, name, site_id, threshold, status, channels, target, last_status, created_at`

// TaskRepository handles database operations for monitor tasks and their
// watch topics.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// taskRow mirrors the tasks table; channels are stored comma-separated.
type taskRow struct {
	domain.Task
	ChannelsRaw string `db:"channels"`
}

func (row *taskRow) toTask() *domain.Task {
	task := row.Task
	task.Channels = splitChannels(row.ChannelsRaw)
	return &task
}

func splitChannels(raw string) []string {
	parts := strings.Split(raw, ",")
	channels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			channels = append(channels, trimmed)
		}
	}
	return channels
}

// GetByID retrieves a task with its topics loaded.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var row taskRow
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task := row.toTask()
	if loadErr := r.loadTopics(ctx, []*domain.Task{task}); loadErr != nil {
		return nil, loadErr
	}
	return task, nil
}

// ListEnabled retrieves all enabled tasks with their topics loaded.
func (r *TaskRepository) ListEnabled(ctx context.Context) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE status = 'enabled' ORDER BY name`)
}

// ListAll retrieves every task with its topics loaded.
func (r *TaskRepository) ListAll(ctx context.Context) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY name`)
}

func (r *TaskRepository) list(ctx context.Context, query string) ([]*domain.Task, error) {
	var rows []*taskRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}

	if err := r.loadTopics(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// loadTopics attaches watch topics to the given tasks in one query.
func (r *TaskRepository) loadTopics(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, 0, len(tasks))
	byID := make(map[string]*domain.Task, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
		byID[task.ID] = task
	}

	query, args, err := sqlx.In(`
		SELECT tt.task_id, wt.id, wt.text, wt.category, wt.created_at
		FROM task_topics tt
		JOIN watch_topics wt ON wt.id = tt.topic_id
		WHERE tt.task_id IN (?)
		ORDER BY wt.created_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to build topics query: %w", err)
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID string
		var topic domain.WatchTopic
		if scanErr := rows.Scan(&taskID, &topic.ID, &topic.Text, &topic.Category, &topic.CreatedAt); scanErr != nil {
			return fmt.Errorf("failed to scan topic: %w", scanErr)
		}
		if task, ok := byID[taskID]; ok {
			task.Topics = append(task.Topics, &topic)
		}
	}
	return rows.Err()
}

// UpdateLastStatus mirrors the latest crawl outcome onto the task.
func (r *TaskRepository) UpdateLastStatus(ctx context.Context, id, status string) error {
	query := `UPDATE tasks SET last_status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return requireRows(result, fmt.Errorf("%w: %s", ErrTaskNotFound, id))
}
