// Package logs implements the logs command: recent crawl and
// notification audit records as formatted tables.
package logs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/webwatch/cmd/common"
	"github.com/jonesrussell/webwatch/internal/domain"
)

const defaultLimit = 20

// Command returns the logs command.
func Command(cfgFile *string) *cobra.Command {
	var limit int
	var taskID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent crawl and notification logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *cfgFile, taskID, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum rows per table")
	cmd.Flags().StringVar(&taskID, "task", "", "restrict crawl logs to one task")
	return cmd
}

func run(ctx context.Context, cfgFile, taskID string, limit int) error {
	deps, err := common.New(ctx, cfgFile, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := renderCrawlLogs(ctx, deps, taskID, limit); err != nil {
		return err
	}
	fmt.Println()
	return renderNotificationLogs(ctx, deps, limit)
}

func renderCrawlLogs(ctx context.Context, deps *common.Deps, taskID string, limit int) error {
	crawlLogs, err := listCrawlLogs(ctx, deps, taskID, limit)
	if err != nil {
		return fmt.Errorf("failed to list crawl logs: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Crawl Logs")
	t.AppendHeader(table.Row{"Started", "Task", "Outcome", "Links", "New", "Hits", "Error"})

	for _, cl := range crawlLogs {
		errText := ""
		if cl.Error != nil {
			errText = *cl.Error
		}
		t.AppendRow(table.Row{
			cl.StartedAt.Format(time.RFC3339),
			cl.TaskID,
			cl.Outcome,
			cl.LinksFound,
			cl.NewLinks,
			cl.Hits,
			errText,
		})
	}

	t.Render()
	return nil
}

func listCrawlLogs(ctx context.Context, deps *common.Deps, taskID string, limit int) ([]*domain.CrawlLog, error) {
	if taskID != "" {
		return deps.CrawlLogs.ListByTask(ctx, taskID, limit)
	}
	return deps.CrawlLogs.ListRecent(ctx, limit)
}

func renderNotificationLogs(ctx context.Context, deps *common.Deps, limit int) error {
	notifLogs, err := deps.NotificationLogs.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list notification logs: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Notification Logs")
	t.AppendHeader(table.Row{"Created", "Task", "Channel", "Target", "Attempt", "Outcome", "Error"})

	for _, nl := range notifLogs {
		errText := ""
		if nl.Error != nil {
			errText = *nl.Error
		}
		t.AppendRow(table.Row{
			nl.CreatedAt.Format(time.RFC3339),
			nl.TaskID,
			nl.Channel,
			nl.Target,
			nl.Attempt,
			nl.Outcome,
			errText,
		})
	}

	t.Render()
	return nil
}
