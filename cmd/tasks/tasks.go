// Package tasks implements the tasks command for inspecting configured
// monitor tasks in a formatted table.
package tasks

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/webwatch/cmd/common"
)

// Command returns the tasks command with its list subcommand.
func Command(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage monitor tasks",
	}
	cmd.AddCommand(listCommand(cfgFile))
	return cmd
}

func listCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all monitor tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), *cfgFile)
		},
	}
}

func runList(ctx context.Context, cfgFile string) error {
	deps, err := common.New(ctx, cfgFile, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	tasks, err := deps.Tasks.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks configured")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Site", "Status", "Threshold", "Channels", "Topics", "Last Run"})

	for _, task := range tasks {
		siteName := task.SiteID
		if site, siteErr := deps.Sites.GetByID(ctx, task.SiteID); siteErr == nil {
			siteName = site.Name
		}

		lastStatus := "-"
		if task.LastStatus != nil {
			lastStatus = *task.LastStatus
		}

		threshold := "default"
		if task.Threshold > 0 {
			threshold = fmt.Sprintf("%.2f", task.Threshold)
		}

		t.AppendRow(table.Row{
			task.ID,
			task.Name,
			siteName,
			task.Status,
			threshold,
			strings.Join(task.Channels, ","),
			len(task.Topics),
			lastStatus,
		})
	}

	t.Render()
	return nil
}
