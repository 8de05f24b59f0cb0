// Package crawl implements the one-shot crawl command: run a single
// task's crawl job immediately, outside the scheduler.
package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/webwatch/cmd/common"
	"github.com/jonesrussell/webwatch/internal/fetcher"
	"github.com/jonesrussell/webwatch/internal/links"
	"github.com/jonesrussell/webwatch/internal/notify"
	"github.com/jonesrussell/webwatch/internal/proxy"
	"github.com/jonesrussell/webwatch/internal/runner"
	"github.com/jonesrussell/webwatch/internal/score"
)

// Command returns the crawl command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <task-id>",
		Short: "Run a single crawl job for one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgFile, args[0])
		},
	}
}

func run(ctx context.Context, cfgFile, taskID string) error {
	deps, err := common.New(ctx, cfgFile, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	log := deps.Logger
	cfg := deps.Config

	task, err := deps.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}
	site, err := deps.Sites.GetByID(ctx, task.SiteID)
	if err != nil {
		return fmt.Errorf("failed to load site: %w", err)
	}

	var embedder score.Embedder
	if cfg.Scorer.EmbedderURL != "" {
		embedder = score.NewHTTPEmbedder(cfg.Scorer.EmbedderURL)
	}
	scorer := score.Select(ctx, cfg.Scorer, embedder, log)

	pool := proxy.NewPool(deps.Proxies, log)
	if reloadErr := pool.Reload(ctx); reloadErr != nil {
		log.Warn("proxy load failed, crawling direct", "error", reloadErr.Error())
	}

	opts := fetcher.Options{UserAgent: site.UserAgent}
	if site.ProxyID != nil {
		if pinned := pool.Get(*site.ProxyID); pinned != nil {
			opts.Proxy = pinned
		} else {
			opts.Proxy = pool.Next()
		}
	}

	dispatcher := notify.NewDispatcher(
		[]notify.Notifier{
			notify.NewEmailNotifier(cfg.Notify),
			notify.NewWebhookNotifier(),
		},
		deps.NotificationLogs,
		deps.Hits,
		cfg.Notify,
		log,
	)

	jobRunner := runner.New(
		links.NewDiffer(deps.SeenLinks),
		deps.Hits,
		deps.CrawlLogs,
		deps.Tasks,
		dispatcher,
		log,
	)

	if markErr := deps.Sites.MarkCrawlStarted(ctx, site.ID, time.Now().UTC()); markErr != nil {
		return fmt.Errorf("failed to mark crawl started: %w", markErr)
	}

	jobCtx, cancel := context.WithTimeout(ctx, cfg.Scheduler.JobTimeout)
	defer cancel()

	job := &runner.Job{
		Task:      task,
		Site:      site,
		Fetcher:   fetcher.New(cfg.Fetcher, opts, log),
		Scorer:    scorer,
		Threshold: task.EffectiveThreshold(cfg.Scorer.Threshold),
	}
	if cfg.Scorer.FallbackOnError && scorer.Name() == score.StrategySemantic {
		job.Fallback = score.NewFuzzy()
	}

	crawlLog := jobRunner.Run(jobCtx, job)

	fmt.Printf("crawl %s: outcome=%s links=%d new=%d hits=%d\n",
		task.Name, crawlLog.Outcome, crawlLog.LinksFound, crawlLog.NewLinks, crawlLog.Hits)
	if crawlLog.Error != nil {
		fmt.Printf("error: %s\n", *crawlLog.Error)
	}
	return nil
}
