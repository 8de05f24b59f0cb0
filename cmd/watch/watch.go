// Package watch implements the resident monitoring daemon: the
// scheduler tick loop plus everything a crawl job needs.
package watch

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/webwatch/cmd/common"
	"github.com/jonesrussell/webwatch/internal/links"
	"github.com/jonesrussell/webwatch/internal/notify"
	"github.com/jonesrussell/webwatch/internal/proxy"
	"github.com/jonesrussell/webwatch/internal/runner"
	"github.com/jonesrussell/webwatch/internal/scheduler"
	"github.com/jonesrussell/webwatch/internal/score"
)

// Command returns the watch command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the resident monitoring scheduler",
		Long:  `Polls all enabled sites on their schedules and dispatches crawl jobs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *cfgFile)
		},
	}
}

func run(parent context.Context, cfgFile string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := common.New(ctx, cfgFile, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	log := deps.Logger
	cfg := deps.Config

	var embedder score.Embedder
	if cfg.Scorer.EmbedderURL != "" {
		embedder = score.NewHTTPEmbedder(cfg.Scorer.EmbedderURL)
	}
	scorer := score.Select(ctx, cfg.Scorer, embedder, log)

	pool := proxy.NewPool(deps.Proxies, log)
	if reloadErr := pool.Reload(ctx); reloadErr != nil {
		log.Warn("initial proxy load failed", "error", reloadErr.Error())
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

	sched := scheduler.New(
		deps.Tasks,
		deps.Sites,
		pool,
		jobRunner,
		deps.Holder,
		scorer,
		score.NewFuzzy(),
		log,
	)

	log.Info("webwatch daemon starting")
	sched.Start(ctx)
	sched.Stop()
	log.Info("webwatch daemon stopped")
	return nil
}
