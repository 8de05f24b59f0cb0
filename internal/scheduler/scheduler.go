// Package scheduler is the resident control loop: on every tick it finds
// due tasks and launches crawl jobs up to a global concurrency ceiling.
package scheduler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/webwatch/internal/config"
	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/fetcher"
	"github.com/jonesrussell/webwatch/internal/logger"
	"github.com/jonesrussell/webwatch/internal/runner"
	"github.com/jonesrussell/webwatch/internal/score"
)

// TaskSource lists the tasks eligible for scheduling.
type TaskSource interface {
	ListEnabled(ctx context.Context) ([]*domain.Task, error)
}

// SiteSource resolves task sites and stamps job starts.
type SiteSource interface {
	GetByID(ctx context.Context, id string) (*domain.Site, error)
	MarkCrawlStarted(ctx context.Context, id string, startedAt time.Time) error
}

// ProxyPool supplies outbound proxies for sites that opt in.
type ProxyPool interface {
	Reload(ctx context.Context) error
	Get(id string) *url.URL
	Next() *url.URL
}

// JobRunner executes one crawl job.
type JobRunner interface {
	Run(ctx context.Context, job *runner.Job) *domain.CrawlLog
}

// ConfigSource yields the current configuration snapshot.
type ConfigSource interface {
	Current() *config.Config
}

// Scheduler drives the crawl pipeline. One instance runs per process.
type Scheduler struct {
	tasks   TaskSource
	sites   SiteSource
	proxies ProxyPool
	runner  JobRunner
	cfg     ConfigSource
	log     logger.Interface

	// Scorer pair selected once at startup; jobs never swap mid-run.
	scorer   score.Scorer
	fallback score.Scorer

	// running doubles as the in-flight job count for the concurrency
	// ceiling; one entry per site with a job in progress.
	mu      sync.Mutex
	running map[string]bool

	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler.
func New(
	tasks TaskSource,
	sites SiteSource,
	proxies ProxyPool,
	jobRunner JobRunner,
	cfg ConfigSource,
	scorer score.Scorer,
	fallback score.Scorer,
	log logger.Interface,
) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		sites:    sites,
		proxies:  proxies,
		runner:   jobRunner,
		cfg:      cfg,
		scorer:   scorer,
		fallback: fallback,
		log:      log.WithComponent("scheduler"),
		running:  make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop until the context is canceled or Stop is
// called. The first tick fires immediately.
func (s *Scheduler) Start(ctx context.Context) {
	snapshot := s.cfg.Current()
	interval := snapshot.Scheduler.TickInterval

	s.log.Info("scheduler started",
		"tick_interval", interval.String(),
		"max_concurrent", snapshot.Scheduler.MaxConcurrent,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			// Pick up a hot-reloaded tick interval for subsequent ticks.
			if next := s.cfg.Current().Scheduler.TickInterval; next != interval && next > 0 {
				interval = next
				ticker.Reset(interval)
				s.log.Info("tick interval updated", "tick_interval", interval.String())
			}
			s.tick(ctx)
		}
	}
}

// Stop ends the tick loop and drains in-flight jobs, giving up after the
// configured shutdown timeout. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })

	timeout := s.cfg.Current().Scheduler.ShutdownTimeout
	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.log.Info("scheduler stopped, all jobs drained")
	case <-time.After(timeout):
		s.log.Warn("scheduler stopped with jobs still running",
			"timeout", timeout.String(),
		)
	}
}

// tick evaluates every enabled task once and dispatches the due ones.
// Tasks beyond the concurrency ceiling simply wait for a later tick. The
// ceiling is read from the snapshot here, so a config reload takes
// effect on the next tick.
func (s *Scheduler) tick(ctx context.Context) {
	snapshot := s.cfg.Current()
	limit := snapshot.Scheduler.MaxConcurrent
	now := time.Now().UTC()

	if err := s.proxies.Reload(ctx); err != nil {
		s.log.Warn("proxy reload failed, keeping previous pool", "error", err.Error())
	}

	tasks, err := s.tasks.ListEnabled(ctx)
	if err != nil {
		s.log.Error("failed to list tasks", "error", err.Error())
		return
	}

	for _, task := range tasks {
		site, siteErr := s.sites.GetByID(ctx, task.SiteID)
		if siteErr != nil {
			s.log.Error("failed to load site for task",
				"task_id", task.ID,
				"site_id", task.SiteID,
				"error", siteErr.Error(),
			)
			continue
		}
		if !site.Enabled || !s.due(site, now) {
			continue
		}

		s.mu.Lock()
		if s.running[site.ID] {
			s.mu.Unlock()
			continue
		}
		if len(s.running) >= limit {
			s.mu.Unlock()
			s.log.Debug("concurrency ceiling reached, deferring task",
				"task_id", task.ID,
			)
			continue
		}
		s.running[site.ID] = true
		s.mu.Unlock()

		if markErr := s.sites.MarkCrawlStarted(ctx, site.ID, now); markErr != nil {
			s.log.Error("failed to mark crawl started",
				"site_id", site.ID,
				"error", markErr.Error(),
			)
			s.release(site.ID)
			continue
		}

		s.dispatch(ctx, snapshot, task, site)
	}
}

// dispatch launches one crawl job goroutine with everything it needs
// captured from the current snapshot.
func (s *Scheduler) dispatch(
	ctx context.Context,
	snapshot *config.Config,
	task *domain.Task,
	site *domain.Site,
) {
	job := &runner.Job{
		Task:      task,
		Site:      site,
		Fetcher:   s.buildFetcher(snapshot, site),
		Scorer:    s.scorer,
		Threshold: task.EffectiveThreshold(snapshot.Scorer.Threshold),
	}
	if snapshot.Scorer.FallbackOnError && s.scorer.Name() == score.StrategySemantic {
		job.Fallback = s.fallback
	}

	s.log.Info("dispatching crawl job",
		"task_id", task.ID,
		"site_id", site.ID,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(site.ID)

		jobCtx, cancel := context.WithTimeout(ctx, snapshot.Scheduler.JobTimeout)
		defer cancel()

		s.runner.Run(jobCtx, job)
	}()
}

// buildFetcher constructs the job's fetcher, binding its proxy and
// User-Agent for the whole run. A site pinned to a proxy that is no
// longer in the pool falls back to the rotation.
func (s *Scheduler) buildFetcher(snapshot *config.Config, site *domain.Site) runner.PageFetcher {
	opts := fetcher.Options{UserAgent: site.UserAgent}
	if site.ProxyID != nil {
		if pinned := s.proxies.Get(*site.ProxyID); pinned != nil {
			opts.Proxy = pinned
		} else {
			s.log.Warn("pinned proxy unavailable, using rotation",
				"site_id", site.ID,
				"proxy_id", *site.ProxyID,
			)
			opts.Proxy = s.proxies.Next()
		}
	}
	return fetcher.New(snapshot.Fetcher, opts, s.log)
}

func (s *Scheduler) release(siteID string) {
	s.mu.Lock()
	delete(s.running, siteID)
	s.mu.Unlock()
}

// due reports whether the site should be crawled at now. A site never
// crawled is always due; a cron schedule takes precedence over the fixed
// interval when set and parseable.
func (s *Scheduler) due(site *domain.Site, now time.Time) bool {
	if site.LastCrawledAt == nil {
		return true
	}

	if site.Schedule != nil && *site.Schedule != "" {
		sched, err := cron.ParseStandard(*site.Schedule)
		if err != nil {
			s.log.Warn("invalid cron schedule, using interval",
				"site_id", site.ID,
				"schedule", *site.Schedule,
				"error", err.Error(),
			)
		} else {
			return !sched.Next(*site.LastCrawledAt).After(now)
		}
	}

	return now.Sub(*site.LastCrawledAt) >= site.Interval()
}
