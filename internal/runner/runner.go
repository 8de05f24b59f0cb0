// Package runner executes one crawl job end to end: fetch the site,
// diff its links against the baseline, summarize and score what is new,
// record hits and hand them to the notification dispatcher.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/fetcher"
	"github.com/jonesrussell/webwatch/internal/links"
	"github.com/jonesrussell/webwatch/internal/logger"
	"github.com/jonesrussell/webwatch/internal/notify"
	"github.com/jonesrussell/webwatch/internal/score"
	"github.com/jonesrussell/webwatch/internal/summary"
)

// auditWriteTimeout bounds the terminal audit writes, which run on a
// context detached from the job deadline.
const auditWriteTimeout = 10 * time.Second

// Job states, logged on transition.
const (
	StateFetching    = "fetching"
	StateDiffing     = "diffing"
	StateSummarizing = "summarizing"
	StateScoring     = "scoring"
	StateNotifying   = "notifying"
	StateDone        = "done"
	StateFailed      = "failed"
)

// PageFetcher fetches one page. The scheduler builds one per job so a
// job keeps its proxy and User-Agent for its whole run.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// LinkDiffer separates new links from the site's durable baseline.
type LinkDiffer interface {
	Diff(ctx context.Context, siteID string, candidates []string) ([]string, error)
}

// HitRecorder appends hit rows.
type HitRecorder interface {
	Insert(ctx context.Context, hit *domain.Hit) error
}

// CrawlLogRecorder appends crawl log rows.
type CrawlLogRecorder interface {
	Insert(ctx context.Context, log *domain.CrawlLog) error
}

// StatusMirror mirrors the latest crawl outcome onto the task row.
type StatusMirror interface {
	UpdateLastStatus(ctx context.Context, taskID, status string) error
}

// HitDispatcher delivers the job's qualifying hits.
type HitDispatcher interface {
	Dispatch(ctx context.Context, task *domain.Task, msg *notify.Message) error
}

// Job is everything one crawl run needs, captured at dispatch time. The
// fetcher, scorers and threshold are per-job snapshots; a config reload
// mid-run never changes them.
type Job struct {
	Task    *domain.Task
	Site    *domain.Site
	Fetcher PageFetcher
	Scorer  score.Scorer
	// Fallback retries a link whose score failed; nil disables the retry.
	Fallback  score.Scorer
	Threshold float64
}

// Runner executes crawl jobs.
type Runner struct {
	differ     LinkDiffer
	hits       HitRecorder
	crawlLogs  CrawlLogRecorder
	tasks      StatusMirror
	dispatcher HitDispatcher
	log        logger.Interface
}

// New creates a runner.
func New(
	differ LinkDiffer,
	hits HitRecorder,
	crawlLogs CrawlLogRecorder,
	tasks StatusMirror,
	dispatcher HitDispatcher,
	log logger.Interface,
) *Runner {
	return &Runner{
		differ:     differ,
		hits:       hits,
		crawlLogs:  crawlLogs,
		tasks:      tasks,
		dispatcher: dispatcher,
		log:        log.WithComponent("runner"),
	}
}

// Run executes one crawl job and returns its audit record. Exactly one
// CrawlLog row is written per call, whatever happens inside, and a panic
// in any step is caught here and recorded as a failed run.
func (r *Runner) Run(ctx context.Context, job *Job) *domain.CrawlLog {
	crawlLog := &domain.CrawlLog{
		TaskID:    job.Task.ID,
		SiteID:    job.Site.ID,
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("crawl job panicked",
				"task_id", job.Task.ID,
				"panic", fmt.Sprintf("%v", rec),
			)
			fail(crawlLog, fmt.Errorf("panic: %v", rec))
		}
		r.finish(ctx, job.Task, crawlLog)
	}()

	r.execute(ctx, job, crawlLog)
	return crawlLog
}

// execute walks the job through its states, filling in the crawl log.
func (r *Runner) execute(ctx context.Context, job *Job, crawlLog *domain.CrawlLog) {
	log := r.log.With("task_id", job.Task.ID, "site_id", job.Site.ID)

	log.Debug("crawl state", "state", StateFetching)
	page, err := job.Fetcher.Fetch(ctx, job.Site.URL)
	if err != nil {
		fail(crawlLog, fmt.Errorf("fetch site: %w", err))
		return
	}

	candidates := links.Extract(page.Body, job.Site.URL, job.Site.FollowSubpages)
	crawlLog.LinksFound = len(candidates)

	log.Debug("crawl state", "state", StateDiffing, "links_found", len(candidates))
	fresh, err := r.differ.Diff(ctx, job.Site.ID, candidates)
	if err != nil {
		fail(crawlLog, fmt.Errorf("diff links: %w", err))
		return
	}
	crawlLog.NewLinks = len(fresh)

	if len(fresh) == 0 {
		crawlLog.Outcome = domain.OutcomeSuccess
		log.Info("crawl finished, nothing new")
		return
	}

	summarizer := summary.New(&pageAdapter{fetcher: job.Fetcher})
	digest := make([]*domain.Hit, 0)
	failedLinks := 0

	for _, link := range fresh {
		if ctxErr := ctx.Err(); ctxErr != nil {
			fail(crawlLog, fmt.Errorf("job deadline: %w", ctxErr))
			return
		}

		log.Debug("crawl state", "state", StateSummarizing, "url", link)
		pageSummary, sumErr := summarizer.Summarize(ctx, link)
		if sumErr != nil {
			failedLinks++
			log.Warn("skipping link, summarize failed",
				"url", link,
				"error", sumErr.Error(),
			)
			continue
		}

		log.Debug("crawl state", "state", StateScoring, "url", link)
		linkHits := r.scoreLink(ctx, job, link, pageSummary, log)
		for _, hit := range linkHits {
			if insertErr := r.hits.Insert(ctx, hit); insertErr != nil {
				fail(crawlLog, fmt.Errorf("record hit: %w", insertErr))
				return
			}
			digest = append(digest, hit)
		}
	}
	crawlLog.Hits = len(digest)

	if len(digest) > 0 {
		log.Debug("crawl state", "state", StateNotifying, "hits", len(digest))
		msg := &notify.Message{
			TaskID:   job.Task.ID,
			TaskName: job.Task.Name,
			SiteName: job.Site.Name,
			SiteURL:  job.Site.URL,
			Hits:     digest,
		}
		// Delivery failure is audited by the dispatcher, not fatal here.
		if dispatchErr := r.dispatcher.Dispatch(ctx, job.Task, msg); dispatchErr != nil {
			log.Error("notification dispatch failed", "error", dispatchErr.Error())
		}
	}

	if failedLinks > 0 {
		crawlLog.Outcome = domain.OutcomePartial
		errText := fmt.Sprintf("%d of %d new links failed", failedLinks, len(fresh))
		crawlLog.Error = &errText
	} else {
		crawlLog.Outcome = domain.OutcomeSuccess
	}
	log.Info("crawl finished",
		"outcome", crawlLog.Outcome,
		"new_links", crawlLog.NewLinks,
		"hits", crawlLog.Hits,
	)
}

// scoreLink scores one summarized page against every topic of the task.
// Each topic at or above threshold yields its own hit. A scoring error
// retries once on the fallback scorer when one is configured; a link
// that still cannot be scored is skipped for that topic.
func (r *Runner) scoreLink(
	ctx context.Context,
	job *Job,
	link string,
	pageSummary *summary.Summary,
	log logger.Interface,
) []*domain.Hit {
	text := scoringText(pageSummary)

	var hits []*domain.Hit
	for _, topic := range job.Task.Topics {
		value, err := job.Scorer.Score(ctx, text, topic.Text)
		if err != nil && job.Fallback != nil {
			log.Warn("score failed, retrying on fallback",
				"url", link,
				"topic_id", topic.ID,
				"error", err.Error(),
			)
			value, err = job.Fallback.Score(ctx, text, topic.Text)
		}
		if err != nil {
			log.Warn("score failed, skipping topic for link",
				"url", link,
				"topic_id", topic.ID,
				"error", err.Error(),
			)
			continue
		}

		if value >= job.Threshold {
			hits = append(hits, &domain.Hit{
				TaskID:  job.Task.ID,
				TopicID: topic.ID,
				URL:     link,
				Title:   pageSummary.Title,
				Score:   value,
				Summary: pageSummary.Text,
			})
		}
	}
	return hits
}

// finish writes the single audit row and mirrors the outcome onto the
// task. Both failures are logged but cannot fail the job any further.
// The writes run on a context detached from the job deadline: a job
// failed by its own timeout must still leave its terminal row.
func (r *Runner) finish(ctx context.Context, task *domain.Task, crawlLog *domain.CrawlLog) {
	now := time.Now().UTC()
	crawlLog.FinishedAt = &now

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := r.crawlLogs.Insert(ctx, crawlLog); err != nil {
		r.log.Error("failed to write crawl log",
			"task_id", task.ID,
			"error", err.Error(),
		)
	}
	if err := r.tasks.UpdateLastStatus(ctx, task.ID, crawlLog.Outcome); err != nil {
		r.log.Error("failed to mirror crawl outcome",
			"task_id", task.ID,
			"error", err.Error(),
		)
	}
}

func fail(crawlLog *domain.CrawlLog, err error) {
	crawlLog.Outcome = domain.OutcomeFailure
	errText := err.Error()
	crawlLog.Error = &errText
}

// scoringText joins title and body so a topic matching only the headline
// still scores.
func scoringText(s *summary.Summary) string {
	return strings.TrimSpace(strings.Join([]string{s.Title, s.Text}, " "))
}

// pageAdapter narrows the job fetcher to what the summarizer needs.
type pageAdapter struct {
	fetcher PageFetcher
}

func (a *pageAdapter) Fetch(ctx context.Context, url string) (*summary.FetchedPage, error) {
	result, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return &summary.FetchedPage{Body: result.Body}, nil
}
