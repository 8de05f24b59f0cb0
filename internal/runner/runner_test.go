package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/fetcher"
	"github.com/jonesrussell/webwatch/internal/logger"
	"github.com/jonesrussell/webwatch/internal/notify"
)

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Result, error) {
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &fetcher.Error{Kind: fetcher.KindHTTPStatus, URL: url, StatusCode: 404}
	}
	return &fetcher.Result{Body: []byte(body), StatusCode: 200}, nil
}

type fakeDiffer struct {
	known map[string]bool
	err   error
}

func (f *fakeDiffer) Diff(_ context.Context, _ string, candidates []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var fresh []string
	for _, c := range candidates {
		if !f.known[c] {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}

type capture struct {
	hits      []*domain.Hit
	crawlLogs []*domain.CrawlLog
	statuses  []string
	messages  []*notify.Message
	panicOn   string
}

func (c *capture) Insert(_ context.Context, hit *domain.Hit) error {
	c.hits = append(c.hits, hit)
	return nil
}

// InsertCrawlLog refuses expired contexts the way ExecContext does, so a
// runner writing the terminal row with a dead job context loses it here
// just as it would against the real store.
func (c *capture) InsertCrawlLog(ctx context.Context, log *domain.CrawlLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.crawlLogs = append(c.crawlLogs, log)
	return nil
}

func (c *capture) UpdateLastStatus(ctx context.Context, _ string, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.statuses = append(c.statuses, status)
	return nil
}

func (c *capture) Dispatch(_ context.Context, _ *domain.Task, msg *notify.Message) error {
	if c.panicOn == "dispatch" {
		panic("dispatcher exploded")
	}
	c.messages = append(c.messages, msg)
	return nil
}

// crawlLogStore adapts capture to the CrawlLogRecorder interface while
// keeping a single capture struct for assertions.
type crawlLogStore struct{ c *capture }

func (s *crawlLogStore) Insert(ctx context.Context, log *domain.CrawlLog) error {
	return s.c.InsertCrawlLog(ctx, log)
}

// stubScorer returns a fixed score, or an error when set.
type stubScorer struct {
	value float64
	err   error
	name  string
}

func (s *stubScorer) Score(context.Context, string, string) (float64, error) {
	return s.value, s.err
}

func (s *stubScorer) Name() string { return s.name }

const siteHTML = `<html><body>
	<a href="/new-post">New Post</a>
</body></html>`

const postHTML = `<html><body>
	<h1>Security Advisory</h1>
	<main><p>A critical vulnerability was patched.</p></main>
</body></html>`

func testJob(f *fakeFetcher) *Job {
	return &Job{
		Task: &domain.Task{
			ID:   "task-1",
			Name: "watch advisories",
			Topics: []*domain.WatchTopic{
				{ID: "topic-1", Text: "security vulnerability"},
			},
		},
		Site: &domain.Site{
			ID:             "site-1",
			Name:           "Example",
			URL:            "https://example.com",
			FollowSubpages: true,
		},
		Fetcher:   f,
		Scorer:    &stubScorer{value: 0.9, name: "stub"},
		Threshold: 0.75,
	}
}

func newTestRunner(differ *fakeDiffer, c *capture) *Runner {
	return New(differ, c, &crawlLogStore{c}, c, c, logger.NewNoOp())
}

func TestRunRecordsHitAboveThreshold(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	crawlLog := r.Run(context.Background(), testJob(f))

	assert.Equal(t, domain.OutcomeSuccess, crawlLog.Outcome)
	assert.Equal(t, 1, crawlLog.NewLinks)
	assert.Equal(t, 1, crawlLog.Hits)

	require.Len(t, c.hits, 1)
	assert.Equal(t, "topic-1", c.hits[0].TopicID)
	assert.Equal(t, "https://example.com/new-post", c.hits[0].URL)
	assert.Equal(t, "Security Advisory", c.hits[0].Title)
	assert.Equal(t, 0.9, c.hits[0].Score)

	require.Len(t, c.messages, 1)
	assert.Len(t, c.messages[0].Hits, 1)
	assert.Equal(t, []string{domain.OutcomeSuccess}, c.statuses)
}

func TestRunBelowThresholdNoHit(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	job := testJob(f)
	job.Scorer = &stubScorer{value: 0.5, name: "stub"}

	crawlLog := r.Run(context.Background(), job)

	assert.Equal(t, domain.OutcomeSuccess, crawlLog.Outcome)
	assert.Zero(t, crawlLog.Hits)
	assert.Empty(t, c.hits)
	assert.Empty(t, c.messages)
}

func TestRunFetchFailureIsFailed(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"https://example.com": &fetcher.Error{Kind: fetcher.KindTimeout, URL: "https://example.com"},
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	crawlLog := r.Run(context.Background(), testJob(f))

	assert.Equal(t, domain.OutcomeFailure, crawlLog.Outcome)
	require.NotNil(t, crawlLog.Error)
	assert.Contains(t, *crawlLog.Error, "fetch site")
	require.Len(t, c.crawlLogs, 1)
	assert.Equal(t, []string{domain.OutcomeFailure}, c.statuses)
}

func TestRunNothingNewIsSuccess(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com": siteHTML,
	}}
	c := &capture{}
	differ := &fakeDiffer{known: map[string]bool{"https://example.com/new-post": true}}
	r := newTestRunner(differ, c)

	crawlLog := r.Run(context.Background(), testJob(f))

	assert.Equal(t, domain.OutcomeSuccess, crawlLog.Outcome)
	assert.Equal(t, 1, crawlLog.LinksFound)
	assert.Zero(t, crawlLog.NewLinks)
	assert.Zero(t, crawlLog.Hits)
}

func TestRunSummarizeFailureIsPartial(t *testing.T) {
	// The new link 404s while the site page itself is fine.
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com": siteHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	crawlLog := r.Run(context.Background(), testJob(f))

	assert.Equal(t, domain.OutcomePartial, crawlLog.Outcome)
	require.NotNil(t, crawlLog.Error)
	assert.Contains(t, *crawlLog.Error, "1 of 1 new links failed")
}

func TestRunScoreErrorFallsBack(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	job := testJob(f)
	job.Scorer = &stubScorer{err: errors.New("embedder down"), name: "semantic"}
	job.Fallback = &stubScorer{value: 0.8, name: "fuzzy"}

	crawlLog := r.Run(context.Background(), job)

	assert.Equal(t, domain.OutcomeSuccess, crawlLog.Outcome)
	require.Len(t, c.hits, 1)
	assert.Equal(t, 0.8, c.hits[0].Score)
}

func TestRunScoreErrorWithoutFallbackSkipsTopic(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	job := testJob(f)
	job.Scorer = &stubScorer{err: errors.New("embedder down"), name: "semantic"}

	crawlLog := r.Run(context.Background(), job)

	assert.Equal(t, domain.OutcomeSuccess, crawlLog.Outcome)
	assert.Empty(t, c.hits)
}

func TestRunOneHitPerQualifyingTopic(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	job := testJob(f)
	job.Task.Topics = []*domain.WatchTopic{
		{ID: "topic-1", Text: "security vulnerability"},
		{ID: "topic-2", Text: "critical patch"},
	}

	crawlLog := r.Run(context.Background(), job)

	assert.Equal(t, 2, crawlLog.Hits)
	require.Len(t, c.hits, 2)
	assert.NotEqual(t, c.hits[0].TopicID, c.hits[1].TopicID)
}

func TestRunPanicRecordedAsFailure(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{panicOn: "dispatch"}
	r := newTestRunner(&fakeDiffer{}, c)

	crawlLog := r.Run(context.Background(), testJob(f))

	assert.Equal(t, domain.OutcomeFailure, crawlLog.Outcome)
	require.NotNil(t, crawlLog.Error)
	assert.Contains(t, *crawlLog.Error, "panic")
	require.Len(t, c.crawlLogs, 1, "exactly one crawl log per run")
}

func TestRunCanceledContextIsFailed(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com":          siteHTML,
		"https://example.com/new-post": postHTML,
	}}
	c := &capture{}
	r := newTestRunner(&fakeDiffer{}, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	crawlLog := r.Run(ctx, testJob(f))

	assert.Equal(t, domain.OutcomeFailure, crawlLog.Outcome)
	require.Len(t, c.crawlLogs, 1, "a timed-out job must still persist its terminal crawl log")
	assert.Equal(t, domain.OutcomeFailure, c.crawlLogs[0].Outcome)
	assert.Equal(t, []string{domain.OutcomeFailure}, c.statuses,
		"the task status mirror must survive the job deadline too")
}

func TestRunAlwaysWritesExactlyOneCrawlLog(t *testing.T) {
	cases := map[string]*fakeFetcher{
		"fetch fails": {errs: map[string]error{
			"https://example.com": fmt.Errorf("boom"),
		}},
		"all good": {pages: map[string]string{
			"https://example.com":          siteHTML,
			"https://example.com/new-post": postHTML,
		}},
	}

	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			c := &capture{}
			r := newTestRunner(&fakeDiffer{}, c)

			r.Run(context.Background(), testJob(f))

			assert.Len(t, c.crawlLogs, 1)
		})
	}
}
