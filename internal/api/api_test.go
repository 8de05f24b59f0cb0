package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/logger"
)

type fakeAuditStore struct {
	crawlLogs []*domain.CrawlLog
	hits      []*domain.Hit
	notifLogs []*domain.NotificationLog
	lastLimit int
	err       error
}

func (f *fakeAuditStore) ListRecentCrawlLogs(_ context.Context, limit int) ([]*domain.CrawlLog, error) {
	f.lastLimit = limit
	return f.crawlLogs, f.err
}

func (f *fakeAuditStore) ListRecentHits(_ context.Context, limit int) ([]*domain.Hit, error) {
	f.lastLimit = limit
	return f.hits, f.err
}

func (f *fakeAuditStore) ListRecentNotificationLogs(_ context.Context, limit int) ([]*domain.NotificationLog, error) {
	f.lastLimit = limit
	return f.notifLogs, f.err
}

func doRequest(t *testing.T, store AuditStore, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(store, logger.NewNoOp())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := doRequest(t, &fakeAuditStore{}, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCrawlLogsEndpoint(t *testing.T) {
	store := &fakeAuditStore{crawlLogs: []*domain.CrawlLog{
		{ID: "log-1", TaskID: "task-1", Outcome: domain.OutcomeSuccess, NewLinks: 3},
	}}

	w := doRequest(t, store, "/api/v1/crawl-logs")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		CrawlLogs []*domain.CrawlLog `json:"crawl_logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.CrawlLogs, 1)
	assert.Equal(t, "log-1", body.CrawlLogs[0].ID)
	assert.Equal(t, defaultLimit, store.lastLimit)
}

func TestHitsEndpoint(t *testing.T) {
	store := &fakeAuditStore{hits: []*domain.Hit{
		{ID: "hit-1", URL: "https://example.com/x", Score: 0.8},
	}}

	w := doRequest(t, store, "/api/v1/hits")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hit-1")
}

func TestNotificationLogsEndpoint(t *testing.T) {
	store := &fakeAuditStore{notifLogs: []*domain.NotificationLog{
		{ID: "nl-1", Channel: domain.ChannelEmail, Outcome: domain.NotifySuccess},
	}}

	w := doRequest(t, store, "/api/v1/notification-logs")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nl-1")
}

func TestLimitParamClamped(t *testing.T) {
	store := &fakeAuditStore{}

	doRequest(t, store, "/api/v1/hits?limit=25")
	assert.Equal(t, 25, store.lastLimit)

	doRequest(t, store, "/api/v1/hits?limit=9999")
	assert.Equal(t, maxLimit, store.lastLimit)

	doRequest(t, store, "/api/v1/hits?limit=junk")
	assert.Equal(t, defaultLimit, store.lastLimit)

	doRequest(t, store, "/api/v1/hits?limit=-5")
	assert.Equal(t, defaultLimit, store.lastLimit)
}

func TestStoreErrorReturns500(t *testing.T) {
	store := &fakeAuditStore{err: errors.New("db down")}

	w := doRequest(t, store, "/api/v1/crawl-logs")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down", "internal errors are not leaked")
}
