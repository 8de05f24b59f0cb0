package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/webwatch/internal/domain"
)

const webhookTimeout = 15 * time.Second

// WebhookNotifier POSTs the hit digest as JSON. The target is the
// webhook URL.
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// Channel returns the channel kind.
func (n *WebhookNotifier) Channel() string {
	return domain.ChannelWebhook
}

type webhookPayload struct {
	TaskID   string       `json:"task_id"`
	TaskName string       `json:"task_name"`
	SiteName string       `json:"site_name"`
	SiteURL  string       `json:"site_url"`
	Subject  string       `json:"subject"`
	Hits     []webhookHit `json:"hits"`
}

type webhookHit struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// Send posts the digest to the webhook URL. Any non-2xx response is a
// failed attempt.
func (n *WebhookNotifier) Send(ctx context.Context, target string, msg *Message) error {
	payload := webhookPayload{
		TaskID:   msg.TaskID,
		TaskName: msg.TaskName,
		SiteName: msg.SiteName,
		SiteURL:  msg.SiteURL,
		Subject:  msg.Subject(),
		Hits:     make([]webhookHit, 0, len(msg.Hits)),
	}
	for _, hit := range msg.Hits {
		payload.Hits = append(payload.Hits, webhookHit{
			URL:     hit.URL,
			Title:   hit.Title,
			Score:   hit.Score,
			Summary: hit.Summary,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
