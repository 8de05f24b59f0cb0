// Package notify delivers hit digests over the configured channels and
// records every delivery attempt in the audit trail.
package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/jonesrussell/webwatch/internal/domain"
)

// Message is one per-crawl digest of qualifying hits for a task. Both
// channels render from the same message so their content never diverges.
type Message struct {
	TaskID   string
	TaskName string
	SiteName string
	SiteURL  string
	Hits     []*domain.Hit
}

// Subject renders the one-line summary used as the email subject.
func (m *Message) Subject() string {
	noun := "matches"
	if len(m.Hits) == 1 {
		noun = "match"
	}
	return fmt.Sprintf("webwatch: %d new %s for %s", len(m.Hits), noun, m.TaskName)
}

// HTMLBody renders the hit list as a minimal HTML document.
func (m *Message) HTMLBody() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(m.Subject()))
	fmt.Fprintf(&b, "<p>Site: <a href=%q>%s</a></p>",
		m.SiteURL, html.EscapeString(m.SiteName))
	b.WriteString("<ul>")
	for _, hit := range m.Hits {
		title := hit.Title
		if title == "" {
			title = hit.URL
		}
		fmt.Fprintf(&b, "<li><a href=%q>%s</a> (score %.2f)<br/>%s</li>",
			hit.URL, html.EscapeString(title), hit.Score, html.EscapeString(hit.Summary))
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}
