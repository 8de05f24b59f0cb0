// Package links extracts candidate content links from fetched pages and
// diffs them against each site's durable baseline.
package links

import (
	"bytes"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// trackingParams are query parameters stripped during normalization.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
	"ref":          true,
}

// nonContentSchemes are anchor targets that are never content links.
var nonContentSchemes = map[string]bool{
	"javascript": true,
	"mailto":     true,
	"tel":        true,
	"data":       true,
}

// Extract parses HTML and returns the normalized candidate links, deduped
// and in stable order. When followSubpages is false only same-host links
// are returned. Malformed HTML degrades to an empty set rather than an
// error; a page we cannot parse simply yields no candidates.
func Extract(html []byte, baseURL string, followSubpages bool) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}

		normalized, normErr := Normalize(base, href)
		if normErr != nil || normalized == "" {
			return
		}

		if !followSubpages && !sameHost(base, normalized) {
			return
		}

		if !seen[normalized] {
			seen[normalized] = true
			links = append(links, normalized)
		}
	})

	sort.Strings(links)
	return links
}

// Normalize resolves href against base and canonicalizes the result:
// fragment stripped, tracking parameters removed, host lowercased.
func Normalize(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if nonContentSchemes[ref.Scheme] {
		return "", nil
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", nil
	}

	resolved.Fragment = ""
	resolved.Host = strings.ToLower(resolved.Host)

	if resolved.RawQuery != "" {
		values := resolved.Query()
		for param := range values {
			if trackingParams[strings.ToLower(param)] {
				values.Del(param)
			}
		}
		resolved.RawQuery = values.Encode()
	}

	return resolved.String(), nil
}

func sameHost(base *url.URL, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), base.Hostname())
}
