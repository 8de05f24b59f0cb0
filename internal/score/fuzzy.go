package score

import (
	"context"
	"strings"
	"unicode"
)

// Fuzzy is the dependency-free fallback strategy: normalized token
// coverage of the topic by the summary, with an exact-substring shortcut.
type Fuzzy struct{}

// NewFuzzy creates the fallback scorer.
func NewFuzzy() *Fuzzy {
	return &Fuzzy{}
}

// Name returns the strategy name.
func (f *Fuzzy) Name() string {
	return StrategyFuzzy
}

// Score returns the fraction of topic tokens present in the summary. A
// summary containing the exact topic text scores 1.0; a summary sharing
// no tokens with the topic scores 0.
func (f *Fuzzy) Score(_ context.Context, summary, topic string) (float64, error) {
	normalizedSummary := normalize(summary)
	normalizedTopic := normalize(topic)
	if normalizedTopic == "" {
		return 0, nil
	}

	if strings.Contains(normalizedSummary, normalizedTopic) {
		return 1, nil
	}

	topicTokens := strings.Fields(normalizedTopic)
	summaryTokens := make(map[string]bool)
	for _, token := range strings.Fields(normalizedSummary) {
		summaryTokens[token] = true
	}

	matched := 0
	for _, token := range topicTokens {
		if summaryTokens[token] {
			matched++
		}
	}

	return clamp01(float64(matched) / float64(len(topicTokens))), nil
}

// normalize lowercases and strips everything but letters, digits and
// spaces so token comparison ignores punctuation.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
