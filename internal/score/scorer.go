// Package score computes relevance between page summaries and watch
// topics. Two interchangeable strategies exist: semantic embedding
// similarity and a dependency-free fuzzy fallback. The strategy is chosen
// once at process start and never swapped silently mid-run.
package score

import (
	"context"

	"github.com/jonesrussell/webwatch/internal/config"
	"github.com/jonesrussell/webwatch/internal/logger"
)

// Strategy names.
const (
	StrategySemantic = "semantic"
	StrategyFuzzy    = "fuzzy"
)

// Scorer scores a summary against one topic, returning a value in [0,1].
// Implementations must be deterministic for identical inputs and
// monotonic: a summary containing the exact topic text scores at or near
// the maximum.
type Scorer interface {
	Score(ctx context.Context, summary, topic string) (float64, error)
	Name() string
}

// Select picks the active strategy at startup. When the semantic strategy
// is configured but the embedding collaborator is absent or fails its
// probe, the fuzzy fallback is selected and the degradation logged once.
func Select(ctx context.Context, cfg config.ScorerConfig, embedder Embedder, log logger.Interface) Scorer {
	if cfg.Strategy == StrategyFuzzy {
		log.Info("relevance scorer selected", "strategy", StrategyFuzzy)
		return NewFuzzy()
	}

	if embedder == nil {
		log.Warn("embedding collaborator not configured, falling back to fuzzy scorer")
		return NewFuzzy()
	}

	if err := probe(ctx, embedder); err != nil {
		log.Warn("embedding collaborator unavailable, falling back to fuzzy scorer",
			"error", err.Error(),
		)
		return NewFuzzy()
	}

	log.Info("relevance scorer selected", "strategy", StrategySemantic)
	return NewSemantic(embedder)
}

func probe(ctx context.Context, embedder Embedder) error {
	_, err := embedder.Embed(ctx, []string{"webwatch probe"})
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
