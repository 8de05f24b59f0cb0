package score

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// maxCacheEntries caps the embedding cache. Summaries are unique per
// link, so an unbounded cache would grow for the life of the daemon; a
// full cache is flushed and repopulated.
const maxCacheEntries = 1024

// Semantic scores by cosine similarity of sentence embeddings from the
// embedding collaborator. Embeddings are cached up to a bound, which
// also pins determinism: identical inputs reuse the same vector while
// cached, and the collaborator is expected to be deterministic beyond
// that.
type Semantic struct {
	embedder Embedder

	mu    sync.Mutex
	cache map[string][]float64
}

// NewSemantic creates the embedding-backed scorer.
func NewSemantic(embedder Embedder) *Semantic {
	return &Semantic{
		embedder: embedder,
		cache:    make(map[string][]float64),
	}
}

// Name returns the strategy name.
func (s *Semantic) Name() string {
	return StrategySemantic
}

// Score embeds both texts and returns their cosine similarity clamped to
// [0,1]. An embedding failure is returned to the caller, which may retry
// the link on the fallback strategy.
func (s *Semantic) Score(ctx context.Context, summary, topic string) (float64, error) {
	vectors, err := s.embed(ctx, summary, topic)
	if err != nil {
		return 0, err
	}
	return clamp01(cosine(vectors[0], vectors[1])), nil
}

// embed resolves both texts, consulting the cache first and batching the
// misses into a single collaborator call. Cache hits are captured before
// any store so a flush cannot drop a vector this call still needs.
func (s *Semantic) embed(ctx context.Context, texts ...string) ([][]float64, error) {
	vectors := make(map[string][]float64, len(texts))

	s.mu.Lock()
	var missing []string
	for _, text := range texts {
		if v, ok := s.cache[text]; ok {
			vectors[text] = v
		} else {
			missing = append(missing, text)
		}
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		embedded, err := s.embedder.Embed(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("embed texts: %w", err)
		}
		if len(embedded) != len(missing) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missing))
		}

		s.mu.Lock()
		if len(s.cache)+len(missing) > maxCacheEntries {
			s.cache = make(map[string][]float64, len(missing))
		}
		for i, text := range missing {
			s.cache[text] = embedded[i]
			vectors[text] = embedded[i]
		}
		s.mu.Unlock()
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = vectors[text]
	}
	return out, nil
}

// cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude or the dimensions disagree.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
