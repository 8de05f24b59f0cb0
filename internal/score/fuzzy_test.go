package score

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzyExactContainmentScoresMax(t *testing.T) {
	scorer := NewFuzzy()

	got, err := scorer.Score(context.Background(), "Acme Corp announces new security patch today", "security patch")

	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestFuzzyPartialOverlap(t *testing.T) {
	scorer := NewFuzzy()

	got, err := scorer.Score(context.Background(), "the quarterly security report was published", "security patch release")

	require.NoError(t, err)
	// one of three topic tokens present
	assert.InDelta(t, 1.0/3.0, got, 1e-9)
}

func TestFuzzyUnrelatedScoresZero(t *testing.T) {
	scorer := NewFuzzy()

	got, err := scorer.Score(context.Background(), "cooking recipes for beginners", "kernel vulnerability")

	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestFuzzyIgnoresPunctuationAndCase(t *testing.T) {
	scorer := NewFuzzy()

	got, err := scorer.Score(context.Background(), "BREAKING: Data-Breach confirmed!", "data breach")

	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestFuzzyEmptyTopic(t *testing.T) {
	scorer := NewFuzzy()

	got, err := scorer.Score(context.Background(), "anything", "   ")

	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestFuzzyDeterministic(t *testing.T) {
	scorer := NewFuzzy()

	first, err := scorer.Score(context.Background(), "alpha beta gamma", "beta delta")
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), "alpha beta gamma", "beta delta")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
