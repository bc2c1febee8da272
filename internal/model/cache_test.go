package model

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-delay-etl/internal/features"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

// --- mock for cache tests ---

type countingPredictor struct {
	calls  int
	result Prediction
	err    error
}

func (m *countingPredictor) Predict(_ context.Context, _ features.Input) (Prediction, error) {
	m.calls++
	return m.result, m.err
}

func (m *countingPredictor) Metadata(context.Context) MetadataSummary {
	return (*Metadata)(nil).Summary()
}

func (m *countingPredictor) CheckReadiness(context.Context) error { return m.err }

func ptr[T any](v T) *T { return &v }

// --- CachedPredictor tests ---

func TestCachedPredictor_CacheHit(t *testing.T) {
	inner := &countingPredictor{result: Prediction{Delayed: true, Label: 1, Probability: 0.8}}
	cached := NewCachedPredictor(inner, 10, observability.NewMetricsForTesting())

	in := features.Input{Airline: ptr("AA"), Origin: ptr("JFK"), Distance: ptr(2475.0)}
	p1, err := cached.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, p1.Delayed)

	// Same input after canonicalization.
	in2 := features.Input{Airline: ptr(" AA "), Origin: ptr("jfk"), Distance: ptr(2475.0)}
	p2, err := cached.Predict(context.Background(), in2)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1.0, testutil.ToFloat64(cached.metrics.PredictCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(cached.metrics.PredictCache.WithLabelValues("miss")), 0)
}

func TestCachedPredictor_DifferentInputsMiss(t *testing.T) {
	inner := &countingPredictor{}
	cached := NewCachedPredictor(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.Predict(context.Background(), features.Input{DepDelay: ptr(0.0)})
	_, _ = cached.Predict(context.Background(), features.Input{DepDelay: ptr(30.0)})
	_, _ = cached.Predict(context.Background(), features.Input{})

	assert.Equal(t, 3, inner.calls)
}

func TestCachedPredictor_ErrorsNotCached(t *testing.T) {
	inner := &countingPredictor{err: errors.New("model not loaded")}
	cached := NewCachedPredictor(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Predict(context.Background(), features.Input{})
	require.Error(t, err)
	_, err = cached.Predict(context.Background(), features.Input{})
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.cache.len())
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[string, Prediction](3)

	c.put("a", Prediction{Probability: 0.1})
	c.put("b", Prediction{Probability: 0.2})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.InDelta(t, 0.1, result.Probability, 1e-9)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string, Prediction](2)

	c.put("a", Prediction{Probability: 0.1})
	c.put("b", Prediction{Probability: 0.2})
	c.put("c", Prediction{Probability: 0.3}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")
	assert.Equal(t, 2, c.len())

	result, ok := c.get("c")
	assert.True(t, ok)
	assert.InDelta(t, 0.3, result.Probability, 1e-9)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string, Prediction](2)

	c.put("a", Prediction{Label: 1})
	c.put("b", Prediction{})

	c.get("a")
	c.put("c", Prediction{})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[string, Prediction](2)

	c.put("a", Prediction{Probability: 0.1})
	c.put("a", Prediction{Probability: 0.9})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.InDelta(t, 0.9, result.Probability, 1e-9)
	assert.Equal(t, 1, c.len())
}
