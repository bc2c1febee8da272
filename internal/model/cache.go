package model

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/flight-delay-etl/internal/features"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

// Predictor answers prediction requests.
type Predictor interface {
	Predict(ctx context.Context, in features.Input) (Prediction, error)
	Metadata(ctx context.Context) MetadataSummary
	CheckReadiness(ctx context.Context) error
}

// CachedPredictor wraps a Predictor with an in-memory LRU cache of
// successful predictions. The wrapped model never changes after load, so
// entries do not expire.
type CachedPredictor struct {
	inner   Predictor
	cache   *lruCache[string, Prediction]
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator around a predictor.
func NewCachedPredictor(inner Predictor, maxEntries int, metrics *observability.Metrics) *CachedPredictor {
	return &CachedPredictor{
		inner:   inner,
		cache:   newLRUCache[string, Prediction](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedPredictor) Predict(ctx context.Context, in features.Input) (Prediction, error) {
	key := inputKey(in)
	if p, ok := c.cache.get(key); ok {
		c.metrics.PredictCache.WithLabelValues("hit").Inc()
		return p, nil
	}
	c.metrics.PredictCache.WithLabelValues("miss").Inc()
	p, err := c.inner.Predict(ctx, in)
	if err != nil {
		return p, err
	}
	c.cache.put(key, p)
	return p, nil
}

func (c *CachedPredictor) Metadata(ctx context.Context) MetadataSummary {
	return c.inner.Metadata(ctx)
}

func (c *CachedPredictor) CheckReadiness(ctx context.Context) error {
	return c.inner.CheckReadiness(ctx)
}

// inputKey canonicalizes an input the same way Input.Row does, so requests
// that vectorize identically share an entry.
func inputKey(in features.Input) string {
	var b strings.Builder
	r := in.Row()
	s := features.DelaySchema()
	for _, name := range s.Categorical {
		v, ok := r.Categorical[name]
		if !ok {
			v = "\x00"
		}
		fmt.Fprintf(&b, "%s|", v)
	}
	for _, name := range s.Numeric {
		if v, ok := r.Numeric[name]; ok {
			fmt.Fprintf(&b, "%g|", v)
		} else {
			b.WriteString("-|")
		}
	}
	return b.String()
}

// lruCache is a fixed-size, mutex-guarded map that evicts the least recently
// used key once it holds more than maxEntries.
type lruCache[K comparable, V any] struct {
	maxEntries int

	mu    sync.Mutex
	order *list.List // front is most recent; elements hold *lruItem[K, V]
	items map[K]*list.Element
}

type lruItem[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[K]*list.Element),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruItem[K, V]).value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruItem[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruItem[K, V]).key)
	}
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
