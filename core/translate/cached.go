package translate

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/m3rciful/hrbot/core/metrics"
)

type cacheKey struct {
	target string
	text   string
}

// Cached memoizes successful translations. The action catalog is fixed, so
// a small cache absorbs nearly every call.
type Cached struct {
	next  Translator
	cache *lru.Cache[cacheKey, string]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Translator, size int) (*Cached, error) {
	c, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: c}, nil
}

// Translate implements Translator.
func (c *Cached) Translate(ctx context.Context, text, target string) (string, error) {
	key := cacheKey{target: target, text: text}
	if out, ok := c.cache.Get(key); ok {
		metrics.TranslationCacheHits.Inc()
		return out, nil
	}
	out, err := c.next.Translate(ctx, text, target)
	if err != nil || out == "" {
		return out, err
	}
	c.cache.Add(key, out)
	return out, nil
}

// Len reports the number of cached entries.
func (c *Cached) Len() int { return c.cache.Len() }
