package gender

import (
	"time"

	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

// CachedClassifier memoizes classifications across recomputation passes.
// The same upload is re-segmented on every filter change, so per-name
// results are cached keyed by the normalized name.
type CachedClassifier struct {
	next  Classifier
	cache sharedinfra.Cache
	ttl   time.Duration
}

// NewCachedClassifier wraps next with a cache layer.
func NewCachedClassifier(next Classifier, cache sharedinfra.Cache) *CachedClassifier {
	return &CachedClassifier{
		next:  next,
		cache: cache,
		ttl:   24 * time.Hour,
	}
}

// Classify returns the cached category for firstName, consulting the
// wrapped classifier on a miss.
func (c *CachedClassifier) Classify(firstName string) Category {
	key := sharedinfra.NewKeyBuilder().Add("gender").Add(Capitalize(firstName)).Build()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(Category)
	}

	cat := c.next.Classify(firstName)
	c.cache.Set(key, cat, c.ttl)
	return cat
}
