package oracle

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/pagsearch/pkg/cache"
	"github.com/matzehuels/pagsearch/pkg/observability"
	"github.com/matzehuels/pagsearch/pkg/search"
)

// Cached memoizes an expensive oracle behind a cache backend, so repeated
// searches over the same data reuse earlier query results. Statistical
// oracles dominate search time; the graph-side work is cheap by
// comparison.
//
// Cache failures degrade to direct oracle calls; they never fail a query.
type Cached struct {
	inner search.Oracle
	cache cache.Cache
	keyer cache.Keyer
	ctx   context.Context
	ttl   time.Duration
}

// NewCached wraps an oracle with a cache. The context bounds backend
// calls for the lifetime of the wrapper; ttl applies to stored entries,
// zero meaning no expiration.
func NewCached(ctx context.Context, inner search.Oracle, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: c,
		keyer: cache.NewDefaultKeyer(),
		ctx:   ctx,
		ttl:   ttl,
	}
}

// IsIndependent answers from the cache when possible, otherwise asks the
// inner oracle and stores the verdict.
func (o *Cached) IsIndependent(a, c string, cond []string) bool {
	sorted := slices.Clone(cond)
	slices.Sort(sorted)
	key := o.keyer.QueryKey(a, c, sorted)

	if data, found, err := o.cache.Get(o.ctx, key); err == nil && found && len(data) == 1 {
		observability.Cache().OnCacheHit(o.ctx, "query")
		return data[0] == 1
	}
	observability.Cache().OnCacheMiss(o.ctx, "query")

	independent := o.inner.IsIndependent(a, c, cond)

	verdict := []byte{0}
	if independent {
		verdict[0] = 1
	}
	if err := o.cache.Set(o.ctx, key, verdict, o.ttl); err == nil {
		observability.Cache().OnCacheSet(o.ctx, "query", len(verdict))
	}

	return independent
}

// SampleSize reports the inner oracle's sample size.
func (o *Cached) SampleSize() int { return o.inner.SampleSize() }

// Ensure Cached implements the search-facing interface.
var _ search.Oracle = (*Cached)(nil)
