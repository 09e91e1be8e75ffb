// Package cache provides pluggable byte caches used to memoize expensive
// oracle queries and rendered artifacts across runs. Backends share one
// interface: a local file cache for CLI usage, Redis and MongoDB for
// server deployments, and a null cache for tests.
package cache

import (
	"context"
	"time"
)

// Default expirations per entry kind. Query verdicts are tiny and stable
// so they live longest; artifacts are cheap to regenerate.
const (
	TTLQuery    = 30 * 24 * time.Hour
	TTLSearch   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys with optional
// expiration. A zero ttl means no expiration. Get reports a miss with
// found == false; a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys for the cacheable artifacts of a run: oracle
// query results, finished searches, and rendered outputs.
type Keyer interface {
	// QueryKey identifies one independence query. The caller must pass
	// the conditioning set in a canonical (sorted) order.
	QueryKey(a, c string, cond []string) string

	// SearchKey identifies a finished search over a skeleton hash and the
	// parameters that shaped it.
	SearchKey(graphHash string, opts SearchKeyOpts) string

	// ArtifactKey identifies a rendered output of a finished search.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// SearchKeyOpts are the search parameters that distinguish cache entries
// for the same skeleton.
type SearchKeyOpts struct {
	Algorithm       string
	Depth           int
	MaxPathLength   int
	CompleteRuleSet bool
}

// ArtifactKeyOpts distinguish rendered outputs of the same search.
type ArtifactKeyOpts struct {
	Format   string
	Detailed bool
	Scale    float64
}

// DefaultKeyer hashes key components with SHA-256 under a per-kind
// prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// QueryKey generates a key for an independence query result.
func (k *DefaultKeyer) QueryKey(a, c string, cond []string) string {
	if c < a {
		a, c = c, a
	}
	return hashKey("query", a, c, cond)
}

// SearchKey generates a key for a finished search result.
func (k *DefaultKeyer) SearchKey(graphHash string, opts SearchKeyOpts) string {
	return hashKey("search", graphHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
