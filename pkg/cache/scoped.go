package cache

// ScopedKeyer wraps a Keyer with a prefix so separate projects or users
// sharing one backend get isolated namespaces.
//
// Example usage:
//
//	// Per-project keys on a shared Redis
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// QueryKey generates a prefixed key for an independence query result.
func (k *ScopedKeyer) QueryKey(a, c string, cond []string) string {
	return k.prefix + k.inner.QueryKey(a, c, cond)
}

// SearchKey generates a prefixed key for a finished search result.
func (k *ScopedKeyer) SearchKey(graphHash string, opts SearchKeyOpts) string {
	return k.prefix + k.inner.SearchKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
