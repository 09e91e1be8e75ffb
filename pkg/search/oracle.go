package search

// Oracle answers conditional-independence queries. Implementations may be
// backed by a statistical test over data or by m-separation over a known
// graph; the search algorithms treat every call as a potentially expensive
// black box and never impose a timeout. Callers bound total work through
// the conditioning-set and path-length limits instead.
type Oracle interface {
	// IsIndependent reports whether a and c are independent given the
	// conditioning set cond.
	IsIndependent(a, c string, cond []string) bool

	// SampleSize returns the number of samples behind the oracle's
	// decisions. It is used for diagnostics only and may be 0 for exact
	// (graph-based) oracles.
	SampleSize() int
}
