package search

import (
	"slices"

	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/pag/choice"
)

// SepsetProducer finds separating sets for non-adjacent node pairs by
// querying an oracle over candidate conditioning sets drawn from the
// adjacent neighborhoods of the pair in a reference skeleton.
//
// Candidates are tried in increasing size and, within one size, in
// lexicographic combination order over the neighborhood list. The order
// matters: when several minimal separators exist, the first hit in that
// order is the one returned, and downstream collider decisions depend on
// which one that is.
//
// Results (including "no set found") are memoized for the lifetime of the
// producer. A producer belongs to exactly one search run.
type SepsetProducer struct {
	graph   *pag.Graph // reference skeleton, read-only
	oracle  Oracle
	maxSize int // largest conditioning set to try; -1 = unlimited

	cache map[[2]string]sepsetEntry
}

type sepsetEntry struct {
	set   []string
	found bool
}

// NewSepsetProducer creates a producer over the reference skeleton.
// maxSize bounds the conditioning-set size; -1 means unlimited. Values
// below -1 are a configuration error.
func NewSepsetProducer(graph *pag.Graph, oracle Oracle, maxSize int) (*SepsetProducer, error) {
	if maxSize < -1 {
		return nil, errors.New(errors.ErrCodeInvalidDepth,
			"max conditioning-set size must be -1 (unlimited) or >= 0: %d", maxSize)
	}
	return &SepsetProducer{
		graph:   graph,
		oracle:  oracle,
		maxSize: maxSize,
		cache:   make(map[[2]string]sepsetEntry),
	}, nil
}

// Sepset returns a separating set for a and c and true, or nil and false
// when no conditioning set within the size bound renders them
// independent. A missing sepset is a normal outcome, not an error.
//
// The returned slice is shared with the cache; callers must not modify it.
func (s *SepsetProducer) Sepset(a, c string) ([]string, bool) {
	key := [2]string{a, c}
	if c < a {
		key = [2]string{c, a}
	}
	if entry, ok := s.cache[key]; ok {
		return entry.set, entry.found
	}

	set, found := s.searchSepset(a, c)
	s.cache[key] = sepsetEntry{set: set, found: found}
	return set, found
}

// IsIndependent delegates directly to the oracle.
func (s *SepsetProducer) IsIndependent(a, c string, cond []string) bool {
	return s.oracle.IsIndependent(a, c, cond)
}

// searchSepset scans candidate conditioning sets from the neighborhood of
// a, then the neighborhood of c, size-ascending and lexicographic within
// each size.
func (s *SepsetProducer) searchSepset(a, c string) ([]string, bool) {
	adjA := neighborhood(s.graph, a, c)
	adjC := neighborhood(s.graph, c, a)

	maxDepth := max(len(adjA), len(adjC))
	if s.maxSize != -1 && s.maxSize < maxDepth {
		maxDepth = s.maxSize
	}

	for size := 0; size <= maxDepth; size++ {
		if set, ok := s.searchFrom(a, c, adjA, size); ok {
			return set, true
		}
		if set, ok := s.searchFrom(a, c, adjC, size); ok {
			return set, true
		}
	}
	return nil, false
}

func (s *SepsetProducer) searchFrom(a, c string, pool []string, size int) ([]string, bool) {
	if size > len(pool) {
		return nil, false
	}
	gen := choice.New(len(pool), size)
	for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
		cond := make([]string, size)
		for i, idx := range combination {
			cond[i] = pool[idx]
		}
		if s.oracle.IsIndependent(a, c, cond) {
			return cond, true
		}
	}
	return nil, false
}

// neighborhood returns the neighbors of id in the reference skeleton,
// excluding other.
func neighborhood(g *pag.Graph, id, other string) []string {
	return slices.DeleteFunc(g.AdjacentTo(id), func(s string) bool { return s == other })
}
