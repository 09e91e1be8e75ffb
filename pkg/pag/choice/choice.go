// Package choice generates combinations of indices for conditioning-set
// searches.
//
// A [Generator] enumerates all size-k subsets of {0, 1, ..., n-1} in
// lexicographic order. Exhaustive subset enumeration drives both the
// sepset search (which tries conditioning sets of increasing size) and
// the confounder search's iterative deepening, so the order in which
// combinations appear is part of the search contract: callers rely on
// smaller-index combinations being tried first.
package choice

// Seq returns a slice containing the sequence [0, 1, 2, ..., n-1].
//
// For n <= 0, Seq returns an empty slice.
func Seq(n int) []int {
	result := make([]int, n)
	for i := range result {
		result[i] = i
	}
	return result
}

// Binomial returns the binomial coefficient C(n, k), the number of
// size-k subsets of an n-element set.
//
// Binomial returns 0 when k < 0 or k > n. The multiplicative form keeps
// intermediate values small, but results still overflow int for large
// inputs (C(67, 33) exceeds 63 bits); callers enumerating combinations
// at that scale have bigger problems than overflow.
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
	}
	return result
}

// Generator enumerates all size-k subsets of {0, ..., n-1} in
// lexicographically increasing order. Each yielded combination is an
// ascending index slice with no repeats.
//
// The zero value is not usable - use New to create a Generator.
// A Generator is not safe for concurrent use.
type Generator struct {
	n, k    int
	current []int
	done    bool
}

// New creates a Generator over size-k subsets of {0, ..., n-1}.
//
// New panics if k < 0, n < 0, or k > n; callers validate user-supplied
// bounds before constructing generators, so a bad argument here is a
// programming error. For k == 0 the generator yields a single empty
// combination.
func New(n, k int) *Generator {
	if n < 0 || k < 0 || k > n {
		panic("choice: New requires 0 <= k <= n")
	}
	g := &Generator{n: n, k: k}
	g.Reset()
	return g
}

// Reset restarts the generator. After Reset, the generator yields the
// identical sequence a fresh generator with the same n and k would.
func (g *Generator) Reset() {
	g.current = nil
	g.done = false
}

// Next returns the next combination and true, or nil and false once the
// sequence is exhausted. Exhaustion is the normal terminal state, not an
// error; further calls keep returning (nil, false).
//
// The returned slice is a copy, safe to retain or modify.
func (g *Generator) Next() ([]int, bool) {
	if g.done {
		return nil, false
	}

	if g.current == nil {
		// First combination: [0, 1, ..., k-1].
		g.current = Seq(g.k)
		return g.snapshot(), true
	}

	// Find the rightmost index that can still be advanced.
	i := g.k - 1
	for i >= 0 && g.current[i] == g.n-g.k+i {
		i--
	}
	if i < 0 {
		g.done = true
		return nil, false
	}

	g.current[i]++
	for j := i + 1; j < g.k; j++ {
		g.current[j] = g.current[j-1] + 1
	}
	return g.snapshot(), true
}

func (g *Generator) snapshot() []int {
	out := make([]int, g.k)
	copy(out, g.current)
	return out
}
