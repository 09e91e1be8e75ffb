// Package oracle provides independence oracles for the search engine: an
// exact m-separation oracle over a known true graph, and a caching
// wrapper that memoizes queries against any expensive oracle.
package oracle

import (
	"slices"

	"github.com/matzehuels/pagsearch/pkg/observability"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/search"
)

// MSep answers independence queries by m-separation on a known mixed
// graph: directed edges are causal, bidirected edges stand for latent
// confounding. Useful wherever ground truth is available, such as tests
// and synthetic benchmarks.
type MSep struct {
	graph *pag.Graph
}

// NewMSep creates an oracle over the true graph. The graph is read, never
// modified.
func NewMSep(g *pag.Graph) *MSep {
	return &MSep{graph: g}
}

// IsIndependent reports whether a and c are m-separated given cond.
func (o *MSep) IsIndependent(a, c string, cond []string) bool {
	independent := !o.connected(a, c, cond)
	observability.Oracle().OnQuery(a, c, len(cond), independent)
	return independent
}

// SampleSize reports 0: the oracle is exact, there is no sample.
func (o *MSep) SampleSize() int { return 0 }

// connected walks every m-connecting path from x by breadth-first search
// over directed traversal states (from, to). A step through a middle
// node is open when the node is a collider on the path and an ancestor
// of the conditioning set, or a non-collider outside the conditioning
// set.
func (o *MSep) connected(x, y string, cond []string) bool {
	if x == y {
		return true
	}
	if !o.hasNode(x) || !o.hasNode(y) {
		return false
	}

	anc := o.ancestorsOf(cond)

	type hop struct{ from, to string }
	var queue []hop
	visited := make(map[hop]bool)

	for _, u := range o.graph.AdjacentTo(x) {
		h := hop{x, u}
		queue = append(queue, h)
		visited[h] = true
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		if h.to == y {
			return true
		}

		for _, w := range o.graph.AdjacentTo(h.to) {
			if w == h.from {
				continue
			}

			collider := o.graph.Endpoint(h.from, h.to) == pag.Arrow &&
				o.graph.Endpoint(w, h.to) == pag.Arrow
			if collider {
				if !anc[h.to] {
					continue
				}
			} else if slices.Contains(cond, h.to) {
				continue
			}

			next := hop{h.to, w}
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// ancestorsOf returns the conditioning nodes and everything with a
// directed path into one of them.
func (o *MSep) ancestorsOf(cond []string) map[string]bool {
	anc := make(map[string]bool, len(cond))
	queue := slices.Clone(cond)
	for _, n := range cond {
		anc[n] = true
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		for _, p := range o.graph.AdjacentTo(n) {
			// p --> n only; bidirected edges do not make ancestors.
			if o.graph.Endpoint(p, n) != pag.Arrow || o.graph.Endpoint(n, p) != pag.Tail {
				continue
			}
			if anc[p] {
				continue
			}
			anc[p] = true
			queue = append(queue, p)
		}
	}
	return anc
}

func (o *MSep) hasNode(id string) bool {
	_, ok := o.graph.Node(id)
	return ok
}

// Ensure MSep implements the search-facing interface.
var _ search.Oracle = (*MSep)(nil)
