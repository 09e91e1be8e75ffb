package search

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/observability"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/pag/choice"
)

// Ccd searches for cyclic causal structure. Unlike Fci it may delete and
// replace edges: ambiguous colliders become directed edge pairs, triples
// gather underline and dotted-underline marks, and a recursive variant of
// R1 propagates directions while backing out of cycles it creates.
type Ccd struct {
	oracle  Oracle
	depth   int
	applyR1 bool
	logger  *log.Logger
}

// NewCcd creates a confounder search over the given oracle with unlimited
// conditioning-set size and recursive R1 enabled.
func NewCcd(oracle Oracle) *Ccd {
	return &Ccd{
		oracle:  oracle,
		depth:   -1,
		applyR1: true,
		logger:  log.New(io.Discard),
	}
}

// SetDepth bounds the conditioning-set size used when searching for
// separating sets; -1 means unlimited.
func (c *Ccd) SetDepth(depth int) error {
	if depth < -1 {
		return errors.New(errors.ErrCodeInvalidDepth,
			"max conditioning-set size must be -1 (unlimited) or >= 0: %d", depth)
	}
	c.depth = depth
	return nil
}

// SetApplyR1 toggles the final recursive orientation pass.
func (c *Ccd) SetApplyR1(apply bool) { c.applyR1 = apply }

// SetLogger installs a logger for search progress output.
func (c *Ccd) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Search runs the algorithm against ref, the skeleton delivered by the
// upstream structure search. The result carries the PAG with its
// underline and dotted-underline triples plus the supplemental sepsets
// recorded per dotted-underline triple. Instances with fewer than four
// nodes are trivial: the deeper steps are skipped and whatever
// bookkeeping exists by then is returned as-is.
func (c *Ccd) Search(ref *pag.Graph) (*Result, error) {
	if ref == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "reference graph is required")
	}

	start := time.Now()
	observability.Search().OnSearchStart("ccd", ref.NodeCount(), ref.EdgeCount())
	c.logger.Info("search started", "algorithm", "ccd", "nodes", ref.NodeCount(), "edges", ref.EdgeCount())

	g := ref.Copy()
	g.ReorientAll(pag.Circle)

	sepsets, err := NewSepsetProducer(ref, c.oracle, c.depth)
	if err != nil {
		observability.Search().OnSearchComplete("ccd", time.Since(start), err)
		return nil, err
	}

	supSepsets := make(map[pag.Triple][]string)

	if err := c.modifiedR0(g, sepsets); err != nil {
		observability.Search().OnSearchComplete("ccd", time.Since(start), err)
		return nil, err
	}

	c.stepD(g, sepsets, supSepsets)

	trivial := c.stepE(g, supSepsets)
	if !trivial {
		if err := c.stepF(g, sepsets, supSepsets); err != nil {
			observability.Search().OnSearchComplete("ccd", time.Since(start), err)
			return nil, err
		}

		if c.applyR1 {
			observability.Search().OnPhase("recursive R1")
			for _, node := range g.Nodes() {
				// A cycle unwinding all the way up just means that branch
				// was fully undone; move on to the next start node.
				if err := c.orientR1(g, node, []string{}); err != nil && err != errCycle {
					observability.Search().OnSearchComplete("ccd", time.Since(start), err)
					return nil, err
				}
			}
		}
	}

	elapsed := time.Since(start)
	observability.Search().OnSearchComplete("ccd", elapsed, nil)
	c.logger.Info("search finished", "algorithm", "ccd",
		"duration", elapsed, "dotted", len(g.DottedUnderlines()), "trivial", trivial)

	return &Result{Graph: g, SupplementalSepsets: supSepsets}, nil
}

// modifiedR0 resolves every unshielded triple a-b-c. When the sepset of
// (a, c) excludes b and the oracle confirms the pair stays dependent
// given b alone, both edges at b are replaced with directed edges into b;
// otherwise the triple is marked underline.
func (c *Ccd) modifiedR0(g *pag.Graph, sepsets *SepsetProducer) error {
	observability.Search().OnPhase("modified R0")

	for _, b := range g.Nodes() {
		adj := g.AdjacentTo(b)
		if len(adj) < 2 {
			continue
		}

		gen := choice.New(len(adj), 2)
		for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
			a := adj[combination[0]]
			ca := adj[combination[1]]

			if g.IsAdjacentTo(a, ca) {
				continue
			}

			sepset, found := sepsets.Sepset(a, ca)
			if found && !slices.Contains(sepset, b) && !sepsets.IsIndependent(a, ca, []string{b}) {
				if err := replaceWithDirected(g, a, b); err != nil {
					return err
				}
				if err := replaceWithDirected(g, ca, b); err != nil {
					return err
				}
				c.logger.Debug("collider", "a", a, "b", b, "c", ca)
			} else {
				g.AddUnderline(a, b, ca)
			}
		}
	}
	return nil
}

// stepD searches for dotted-underline evidence by iterative deepening.
// For each collider triple a -> b <- c it conditions on b, the sepset of
// (a, c), and size-m subsets of Local(a) minus that sepset; a hit marks
// the triple dotted-underline and records the full conditioning set. The
// size m grows until no triple offers a candidate set that large.
func (c *Ccd) stepD(g *pag.Graph, sepsets *SepsetProducer, supSepsets map[pag.Triple][]string) {
	observability.Search().OnPhase("step D")

	for m := 1; ; m++ {
		// The Local sets are cached for one deepening pass only.
		local := make(map[string][]string)
		for _, node := range g.Nodes() {
			local[node] = localSet(g, node)
		}
		if maxCountLocalMinusSep(g, sepsets, local) < m {
			break
		}

		for _, b := range g.Nodes() {
			adj := g.AdjacentTo(b)
			if len(adj) < 2 {
				continue
			}

			gen := choice.New(len(adj), 2)
			for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
				a := adj[combination[0]]
				ca := adj[combination[1]]

				if g.IsAdjacentTo(a, ca) {
					continue
				}

				triple := pag.NewTriple(a, b, ca)
				if _, done := supSepsets[triple]; done {
					continue
				}
				if !g.IsDefCollider(a, b, ca) {
					continue
				}

				candidates := localMinusSep(sepsets, local, a, b, ca)
				if len(candidates) < m {
					continue
				}

				sepset, _ := sepsets.Sepset(a, ca)

				sub := choice.New(len(candidates), m)
				for subset, more := sub.Next(); more; subset, more = sub.Next() {
					cond := make([]string, 0, m+1+len(sepset))
					for _, idx := range subset {
						cond = append(cond, candidates[idx])
					}
					cond = appendMissing(cond, b)
					for _, s := range sepset {
						cond = appendMissing(cond, s)
					}

					if c.oracle.IsIndependent(a, ca, cond) {
						supSepsets[triple] = cond
						g.AddDottedUnderline(a, b, ca)
						c.logger.Debug("dotted underline", "triple", triple, "cond", cond)
						break
					}
				}
			}
		}
	}
}

// stepE reports trivial instances (fewer than four nodes) without
// touching the graph. Otherwise, for every dotted-underline triple and
// every neighbor d of either outer node, the b-d endpoint at d becomes a
// tail when d belongs to the recorded conditioning set, or the edge
// becomes directed b -> d when it does not.
func (c *Ccd) stepE(g *pag.Graph, supSepsets map[pag.Triple][]string) bool {
	observability.Search().OnPhase("step E")

	if g.NodeCount() < 4 {
		return true
	}

	for _, triple := range g.DottedUnderlines() {
		cond := supSepsets[triple]
		b := triple.Y

		for _, outer := range []string{triple.X, triple.Z} {
			for _, d := range g.AdjacentTo(outer) {
				if d == b {
					continue
				}

				if slices.Contains(cond, d) {
					if g.Endpoint(b, d) != pag.Circle {
						continue
					}
					// b *-o d becomes b *-- d.
					g.SetEndpoint(b, d, pag.Tail)
				} else {
					if g.Endpoint(d, b) == pag.Arrow {
						continue
					}
					if g.Endpoint(b, d) != pag.Circle {
						continue
					}
					// b o-o d or b --o d becomes b --> d. The endpoint
					// checks above make the replacement infallible.
					_ = replaceWithDirected(g, b, d)
				}
			}
		}
	}
	return false
}

// stepF extends dotted-underline evidence to neighbors d of exactly one
// outer node: when the pair stays dependent given the recorded
// conditioning set plus d, the b-d edge becomes directed b -> d.
func (c *Ccd) stepF(g *pag.Graph, sepsets *SepsetProducer, supSepsets map[pag.Triple][]string) error {
	observability.Search().OnPhase("step F")

	for _, triple := range g.DottedUnderlines() {
		a, b, ca := triple.X, triple.Y, triple.Z
		cond := supSepsets[triple]

		adj := g.AdjacentTo(a)
		for _, d := range g.AdjacentTo(ca) {
			adj = appendMissing(adj, d)
		}

		for _, d := range adj {
			if g.Endpoint(b, d) != pag.Circle {
				continue
			}
			if g.Endpoint(d, b) == pag.Arrow {
				continue
			}
			if g.IsAdjacentTo(a, d) && g.IsAdjacentTo(ca, d) {
				continue
			}
			if !g.IsAdjacentTo(b, d) {
				continue
			}

			extended := appendMissing(slices.Clone(cond), d)
			if !sepsets.IsIndependent(a, ca, extended) {
				if err := replaceWithDirected(g, b, d); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// orientR1 walks depth-first from b, firing the underline-guarded R1 on
// every neighbor pair and recursing into each newly directed target. The
// path records the nodes on the current recursion branch: revisiting one
// means the latest orientation closed a cycle, so the caller downgrades
// its own edge to undirected and reports the failure upward, where each
// frame repeats the same undo.
func (c *Ccd) orientR1(g *pag.Graph, b string, path []string) error {
	if slices.Contains(path, b) {
		return errCycle
	}
	path = append(path, b)

	adj := g.AdjacentTo(b)
	if len(adj) < 2 {
		return nil
	}

	gen := choice.New(len(adj), 2)
	for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
		a := adj[combination[0]]
		ca := adj[combination[1]]

		for _, pair := range [][2]string{{a, ca}, {ca, a}} {
			fired, err := c.recursiveR1(g, pair[0], b, pair[1])
			if err != nil {
				return err
			}
			if !fired {
				continue
			}
			if err := c.orientR1(g, pair[1], path); err != nil {
				if err != errCycle {
					return err
				}
				g.RemoveEdge(b, pair[1])
				if err := g.AddUndirectedEdge(b, pair[1]); err != nil {
					return err
				}
				c.logger.Debug("cycle detected, downgraded edge", "b", b, "c", pair[1])
				return errCycle
			}
		}
	}
	return nil
}

// errCycle signals a closed orientation cycle up the recursive R1 stack.
// It never escapes orientR1's outermost caller.
var errCycle = errors.New(errors.ErrCodeInternal, "orientation cycle")

// recursiveR1 fires R1 on the triple a *-> b o-* c when the triple is
// underlined and no neighbor of c forms a competing underline triple
// through c. The b-c edge is replaced with directed b -> c.
func (c *Ccd) recursiveR1(g *pag.Graph, a, b, ca string) (bool, error) {
	if g.IsAdjacentTo(a, ca) {
		return false, nil
	}
	if g.Endpoint(a, b) != pag.Arrow || g.Endpoint(ca, b) != pag.Circle {
		return false, nil
	}
	if !g.IsUnderline(a, b, ca) {
		return false, nil
	}
	for _, n := range g.AdjacentTo(ca) {
		if n == b {
			continue
		}
		if g.IsUnderline(b, ca, n) {
			return false, nil
		}
	}

	if err := replaceWithDirected(g, b, ca); err != nil {
		return false, err
	}
	return true, nil
}

// replaceWithDirected swaps whatever edge exists between from and to for
// a directed from -> to edge, dropping any endpoint state.
func replaceWithDirected(g *pag.Graph, from, to string) error {
	g.RemoveEdge(from, to)
	return g.AddDirectedEdge(from, to)
}

// localSet computes Local(g, z): the neighbors of z plus every node x
// that sits at the far end of some collider x *-> y <-* z.
func localSet(g *pag.Graph, z string) []string {
	local := g.AdjacentTo(z)

	for _, x := range g.Nodes() {
		if x == z || slices.Contains(local, x) {
			continue
		}
		for _, y := range g.Nodes() {
			if y == z || y == x {
				continue
			}
			if g.IsDefCollider(x, y, z) {
				local = append(local, x)
				break
			}
		}
	}
	return local
}

// maxCountLocalMinusSep returns the largest cardinality over collider,
// non-underline triples (a, b, c) of Local(a) minus the sepset of (a, c)
// and {b, c}; -1 when no such triple exists.
func maxCountLocalMinusSep(g *pag.Graph, sepsets *SepsetProducer, local map[string][]string) int {
	maxCount := -1

	for _, b := range g.Nodes() {
		adj := g.AdjacentTo(b)
		if len(adj) < 2 {
			continue
		}

		gen := choice.New(len(adj), 2)
		for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
			a := adj[combination[0]]
			c := adj[combination[1]]

			if g.IsAdjacentTo(a, c) {
				continue
			}
			if g.IsUnderline(a, b, c) {
				continue
			}
			if !g.IsDefCollider(a, b, c) {
				continue
			}

			if count := len(localMinusSep(sepsets, local, a, b, c)); count > maxCount {
				maxCount = count
			}
		}
	}
	return maxCount
}

// localMinusSep computes Local(a) \ (sepset(a, c) union {b, c}),
// preserving the deterministic order of the Local set.
func localMinusSep(sepsets *SepsetProducer, local map[string][]string, a, b, c string) []string {
	sepset, _ := sepsets.Sepset(a, c)

	out := make([]string, 0, len(local[a]))
	for _, n := range local[a] {
		if n == b || n == c || slices.Contains(sepset, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// appendMissing appends s to list unless already present.
func appendMissing(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
