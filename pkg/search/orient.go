package search

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/observability"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/pag/choice"
)

// unlimitedPathLength stands in for "no bound" during discriminating-path
// search when MaxPathLength is -1.
const unlimitedPathLength = 1000

// RuleApplication records one orientation step for tracing.
type RuleApplication struct {
	Rule   string // rule identifier: "BK", "R0", "R1", ..., "R10"
	Detail string // human-readable description of the change
}

// Orienter turns a skeleton whose endpoints are all circles into a PAG by
// applying the collider rule and the endpoint propagation rules to a
// fixpoint.
//
// Every rule only tightens endpoints (circle to arrow or circle to tail,
// never back), so the number of circle endpoints strictly decreases with
// each application and the fixpoint loop terminates after at most
// 2x|edges| effective steps. Rules never add or delete edges.
//
// An Orienter is configured once and may orient multiple graphs; the rule
// trace is reset at the start of each Orient call.
type Orienter struct {
	sepsets         *SepsetProducer
	knowledge       *Knowledge
	completeRuleSet bool
	maxPathLength   int
	logger          *log.Logger

	changed bool
	trace   []RuleApplication
}

// NewOrienter creates an Orienter over the given sepset producer with
// empty background knowledge, the original (non-complete) rule set, and
// unlimited discriminating-path length.
func NewOrienter(sepsets *SepsetProducer) *Orienter {
	return &Orienter{
		sepsets:       sepsets,
		knowledge:     NewKnowledge(),
		maxPathLength: -1,
		logger:        log.New(io.Discard),
	}
}

// SetKnowledge installs background knowledge. Nil is treated as empty.
func (o *Orienter) SetKnowledge(k *Knowledge) {
	if k == nil {
		k = NewKnowledge()
	}
	o.knowledge = k
}

// SetCompleteRuleSet selects between Zhang's complete rule set (true) and
// the original minimal rule set R1-R4 (false, the default).
func (o *Orienter) SetCompleteRuleSet(complete bool) { o.completeRuleSet = complete }

// SetMaxPathLength bounds the length of discriminating paths considered
// by R4; -1 means unlimited. Values below -1 are a configuration error.
func (o *Orienter) SetMaxPathLength(length int) error {
	if length < -1 {
		return errors.New(errors.ErrCodeInvalidPathLength,
			"max path length must be -1 (unlimited) or >= 0: %d", length)
	}
	o.maxPathLength = length
	return nil
}

// SetLogger installs a logger for rule-level debug output.
func (o *Orienter) SetLogger(l *log.Logger) {
	if l != nil {
		o.logger = l
	}
}

// Trace returns the rule applications of the most recent Orient call, in
// order.
func (o *Orienter) Trace() []RuleApplication { return o.trace }

// Orient rewrites g into a PAG. The reference graph ref is the skeleton
// produced by the upstream structure search; it supplies the definite
// colliders and the adjacencies that R0 consults, and is not modified.
//
// The sequence is fixed: reset all endpoints to circles, force
// background-knowledge orientations, apply the collider rule R0, then
// propagate to a fixpoint.
func (o *Orienter) Orient(g, ref *pag.Graph) {
	o.trace = nil

	g.ReorientAll(pag.Circle)
	o.orientByKnowledge(g)
	o.ruleR0(g, ref)
	o.finalOrientation(g)
}

// fired records a rule application in the trace, the debug log, and the
// search hooks.
func (o *Orienter) fired(rule, format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	o.trace = append(o.trace, RuleApplication{Rule: rule, Detail: detail})
	o.logger.Debug("rule fired", "rule", rule, "detail", detail)
	observability.Search().OnRuleFired(rule, detail)
}

// orientByKnowledge forces orientations from background knowledge and
// locks the forced endpoints so no later rule can undo them. Pairs whose
// names are missing from the graph, or that have no edge, are skipped.
func (o *Orienter) orientByKnowledge(g *pag.Graph) {
	for _, p := range o.knowledge.Forbidden() {
		if !g.IsAdjacentTo(p.From, p.To) {
			continue
		}
		// from->to is forbidden: orient to*->from and pin the arrowhead.
		g.SetEndpoint(p.To, p.From, pag.Arrow)
		g.SetEndpoint(p.From, p.To, pag.Circle)
		g.LockEndpoint(p.To, p.From)
		o.fired("BK", "forbidden %s->%s: oriented %s*->%s", p.From, p.To, p.To, p.From)
	}

	for _, p := range o.knowledge.Required() {
		if !g.IsAdjacentTo(p.From, p.To) {
			continue
		}
		g.SetEndpoint(p.To, p.From, pag.Tail)
		g.SetEndpoint(p.From, p.To, pag.Arrow)
		g.LockEndpoint(p.To, p.From)
		g.LockEndpoint(p.From, p.To)
		o.fired("BK", "required: oriented %s-->%s", p.From, p.To)
	}
}

// ruleR0 orients unshielded colliders. For each node b and each pair of
// its neighbors {a, c}: a definite collider in the reference skeleton is
// copied as-is; otherwise, if a and c are adjacent in the reference but
// not in the working graph and their separating set excludes b, both
// endpoints at b become arrows. A pair with no recoverable sepset just
// skips the rule.
func (o *Orienter) ruleR0(g, ref *pag.Graph) {
	observability.Search().OnPhase("R0")

	for _, b := range g.Nodes() {
		adj := g.AdjacentTo(b)
		if len(adj) < 2 {
			continue
		}

		gen := choice.New(len(adj), 2)
		for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
			a := adj[combination[0]]
			c := adj[combination[1]]

			switch {
			case ref.IsDefCollider(a, b, c):
				o.orientCollider(g, a, b, c)
			case ref.IsAdjacentTo(a, c) && !g.IsAdjacentTo(a, c):
				sepset, found := o.sepsets.Sepset(a, c)
				if found && !slices.Contains(sepset, b) {
					o.orientCollider(g, a, b, c)
				}
			}
		}
	}
}

// orientCollider sets a *-> b <-* c, honoring knowledge locks and the
// forbidden/required direction constraints.
func (o *Orienter) orientCollider(g *pag.Graph, a, b, c string) {
	if !o.knowledge.arrowAllowed(a, b) || !o.knowledge.arrowAllowed(c, b) {
		return
	}
	changedA := g.SetEndpoint(a, b, pag.Arrow)
	changedC := g.SetEndpoint(c, b, pag.Arrow)
	if changedA || changedC {
		o.fired("R0", "collider %s *-> %s <-* %s", a, b, c)
	}
}

// finalOrientation applies the propagation rules to a fixpoint. With the
// complete rule set enabled this additionally runs Zhang's R5 once, then
// R6/R7 to a fixpoint, then R8-R10 to a fixpoint.
func (o *Orienter) finalOrientation(g *pag.Graph) {
	observability.Search().OnPhase("propagation")

	o.changed = true
	for o.changed {
		o.changed = false
		o.rulesR1R2Cycle(g)
		o.ruleR3(g)
		o.ruleR4(g)
	}

	if !o.completeRuleSet {
		return
	}

	// By a remark on page 100 of Zhang's dissertation, R5 needs to be
	// applied only once; R6/R7 and R8-R10 each run to their own fixpoint.
	o.ruleR5(g)

	o.changed = true
	for o.changed {
		o.changed = false
		o.ruleR6R7(g)
	}

	o.changed = true
	for o.changed {
		o.changed = false
		o.rulesR8R9R10(g)
	}
}

// rulesR1R2Cycle tries R1 and R2 on every neighbor pair of every node, in
// both orientations of the pair.
func (o *Orienter) rulesR1R2Cycle(g *pag.Graph) {
	for _, b := range g.Nodes() {
		adj := g.AdjacentTo(b)
		if len(adj) < 2 {
			continue
		}

		gen := choice.New(len(adj), 2)
		for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
			a := adj[combination[0]]
			c := adj[combination[1]]

			// The generator yields unordered pairs; the rules are
			// direction-sensitive, so try both orders.
			o.ruleR1(g, a, b, c)
			o.ruleR1(g, c, b, a)
			o.ruleR2(g, a, b, c)
			o.ruleR2(g, c, b, a)
		}
	}
}

// ruleR1: if a*->b o-* c and a, c are not adjacent, orient the triple as
// a*->b --> c.
func (o *Orienter) ruleR1(g *pag.Graph, a, b, c string) {
	if g.IsAdjacentTo(a, c) {
		return
	}
	if g.Endpoint(a, b) == pag.Arrow && g.Endpoint(c, b) == pag.Circle {
		if !o.knowledge.arrowAllowed(b, c) {
			return
		}
		changedTail := g.SetEndpoint(c, b, pag.Tail)
		changedArrow := g.SetEndpoint(b, c, pag.Arrow)
		if changedTail || changedArrow {
			o.changed = true
			o.fired("R1", "%s*->%s o-* %s: oriented %s-->%s", a, b, c, b, c)
		}
	}
}

// ruleR2: if a --> b *-> c or a *-> b --> c, and a *-o c, orient a *-> c.
func (o *Orienter) ruleR2(g *pag.Graph, a, b, c string) {
	if !g.IsAdjacentTo(a, c) || g.Endpoint(a, c) != pag.Circle {
		return
	}
	if g.Endpoint(a, b) == pag.Arrow && g.Endpoint(b, c) == pag.Arrow &&
		(g.Endpoint(b, a) == pag.Tail || g.Endpoint(c, b) == pag.Tail) {
		if !o.knowledge.arrowAllowed(a, c) {
			return
		}
		if g.SetEndpoint(a, c, pag.Arrow) {
			o.changed = true
			o.fired("R2", "chain through %s: oriented %s *-> %s", b, a, c)
		}
	}
}

// ruleR3: if a*->b<-*c, a*-o d o-*c, a and c not adjacent, and d *-o b,
// orient d *-> b.
func (o *Orienter) ruleR3(g *pag.Graph) {
	for _, b := range g.Nodes() {
		intoBArrows := nodesInTo(g, b, pag.Arrow)
		intoBCircles := nodesInTo(g, b, pag.Circle)

		if len(intoBArrows) < 2 {
			continue
		}

		for _, d := range intoBCircles {
			gen := choice.New(len(intoBArrows), 2)
			for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
				a := intoBArrows[combination[0]]
				c := intoBArrows[combination[1]]

				if g.IsAdjacentTo(a, c) {
					continue
				}
				if !g.IsAdjacentTo(a, d) || !g.IsAdjacentTo(c, d) {
					continue
				}
				if g.Endpoint(a, d) != pag.Circle || g.Endpoint(c, d) != pag.Circle {
					continue
				}
				if !o.knowledge.arrowAllowed(d, b) {
					continue
				}
				if g.SetEndpoint(d, b, pag.Arrow) {
					o.changed = true
					o.fired("R3", "double triangle on %s, %s, %s: oriented %s *-> %s", a, c, d, d, b)
				}
			}
		}
	}
}

// ruleR4 looks for discriminating paths. The candidate pattern is
// a <-* b o-* c with a --> c; from there the search walks backwards from
// a across colliders that are parents of c until it finds a path start e
// not adjacent to c, then orients based on the sepset of (e, c).
func (o *Orienter) ruleR4(g *pag.Graph) {
	for _, b := range g.Nodes() {
		possA := nodesOutTo(g, b, pag.Arrow)
		possC := nodesInTo(g, b, pag.Circle)

		for _, a := range possA {
			for _, c := range possC {
				if !isParentOf(g, a, c) {
					continue
				}
				if g.Endpoint(b, c) != pag.Arrow {
					continue
				}
				o.discriminatingPathOrient(g, a, b, c)
			}
		}
	}
}

// discriminatingPathOrient performs a breadth-first walk backwards from a
// looking for the far end of a discriminating path for the triple
// (a, b, c). The walk is bounded by the configured maximum path length;
// reaching the bound abandons the search for this triple.
func (o *Orienter) discriminatingPathOrient(g *pag.Graph, a, b, c string) {
	maxLength := o.maxPathLength
	if maxLength == -1 {
		maxLength = unlimitedPathLength
	}

	queue := []string{a}
	visited := map[string]bool{a: true, b: true}
	previous := map[string]string{a: b}
	cParents := parentsOf(g, c)

	var frontier string
	distance := 0

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		if frontier == "" || frontier == t {
			frontier = t
			distance++
			if distance > 0 && distance > maxLength {
				return
			}
		}

		for _, d := range nodesInTo(g, t, pag.Arrow) {
			if visited[d] {
				continue
			}

			p := previous[t]
			if !g.IsDefCollider(d, t, p) {
				continue
			}

			previous[d] = t
			visited[d] = true

			if !g.IsAdjacentTo(d, c) {
				o.orientDiscriminating(g, d, a, b, c)
				return
			}
			if slices.Contains(cParents, d) {
				queue = append(queue, d)
			}
		}
	}
}

// orientDiscriminating resolves the triple (a, b, c) at the end of a
// discriminating path starting at e. A missing sepset for (e, c) disables
// the rule for this triple; it is not an error.
func (o *Orienter) orientDiscriminating(g *pag.Graph, e, a, b, c string) {
	sepset, found := o.sepsets.Sepset(e, c)
	if !found {
		return
	}

	if slices.Contains(sepset, b) {
		changedTail := g.SetEndpoint(c, b, pag.Tail)
		changedArrow := g.SetEndpoint(b, c, pag.Arrow)
		if changedTail || changedArrow {
			o.changed = true
			o.fired("R4", "discriminating path from %s: oriented %s-->%s", e, b, c)
		}
	} else {
		if !o.knowledge.arrowAllowed(a, b) || !o.knowledge.arrowAllowed(c, b) {
			return
		}
		changedA := g.SetEndpoint(a, b, pag.Arrow)
		changedC := g.SetEndpoint(c, b, pag.Arrow)
		if changedA || changedC {
			o.changed = true
			o.fired("R4", "discriminating path from %s: collider %s *-> %s <-* %s", e, a, b, c)
		}
	}
}

// ruleR5: for every a o-o b lying on an uncovered circle path whose
// interior avoids the neighborhoods of the opposite ends, orient the edge
// and the entire path with tails. Applied once per Zhang.
func (o *Orienter) ruleR5(g *pag.Graph) {
	for _, a := range g.Nodes() {
		for _, b := range nodesInTo(g, a, pag.Circle) {
			if g.Endpoint(a, b) != pag.Circle {
				continue
			}

			// a o-o b confirmed.
			for _, u := range ucCirclePaths(g, a, b) {
				if len(u) < 3 {
					continue
				}
				c := u[1]
				d := u[len(u)-2]
				if g.IsAdjacentTo(a, d) || g.IsAdjacentTo(b, c) {
					continue
				}

				changedA := g.SetEndpoint(a, b, pag.Tail)
				changedB := g.SetEndpoint(b, a, pag.Tail)
				changedPath := orientTailPath(g, u)
				if changedA || changedB || changedPath {
					o.changed = true
					o.fired("R5", "uncovered circle path %s...%s: oriented tails", a, b)
				}
			}
		}
	}
}

// ruleR6R7 handles the two tail-propagation rules: a --- b o-* c (R6) and
// a --o b o-* c with a, c nonadjacent (R7) both orient the circle at b on
// the b-c edge to a tail.
func (o *Orienter) ruleR6R7(g *pag.Graph) {
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
			if g.Endpoint(b, a) != pag.Tail || g.Endpoint(c, b) != pag.Circle {
				continue
			}

			// a --* b o-* c established.
			switch g.Endpoint(a, b) {
			case pag.Tail: // R6: a --- b
				if g.SetEndpoint(c, b, pag.Tail) {
					o.changed = true
					o.fired("R6", "%s---%s o-* %s: oriented tail at %s", a, b, c, b)
				}
			case pag.Circle: // R7: a --o b
				if g.SetEndpoint(c, b, pag.Tail) {
					o.changed = true
					o.fired("R7", "%s--o%s o-* %s: oriented tail at %s", a, b, c, b)
				}
			}
		}
	}
}

// rulesR8R9R10 scans every a o-> c edge and tries R8, then R9, then R10.
func (o *Orienter) rulesR8R9R10(g *pag.Graph) {
	for _, c := range g.Nodes() {
		for _, a := range nodesInTo(g, c, pag.Arrow) {
			if g.Endpoint(c, a) != pag.Circle {
				continue
			}

			// a o-> c confirmed.
			if o.ruleR8(g, a, c) {
				continue
			}
			if o.ruleR9(g, a, c) {
				continue
			}
			o.ruleR10(g, a, c)
		}
	}
}

// ruleR8: a --> b --> c or a --o b --> c with a o-> c orients the circle
// at a to a tail, making a --> c.
func (o *Orienter) ruleR8(g *pag.Graph, a, c string) bool {
	for _, b := range nodesInTo(g, c, pag.Arrow) {
		if b == a || !g.IsAdjacentTo(a, b) {
			continue
		}
		if g.Endpoint(b, a) != pag.Tail {
			continue
		}
		if g.Endpoint(c, b) != pag.Tail {
			continue
		}
		if ep := g.Endpoint(a, b); ep != pag.Arrow && ep != pag.Circle {
			continue
		}

		if g.SetEndpoint(c, a, pag.Tail) {
			o.changed = true
			o.fired("R8", "chain %s-%s-->%s: oriented %s-->%s", a, b, c, a, c)
			return true
		}
	}
	return false
}

// ruleR9: a o-> c with an uncovered potentially directed path from a to c
// whose second node is not adjacent to c orients the circle at a to a
// tail.
func (o *Orienter) ruleR9(g *pag.Graph, a, c string) bool {
	for _, u := range ucPdPaths(g, a, c) {
		b := u[1]
		if b == c || g.IsAdjacentTo(b, c) {
			continue
		}

		if g.SetEndpoint(c, a, pag.Tail) {
			o.changed = true
			o.fired("R9", "uncovered pd path %s...%s: oriented %s-->%s", a, c, a, c)
			return true
		}
	}
	return false
}

// ruleR10: a o-> c with b --> c <-- d and uncovered potentially directed
// paths from a to b and to d whose initial nodes differ and are
// nonadjacent orients the circle at a to a tail.
func (o *Orienter) ruleR10(g *pag.Graph, a, c string) bool {
	intoC := nodesInTo(g, c, pag.Arrow)

	for _, b := range intoC {
		if b == a || g.Endpoint(c, b) != pag.Tail {
			continue
		}
		for _, d := range intoC {
			if d == a || d == b || g.Endpoint(c, d) != pag.Tail {
				continue
			}

			// b --> c <-- d established.
			for _, u1 := range ucPdPaths(g, a, b) {
				mu := u1[1]
				for _, u2 := range ucPdPaths(g, a, d) {
					omega := u2[1]
					if mu == omega || g.IsAdjacentTo(mu, omega) {
						continue
					}

					if g.SetEndpoint(c, a, pag.Tail) {
						o.changed = true
						o.fired("R10", "paths %s...%s and %s...%s: oriented %s-->%s", a, b, a, d, a, c)
						return true
					}
				}
			}
		}
	}
	return false
}

// =============================================================================
// Path and endpoint helpers
// =============================================================================

// nodesInTo returns the neighbors y of x whose edge carries the mark ep
// at x.
func nodesInTo(g *pag.Graph, x string, ep pag.Endpoint) []string {
	var out []string
	for _, y := range g.AdjacentTo(x) {
		if g.Endpoint(y, x) == ep {
			out = append(out, y)
		}
	}
	return out
}

// nodesOutTo returns the neighbors y of x whose edge carries the mark ep
// at y.
func nodesOutTo(g *pag.Graph, x string, ep pag.Endpoint) []string {
	var out []string
	for _, y := range g.AdjacentTo(x) {
		if g.Endpoint(x, y) == ep {
			out = append(out, y)
		}
	}
	return out
}

// isParentOf reports a --> c.
func isParentOf(g *pag.Graph, a, c string) bool {
	return g.Endpoint(a, c) == pag.Arrow && g.Endpoint(c, a) == pag.Tail
}

// parentsOf returns all nodes p with p --> c.
func parentsOf(g *pag.Graph, c string) []string {
	var out []string
	for _, p := range g.AdjacentTo(c) {
		if isParentOf(g, p, c) {
			out = append(out, p)
		}
	}
	return out
}

// orientTailPath sets both endpoints of every edge along the path to
// tails, reporting whether anything changed.
func orientTailPath(g *pag.Graph, path []string) bool {
	changed := false
	for i := 0; i < len(path)-1; i++ {
		if g.SetEndpoint(path[i], path[i+1], pag.Tail) {
			changed = true
		}
		if g.SetEndpoint(path[i+1], path[i], pag.Tail) {
			changed = true
		}
	}
	return changed
}

// ucCirclePaths returns all uncovered paths from a to b whose edges are
// all circle-circle. Uncovered means consecutive path nodes two apart are
// never adjacent.
func ucCirclePaths(g *pag.Graph, a, b string) [][]string {
	var paths [][]string
	soFar := []string{a}

	var walk func(curr string)
	walk = func(curr string) {
		if curr == b && len(soFar) > 1 {
			paths = append(paths, slices.Clone(soFar))
			return
		}
		for _, next := range g.AdjacentTo(curr) {
			if slices.Contains(soFar, next) {
				continue
			}
			if g.Endpoint(curr, next) != pag.Circle || g.Endpoint(next, curr) != pag.Circle {
				continue
			}
			if len(soFar) >= 2 && g.IsAdjacentTo(soFar[len(soFar)-2], next) {
				continue
			}
			soFar = append(soFar, next)
			walk(next)
			soFar = soFar[:len(soFar)-1]
		}
	}
	walk(a)
	return paths
}

// ucPdPaths returns all uncovered potentially directed paths from a to b.
// An edge x *-* y is potentially directed from x to y when it carries no
// arrow at x and no tail at y.
func ucPdPaths(g *pag.Graph, a, b string) [][]string {
	var paths [][]string
	soFar := []string{a}

	var walk func(curr string)
	walk = func(curr string) {
		if curr == b && len(soFar) > 1 {
			paths = append(paths, slices.Clone(soFar))
			return
		}
		for _, next := range g.AdjacentTo(curr) {
			if slices.Contains(soFar, next) {
				continue
			}
			if g.Endpoint(next, curr) == pag.Arrow || g.Endpoint(curr, next) == pag.Tail {
				continue
			}
			if len(soFar) >= 2 && g.IsAdjacentTo(soFar[len(soFar)-2], next) {
				continue
			}
			soFar = append(soFar, next)
			walk(next)
			soFar = soFar[:len(soFar)-1]
		}
	}
	walk(a)
	return paths
}
