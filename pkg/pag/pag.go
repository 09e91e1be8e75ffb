package pag

import (
	"cmp"
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned by edge operations when an endpoint
	// references a node that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by edge operations when both sides of an
	// edge name the same node.
	ErrSelfLoop = errors.New("self-loops are not allowed")

	// ErrDuplicateEdge is returned when an edge already exists between a
	// node pair. At most one edge may connect any pair.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Node is a vertex in the graph. Identity is the ID; the label is for
// display only and plays no role in equality or adjacency.
type Node struct {
	ID       string // Unique identifier
	Label    string // Display label (defaults to ID when empty)
	DataType string // Measurement scale (continuous or discrete); informational
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a marked edge between two nodes. A and B are stored in
// canonical (sorted) order; MarkA and MarkB are the endpoints at A and B
// respectively.
type Edge struct {
	A, B         string
	MarkA, MarkB Endpoint
}

// pairKey returns the canonical map key for an unordered node pair.
func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// sideKey identifies one side of an edge: the endpoint at `at` on the
// edge between `at` and `other`.
type sideKey struct {
	at, other string
}

// Graph is a mixed graph over named nodes with per-side endpoint marks
// and triple annotations. Node and edge iteration order is insertion
// order, which keeps searches deterministic.
//
// The zero value is not usable - use New.
type Graph struct {
	nodes map[string]Node
	order []string            // node IDs in insertion order
	edges map[[2]string]*Edge // canonical pair -> edge
	pairs [][2]string         // edge keys in insertion order
	adj   map[string][]string // adjacency lists in insertion order

	underline map[Triple]bool
	dotted    map[Triple]bool
	dottedSeq []Triple // dotted triples in the order they were marked

	locks map[sideKey]bool // endpoint marks pinned by background knowledge
}

// New creates a graph containing the given node IDs, added in order.
// IDs are almost always literals, so invalid input panics rather than
// returning an error; use [Graph.AddNode] when nodes arrive at runtime.
func New(ids ...string) *Graph {
	g := &Graph{
		nodes:     make(map[string]Node),
		edges:     make(map[[2]string]*Edge),
		adj:       make(map[string][]string),
		underline: make(map[Triple]bool),
		dotted:    make(map[Triple]bool),
		locks:     make(map[sideKey]bool),
	}
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id}); err != nil {
			panic("pag: New: " + err.Error())
		}
	}
	return g
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID when the
// ID is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// Node returns the node with the given ID and true, or the zero Node and
// false if not found.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all node IDs in insertion order. The returned slice is a
// copy.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddEdge adds an edge between a and b with the given endpoint marks at
// each side. Returns ErrUnknownNode, ErrSelfLoop, or ErrDuplicateEdge on
// constraint violations.
func (g *Graph) AddEdge(a, b string, atA, atB Endpoint) error {
	if _, ok := g.nodes[a]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[b]; !ok {
		return ErrUnknownNode
	}
	if a == b {
		return ErrSelfLoop
	}
	key := pairKey(a, b)
	if _, exists := g.edges[key]; exists {
		return ErrDuplicateEdge
	}

	e := &Edge{A: key[0], B: key[1]}
	if key[0] == a {
		e.MarkA, e.MarkB = atA, atB
	} else {
		e.MarkA, e.MarkB = atB, atA
	}
	g.edges[key] = e
	g.pairs = append(g.pairs, key)
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
	return nil
}

// AddNondirectedEdge adds a o-o b, the fully ambiguous edge.
func (g *Graph) AddNondirectedEdge(a, b string) error {
	return g.AddEdge(a, b, Circle, Circle)
}

// AddUndirectedEdge adds a --- b (tails at both sides).
func (g *Graph) AddUndirectedEdge(a, b string) error {
	return g.AddEdge(a, b, Tail, Tail)
}

// AddDirectedEdge adds a --> b.
func (g *Graph) AddDirectedEdge(a, b string) error {
	return g.AddEdge(a, b, Tail, Arrow)
}

// RemoveEdge removes the edge between a and b if it exists, along with
// its endpoint marks and locks. Triple annotations are kept: they record
// discovered evidence, not adjacency. Removing a missing edge is a no-op.
func (g *Graph) RemoveEdge(a, b string) {
	key := pairKey(a, b)
	if _, exists := g.edges[key]; !exists {
		return
	}
	delete(g.edges, key)
	g.pairs = slices.DeleteFunc(g.pairs, func(p [2]string) bool { return p == key })
	g.adj[a] = slices.DeleteFunc(g.adj[a], func(s string) bool { return s == b })
	g.adj[b] = slices.DeleteFunc(g.adj[b], func(s string) bool { return s == a })
	delete(g.locks, sideKey{at: a, other: b})
	delete(g.locks, sideKey{at: b, other: a})
}

// IsAdjacentTo reports whether an edge exists between a and b.
func (g *Graph) IsAdjacentTo(a, b string) bool {
	_, ok := g.edges[pairKey(a, b)]
	return ok
}

// AdjacentTo returns the neighbors of the node in insertion order.
// The returned slice is a copy.
func (g *Graph) AdjacentTo(id string) []string { return slices.Clone(g.adj[id]) }

// Edge returns the edge between a and b and true, or the zero Edge and
// false when the nodes are not adjacent. The returned value is a copy.
func (g *Graph) Edge(a, b string) (Edge, bool) {
	e, ok := g.edges[pairKey(a, b)]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.pairs))
	for _, key := range g.pairs {
		out = append(out, *g.edges[key])
	}
	return out
}

// Endpoint returns the mark at b on the edge between a and b, or Null
// when the nodes are not adjacent.
func (g *Graph) Endpoint(a, b string) Endpoint {
	e, ok := g.edges[pairKey(a, b)]
	if !ok {
		return Null
	}
	if e.A == b {
		return e.MarkA
	}
	return e.MarkB
}

// SetEndpoint sets the mark at b on the edge between a and b and reports
// whether the graph changed. It returns false when the nodes are not
// adjacent, when the mark is already ep, or when the side is locked by
// background knowledge.
func (g *Graph) SetEndpoint(a, b string, ep Endpoint) bool {
	e, ok := g.edges[pairKey(a, b)]
	if !ok {
		return false
	}
	if g.locks[sideKey{at: b, other: a}] {
		return false
	}
	if e.A == b {
		if e.MarkA == ep {
			return false
		}
		e.MarkA = ep
	} else {
		if e.MarkB == ep {
			return false
		}
		e.MarkB = ep
	}
	return true
}

// LockEndpoint pins the mark at b on the edge between a and b so that
// later SetEndpoint calls cannot change it. Locking a missing edge is a
// no-op.
func (g *Graph) LockEndpoint(a, b string) {
	if !g.IsAdjacentTo(a, b) {
		return
	}
	g.locks[sideKey{at: b, other: a}] = true
}

// IsDefCollider reports whether both edges of the path a-b-c carry an
// arrow into b.
func (g *Graph) IsDefCollider(a, b, c string) bool {
	return g.Endpoint(a, b) == Arrow && g.Endpoint(c, b) == Arrow
}

// ReorientAll sets every endpoint of every edge to ep. This resets the
// graph to a uniformly marked skeleton before orientation begins, so any
// locks from a previous run are discarded too.
func (g *Graph) ReorientAll(ep Endpoint) {
	for _, e := range g.edges {
		e.MarkA, e.MarkB = ep, ep
	}
	g.locks = make(map[sideKey]bool)
}

// CircleCount returns the number of circle endpoints across all edges.
// Orientation rules only ever replace circles with arrows or tails, so
// this count is non-increasing during rule application.
func (g *Graph) CircleCount() int {
	count := 0
	for _, e := range g.edges {
		if e.MarkA == Circle {
			count++
		}
		if e.MarkB == Circle {
			count++
		}
	}
	return count
}

// AddUnderline marks (a, b, c) as an underline triple.
func (g *Graph) AddUnderline(a, b, c string) {
	g.underline[NewTriple(a, b, c)] = true
}

// IsUnderline reports whether (a, b, c) is marked as an underline triple.
func (g *Graph) IsUnderline(a, b, c string) bool {
	return g.underline[NewTriple(a, b, c)]
}

// Underlines returns all underline triples in unspecified order.
func (g *Graph) Underlines() []Triple {
	out := make([]Triple, 0, len(g.underline))
	for t := range g.underline {
		out = append(out, t)
	}
	slices.SortFunc(out, compareTriples)
	return out
}

// AddDottedUnderline marks (a, b, c) as a dotted-underline triple.
// Marking the same triple twice keeps its original position in
// DottedUnderlines.
func (g *Graph) AddDottedUnderline(a, b, c string) {
	t := NewTriple(a, b, c)
	if g.dotted[t] {
		return
	}
	g.dotted[t] = true
	g.dottedSeq = append(g.dottedSeq, t)
}

// IsDottedUnderline reports whether (a, b, c) is marked as a
// dotted-underline triple.
func (g *Graph) IsDottedUnderline(a, b, c string) bool {
	return g.dotted[NewTriple(a, b, c)]
}

// DottedUnderlines returns dotted-underline triples in the order they
// were marked.
func (g *Graph) DottedUnderlines() []Triple { return slices.Clone(g.dottedSeq) }

func compareTriples(a, b Triple) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}

// Copy returns a deep copy of the graph, including endpoint marks,
// triple annotations, and locks.
func (g *Graph) Copy() *Graph {
	c := &Graph{
		nodes:     make(map[string]Node, len(g.nodes)),
		order:     slices.Clone(g.order),
		edges:     make(map[[2]string]*Edge, len(g.edges)),
		pairs:     slices.Clone(g.pairs),
		adj:       make(map[string][]string, len(g.adj)),
		underline: make(map[Triple]bool, len(g.underline)),
		dotted:    make(map[Triple]bool, len(g.dotted)),
		dottedSeq: slices.Clone(g.dottedSeq),
		locks:     make(map[sideKey]bool, len(g.locks)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n
	}
	for key, e := range g.edges {
		clone := *e
		c.edges[key] = &clone
	}
	for id, neighbors := range g.adj {
		c.adj[id] = slices.Clone(neighbors)
	}
	for t := range g.underline {
		c.underline[t] = true
	}
	for t := range g.dotted {
		c.dotted[t] = true
	}
	for k := range g.locks {
		c.locks[k] = true
	}
	return c
}
