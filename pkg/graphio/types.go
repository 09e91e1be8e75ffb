package graphio

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/pagsearch/pkg/pag"
)

// Endpoint mark names used on the wire.
const (
	MarkCircle = "circle"
	MarkArrow  = "arrow"
	MarkTail   = "tail"
)

// Node data types. Empty means unspecified.
const (
	DataContinuous = "continuous"
	DataDiscrete   = "discrete"
)

// ErrUnknownMark is returned when an edge carries an endpoint mark that
// is none of circle, arrow, or tail.
var ErrUnknownMark = errors.New("unknown endpoint mark")

// =============================================================================
// Graph - PAG Serialization
// =============================================================================

// Graph is the canonical serialization format for skeletons and PAGs.
// Used for CLI input/output, API responses, storage, and caching.
//
// The format is human-readable and designed for round-trip fidelity:
// import → search → export → re-import produces identical results.
type Graph struct {
	Nodes            []Node   `json:"nodes" bson:"nodes"`
	Edges            []Edge   `json:"edges" bson:"edges"`
	Underlines       []Triple `json:"underlines,omitempty" bson:"underlines,omitempty"`
	DottedUnderlines []Triple `json:"dotted_underlines,omitempty" bson:"dotted_underlines,omitempty"`
}

// Node is the serialized form of a graph vertex. DataType declares the
// variable's measurement scale and is validated by the pipeline before
// search; it is carried through conversion but plays no role in the
// search itself.
type Node struct {
	ID       string `json:"id" bson:"id"`
	Label    string `json:"label,omitempty" bson:"label,omitempty"`
	DataType string `json:"data_type,omitempty" bson:"data_type,omitempty"`
}

// Edge is a marked edge between two nodes. MarkA and MarkB are the
// endpoint marks at A and B respectively.
type Edge struct {
	A     string `json:"a" bson:"a"`
	B     string `json:"b" bson:"b"`
	MarkA string `json:"mark_a" bson:"mark_a"`
	MarkB string `json:"mark_b" bson:"mark_b"`
}

// Triple is a serialized underline or dotted-underline triple with
// middle node Y.
type Triple struct {
	X string `json:"x" bson:"x"`
	Y string `json:"y" bson:"y"`
	Z string `json:"z" bson:"z"`
}

// =============================================================================
// pag.Graph ↔ Graph Conversion
// =============================================================================

// FromGraph converts a graph to its serialization format.
// Nodes and edges are sorted for deterministic output.
func FromGraph(g *pag.Graph) Graph {
	ids := slices.Sorted(slices.Values(g.Nodes()))

	out := Graph{
		Nodes: make([]Node, len(ids)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}

	for i, id := range ids {
		n, _ := g.Node(id)
		out.Nodes[i] = Node{ID: n.ID, Label: n.Label, DataType: n.DataType}
	}

	edges := g.Edges()
	slices.SortFunc(edges, func(a, b pag.Edge) int {
		if c := cmp.Compare(a.A, b.A); c != 0 {
			return c
		}
		return cmp.Compare(a.B, b.B)
	})
	for _, e := range edges {
		out.Edges = append(out.Edges, Edge{
			A:     e.A,
			B:     e.B,
			MarkA: markName(e.MarkA),
			MarkB: markName(e.MarkB),
		})
	}

	for _, t := range g.Underlines() {
		out.Underlines = append(out.Underlines, Triple{X: t.X, Y: t.Y, Z: t.Z})
	}
	for _, t := range g.DottedUnderlines() {
		out.DottedUnderlines = append(out.DottedUnderlines, Triple{X: t.X, Y: t.Y, Z: t.Z})
	}

	return out
}

// ToGraph converts a serialized Graph back to a pag.Graph.
// Returns an error if the structure violates graph constraints or an
// edge carries an unknown mark.
func ToGraph(gj Graph) (*pag.Graph, error) {
	g := pag.New()

	for _, nj := range gj.Nodes {
		if err := g.AddNode(pag.Node{ID: nj.ID, Label: nj.Label, DataType: nj.DataType}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}

	for _, ej := range gj.Edges {
		atA, err := parseMark(ej.MarkA)
		if err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", ej.A, ej.B, err)
		}
		atB, err := parseMark(ej.MarkB)
		if err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", ej.A, ej.B, err)
		}
		if err := g.AddEdge(ej.A, ej.B, atA, atB); err != nil {
			return nil, fmt.Errorf("add edge %s-%s: %w", ej.A, ej.B, err)
		}
	}

	for _, t := range gj.Underlines {
		g.AddUnderline(t.X, t.Y, t.Z)
	}
	for _, t := range gj.DottedUnderlines {
		g.AddDottedUnderline(t.X, t.Y, t.Z)
	}

	return g, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func markName(ep pag.Endpoint) string {
	switch ep {
	case pag.Arrow:
		return MarkArrow
	case pag.Tail:
		return MarkTail
	default:
		return MarkCircle
	}
}

func parseMark(s string) (pag.Endpoint, error) {
	switch s {
	case MarkCircle:
		return pag.Circle, nil
	case MarkArrow:
		return pag.Arrow, nil
	case MarkTail:
		return pag.Tail, nil
	default:
		return pag.Null, fmt.Errorf("%w: %q", ErrUnknownMark, s)
	}
}
