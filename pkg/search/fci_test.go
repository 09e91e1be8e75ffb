package search

import (
	"testing"

	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/pag"
)

func TestFciChainCollider(t *testing.T) {
	// Pre-thinning skeleton is the triangle a-b-c-a; the oracle separates
	// a and c with the empty set. The search must drop the a-c edge and
	// orient the collider a *-> b <-* c.
	ref := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}} {
		if err := ref.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}

	oracle := newStubOracle()
	oracle.declare("a", "c")

	result, err := NewFci(oracle).Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	g := result.Graph
	if g.IsAdjacentTo("a", "c") {
		t.Error("IsAdjacentTo(a, c) = true, want edge removed")
	}
	if got := g.Endpoint("a", "b"); got != pag.Arrow {
		t.Errorf("Endpoint(a, b) = %v, want %v", got, pag.Arrow)
	}
	if got := g.Endpoint("c", "b"); got != pag.Arrow {
		t.Errorf("Endpoint(c, b) = %v, want %v", got, pag.Arrow)
	}

	// The reference graph must come back untouched.
	if !ref.IsAdjacentTo("a", "c") {
		t.Error("reference graph lost the a-c edge")
	}
	if got := ref.Endpoint("a", "b"); got != pag.Circle {
		t.Errorf("reference Endpoint(a, b) = %v, want %v", got, pag.Circle)
	}
}

func TestFciChainStaysAmbiguous(t *testing.T) {
	// The oracle separates a and c only given b: the a-c edge goes, but
	// no collider forms and the chain keeps its circles.
	ref := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}} {
		if err := ref.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}

	oracle := newStubOracle()
	oracle.declare("a", "c", "b")

	result, err := NewFci(oracle).Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	g := result.Graph
	if g.IsAdjacentTo("a", "c") {
		t.Error("IsAdjacentTo(a, c) = true, want edge removed")
	}
	if got := g.CircleCount(); got != 4 {
		t.Errorf("CircleCount() = %d, want 4", got)
	}
}

func TestFciEmptyGraph(t *testing.T) {
	result, err := NewFci(newStubOracle()).Search(pag.New())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := result.Graph.NodeCount(); got != 0 {
		t.Errorf("NodeCount() = %d, want 0", got)
	}
	if len(result.Trace) != 0 {
		t.Errorf("Trace length = %d, want 0", len(result.Trace))
	}
}

func TestFciNilGraph(t *testing.T) {
	_, err := NewFci(newStubOracle()).Search(nil)
	if err == nil {
		t.Fatal("Search(nil) expected error, got nil")
	}
	if !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("Search(nil) error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidGraph)
	}
}

func TestFciParameterValidation(t *testing.T) {
	f := NewFci(newStubOracle())

	if err := f.SetDepth(-2); !errors.Is(err, errors.ErrCodeInvalidDepth) {
		t.Errorf("SetDepth(-2) error = %v, want code %v", err, errors.ErrCodeInvalidDepth)
	}
	if err := f.SetDepth(-1); err != nil {
		t.Errorf("SetDepth(-1) error = %v", err)
	}
	if err := f.SetMaxPathLength(-5); !errors.Is(err, errors.ErrCodeInvalidPathLength) {
		t.Errorf("SetMaxPathLength(-5) error = %v, want code %v", err, errors.ErrCodeInvalidPathLength)
	}
}

func TestFciKnowledgeWins(t *testing.T) {
	ref := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}} {
		if err := ref.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}

	oracle := newStubOracle()
	oracle.declare("a", "c")

	k := NewKnowledge()
	k.Require("b", "a")

	f := NewFci(oracle)
	f.SetKnowledge(k)
	result, err := f.Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	g := result.Graph
	if got := g.Endpoint("b", "a"); got != pag.Arrow {
		t.Errorf("Endpoint(b, a) = %v, want %v", got, pag.Arrow)
	}
	if got := g.Endpoint("a", "b"); got != pag.Tail {
		t.Errorf("Endpoint(a, b) = %v, want %v", got, pag.Tail)
	}
}

func TestFciDepthZeroKeepsDeeperEdges(t *testing.T) {
	// With depth 0 only the empty conditioning set is tried, so the a-c
	// edge survives even though {b} would separate the pair.
	ref := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}} {
		if err := ref.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}

	oracle := newStubOracle()
	oracle.declare("a", "c", "b")

	f := NewFci(oracle)
	if err := f.SetDepth(0); err != nil {
		t.Fatalf("SetDepth(0) error = %v", err)
	}
	result, err := f.Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if !result.Graph.IsAdjacentTo("a", "c") {
		t.Error("IsAdjacentTo(a, c) = false, want edge kept at depth 0")
	}
}
