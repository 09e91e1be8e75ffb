package search

import (
	"testing"

	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/pag"
)

func diamondSkeleton(t *testing.T) *pag.Graph {
	t.Helper()
	g := pag.New("a", "b", "c", "d")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}, {"d", "c"}} {
		if err := g.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}
	return g
}

func TestCcdDiamondDottedUnderline(t *testing.T) {
	// Diamond a-b-c, a-d-c with b, d non-adjacent. The oracle separates
	// a and c marginally but not given b or d alone; conditioning on
	// both restores independence, which is the dotted-underline
	// signature of a confounded collider pair.
	ref := diamondSkeleton(t)

	oracle := newStubOracle()
	oracle.declare("a", "c")
	oracle.declare("a", "c", "b", "d")
	oracle.declare("b", "d", "a", "c")

	result, err := NewCcd(oracle).Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	g := result.Graph

	// Modified R0 must have turned both b and d into colliders on (a, c).
	for _, mid := range []string{"b", "d"} {
		if got := g.Endpoint("a", mid); got != pag.Arrow {
			t.Errorf("Endpoint(a, %s) = %v, want %v", mid, got, pag.Arrow)
		}
		if got := g.Endpoint("c", mid); got != pag.Arrow {
			t.Errorf("Endpoint(c, %s) = %v, want %v", mid, got, pag.Arrow)
		}
	}

	if !g.IsDottedUnderline("a", "b", "c") {
		t.Error("IsDottedUnderline(a, b, c) = false, want true")
	}
	if !g.IsDottedUnderline("a", "d", "c") {
		t.Error("IsDottedUnderline(a, d, c) = false, want true")
	}

	cond, ok := result.SupplementalSepsets[pag.NewTriple("a", "b", "c")]
	if !ok {
		t.Fatal("SupplementalSepsets missing entry for (a, b, c)")
	}
	for _, want := range []string{"b", "d"} {
		found := false
		for _, n := range cond {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("SupplementalSepsets[(a, b, c)] = %v, missing %q", cond, want)
		}
	}
}

func TestCcdTrivialInstance(t *testing.T) {
	// Fewer than four nodes: the collider still orients, but the deeper
	// steps are skipped and existing bookkeeping is preserved as-is.
	ref := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		if err := ref.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}

	oracle := newStubOracle()
	oracle.declare("a", "c")

	result, err := NewCcd(oracle).Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	g := result.Graph

	if got := g.Endpoint("a", "b"); got != pag.Arrow {
		t.Errorf("Endpoint(a, b) = %v, want %v", got, pag.Arrow)
	}
	if got := g.Endpoint("c", "b"); got != pag.Arrow {
		t.Errorf("Endpoint(c, b) = %v, want %v", got, pag.Arrow)
	}
	if len(result.SupplementalSepsets) != 0 {
		t.Errorf("SupplementalSepsets = %v, want empty", result.SupplementalSepsets)
	}
}

func TestCcdUnderlineTriple(t *testing.T) {
	// Sepset of (a, c) contains b: the triple is recorded underline and
	// no collider forms.
	ref := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		if err := ref.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}

	oracle := newStubOracle()
	oracle.declare("a", "c", "b")

	result, err := NewCcd(oracle).Search(ref)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	g := result.Graph

	if !g.IsUnderline("a", "b", "c") {
		t.Error("IsUnderline(a, b, c) = false, want true")
	}
	if got := g.CircleCount(); got != 4 {
		t.Errorf("CircleCount() = %d, want 4", got)
	}
}

func TestCcdEmptyGraph(t *testing.T) {
	result, err := NewCcd(newStubOracle()).Search(pag.New())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := result.Graph.NodeCount(); got != 0 {
		t.Errorf("NodeCount() = %d, want 0", got)
	}
}

func TestCcdDepthValidation(t *testing.T) {
	c := NewCcd(newStubOracle())
	if err := c.SetDepth(-3); !errors.Is(err, errors.ErrCodeInvalidDepth) {
		t.Errorf("SetDepth(-3) error = %v, want code %v", err, errors.ErrCodeInvalidDepth)
	}
	if err := c.SetDepth(2); err != nil {
		t.Errorf("SetDepth(2) error = %v", err)
	}
}

// colliderWithNeighbor builds a --> b <-- c with a dotted-underline
// (a, b, c), plus a fourth node d tied to b and to the outer node a by
// nondirected edges.
func colliderWithNeighbor(t *testing.T) *pag.Graph {
	t.Helper()
	g := pag.New("a", "b", "c", "d")
	for _, pair := range [][2]string{{"a", "b"}, {"c", "b"}} {
		if err := g.AddDirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddDirectedEdge() error = %v", err)
		}
	}
	for _, pair := range [][2]string{{"a", "d"}, {"b", "d"}} {
		if err := g.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}
	g.AddDottedUnderline("a", "b", "c")
	return g
}

func TestCcdStepETail(t *testing.T) {
	// d appears in the conditioning set recorded for the dotted triple:
	// the b-d endpoint at d becomes a tail while the mark at b stays.
	g := colliderWithNeighbor(t)
	sup := map[pag.Triple][]string{pag.NewTriple("a", "b", "c"): {"b", "d"}}

	c := NewCcd(newStubOracle())
	if trivial := c.stepE(g, sup); trivial {
		t.Fatal("stepE() = true, want false for four nodes")
	}

	if got := g.Endpoint("b", "d"); got != pag.Tail {
		t.Errorf("Endpoint(b, d) = %v, want %v", got, pag.Tail)
	}
	if got := g.Endpoint("d", "b"); got != pag.Circle {
		t.Errorf("Endpoint(d, b) = %v, want %v", got, pag.Circle)
	}
}

func TestCcdStepEDirected(t *testing.T) {
	// d is absent from the recorded conditioning set: the b o-o d edge
	// is replaced with directed b --> d.
	g := colliderWithNeighbor(t)
	sup := map[pag.Triple][]string{pag.NewTriple("a", "b", "c"): {"b"}}

	c := NewCcd(newStubOracle())
	if trivial := c.stepE(g, sup); trivial {
		t.Fatal("stepE() = true, want false for four nodes")
	}

	if got := g.Endpoint("b", "d"); got != pag.Arrow {
		t.Errorf("Endpoint(b, d) = %v, want %v", got, pag.Arrow)
	}
	if got := g.Endpoint("d", "b"); got != pag.Tail {
		t.Errorf("Endpoint(d, b) = %v, want %v", got, pag.Tail)
	}
	// The a-d edge is not incident to b and must survive untouched.
	if got := g.Endpoint("a", "d"); got != pag.Circle {
		t.Errorf("Endpoint(a, d) = %v, want %v", got, pag.Circle)
	}
}

func TestCcdStepF(t *testing.T) {
	// d neighbors exactly one outer node of the dotted triple. When a and
	// c stay dependent given the recorded set extended by d, the b-d edge
	// becomes directed b --> d; when independence holds, it is left alone.
	tests := []struct {
		name        string
		independent bool
		wantAtD     pag.Endpoint
		wantAtB     pag.Endpoint
	}{
		{name: "DependentDirects", wantAtD: pag.Arrow, wantAtB: pag.Tail},
		{name: "IndependentKeeps", independent: true, wantAtD: pag.Circle, wantAtB: pag.Circle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := colliderWithNeighbor(t)
			sup := map[pag.Triple][]string{pag.NewTriple("a", "b", "c"): {"b"}}

			oracle := newStubOracle()
			if tt.independent {
				oracle.declare("a", "c", "b", "d")
			}

			c := NewCcd(oracle)
			if err := c.stepF(g, mustSepsets(t, g, oracle), sup); err != nil {
				t.Fatalf("stepF() error = %v", err)
			}

			if got := g.Endpoint("b", "d"); got != tt.wantAtD {
				t.Errorf("Endpoint(b, d) = %v, want %v", got, tt.wantAtD)
			}
			if got := g.Endpoint("d", "b"); got != tt.wantAtB {
				t.Errorf("Endpoint(d, b) = %v, want %v", got, tt.wantAtB)
			}
			if got := g.Endpoint("a", "d"); got != pag.Circle {
				t.Errorf("Endpoint(a, d) = %v, want %v", got, pag.Circle)
			}
		})
	}
}

func TestCcdRecursiveR1CycleDowngrade(t *testing.T) {
	// The recursion path already contains c, so orienting b --> c closes
	// a cycle: the edge must come back as undirected, not stay directed.
	g := pag.New("a", "b", "c")
	if err := g.AddDirectedEdge("a", "b"); err != nil {
		t.Fatalf("AddDirectedEdge() error = %v", err)
	}
	if err := g.AddNondirectedEdge("b", "c"); err != nil {
		t.Fatalf("AddNondirectedEdge() error = %v", err)
	}
	g.AddUnderline("a", "b", "c")

	c := NewCcd(newStubOracle())
	err := c.orientR1(g, "b", []string{"c"})
	if err != errCycle {
		t.Fatalf("orientR1() error = %v, want cycle signal", err)
	}

	if got := g.Endpoint("b", "c"); got != pag.Tail {
		t.Errorf("Endpoint(b, c) = %v, want %v", got, pag.Tail)
	}
	if got := g.Endpoint("c", "b"); got != pag.Tail {
		t.Errorf("Endpoint(c, b) = %v, want %v", got, pag.Tail)
	}
}

func TestCcdRecursiveR1UnderlinedTriangleTerminates(t *testing.T) {
	// A fully adjacent, fully underlined triangle offers R1 no
	// non-adjacent outer pair: recursion must end without touching the
	// edges.
	g := pag.New("a", "b", "c")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}} {
		if err := g.AddNondirectedEdge(pair[0], pair[1]); err != nil {
			t.Fatalf("AddNondirectedEdge() error = %v", err)
		}
	}
	g.AddUnderline("a", "b", "c")
	g.AddUnderline("b", "c", "a")
	g.AddUnderline("c", "a", "b")

	c := NewCcd(newStubOracle())
	for _, node := range g.Nodes() {
		if err := c.orientR1(g, node, []string{}); err != nil {
			t.Fatalf("orientR1(%s) error = %v", node, err)
		}
	}

	if got := g.CircleCount(); got != 6 {
		t.Errorf("CircleCount() = %d, want 6", got)
	}
}

func TestCcdRecursiveR1Propagates(t *testing.T) {
	// a *-> b o-o c with (a, b, c) underlined and no competing underline
	// through c: R1 replaces b-c with b --> c.
	g := pag.New("a", "b", "c")
	if err := g.AddDirectedEdge("a", "b"); err != nil {
		t.Fatalf("AddDirectedEdge() error = %v", err)
	}
	if err := g.AddNondirectedEdge("b", "c"); err != nil {
		t.Fatalf("AddNondirectedEdge() error = %v", err)
	}
	g.AddUnderline("a", "b", "c")

	c := NewCcd(newStubOracle())
	if err := c.orientR1(g, "b", []string{}); err != nil {
		t.Fatalf("orientR1() error = %v", err)
	}

	if got := g.Endpoint("b", "c"); got != pag.Arrow {
		t.Errorf("Endpoint(b, c) = %v, want %v", got, pag.Arrow)
	}
	if got := g.Endpoint("c", "b"); got != pag.Tail {
		t.Errorf("Endpoint(c, b) = %v, want %v", got, pag.Tail)
	}
}
