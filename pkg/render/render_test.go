package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/pagsearch/pkg/pag"
)

func TestToDOT_Basic(t *testing.T) {
	g := pag.New("a", "b")
	g.AddNondirectedEdge("a", "b")

	dot := ToDOT(g, Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, `"a"`) {
		t.Error("ToDOT() output missing node a")
	}
	if !strings.Contains(dot, `"b"`) {
		t.Error("ToDOT() output missing node b")
	}
	if !strings.Contains(dot, `"a" -> "b" [arrowtail=odot, arrowhead=odot]`) {
		t.Errorf("ToDOT() output missing circle-circle edge:\n%s", dot)
	}
}

func TestToDOT_Marks(t *testing.T) {
	g := pag.New("a", "b", "c", "d")
	g.AddDirectedEdge("a", "b")
	g.AddEdge("b", "c", pag.Arrow, pag.Arrow)
	g.AddEdge("c", "d", pag.Circle, pag.Arrow)

	dot := ToDOT(g, Options{})

	if !strings.Contains(dot, `"a" -> "b" [arrowtail=none, arrowhead=normal]`) {
		t.Errorf("ToDOT() missing directed edge marks:\n%s", dot)
	}
	if !strings.Contains(dot, `"b" -> "c" [arrowtail=normal, arrowhead=normal, color=red]`) {
		t.Errorf("ToDOT() missing red bidirected edge:\n%s", dot)
	}
	if !strings.Contains(dot, `"c" -> "d" [arrowtail=odot, arrowhead=normal]`) {
		t.Errorf("ToDOT() missing partially oriented edge:\n%s", dot)
	}
}

func TestToDOT_Labels(t *testing.T) {
	g := pag.New()
	g.AddNode(pag.Node{ID: "x", Label: "Exposure"})

	dot := ToDOT(g, Options{})

	if !strings.Contains(dot, `"x" [label="Exposure"]`) {
		t.Errorf("ToDOT() missing display label:\n%s", dot)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	g := pag.New("a", "b", "c")
	g.AddEdge("a", "b", pag.Circle, pag.Arrow)
	g.AddNondirectedEdge("b", "c")
	g.AddUnderline("a", "b", "c")

	dot := ToDOT(g, Options{Detailed: true})

	if !strings.Contains(dot, `label="o->"`) {
		t.Errorf("ToDOT() detailed missing edge mark label:\n%s", dot)
	}
	if !strings.Contains(dot, "// underline <a, b, c>") {
		t.Errorf("ToDOT() detailed missing underline comment:\n%s", dot)
	}
}

func TestArrowShape(t *testing.T) {
	tests := []struct {
		ep   pag.Endpoint
		want string
	}{
		{pag.Circle, "odot"},
		{pag.Arrow, "normal"},
		{pag.Tail, "none"},
	}

	for _, tt := range tests {
		if got := arrowShape(tt.ep); got != tt.want {
			t.Errorf("arrowShape(%v) = %q, want %q", tt.ep, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00">content</svg>`)

	out := normalizeViewBox(svg)

	if !strings.Contains(string(out), `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if !strings.Contains(string(out), `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() missing dimensions: %s", out)
	}
}
