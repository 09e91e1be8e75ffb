package choice

import (
	"fmt"
	"slices"
	"testing"
)

func collect(g *Generator) [][]int {
	var out [][]int
	for c, ok := g.Next(); ok; c, ok = g.Next() {
		out = append(out, c)
	}
	return out
}

func TestGenerator_CountMatchesBinomial(t *testing.T) {
	for n := 0; n <= 8; n++ {
		for k := 0; k <= n; k++ {
			got := len(collect(New(n, k)))
			want := Binomial(n, k)
			if got != want {
				t.Errorf("New(%d, %d) yielded %d combinations, want %d", n, k, got, want)
			}
		}
	}
}

func TestGenerator_LexicographicOrder(t *testing.T) {
	g := New(4, 2)
	want := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	got := collect(g)

	if len(got) != len(want) {
		t.Fatalf("New(4, 2) yielded %d combinations, want %d", len(got), len(want))
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("combination %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGenerator_NoDuplicates(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range collect(New(7, 3)) {
		key := fmt.Sprint(c)
		if seen[key] {
			t.Errorf("duplicate combination %v", c)
		}
		seen[key] = true
	}
}

func TestGenerator_AscendingNoRepeats(t *testing.T) {
	for _, c := range collect(New(6, 3)) {
		for i := 1; i < len(c); i++ {
			if c[i] <= c[i-1] {
				t.Errorf("combination %v is not strictly ascending", c)
			}
		}
	}
}

func TestGenerator_ExhaustedStaysDone(t *testing.T) {
	g := New(3, 2)
	collect(g)

	if c, ok := g.Next(); ok {
		t.Errorf("Next() after exhaustion = %v, true, want nil, false", c)
	}
}

func TestGenerator_ResetYieldsIdenticalSequence(t *testing.T) {
	g := New(5, 2)
	first := collect(g)

	g.Reset()
	second := collect(g)

	if len(first) != len(second) {
		t.Fatalf("second pass yielded %d combinations, want %d", len(second), len(first))
	}
	for i := range first {
		if !slices.Equal(first[i], second[i]) {
			t.Errorf("second pass combination %d = %v, want %v", i, second[i], first[i])
		}
	}
}

func TestGenerator_ZeroK(t *testing.T) {
	g := New(5, 0)

	c, ok := g.Next()
	if !ok || len(c) != 0 {
		t.Errorf("Next() = %v, %v, want empty combination, true", c, ok)
	}
	if _, ok := g.Next(); ok {
		t.Error("Next() after single empty combination returned true, want false")
	}
}

func TestGenerator_EmptySet(t *testing.T) {
	g := New(0, 0)

	if _, ok := g.Next(); !ok {
		t.Error("New(0, 0).Next() returned false, want one empty combination")
	}
	if _, ok := g.Next(); ok {
		t.Error("New(0, 0) yielded more than one combination")
	}
}

func TestBinomial(t *testing.T) {
	cases := []struct {
		n, k, want int
	}{
		{0, 0, 1},
		{5, 0, 1},
		{5, 5, 1},
		{5, 2, 10},
		{10, 3, 120},
		{5, 6, 0},
		{5, -1, 0},
	}
	for _, c := range cases {
		if got := Binomial(c.n, c.k); got != c.want {
			t.Errorf("Binomial(%d, %d) = %d, want %d", c.n, c.k, got, c.want)
		}
	}
}
