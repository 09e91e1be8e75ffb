package pag

import "fmt"

// Triple identifies an ordered node triple (X, Y, Z) where Y is the
// middle node. Triples are canonicalized so that (A, B, C) and (C, B, A)
// compare equal: the outer node with the smaller ID is stored first.
//
// Triples are comparable and can be used as map keys.
type Triple struct {
	X, Y, Z string
}

// NewTriple returns the canonical triple for outer nodes a, c around
// middle node b.
func NewTriple(a, b, c string) Triple {
	if c < a {
		a, c = c, a
	}
	return Triple{X: a, Y: b, Z: c}
}

// String renders the triple in <X, Y, Z> notation.
func (t Triple) String() string {
	return fmt.Sprintf("<%s, %s, %s>", t.X, t.Y, t.Z)
}
