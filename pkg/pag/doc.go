// Package pag implements the partial ancestral graph (PAG) model used by
// the search algorithms.
//
// A PAG represents a Markov-equivalence class of causal structures: each
// edge side carries an endpoint mark recording what is known about causal
// direction at that side. A circle is an unresolved mark, an arrow points
// into a node, and a tail points out of it. Orientation algorithms start
// from a fully ambiguous skeleton (all circles) and monotonically tighten
// marks, so the number of circle endpoints only ever decreases.
//
// Beyond nodes and marked edges, the model records two kinds of triple
// annotations used by the cyclic discovery algorithm: underline and
// dotted-underline triples. Both are symmetric in their outer nodes and
// stored as side maps, keeping the edge type itself small.
//
// A Graph is not safe for concurrent use. Search algorithms own the graph
// exclusively for the duration of a run.
package pag
