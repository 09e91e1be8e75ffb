package pag

// Endpoint is the mark carried by one side of an edge.
//
// The zero value is Null, meaning "no edge". Existing edges carry one of
// Circle, Arrow, or Tail on each side.
type Endpoint int

const (
	// Null marks the absence of an edge. Endpoint queries on
	// non-adjacent pairs return Null.
	Null Endpoint = iota
	// Circle is the unresolved mark: nothing is known about causal
	// direction at this side.
	Circle
	// Arrow points into the node at this side.
	Arrow
	// Tail points out of the node at this side.
	Tail
)

// String returns the conventional single-character notation for the mark.
func (e Endpoint) String() string {
	switch e {
	case Circle:
		return "o"
	case Arrow:
		return ">"
	case Tail:
		return "-"
	default:
		return "."
	}
}
