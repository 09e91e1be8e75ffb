package search

// Knowledge holds background knowledge about edge directions: ordered
// pairs that are forbidden (from may not cause to) and pairs that are
// required (from must cause to). Knowledge-derived orientations take
// precedence over rule-derived ones and are never overridden.
//
// Pairs reference nodes by name. Names that do not resolve against a
// graph's node set are skipped silently during orientation, matching the
// behavior of background-knowledge files that mention variables absent
// from the current data set.
type Knowledge struct {
	forbidden []Pair
	required  []Pair

	forbiddenSet map[Pair]bool
	requiredSet  map[Pair]bool
}

// Pair is an ordered (from, to) node-name pair.
type Pair struct {
	From, To string
}

// NewKnowledge creates empty background knowledge.
func NewKnowledge() *Knowledge {
	return &Knowledge{
		forbiddenSet: make(map[Pair]bool),
		requiredSet:  make(map[Pair]bool),
	}
}

// Forbid records that from may not be a cause of to.
// Recording the same pair twice is a no-op.
func (k *Knowledge) Forbid(from, to string) {
	p := Pair{From: from, To: to}
	if k.forbiddenSet[p] {
		return
	}
	k.forbiddenSet[p] = true
	k.forbidden = append(k.forbidden, p)
}

// Require records that from must be a cause of to.
// Recording the same pair twice is a no-op.
func (k *Knowledge) Require(from, to string) {
	p := Pair{From: from, To: to}
	if k.requiredSet[p] {
		return
	}
	k.requiredSet[p] = true
	k.required = append(k.required, p)
}

// IsForbidden reports whether from→to is forbidden.
func (k *Knowledge) IsForbidden(from, to string) bool {
	return k.forbiddenSet[Pair{From: from, To: to}]
}

// IsRequired reports whether from→to is required.
func (k *Knowledge) IsRequired(from, to string) bool {
	return k.requiredSet[Pair{From: from, To: to}]
}

// Forbidden returns the forbidden pairs in the order they were recorded.
func (k *Knowledge) Forbidden() []Pair { return k.forbidden }

// Required returns the required pairs in the order they were recorded.
func (k *Knowledge) Required() []Pair { return k.required }

// IsEmpty reports whether no pairs have been recorded.
func (k *Knowledge) IsEmpty() bool {
	return len(k.forbidden) == 0 && len(k.required) == 0
}

// arrowAllowed reports whether orienting an arrowhead from→to is
// consistent with the knowledge: the reverse direction must not be
// required and the direction itself must not be forbidden.
func (k *Knowledge) arrowAllowed(from, to string) bool {
	return !k.IsRequired(to, from) && !k.IsForbidden(from, to)
}
