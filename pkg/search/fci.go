package search

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/observability"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/pag/choice"
)

// Result is the outcome of a search: the finished PAG, the orientation
// trace, and, for the confounder-search variant, the supplemental sepsets
// recorded per dotted-underline triple.
type Result struct {
	Graph               *pag.Graph
	Trace               []RuleApplication
	SupplementalSepsets map[pag.Triple][]string
}

// Fci searches for the Markov-equivalence class of a reference skeleton
// produced by an upstream structure search. It thins edges the oracle can
// explain away, then orients the remainder into a PAG.
//
// An Fci is configured through its setters before Search; it is not safe
// for concurrent use, but may run multiple searches sequentially.
type Fci struct {
	oracle          Oracle
	knowledge       *Knowledge
	depth           int
	maxPathLength   int
	completeRuleSet bool
	logger          *log.Logger
}

// NewFci creates a search over the given oracle with empty background
// knowledge, unlimited conditioning-set size, unlimited discriminating
// paths, and the minimal rule set.
func NewFci(oracle Oracle) *Fci {
	return &Fci{
		oracle:        oracle,
		knowledge:     NewKnowledge(),
		depth:         -1,
		maxPathLength: -1,
		logger:        log.New(io.Discard),
	}
}

// SetKnowledge installs background knowledge. Nil is treated as empty.
func (f *Fci) SetKnowledge(k *Knowledge) {
	if k == nil {
		k = NewKnowledge()
	}
	f.knowledge = k
}

// SetDepth bounds the conditioning-set size used when searching for
// separating sets; -1 means unlimited.
func (f *Fci) SetDepth(depth int) error {
	if depth < -1 {
		return errors.New(errors.ErrCodeInvalidDepth,
			"max conditioning-set size must be -1 (unlimited) or >= 0: %d", depth)
	}
	f.depth = depth
	return nil
}

// SetMaxPathLength bounds discriminating-path search; -1 means unlimited.
func (f *Fci) SetMaxPathLength(length int) error {
	if length < -1 {
		return errors.New(errors.ErrCodeInvalidPathLength,
			"max path length must be -1 (unlimited) or >= 0: %d", length)
	}
	f.maxPathLength = length
	return nil
}

// SetCompleteRuleSet selects Zhang's complete rule set.
func (f *Fci) SetCompleteRuleSet(complete bool) { f.completeRuleSet = complete }

// SetLogger installs a logger for search progress output.
func (f *Fci) SetLogger(l *log.Logger) {
	if l != nil {
		f.logger = l
	}
}

// Search runs the algorithm against ref, the skeleton delivered by the
// upstream structure search (possibly carrying definite colliders). The
// reference graph is not modified; the returned PAG is an independent
// copy. An empty reference graph yields an empty PAG.
func (f *Fci) Search(ref *pag.Graph) (*Result, error) {
	if ref == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "reference graph is required")
	}

	start := time.Now()
	observability.Search().OnSearchStart("fci", ref.NodeCount(), ref.EdgeCount())
	f.logger.Info("search started", "algorithm", "fci", "nodes", ref.NodeCount(), "edges", ref.EdgeCount())

	g := ref.Copy()

	sepsets, err := NewSepsetProducer(ref, f.oracle, f.depth)
	if err != nil {
		observability.Search().OnSearchComplete("fci", time.Since(start), err)
		return nil, err
	}

	f.thinEdges(g, ref, sepsets)

	orienter := NewOrienter(sepsets)
	orienter.SetKnowledge(f.knowledge)
	orienter.SetCompleteRuleSet(f.completeRuleSet)
	orienter.SetLogger(f.logger)
	if err := orienter.SetMaxPathLength(f.maxPathLength); err != nil {
		observability.Search().OnSearchComplete("fci", time.Since(start), err)
		return nil, err
	}

	orienter.Orient(g, ref)

	elapsed := time.Since(start)
	observability.Search().OnSearchComplete("fci", elapsed, nil)
	f.logger.Info("search finished", "algorithm", "fci", "duration", elapsed, "circles", g.CircleCount())

	return &Result{Graph: g, Trace: orienter.Trace()}, nil
}

// thinEdges removes triangle edges the upstream search kept but the
// oracle can separate. For every node b and pair {a, c} of its reference
// neighbors that are adjacent in both graphs, a recoverable sepset for
// (a, c) deletes the working edge a-c.
func (f *Fci) thinEdges(g, ref *pag.Graph, sepsets *SepsetProducer) {
	observability.Search().OnPhase("thinning")

	for _, b := range ref.Nodes() {
		adj := ref.AdjacentTo(b)
		if len(adj) < 2 {
			continue
		}

		gen := choice.New(len(adj), 2)
		for combination, ok := gen.Next(); ok; combination, ok = gen.Next() {
			a := adj[combination[0]]
			c := adj[combination[1]]

			if !g.IsAdjacentTo(a, c) || !ref.IsAdjacentTo(a, c) {
				continue
			}
			if sepset, found := sepsets.Sepset(a, c); found {
				g.RemoveEdge(a, c)
				f.logger.Debug("edge removed", "a", a, "c", c, "sepset", sepset)
			}
		}
	}
}
