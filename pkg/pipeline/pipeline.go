// Package pipeline provides the core discovery pipeline for pagsearch.
//
// This package implements the complete load → search → render pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode and validate the skeleton and truth graphs
//  2. Search: Run the selected discovery algorithm against the oracle
//  3. Render: Generate output in various formats (JSON, DOT, SVG, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Skeleton:  skeletonDoc,
//	    Truth:     truthDoc,
//	    Algorithm: pipeline.AlgorithmFci,
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagsearch/pkg/cache"
	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/graphio"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/search"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDepth is the conditioning-set size bound applied when Depth
	// is left at its zero value. -1 means unlimited.
	DefaultDepth = -1

	// DefaultMaxPathLength is the discriminating-path bound applied when
	// MaxPathLength is left at its zero value. -1 means unlimited.
	DefaultMaxPathLength = -1

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// Algorithm names.
const (
	AlgorithmFci = "fci"
	AlgorithmCcd = "ccd"
)

// DefaultAlgorithm is the algorithm used when none is requested.
const DefaultAlgorithm = AlgorithmFci

// ValidAlgorithms is the set of supported search algorithms.
var ValidAlgorithms = map[string]bool{
	AlgorithmFci: true,
	AlgorithmCcd: true,
}

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Pair names a directed claim of background knowledge.
type Pair struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// Options contains all configuration for the discovery pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Search options
	Skeleton  graphio.Graph `json:"skeleton"`
	Truth     graphio.Graph `json:"truth"`
	Algorithm string        `json:"algorithm,omitempty"`

	// Depth and MaxPathLength treat 0 as unset and default it to -1
	// (unlimited). Callers that want a literal bound of 0 must use the
	// search setters (Fci.SetDepth, Fci.SetMaxPathLength, Ccd.SetDepth)
	// directly.
	Depth           int    `json:"depth,omitempty"`
	MaxPathLength   int    `json:"max_path_length,omitempty"`
	CompleteRuleSet bool   `json:"complete_rule_set,omitempty"`
	Forbidden       []Pair `json:"forbidden,omitempty"`
	Required        []Pair `json:"required,omitempty"`
	Refresh         bool   `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this pipeline execution.
	RunID string

	// Graph is the PAG produced by the search.
	Graph *pag.Graph

	// GraphHash is the content hash of the result graph.
	GraphHash string

	// Trace lists the orientation rules that fired, in order. Empty when
	// the search result came from cache.
	Trace []search.RuleApplication

	// SupplementalSepsets carries the per-triple sepsets recorded by the
	// confounder search. Nil for fci runs and cached results.
	SupplementalSepsets map[pag.Triple][]string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	SearchTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SearchHit bool // Whether the search result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateAlgorithm checks that an algorithm name is valid.
func ValidateAlgorithm(algorithm string) error {
	if !ValidAlgorithms[algorithm] {
		return errors.New(errors.ErrCodeInvalidAlgorithm,
			"invalid algorithm: %q (must be one of: fci, ccd)", algorithm)
	}
	return nil
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDataTypes rejects skeletons that mix continuous and discrete
// variables, or declare a data type the oracle cannot handle. Nodes with
// no declared type are accepted alongside either kind.
func ValidateDataTypes(g graphio.Graph) error {
	var continuous, discrete bool
	for _, n := range g.Nodes {
		switch n.DataType {
		case "":
		case graphio.DataContinuous:
			continuous = true
		case graphio.DataDiscrete:
			discrete = true
		default:
			return errors.New(errors.ErrCodeUnsupportedData,
				"node %s declares unsupported data type %q", n.ID, n.DataType)
		}
	}
	if continuous && discrete {
		return errors.New(errors.ErrCodeUnsupportedData,
			"mixed continuous and discrete variables are not supported")
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple
// times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForSearch(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForSearch checks required fields and applies defaults for the
// search stage.
func (o *Options) ValidateForSearch() error {
	if len(o.Truth.Nodes) == 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "truth graph is required")
	}
	if err := ValidateDataTypes(o.Skeleton); err != nil {
		return err
	}

	// Search defaults
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if err := ValidateAlgorithm(o.Algorithm); err != nil {
		return err
	}
	if o.Depth == 0 {
		o.Depth = DefaultDepth
	}
	if o.MaxPathLength == 0 {
		o.MaxPathLength = DefaultMaxPathLength
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}

	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Knowledge builds the background knowledge declared in the options.
func (o *Options) Knowledge() *search.Knowledge {
	k := search.NewKnowledge()
	for _, p := range o.Forbidden {
		k.Forbid(p.From, p.To)
	}
	for _, p := range o.Required {
		k.Require(p.From, p.To)
	}
	return k
}

// SearchKeyOpts returns cache key options for the search stage.
func (o *Options) SearchKeyOpts() cache.SearchKeyOpts {
	return cache.SearchKeyOpts{
		Algorithm:       o.Algorithm,
		Depth:           o.Depth,
		MaxPathLength:   o.MaxPathLength,
		CompleteRuleSet: o.CompleteRuleSet,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Scale:    o.Scale,
	}
}
