package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pagsearch/pkg/cache"
	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/graphio"
	"github.com/matzehuels/pagsearch/pkg/oracle"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/render"
	"github.com/matzehuels/pagsearch/pkg/search"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → search → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	skeleton, truth, err := Load(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = skeleton.NodeCount()
	result.Stats.EdgeCount = skeleton.EdgeCount()

	r.Logger.Info("loaded graphs",
		"run", result.RunID,
		"nodes", skeleton.NodeCount(),
		"edges", skeleton.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Search
	searchStart := time.Now()
	searched, searchHit, err := r.SearchWithCacheInfo(ctx, skeleton, truth, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = searched.Graph
	result.Trace = searched.Trace
	result.SupplementalSepsets = searched.SupplementalSepsets
	result.Stats.SearchTime = time.Since(searchStart)
	result.CacheInfo.SearchHit = searchHit

	// Compute graph hash for cache keys and API responses
	if graphData, err := graphio.MarshalGraph(result.Graph); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	r.Logger.Info("search finished",
		"algorithm", opts.Algorithm,
		"rules", len(result.Trace),
		"cached", searchHit,
		"duration", result.Stats.SearchTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Graph, result.GraphHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load decodes and validates the skeleton and truth graphs from options.
func Load(opts Options) (skeleton, truth *pag.Graph, err error) {
	if err := ValidateDataTypes(opts.Skeleton); err != nil {
		return nil, nil, err
	}

	skeleton, err = graphio.ToGraph(opts.Skeleton)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load skeleton")
	}
	truth, err = graphio.ToGraph(opts.Truth)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load truth graph")
	}
	return skeleton, truth, nil
}

// SearchWithCacheInfo runs the discovery search with caching and returns
// cache hit info. A cached entry holds only the graph: the rule trace is
// not persisted, and a hit returns a result without one. CCD results
// additionally carry supplemental sepsets the entry cannot represent, so
// CCD searches always recompute.
func (r *Runner) SearchWithCacheInfo(ctx context.Context, skeleton, truth *pag.Graph, opts Options) (*search.Result, bool, error) {
	if err := opts.ValidateForSearch(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheable := opts.Algorithm != AlgorithmCcd
	cacheKey := r.Keyer.SearchKey(searchInputHash(skeleton, truth, opts), opts.SearchKeyOpts())

	// Try cache first (unless refresh requested)
	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			g, err := graphio.ReadGraph(bytes.NewReader(data))
			if err == nil {
				return &search.Result{Graph: g}, true, nil // Cache hit
			}
		}
	}

	orc := oracle.NewCached(ctx, oracle.NewMSep(truth), r.Cache, cache.TTLQuery)

	res, err := r.runSearch(skeleton, orc, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if cacheable {
		if data, err := graphio.MarshalGraph(res.Graph); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLSearch)
		}
	}

	return res, false, nil // Cache miss
}

// Search is a convenience wrapper that calls SearchWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Search(ctx context.Context, skeleton, truth *pag.Graph, opts Options) (*search.Result, error) {
	res, _, err := r.SearchWithCacheInfo(ctx, skeleton, truth, opts)
	return res, err
}

// runSearch dispatches to the selected algorithm.
func (r *Runner) runSearch(skeleton *pag.Graph, orc search.Oracle, opts Options) (*search.Result, error) {
	switch opts.Algorithm {
	case AlgorithmCcd:
		c := search.NewCcd(orc)
		if err := c.SetDepth(opts.Depth); err != nil {
			return nil, err
		}
		c.SetLogger(opts.Logger)
		return c.Search(skeleton)
	default:
		f := search.NewFci(orc)
		if err := f.SetDepth(opts.Depth); err != nil {
			return nil, err
		}
		if err := f.SetMaxPathLength(opts.MaxPathLength); err != nil {
			return nil, err
		}
		f.SetCompleteRuleSet(opts.CompleteRuleSet)
		f.SetKnowledge(opts.Knowledge())
		f.SetLogger(opts.Logger)
		return f.Search(skeleton)
	}
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *pag.Graph, graphHash string, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, err := Render(g, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil // Cache miss
}

// Render generates every requested output format for a finished PAG.
func Render(g *pag.Graph, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()

	artifacts := make(map[string][]byte, len(opts.Formats))
	dot := render.ToDOT(g, render.Options{Detailed: opts.Detailed})

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = graphio.MarshalGraph(g)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = render.RenderSVG(dot)
		case FormatPNG:
			data, err = render.RenderPNG(dot, opts.Scale)
		case FormatPDF:
			data, err = render.RenderPDF(dot)
		default:
			return nil, ValidateFormat(format)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// searchInputHash hashes everything that shapes a search result besides
// the parameters carried in the cache key opts: both input graphs in
// their canonical serialized form, plus the background knowledge.
func searchInputHash(skeleton, truth *pag.Graph, opts Options) string {
	input := struct {
		Skeleton  graphio.Graph `json:"skeleton"`
		Truth     graphio.Graph `json:"truth"`
		Forbidden []Pair        `json:"forbidden"`
		Required  []Pair        `json:"required"`
	}{graphio.FromGraph(skeleton), graphio.FromGraph(truth), opts.Forbidden, opts.Required}

	data, _ := json.Marshal(input)
	return cache.Hash(data)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
