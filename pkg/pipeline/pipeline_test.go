package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/pagsearch/pkg/cache"
	"github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/graphio"
	"github.com/matzehuels/pagsearch/pkg/pag"
)

// chainDoc builds the serialized form of the truth graph a → b → c and
// the matching all-circle skeleton over the same adjacencies.
func chainDoc() (skeleton, truth graphio.Graph) {
	t := pag.New("a", "b", "c")
	t.AddDirectedEdge("a", "b")
	t.AddDirectedEdge("b", "c")

	s := pag.New("a", "b", "c")
	s.AddNondirectedEdge("a", "b")
	s.AddNondirectedEdge("b", "c")

	return graphio.FromGraph(s), graphio.FromGraph(t)
}

// colliderDoc builds the truth graph a → b ← c with a skeleton that still
// carries the spurious a-c edge, as an upstream structure search might.
func colliderDoc() (skeleton, truth graphio.Graph) {
	t := pag.New("a", "b", "c")
	t.AddDirectedEdge("a", "b")
	t.AddDirectedEdge("c", "b")

	s := pag.New("a", "b", "c")
	s.AddNondirectedEdge("a", "b")
	s.AddNondirectedEdge("b", "c")
	s.AddNondirectedEdge("a", "c")

	return graphio.FromGraph(s), graphio.FromGraph(t)
}

func TestValidateAndSetDefaults(t *testing.T) {
	skeleton, truth := chainDoc()

	opts := Options{Skeleton: skeleton, Truth: truth}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}

	if opts.Algorithm != AlgorithmFci {
		t.Errorf("Algorithm = %q, want fci", opts.Algorithm)
	}
	if opts.Depth != -1 {
		t.Errorf("Depth = %d, want -1", opts.Depth)
	}
	if opts.MaxPathLength != -1 {
		t.Errorf("MaxPathLength = %d, want -1", opts.MaxPathLength)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Logger == nil {
		t.Error("Logger = nil, want default")
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	skeleton, truth := chainDoc()

	tests := []struct {
		name     string
		mutate   func(o *Options)
		wantCode errors.Code
	}{
		{
			name:     "MissingTruth",
			mutate:   func(o *Options) { o.Truth = graphio.Graph{} },
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "BadAlgorithm",
			mutate:   func(o *Options) { o.Algorithm = "pc" },
			wantCode: errors.ErrCodeInvalidAlgorithm,
		},
		{
			name:     "BadFormat",
			mutate:   func(o *Options) { o.Formats = []string{"gif"} },
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:     "BadDepth",
			mutate:   func(o *Options) { o.Depth = -2 },
			wantCode: errors.ErrCodeInvalidDepth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Skeleton: skeleton, Truth: truth}
			tt.mutate(&opts)

			var err error
			if tt.wantCode == errors.ErrCodeInvalidDepth {
				// Depth is validated by the search constructors.
				_, err = NewRunner(nil, nil, nil).Execute(context.Background(), opts)
			} else {
				err = opts.ValidateAndSetDefaults()
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateDataTypes(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []graphio.Node
		wantErr bool
	}{
		{
			name:  "AllContinuous",
			nodes: []graphio.Node{{ID: "a", DataType: graphio.DataContinuous}, {ID: "b", DataType: graphio.DataContinuous}},
		},
		{
			name:  "Undeclared",
			nodes: []graphio.Node{{ID: "a"}, {ID: "b"}},
		},
		{
			name: "Mixed",
			nodes: []graphio.Node{
				{ID: "a", DataType: graphio.DataContinuous},
				{ID: "b", DataType: graphio.DataDiscrete},
			},
			wantErr: true,
		},
		{
			name:    "Unknown",
			nodes:   []graphio.Node{{ID: "a", DataType: "ordinal"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDataTypes(graphio.Graph{Nodes: tt.nodes})
			if tt.wantErr && !errors.Is(err, errors.ErrCodeUnsupportedData) {
				t.Errorf("ValidateDataTypes() = %v, want UNSUPPORTED_DATA", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateDataTypes() = %v, want nil", err)
			}
		})
	}
}

func TestExecuteChain(t *testing.T) {
	skeleton, truth := chainDoc()

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Skeleton: skeleton,
		Truth:    truth,
		Formats:  []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if result.GraphHash == "" {
		t.Error("GraphHash is empty")
	}
	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("Stats = %d nodes / %d edges, want 3/2", result.Stats.NodeCount, result.Stats.EdgeCount)
	}

	// A chain is not identifiable from independence alone: both edges
	// stay circle-circle.
	if got := result.Graph.CircleCount(); got != 4 {
		t.Errorf("CircleCount() = %d, want 4", got)
	}

	if _, ok := result.Artifacts[FormatJSON]; !ok {
		t.Error("missing json artifact")
	}
	dot, ok := result.Artifacts[FormatDOT]
	if !ok {
		t.Fatal("missing dot artifact")
	}
	if !strings.Contains(string(dot), "digraph G") {
		t.Errorf("dot artifact missing digraph declaration:\n%s", dot)
	}
}

func TestExecuteColliderThinsAndOrients(t *testing.T) {
	skeleton, truth := colliderDoc()

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Skeleton: skeleton,
		Truth:    truth,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	g := result.Graph
	if g.IsAdjacentTo("a", "c") {
		t.Error("spurious a-c edge survived thinning")
	}
	if !g.IsDefCollider("a", "b", "c") {
		t.Error("collider at b not oriented")
	}
	if len(result.Trace) == 0 {
		t.Error("Trace is empty, want at least the collider rule")
	}
}

func TestExecuteCcd(t *testing.T) {
	skeleton, truth := colliderDoc()

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Skeleton:  skeleton,
		Truth:     truth,
		Algorithm: AlgorithmCcd,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.SupplementalSepsets == nil {
		t.Error("SupplementalSepsets = nil, want empty map for ccd")
	}
}

func TestSearchCacheFciHit(t *testing.T) {
	skeletonDoc, truthDoc := colliderDoc()
	opts := Options{Skeleton: skeletonDoc, Truth: truthDoc}

	skeleton, truth, err := Load(opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	first, hit, err := runner.SearchWithCacheInfo(context.Background(), skeleton, truth, opts)
	if err != nil {
		t.Fatalf("SearchWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("first run searchHit = true, want false")
	}

	second, hit, err := runner.SearchWithCacheInfo(context.Background(), skeleton, truth, opts)
	if err != nil {
		t.Fatalf("SearchWithCacheInfo() error: %v", err)
	}
	if !hit {
		t.Error("second run searchHit = false, want cache hit")
	}
	if got, want := second.Graph.EdgeCount(), first.Graph.EdgeCount(); got != want {
		t.Errorf("cached EdgeCount() = %d, want %d", got, want)
	}
}

func TestSearchCacheCcdRecomputes(t *testing.T) {
	// A cached search entry holds only the graph, so serving a CCD result
	// from the cache would drop the supplemental sepsets. Repeated CCD
	// runs must recompute instead of hitting the cache.
	skeletonDoc, truthDoc := colliderDoc()
	opts := Options{Skeleton: skeletonDoc, Truth: truthDoc, Algorithm: AlgorithmCcd}

	skeleton, truth, err := Load(opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	for run := 1; run <= 2; run++ {
		res, hit, err := runner.SearchWithCacheInfo(context.Background(), skeleton, truth, opts)
		if err != nil {
			t.Fatalf("run %d: SearchWithCacheInfo() error: %v", run, err)
		}
		if hit {
			t.Errorf("run %d: searchHit = true, want recompute for ccd", run)
		}
		if res.SupplementalSepsets == nil {
			t.Errorf("run %d: SupplementalSepsets = nil, want map", run)
		}
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	g := pag.New("a")

	_, err := Render(g, Options{Formats: []string{"bmp"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render() error = %v, want INVALID_FORMAT", err)
	}
}
