// Package pkg provides the core libraries for pagsearch causal discovery.
//
// # Overview
//
// Pagsearch discovers causal structure in the form of partial ancestral
// graphs (PAGs) using constraint-based search against an independence
// oracle. The pkg directory is organized into these areas:
//
//  1. [pag] - The PAG data structure (nodes, edges, endpoint marks, triples)
//  2. [search] - Discovery algorithms (FCI, CCD) and orientation rules
//  3. [oracle] - Independence oracles (m-separation, cached)
//  4. [graphio] - JSON serialization for graphs
//  5. [render] - DOT/SVG/PDF/PNG visualization
//  6. [pipeline] - Orchestration (load -> search -> render) with caching
//  7. [cache] - Cache backends (file, Redis, MongoDB, null)
//
// # Architecture
//
// The typical data flow through pagsearch:
//
//	Skeleton + Truth Graph (JSON)
//	         ↓
//	    [graphio] package (decode and validate)
//	         ↓
//	    [search] package (FCI or CCD over an [oracle])
//	         ↓
//	    [render] package (DOT, SVG, PDF, PNG)
//	         ↓
//	    artifacts keyed and cached via [cache]
//
// # Quick Start
//
// Run FCI over a skeleton with an m-separation oracle:
//
//	import (
//	    "github.com/matzehuels/pagsearch/pkg/oracle"
//	    "github.com/matzehuels/pagsearch/pkg/pag"
//	    "github.com/matzehuels/pagsearch/pkg/search"
//	)
//
//	truth := pag.New("x", "y", "z")
//	// ... add directed edges describing the true causal graph ...
//
//	skeleton := pag.New("x", "y", "z")
//	// ... add circle-circle edges for every candidate adjacency ...
//
//	fci := search.NewFci(oracle.NewMSep(truth))
//	result, err := fci.Search(skeleton)
//
// Or drive the full pipeline, which also handles caching and rendering:
//
//	runner := pipeline.NewRunner(cacheBackend, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Skeleton: skeletonDoc,
//	    Truth:    truthDoc,
//	    Formats:  []string{"json", "svg"},
//	})
//
// # Main Packages
//
// [pag] - Mixed graph with four endpoint marks (circle, arrow, tail, null)
// per edge end, plus underlined and dotted-underlined triples used by CCD.
// Endpoints can be locked against further orientation.
//
// [search] - The Orienter applies the collider rule and propagation rules
// (R1-R4, optionally Zhang's complete set R5-R10) to a fixpoint, with
// discriminating-path handling. Fci thins the skeleton by conditioning-set
// search before orienting; Ccd runs the cyclic discovery steps. Background
// knowledge can forbid or require direct causes.
//
// [oracle] - Answers independence queries. MSep consults m-separation on a
// known truth graph; Cached memoizes verdicts in a [cache] backend.
//
// [graphio] - Serialization types and helpers (marshal, unmarshal, file
// read/write) for graphs with endpoint marks and triples.
//
// [render] - DOT generation and Graphviz-based SVG rendering, with PDF and
// PNG conversion via rsvg-convert.
//
// [pipeline] - The Runner validates options, loads graphs, executes the
// search (consulting the cache), and renders requested formats. Used by
// the CLI and the HTTP API so both behave identically.
//
// [cache] - Content-addressed cache with file, Redis, MongoDB, and null
// backends, plus key derivation for oracle verdicts, search results, and
// rendered artifacts.
//
// [errors] - Coded errors shared across packages, mapped to HTTP statuses
// by the API layer.
//
// [observability] - Process-wide hooks for timing and event callbacks.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/search/...     # Specific package
//	go test -run Example         # Examples only
//
// [pag]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/pag
// [search]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/search
// [oracle]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/oracle
// [graphio]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/graphio
// [render]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pagsearch/pkg/observability
package pkg
