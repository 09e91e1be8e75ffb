package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagsearch/pkg/graphio"
	"github.com/matzehuels/pagsearch/pkg/pipeline"
)

// searchOpts holds the command-line flags for the search command.
type searchOpts struct {
	output        string   // output file (single format) or base path (multiple)
	algorithm     string   // search algorithm: "fci" or "ccd"
	depth         int      // conditioning-set size bound (-1 unlimited)
	maxPathLength int      // discriminating-path bound (-1 unlimited)
	complete      bool     // apply Zhang's complete rule set
	forbid        []string // forbidden edges, "from:to"
	require       []string // required edges, "from:to"
	formats       []string // output formats
	detailed      bool     // label edges with mark notation
	noCache       bool     // disable caching entirely
	refresh       bool     // ignore cached search results
	showTrace     bool     // open the interactive rule-trace browser
}

// searchCommand creates the search command, the main entry point: it runs
// a discovery algorithm over a skeleton and truth graph and writes the
// resulting PAG.
func (c *CLI) searchCommand() *cobra.Command {
	var formatsStr string
	opts := searchOpts{}

	cmd := &cobra.Command{
		Use:   "search [skeleton.json] [truth.json]",
		Short: "Discover a PAG from a skeleton and an oracle graph",
		Long: `Search runs constraint-based causal discovery over a skeleton graph,
answering independence queries by m-separation against a known truth
graph. The output is a partial ancestral graph in the requested formats.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return c.runSearch(cmd, args[0], args[1], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "search algorithm: fci (default), ccd")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "max conditioning-set size (-1 = unlimited)")
	cmd.Flags().IntVar(&opts.maxPathLength, "max-path-length", 0, "max discriminating-path length (-1 = unlimited)")
	cmd.Flags().BoolVar(&opts.complete, "complete", false, "apply Zhang's complete rule set (R5-R10)")
	cmd.Flags().StringArrayVar(&opts.forbid, "forbid", nil, "forbid a direct cause, from:to (repeatable)")
	cmd.Flags().StringArrayVar(&opts.require, "require", nil, "require a direct cause, from:to (repeatable)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with their mark notation")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached search results")
	cmd.Flags().BoolVar(&opts.showTrace, "trace", false, "browse the orientation rule trace interactively")

	return cmd
}

func (c *CLI) runSearch(cmd *cobra.Command, skeletonPath, truthPath string, opts *searchOpts) error {
	skeleton, err := readGraphDoc(skeletonPath)
	if err != nil {
		return err
	}
	truth, err := readGraphDoc(truthPath)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Skeleton:        skeleton,
		Truth:           truth,
		Algorithm:       firstNonEmpty(opts.algorithm, c.Config.Search.Algorithm),
		Depth:           firstNonZero(opts.depth, c.Config.Search.Depth),
		MaxPathLength:   firstNonZero(opts.maxPathLength, c.Config.Search.MaxPathLength),
		CompleteRuleSet: opts.complete || c.Config.Search.CompleteRuleSet,
		Formats:         opts.formats,
		Detailed:        opts.detailed,
		Refresh:         opts.refresh,
		Logger:          c.Logger,
	}
	if popts.Forbidden, err = parsePairs(opts.forbid); err != nil {
		return err
	}
	if popts.Required, err = parsePairs(opts.require); err != nil {
		return err
	}

	runner, err := c.newRunner(cmd, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Searching with %s", popts.Algorithm))
	spinner.Start()
	result, err := runner.Execute(cmd.Context(), popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Search finished")
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.SearchHit)
	printDetail("run: %s", result.RunID)
	printDetail("rules fired: %d", len(result.Trace))

	if err := writeArtifacts(result.Artifacts, opts.output, skeletonPath, opts.formats); err != nil {
		return err
	}

	if opts.showTrace {
		if len(result.Trace) == 0 {
			printInfo("No rules fired; nothing to browse")
			return nil
		}
		return browseTrace(result.Trace)
	}
	return nil
}

// readGraphDoc reads a serialized graph document from a JSON file.
func readGraphDoc(path string) (graphio.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graphio.Graph{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := graphio.UnmarshalGraph(data)
	if err != nil {
		return graphio.Graph{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// writeArtifacts writes each rendered format next to the input, or under
// the explicit output path.
func writeArtifacts(artifacts map[string][]byte, output, input string, formats []string) error {
	base := basePath(output, input)

	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}

		path := output
		if path == "" || len(formats) > 1 {
			path = base + "." + format
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from the output and input file
// paths, stripping a known format extension when present.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input)) + "_pag"
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
