package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagsearch/pkg/buildinfo"
	"github.com/matzehuels/pagsearch/pkg/cache"
	"github.com/matzehuels/pagsearch/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pagsearch"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and the default
// config (the config file is loaded when the root command runs).
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "pagsearch",
		Short:        "Pagsearch discovers causal structure as partial ancestral graphs",
		Long:         `Pagsearch runs constraint-based causal discovery (FCI and the CCD confounder search) over a skeleton and an independence oracle, producing partial ancestral graphs with rendered visualizations.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/pagsearch/config.toml)")

	// Register all subcommands
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(cmd, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

// newCache builds the cache backend named in the config: file (default),
// redis, mongo, or none.
func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Backend == CacheBackendNone {
		return cache.NewNullCache(), nil
	}

	switch c.Config.Cache.Backend {
	case CacheBackendRedis:
		return cache.NewRedisCache(cmd.Context(),
			c.Config.Cache.RedisAddr, c.Config.Cache.RedisPassword, c.Config.Cache.RedisDB)
	case CacheBackendMongo:
		return cache.NewMongoCache(cmd.Context(),
			c.Config.Cache.MongoURI, c.Config.Cache.MongoDatabase, c.Config.Cache.MongoCollection)
	case CacheBackendFile, "":
		dir, err := c.fileCacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", c.Config.Cache.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// fileCacheDir returns the file cache directory: the configured one, or
// the XDG standard (~/.cache/pagsearch/).
func (c *CLI) fileCacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pagsearch/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}

// parsePairs parses repeated "from:to" flags into knowledge pairs.
func parsePairs(specs []string) ([]pipeline.Pair, error) {
	pairs := make([]pipeline.Pair, 0, len(specs))
	for _, spec := range specs {
		from, to, ok := strings.Cut(spec, ":")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid edge spec %q (want from:to)", spec)
		}
		pairs = append(pairs, pipeline.Pair{From: from, To: to})
	}
	return pairs, nil
}
