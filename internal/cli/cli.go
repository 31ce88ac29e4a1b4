// Package cli implements the vgdist command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vgdist/pkg/buildinfo"
	"github.com/matzehuels/vgdist/pkg/cache"
	"github.com/matzehuels/vgdist/pkg/config"
	"github.com/matzehuels/vgdist/pkg/distance"
	"github.com/matzehuels/vgdist/pkg/pipeline"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "vgdist"

	// indexExt is the extension of serialized index files.
	indexExt = ".vgdi"
)

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

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "vgdist answers distance queries over variation graphs",
		Long: `vgdist indexes a variation graph along its snarl decomposition and answers
minimum and maximum distance queries between positions without walking the graph.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "do not read or write the index cache")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the --config file, or returns the defaults.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg.Cache, c.noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Redis.Namespace,
		})
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// opened is an index together with the decomposition it was built over.
// Graph is nil when the index came from a serialized file.
type opened struct {
	Index  *distance.Index
	Tree   *snarl.Tree
	Graph  vgraph.Graph
	Cached bool
}

// openIndex builds or loads the index for input. JSON documents go through
// the cached pipeline; anything else is read as a serialized index.
func (c *CLI) openIndex(ctx context.Context, input string, opts pipeline.Options) (*opened, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	if !isDocument(input) {
		idx, err := runner.LoadFile(ctx, input)
		if err != nil {
			return nil, err
		}
		return &opened{Index: idx, Tree: idx.Tree()}, nil
	}
	opts.Input = input
	if opts.Cap < 0 {
		opts.Cap = cfg.Cap
	}
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &opened{Index: res.Index, Tree: res.Tree, Graph: res.Graph, Cached: res.CacheInfo.IndexHit}, nil
}

func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/vgdist/).
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

// indexPath derives the default index output path from the input path.
func indexPath(output, input string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + indexExt
}

// capOverride returns the --cap value if the flag was given, else -1 so the
// config cap applies.
func capOverride(cmd *cobra.Command, flag int64) int64 {
	if cmd.Flags().Changed("cap") {
		return flag
	}
	return -1
}

// parsePair parses a "from" and "to" position argument.
func parsePair(from, to string) (distance.Position, distance.Position, error) {
	p1, err := distance.ParsePosition(from)
	if err != nil {
		return distance.Position{}, distance.Position{}, fmt.Errorf("from: %w", err)
	}
	p2, err := distance.ParsePosition(to)
	if err != nil {
		return distance.Position{}, distance.Position{}, fmt.Errorf("to: %w", err)
	}
	return p1, p2, nil
}
