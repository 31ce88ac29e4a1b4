package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vgdist/pkg/cache"
	"github.com/matzehuels/vgdist/pkg/distance"
	vgio "github.com/matzehuels/vgdist/pkg/io"
	"github.com/matzehuels/vgdist/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
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

// Execute reads the input document and returns an index for it, loading a
// cached one when possible.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	readStart := time.Now()
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Input, err)
	}
	fileTime := time.Since(readStart)
	result, err := r.ExecuteBytes(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ReadTime += fileTime
	return result, nil
}

// ExecuteBytes is Execute over an in-memory document. opts.Input is only
// used for logging.
func (r *Runner) ExecuteBytes(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if opts.Cap < 0 {
		opts.Cap = DefaultCap
	}
	r.applyLogger(&opts)

	result := &Result{InputHash: cache.Hash(data)}
	readStart := time.Now()
	g, tree, err := vgio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	result.Graph, result.Tree = g, tree
	result.Stats.ReadTime = time.Since(readStart)
	r.Logger.Info("read graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"regions", tree.RegionCount(),
		"duration", result.Stats.ReadTime)

	result.CacheKey = r.Keyer.IndexKey(result.InputHash, cache.IndexKeyOpts{Cap: opts.Cap})
	buildStart := time.Now()
	hooks := observability.Cache()

	if !opts.Refresh {
		if blob, hit, err := r.Cache.Get(ctx, result.CacheKey); err == nil && hit {
			idx, err := distance.Load(ctx, bytes.NewReader(blob), g)
			if err == nil {
				result.Index = idx
				result.Stats.BuildTime = time.Since(buildStart)
				result.Stats.Bytes = len(blob)
				result.CacheInfo.IndexHit = true
				hooks.OnCacheHit(ctx, "index")
				r.Logger.Info("loaded cached index", "id", idx.ID(), "bytes", len(blob), "duration", result.Stats.BuildTime)
				return result, nil
			}
			// A stale or damaged entry is rebuilt and overwritten.
			r.Logger.Warn("discarding cached index", "key", result.CacheKey, "err", err)
		} else if err != nil {
			r.Logger.Warn("cache lookup failed", "err", err)
		}
	}

	hooks.OnCacheMiss(ctx, "index")

	idx, err := distance.Build(ctx, g, tree, opts.BuildOptions()...)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Index = idx
	result.Stats.BuildTime = time.Since(buildStart)
	r.Logger.Info("built index", "id", idx.ID(), "duration", result.Stats.BuildTime)

	var buf bytes.Buffer
	if err := idx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	result.Stats.Bytes = buf.Len()
	if err := r.Cache.Set(ctx, result.CacheKey, buf.Bytes(), cache.TTLIndex); err != nil {
		r.Logger.Warn("cache store failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "index", buf.Len())
	}
	return result, nil
}

// LoadFile loads a serialized index written by the build command.
func (r *Runner) LoadFile(ctx context.Context, path string) (*distance.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	idx, err := distance.Load(ctx, f, nil)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	r.Logger.Debug("loaded index", "path", path, "id", idx.ID())
	return idx, nil
}

// SaveFile writes a serialized index to path.
func (r *Runner) SaveFile(idx *distance.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := idx.Serialize(f); err != nil {
		f.Close()
		return fmt.Errorf("serialize: %w", err)
	}
	return f.Close()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
