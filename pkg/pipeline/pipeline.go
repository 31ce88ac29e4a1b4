// Package pipeline provides the read, build and cache pipeline shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Read: decode the JSON graph and decomposition with [io.ReadJSON]
//  2. Build: index the decomposition with [distance.Build]
//  3. Store: serialize the index into the cache under its input hash
//
// When the cache already holds an index for the same input bytes and
// options, stage 2 is replaced by a load.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input: "graph.json",
//	    Cap:   10000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err := result.Index.MinDistance(p1, p2)
//
// [io.ReadJSON]: github.com/matzehuels/vgdist/pkg/io.ReadJSON
// [distance.Build]: github.com/matzehuels/vgdist/pkg/distance.Build
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/vgdist/pkg/distance"
	"github.com/matzehuels/vgdist/pkg/errors"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// DefaultCap is the estimator cap used when Options.Cap is negative.
const DefaultCap = 10000

// Options configures one pipeline run.
type Options struct {
	// Input is the path of a JSON graph document.
	Input string `json:"input"`

	// Cap is the max-distance estimator cap. Zero builds without the
	// estimator; a negative value selects DefaultCap.
	Cap int64 `json:"cap"`

	// Refresh skips the cache lookup and overwrites the entry.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result holds everything a run produced.
type Result struct {
	Graph *vgraph.Memory
	Tree  *snarl.Tree
	Index *distance.Index

	// InputHash is the SHA-256 of the input document.
	InputHash string
	// CacheKey is the key the serialized index is stored under.
	CacheKey string

	Stats     Stats
	CacheInfo CacheInfo
}

// ID returns the index build id.
func (r *Result) ID() uuid.UUID { return r.Index.ID() }

// Stats holds timings and sizes of a run.
type Stats struct {
	ReadTime  time.Duration
	BuildTime time.Duration // build or load
	Bytes     int           // serialized index size
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	IndexHit bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := errors.ValidatePath(o.Input); err != nil {
		return err
	}
	if o.Cap < 0 {
		o.Cap = DefaultCap
	}
	return errors.ValidateCap(o.Cap)
}

// BuildOptions returns the distance build options for o.
func (o *Options) BuildOptions() []distance.Option {
	opts := []distance.Option{distance.WithCap(o.Cap)}
	if o.Logger != nil {
		opts = append(opts, distance.WithLogger(o.Logger))
	}
	return opts
}
