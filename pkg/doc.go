// Package pkg provides the core libraries for vgdist distance indexing.
//
// # Overview
//
// vgdist answers distance queries over bidirected variation graphs. A graph
// arrives together with its snarl decomposition: regions bounded by two node
// visits, strung into chains, chains nested inside the regions that contain
// them. The index stores one small distance matrix per region and prefix
// sums per chain, so a query climbs the decomposition instead of walking the
// graph.
//
// # Architecture
//
// The typical data flow:
//
//	JSON graph document
//	         ↓
//	    [io] package (graph + decomposition)
//	         ↓
//	    [distance] package (build or load the index)
//	         ↓
//	    [cache] package (serialized index keyed by input hash)
//	         ↓
//	    min / max distance queries, rendered trees
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/vgdist/pkg/distance"
//	    vgio "github.com/matzehuels/vgdist/pkg/io"
//	)
//
//	g, tree, _ := vgio.ImportJSON("graph.json")
//	idx, _ := distance.Build(context.Background(), g, tree, distance.WithCap(10000))
//	d, _ := idx.MinDistance(distance.Pos(1, 0), distance.Pos(4, 1))
//	b, _ := idx.MaxDistance(distance.Pos(1, 0), distance.Pos(4, 1))
//
// # Main Packages
//
// [vgraph] - Bidirected graph model: node ids, oriented handles, and the
// in-memory graph used for building.
//
// [snarl] - The region and chain decomposition tree with validation.
//
// [distance] - The index itself: region net graphs, chain prefix sums, the
// max-distance estimator, and varint serialization.
//
// [io] - JSON import and export of graphs with their decomposition.
//
// [pipeline] - Read, build and cache in one call; used by the CLI and the
// server alike.
//
// [cache] - File, Redis and null caches behind one interface.
//
// [render] - Graphviz diagrams of the decomposition (DOT, SVG, PDF, PNG).
//
// [config], [errors], [observability] and [buildinfo] carry the ambient
// concerns: TOML configuration, error codes, hooks, and version data.
//
// [vgraph]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/vgraph
// [snarl]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/snarl
// [distance]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/distance
// [io]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/render
// [config]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/vgdist/pkg/buildinfo
package pkg
