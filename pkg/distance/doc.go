// Package distance builds and queries a hierarchical distance index over a
// variation graph and its snarl decomposition.
//
// # Overview
//
// The index is assembled bottom up over the decomposition tree:
//
//   - Each region stores a matrix of shortest distances between the visits
//     of its net graph, in which every child chain is one opaque node.
//   - Each chain stores prefix sums over its boundary nodes plus loop
//     distances for walks that turn back at a boundary node.
//   - An optional estimator stores capped longest and shortest walks per
//     strongly connected component of the handle graph.
//
// # Queries
//
// [Index.MinDistance] resolves each position to its canonical region and
// walks both up the tree, converting the distances to the ends of each
// level into distances to the ends of the next, until the walks meet. The
// two partial results are joined at the lowest common ancestor. The result
// is orientation independent: a walk read backwards is a walk of the same
// length.
//
//	idx, err := distance.Build(ctx, g, tree)
//	d, err := idx.MinDistance(distance.Pos(1, 0), distance.Pos(3, 0))
//	if n, ok := d.Value(); ok {
//	    fmt.Println(n)
//	}
//
// Unreachable pairs return [Unreachable], never an error.
//
// [Index.MaxDistance] returns a [Bound]: an upper bound on walk length
// below the cap, saturated at or above it. Every cycle saturates the bound of anything
// that can reach it, so raising the cap never changes a bound that was
// below the old cap.
//
// # Persistence
//
// [Index.Serialize] and [Load] write and read the whole index as a flat
// stream of varints in post-order. A loaded index is independent of the
// decomposition and only needs the graph to confirm its id bounds.
package distance
