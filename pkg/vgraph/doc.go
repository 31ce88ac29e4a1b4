// Package vgraph provides a read-only view of a bidirected variation graph
// and a small in-memory implementation of it.
//
// # Overview
//
// A variation graph stores sequence on nodes. Each node can be traversed in
// two orientations, so the unit of traversal is a [Handle]: a node id plus a
// strand. Edges join the end of one handle to the start of another; because
// the graph is bidirected, the edge a -> b is the same edge as
// b.Flip() -> a.Flip().
//
// The distance index consumes the [Graph] interface and never mutates it.
// [Memory] is the implementation used by the CLI and by tests:
//
//	g := vgraph.New()
//	g.AddNode(1, 5)
//	g.AddNode(2, 3)
//	g.AddEdge(vgraph.Forward(1), vgraph.Forward(2))
//
// # Components
//
// [WeakComponents] groups nodes that are connected when edge direction is
// ignored. Queries between positions in different components are always
// unreachable.
package vgraph
