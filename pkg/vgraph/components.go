package vgraph

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// WeakComponents returns the weakly connected components of g. Each
// component lists its node ids in ascending order, and components are
// ordered by their smallest id.
func WeakComponents(g Graph) [][]NodeID {
	u := simple.NewUndirectedGraph()
	g.ForEachNode(func(id NodeID) bool {
		u.AddNode(simple.Node(id))
		return true
	})
	g.ForEachNode(func(id NodeID) bool {
		for _, h := range []Handle{Forward(id), Backward(id)} {
			g.Follow(h, func(next Handle) bool {
				// Self edges panic in gonum simple graphs and never change
				// connectivity.
				if next.ID != id {
					u.SetEdge(u.NewEdge(simple.Node(id), simple.Node(next.ID)))
				}
				return true
			})
		}
		return true
	})

	var comps [][]NodeID
	for _, cc := range topo.ConnectedComponents(u) {
		ids := make([]NodeID, len(cc))
		for i, n := range cc {
			ids[i] = NodeID(n.ID())
		}
		slices.Sort(ids)
		comps = append(comps, ids)
	}
	slices.SortFunc(comps, func(a, b []NodeID) int { return int(a[0] - b[0]) })
	return comps
}

// ComponentOf maps every node id to the index of its component in
// WeakComponents order.
func ComponentOf(g Graph) map[NodeID]int {
	out := make(map[NodeID]int, g.NodeCount())
	for i, comp := range WeakComponents(g) {
		for _, id := range comp {
			out[id] = i
		}
	}
	return out
}
