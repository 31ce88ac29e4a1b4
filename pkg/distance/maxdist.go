package distance

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// maxIndex is a capped upper-bound estimator over the handle graph.
//
// Strongly connected components of the handle graph are collapsed and
// numbered in topological order. For every acyclic component it stores the
// longest and shortest walk from the start of its handle to a sink. Cyclic
// components, and everything that can reach one, saturate at the cap.
type maxIndex struct {
	cap       int64
	minID     vgraph.NodeID
	numCycles int

	component []int32 // per handle slot, -1 for id gaps
	minDist   []int64 // per component
	maxDist   []int64 // per component, cap when saturated
}

func handleSlot(minID vgraph.NodeID, h vgraph.Handle) int64 {
	s := 2 * int64(h.ID-minID)
	if h.Reverse {
		s++
	}
	return s
}

// newMaxIndex runs the estimator pass. lengths is indexed by id-minID, -1
// marking ids absent from the graph.
func newMaxIndex(g vgraph.Graph, minID vgraph.NodeID, lengths []int64, limit int64) *maxIndex {
	m := &maxIndex{
		cap:       limit,
		minID:     minID,
		component: make([]int32, 2*len(lengths)),
	}
	for i := range m.component {
		m.component[i] = -1
	}

	dg := simple.NewDirectedGraph()
	selfLoop := make(map[int64]bool)
	for i, l := range lengths {
		if l < 0 {
			continue
		}
		dg.AddNode(simple.Node(2 * i))
		dg.AddNode(simple.Node(2*i + 1))
	}
	forEachHandle(lengths, minID, func(h vgraph.Handle) {
		from := handleSlot(minID, h)
		g.Follow(h, func(next vgraph.Handle) bool {
			to := handleSlot(minID, next)
			if to == from {
				selfLoop[from] = true
			} else {
				dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
			}
			return true
		})
	})

	sccs := topo.TarjanSCC(dg)
	comp := make([]int, len(m.component))
	cyclic := make([]bool, len(sccs))
	for c, scc := range sccs {
		for _, n := range scc {
			comp[n.ID()] = c
			if len(scc) > 1 || selfLoop[n.ID()] {
				cyclic[c] = true
			}
		}
	}

	// Condense and order topologically with Kahn's algorithm.
	succ := make([][]int, len(sccs))
	indeg := make([]int, len(sccs))
	seen := make(map[[2]int]bool)
	edges := dg.Edges()
	for edges.Next() {
		e := edges.Edge()
		a, b := comp[e.From().ID()], comp[e.To().ID()]
		if a == b || seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		succ[a] = append(succ[a], b)
		indeg[b]++
	}
	order := make([]int, 0, len(sccs))
	for c := range sccs {
		if indeg[c] == 0 {
			order = append(order, c)
		}
	}
	for i := 0; i < len(order); i++ {
		for _, b := range succ[order[i]] {
			if indeg[b]--; indeg[b] == 0 {
				order = append(order, b)
			}
		}
	}
	rank := make([]int, len(sccs))
	for i, c := range order {
		rank[c] = i
	}

	m.minDist = make([]int64, len(sccs))
	m.maxDist = make([]int64, len(sccs))
	for i := len(order) - 1; i >= 0; i-- {
		c := order[i]
		if cyclic[c] {
			m.numCycles++
			m.maxDist[i] = limit
			continue
		}
		node := sccs[c][0].ID()
		l := lengths[node/2]
		if len(succ[c]) == 0 {
			m.minDist[i], m.maxDist[i] = l, min(l, limit)
			continue
		}
		lo, hi := int64(-1), int64(0)
		for _, b := range succ[c] {
			rb := rank[b]
			if lo < 0 || m.minDist[rb] < lo {
				lo = m.minDist[rb]
			}
			hi = max(hi, m.maxDist[rb])
		}
		m.minDist[i] = l + lo
		if hi >= limit {
			m.maxDist[i] = limit
		} else {
			m.maxDist[i] = min(l+hi, limit)
		}
	}
	for h, c := range comp {
		if lengths[h/2] >= 0 {
			m.component[h] = int32(rank[c])
		}
	}
	return m
}

func forEachHandle(lengths []int64, minID vgraph.NodeID, fn func(vgraph.Handle)) {
	for i, l := range lengths {
		if l < 0 {
			continue
		}
		id := minID + vgraph.NodeID(i)
		fn(vgraph.Forward(id))
		fn(vgraph.Backward(id))
	}
}

// bound returns an upper bound on the length of any walk between the two
// points. c1 and c2 are forward offsets.
func (m *maxIndex) bound(n1 vgraph.NodeID, c1, l1 int64, n2 vgraph.NodeID, c2, l2 int64) Bound {
	best := int64(0)
	if n1 == n2 {
		best = abs(c1 - c2)
	}
	for _, r1 := range [2]bool{false, true} {
		off1 := c1
		if r1 {
			off1 = l1 - c1
		}
		hi := m.maxDist[m.component[handleSlot(m.minID, vgraph.Handle{ID: n1, Reverse: r1})]]
		if hi >= m.cap {
			return Bound{n: m.cap, saturated: true}
		}
		for _, r2 := range [2]bool{false, true} {
			off2 := c2
			if r2 {
				off2 = l2 - c2
			}
			lo := m.minDist[m.component[handleSlot(m.minID, vgraph.Handle{ID: n2, Reverse: r2})]]
			best = max(best, hi-lo-off1+off2)
		}
	}
	if best >= m.cap {
		return Bound{n: m.cap, saturated: true}
	}
	return Bound{n: best}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func (m *maxIndex) toVector() []int64 {
	out := make([]int64, 0, 3+len(m.component)+2*len(m.minDist))
	out = append(out, m.cap, int64(m.numCycles), int64(len(m.minDist)))
	for _, c := range m.component {
		out = append(out, int64(c))
	}
	out = append(out, m.minDist...)
	return append(out, m.maxDist...)
}
