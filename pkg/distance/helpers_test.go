package distance

import (
	"container/heap"
	"context"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

func mustBuild(t *testing.T, g vgraph.Graph, tree *snarl.Tree, opts ...Option) *Index {
	t.Helper()
	idx, err := Build(context.Background(), g, tree, opts...)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return idx
}

func mustMin(t *testing.T, idx *Index, p1, p2 Position) Distance {
	t.Helper()
	d, err := idx.MinDistance(p1, p2)
	if err != nil {
		t.Fatalf("MinDistance(%v, %v) error: %v", p1, p2, err)
	}
	return d
}

func addNodes(g *vgraph.Memory, lengths map[vgraph.NodeID]int64) {
	for id, l := range lengths {
		if err := g.AddNode(id, l); err != nil {
			panic(err)
		}
	}
}

func addEdge(g *vgraph.Memory, from, to vgraph.Handle) {
	if err := g.AddEdge(from, to); err != nil {
		panic(err)
	}
}

func chainOf(t *snarl.Tree, parent snarl.RegionID, regions ...snarl.RegionID) snarl.ChainID {
	c, err := t.AddChain(parent, regions...)
	if err != nil {
		panic(err)
	}
	return c
}

// linearGraph is A(5) -> B(3) -> C(4) as one chain of two regions.
func linearGraph() (*vgraph.Memory, *snarl.Tree) {
	g := vgraph.New()
	addNodes(g, map[vgraph.NodeID]int64{1: 5, 2: 3, 3: 4})
	addEdge(g, vgraph.Forward(1), vgraph.Forward(2))
	addEdge(g, vgraph.Forward(2), vgraph.Forward(3))

	t := snarl.New()
	a := t.AddRegion(snarl.Fwd(1), snarl.Fwd(2))
	b := t.AddRegion(snarl.Fwd(2), snarl.Fwd(3))
	chainOf(t, snarl.NoRegion, a, b)
	return g, t
}

// bubbleGraph is 1(2) -> {2(3), 3(5)} -> 4(1) as a single region.
func bubbleGraph() (*vgraph.Memory, *snarl.Tree) {
	g := vgraph.New()
	addNodes(g, map[vgraph.NodeID]int64{1: 2, 2: 3, 3: 5, 4: 1})
	addEdge(g, vgraph.Forward(1), vgraph.Forward(2))
	addEdge(g, vgraph.Forward(1), vgraph.Forward(3))
	addEdge(g, vgraph.Forward(2), vgraph.Forward(4))
	addEdge(g, vgraph.Forward(3), vgraph.Forward(4))

	t := snarl.New()
	r := t.AddRegion(snarl.Fwd(1), snarl.Fwd(4))
	chainOf(t, snarl.NoRegion, r)
	return g, t
}

// nestedGraph has a top-level chain 1 -> 2 -> 9 whose second region holds
// an inverted node 8 and a nested chain 3 -> 6 -> 7 with its own bubble
// {4, 5}. Node 5 is traversed backwards and node 7 carries a reversing
// edge that lets walks turn back inside the nested chain.
func nestedGraph() (*vgraph.Memory, *snarl.Tree) {
	g := vgraph.New()
	addNodes(g, map[vgraph.NodeID]int64{1: 4, 2: 2, 3: 1, 4: 3, 5: 6, 6: 2, 7: 3, 8: 5, 9: 2})
	fw, bw := vgraph.Forward, vgraph.Backward
	addEdge(g, fw(1), fw(2))
	addEdge(g, fw(2), fw(3))
	addEdge(g, fw(3), fw(4))
	addEdge(g, fw(3), bw(5))
	addEdge(g, fw(4), fw(6))
	addEdge(g, bw(5), fw(6))
	addEdge(g, fw(6), fw(7))
	addEdge(g, fw(7), bw(7))
	addEdge(g, fw(7), fw(9))
	addEdge(g, fw(2), bw(8))
	addEdge(g, bw(8), fw(9))

	t := snarl.New()
	top1 := t.AddRegion(snarl.Fwd(1), snarl.Fwd(2))
	top2 := t.AddRegion(snarl.Fwd(2), snarl.Fwd(9))
	chainOf(t, snarl.NoRegion, top1, top2)
	in1 := t.AddRegion(snarl.Fwd(3), snarl.Fwd(6))
	in2 := t.AddRegion(snarl.Fwd(6), snarl.Fwd(7))
	chainOf(t, top2, in1, in2)
	return g, t
}

// oracle is a brute-force Dijkstra over the whole handle graph.
func oracle(g vgraph.Graph, p1, p2 Position) Distance {
	l1, _ := g.Length(p1.Node)
	l2, _ := g.Length(p2.Node)
	c1, c2 := p1.forward(l1), p2.forward(l2)
	best := Unreachable
	if p1.Node == p2.Node {
		best = Dist(abs(c1 - c2))
	}
	dist := make(map[vgraph.Handle]int64)
	var pq handleQueue
	leave := func(h vgraph.Handle, d int64) {
		g.Follow(h, func(next vgraph.Handle) bool {
			heap.Push(&pq, handleItem{h: next, d: d})
			return true
		})
	}
	leave(vgraph.Forward(p1.Node), l1-c1)
	leave(vgraph.Backward(p1.Node), c1)
	for pq.Len() > 0 {
		it := heap.Pop(&pq).(handleItem)
		if _, ok := dist[it.h]; ok {
			continue
		}
		dist[it.h] = it.d
		if it.h.ID == p2.Node {
			off := c2
			if it.h.Reverse {
				off = l2 - c2
			}
			best = best.Min(Dist(it.d + off))
		}
		l, _ := g.Length(it.h.ID)
		leave(it.h, it.d+l)
	}
	return best
}

type handleItem struct {
	h vgraph.Handle
	d int64
}

type handleQueue []handleItem

func (q handleQueue) Len() int           { return len(q) }
func (q handleQueue) Less(i, j int) bool { return q[i].d < q[j].d }
func (q handleQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *handleQueue) Push(x any)        { *q = append(*q, x.(handleItem)) }
func (q *handleQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// samplePositions returns the two ends and a middle point of every node.
func samplePositions(g *vgraph.Memory) []Position {
	var out []Position
	for _, id := range g.Nodes() {
		l, _ := g.Length(id)
		out = append(out, Pos(id, 0))
		if l > 1 {
			out = append(out, Pos(id, l/2))
		}
		if l > 0 {
			out = append(out, Pos(id, l))
		}
	}
	return out
}

// checkAgainstOracle compares every pair of sampled positions.
func checkAgainstOracle(t *testing.T, g *vgraph.Memory, idx *Index) {
	t.Helper()
	pts := samplePositions(g)
	fails := 0
	for _, p := range pts {
		for _, q := range pts {
			got := mustMin(t, idx, p, q)
			want := oracle(g, p, q)
			if got != want {
				t.Errorf("MinDistance(%v, %v) = %v, want %v", p, q, got, want)
				if fails++; fails > 10 {
					t.FailNow()
				}
			}
		}
	}
}

// handleSide is one side of a handle: the end of h, or its start.
type handleSide struct {
	h   vgraph.Handle
	end bool
}

// generator builds random graphs whose decomposition is valid by
// construction: every edge of a region joins sides owned by that region.
type generator struct {
	rnd     *rand.Rand
	g       *vgraph.Memory
	tree    *snarl.Tree
	next    vgraph.NodeID
	maxNest int
}

func newGenerator(seed uint64) *generator {
	return &generator{
		rnd:     rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15)),
		g:       vgraph.New(),
		tree:    snarl.New(),
		next:    1,
		maxNest: 2,
	}
}

func (gen *generator) node() vgraph.NodeID {
	id := gen.next
	gen.next++
	if err := gen.g.AddNode(id, int64(gen.rnd.IntN(7))); err != nil {
		panic(err)
	}
	return id
}

func (gen *generator) join(a, b handleSide) {
	from, to := a.h, b.h
	switch {
	case a.end && !b.end:
	case a.end && b.end:
		to = b.h.Flip()
	case !a.end && !b.end:
		from = a.h.Flip()
	default:
		from, to = b.h, a.h
	}
	addEdge(gen.g, from, to)
}

// chain adds a chain nested in parent and returns its head and tail.
func (gen *generator) chain(parent snarl.RegionID, depth int) (snarl.Visit, snarl.Visit) {
	k := 1 + gen.rnd.IntN(3)
	visits := make([]snarl.Visit, k+1)
	for i := range visits {
		visits[i] = snarl.Visit{Node: gen.node(), Backward: gen.rnd.Float64() < 0.3}
	}
	regions := make([]snarl.RegionID, k)
	for i := range k {
		regions[i] = gen.tree.AddRegion(visits[i], visits[i+1])
	}
	chainOf(gen.tree, parent, regions...)
	for i, r := range regions {
		gen.fill(r, visits[i], visits[i+1], depth)
	}
	return visits[0], visits[k]
}

func (gen *generator) fill(r snarl.RegionID, start, end snarl.Visit, depth int) {
	type item struct{ left, right handleSide }
	var items []item
	for range gen.rnd.IntN(4) {
		if depth < gen.maxNest && gen.rnd.Float64() < 0.35 {
			head, tail := gen.chain(r, depth+1)
			items = append(items, item{handleSide{h: head.Handle()}, handleSide{h: tail.Handle(), end: true}})
			continue
		}
		h := vgraph.Handle{ID: gen.node(), Reverse: gen.rnd.Float64() < 0.4}
		items = append(items, item{handleSide{h: h}, handleSide{h: h, end: true}})
	}
	gen.rnd.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	startSide := handleSide{h: start.Handle(), end: true}
	endSide := handleSide{h: end.Handle()}
	prev := startSide
	for _, it := range items {
		if gen.rnd.Float64() < 0.8 {
			gen.join(prev, it.left)
			prev = it.right
		} else {
			gen.join(prev, it.right)
			prev = it.left
		}
	}
	if gen.rnd.Float64() < 0.9 {
		gen.join(prev, endSide)
	}
	sides := []handleSide{startSide, endSide}
	for _, it := range items {
		sides = append(sides, it.left, it.right)
	}
	for range gen.rnd.IntN(5) {
		gen.join(sides[gen.rnd.IntN(len(sides))], sides[gen.rnd.IntN(len(sides))])
	}
}

func randomGraph(seed uint64) (*vgraph.Memory, *snarl.Tree) {
	gen := newGenerator(seed)
	gen.chain(snarl.NoRegion, 0)
	if gen.rnd.Float64() < 0.3 {
		gen.chain(snarl.NoRegion, 0)
	}
	return gen.g, gen.tree
}
