package distance

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

func TestMinDistanceLinear(t *testing.T) {
	g, tree := linearGraph()
	idx := mustBuild(t, g, tree)

	tests := []struct {
		name   string
		p1, p2 Position
		want   Distance
	}{
		{"A to C", Pos(1, 0), Pos(3, 0), Dist(8)},
		{"inside A to inside B", Pos(1, 2), Pos(2, 1), Dist(4)},
		{"same point", Pos(2, 1), Pos(2, 1), Dist(0)},
		{"same node", Pos(1, 1), Pos(1, 4), Dist(3)},
		{"backwards along the path", Pos(3, 0), Pos(1, 0), Dist(8)},
		{"reverse strand", Position{Node: 3, Offset: 4, Reverse: true}, Position{Node: 1, Offset: 5, Reverse: true}, Dist(8)},
		{"end of C to start of A", Pos(3, 4), Pos(1, 0), Dist(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustMin(t, idx, tt.p1, tt.p2); got != tt.want {
				t.Errorf("MinDistance(%v, %v) = %v, want %v", tt.p1, tt.p2, got, tt.want)
			}
		})
	}
}

func TestMinDistanceBubble(t *testing.T) {
	g, tree := bubbleGraph()
	idx := mustBuild(t, g, tree)

	tests := []struct {
		p1, p2 Position
		want   Distance
	}{
		{Pos(1, 0), Pos(4, 0), Dist(5)},
		{Pos(1, 2), Pos(4, 1), Dist(4)},
		{Pos(2, 0), Pos(3, 0), Unreachable},
		{Pos(2, 3), Pos(3, 5), Unreachable},
		{Pos(1, 1), Pos(3, 3), Dist(4)},
		{Pos(3, 2), Pos(4, 1), Dist(4)},
	}
	for _, tt := range tests {
		if got := mustMin(t, idx, tt.p1, tt.p2); got != tt.want {
			t.Errorf("MinDistance(%v, %v) = %v, want %v", tt.p1, tt.p2, got, tt.want)
		}
	}
}

func TestMinDistanceNested(t *testing.T) {
	g, tree := nestedGraph()
	idx := mustBuild(t, g, tree)
	checkAgainstOracle(t, g, idx)
}

func TestMinDistanceProperties(t *testing.T) {
	g, tree := nestedGraph()
	idx := mustBuild(t, g, tree)
	pts := samplePositions(g)

	for _, p := range pts {
		if got := mustMin(t, idx, p, p); got != Dist(0) {
			t.Errorf("MinDistance(%v, %v) = %v, want 0", p, p, got)
		}
		l, _ := g.Length(p.Node)
		for _, q := range pts {
			d := mustMin(t, idx, p, q)
			if back := mustMin(t, idx, q, p); back != d {
				t.Errorf("MinDistance(%v, %v) = %v but reverse query = %v", p, q, d, back)
			}
			if flipped := mustMin(t, idx, p.Flip(l), q); flipped != d {
				t.Errorf("MinDistance(%v, %v) = %v but flipped query = %v", p, q, d, flipped)
			}
		}
	}
}

func TestMinDistancePathAdditivity(t *testing.T) {
	g, tree := linearGraph()
	idx := mustBuild(t, g, tree)
	pts := []Position{Pos(1, 1), Pos(1, 4), Pos(2, 2), Pos(3, 0), Pos(3, 3)}
	for i := 0; i+2 < len(pts); i++ {
		a, b, c := pts[i], pts[i+1], pts[i+2]
		ab, _ := mustMin(t, idx, a, b).Value()
		bc, _ := mustMin(t, idx, b, c).Value()
		if ac := mustMin(t, idx, a, c); ac != Dist(ab+bc) {
			t.Errorf("MinDistance(%v, %v) = %v, want %d", a, c, ac, ab+bc)
		}
	}
}

func TestMinDistanceDisconnected(t *testing.T) {
	g, tree := linearGraph()
	addNodes(g, map[vgraph.NodeID]int64{10: 2, 11: 2})
	addEdge(g, vgraph.Forward(10), vgraph.Forward(11))
	r := tree.AddRegion(snarl.Fwd(10), snarl.Fwd(11))
	chainOf(tree, snarl.NoRegion, r)

	idx := mustBuild(t, g, tree)
	if got := mustMin(t, idx, Pos(1, 0), Pos(11, 1)); got.Reachable() {
		t.Errorf("MinDistance across components = %v, want unreachable", got)
	}
	if got := mustMin(t, idx, Pos(10, 0), Pos(11, 1)); got != Dist(3) {
		t.Errorf("MinDistance(10:0, 11:1) = %v, want 3", got)
	}
}

func TestMinDistanceRandom(t *testing.T) {
	seeds := 60
	if testing.Short() {
		seeds = 10
	}
	for seed := range uint64(seeds) {
		g, tree := randomGraph(seed)
		idx, err := Build(context.Background(), g, tree)
		if err != nil {
			t.Fatalf("seed %d: Build() error: %v", seed, err)
		}
		pts := samplePositions(g)
		for _, p := range pts {
			for _, q := range pts {
				got := mustMin(t, idx, p, q)
				if want := oracle(g, p, q); got != want {
					t.Fatalf("seed %d: MinDistance(%v, %v) = %v, want %v", seed, p, q, got, want)
				}
			}
		}
	}
}

func TestMinDistanceInvalidPosition(t *testing.T) {
	g, tree := linearGraph()
	idx := mustBuild(t, g, tree)

	tests := []struct {
		name string
		p    Position
	}{
		{"unknown node", Pos(42, 0)},
		{"negative offset", Pos(1, -1)},
		{"offset past end", Pos(2, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idx.MinDistance(tt.p, Pos(1, 0))
			if !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("MinDistance(%v) error = %v, want ErrInvalidPosition", tt.p, err)
			}
		})
	}
}

func TestMinDistanceIn(t *testing.T) {
	g, tree := linearGraph()
	idx := mustBuild(t, g, tree)
	first := snarl.Region{Start: snarl.Fwd(1), End: snarl.Fwd(2)}
	second := snarl.Region{Start: snarl.Fwd(2), End: snarl.Fwd(3)}

	for _, pair := range [][2]snarl.Region{{first, second}, {second, second}} {
		got, err := idx.MinDistanceIn(first, pair[0], Pos(1, 0), Pos(2, 1))
		if err != nil {
			t.Fatalf("MinDistanceIn() error: %v", err)
		}
		if got != Dist(6) {
			t.Errorf("MinDistanceIn(%v) = %v, want 6", pair[0], got)
		}
	}

	_, err := idx.MinDistanceIn(second, second, Pos(1, 0), Pos(2, 0))
	if !errors.Is(err, ErrNotInRegion) {
		t.Errorf("MinDistanceIn() with foreign node error = %v, want ErrNotInRegion", err)
	}
	_, err = idx.MinDistanceIn(snarl.Region{Start: snarl.Fwd(1), End: snarl.Fwd(3)}, first, Pos(1, 0), Pos(2, 0))
	if !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("MinDistanceIn() with unknown region error = %v, want ErrUnknownRegion", err)
	}
}

func TestSnarlOf(t *testing.T) {
	g, tree := nestedGraph()
	idx := mustBuild(t, g, tree)

	tests := []struct {
		node  vgraph.NodeID
		start vgraph.NodeID
		ok    bool
	}{
		{1, 1, true},
		{2, 1, true},
		{9, 2, true},
		{8, 2, true},
		{3, 3, true},
		{4, 3, true},
		{6, 3, true},
		{7, 6, true},
		{99, 0, false},
	}
	for _, tt := range tests {
		r, ok := idx.SnarlOf(tt.node)
		if ok != tt.ok {
			t.Errorf("SnarlOf(%d) ok = %v, want %v", tt.node, ok, tt.ok)
			continue
		}
		if ok && r.Start.Node != tt.start {
			t.Errorf("SnarlOf(%d) = %v, want region starting at %d", tt.node, r, tt.start)
		}
	}
}

func TestIndexTreeAndStats(t *testing.T) {
	g, tree := nestedGraph()
	idx := mustBuild(t, g, tree, WithCap(100))

	rebuilt := idx.Tree()
	if err := rebuilt.Validate(); err != nil {
		t.Fatalf("Tree().Validate() error: %v", err)
	}
	if rebuilt.RegionCount() != 4 || rebuilt.ChainCount() != 2 {
		t.Errorf("Tree() has %d regions, %d chains, want 4, 2", rebuilt.RegionCount(), rebuilt.ChainCount())
	}

	s := idx.Stats()
	want := Stats{Nodes: 9, Regions: 4, Chains: 2, TopLevel: 1, Depth: 2, Cap: 100}
	if s.Nodes != want.Nodes || s.Regions != want.Regions || s.Chains != want.Chains ||
		s.TopLevel != want.TopLevel || s.Depth != want.Depth || s.Cap != want.Cap {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
	// A reversing edge joins two handles without closing a cycle.
	if s.Cycles != 0 || s.Components != 18 {
		t.Errorf("Stats() cycles = %d, components = %d, want 0, 18", s.Cycles, s.Components)
	}
}

func TestBuildInconsistent(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*vgraph.Memory, *snarl.Tree)
	}{
		{"missing boundary node", func() (*vgraph.Memory, *snarl.Tree) {
			g, tree := linearGraph()
			r := tree.AddRegion(snarl.Fwd(3), snarl.Fwd(7))
			chainOf(tree, snarl.NoRegion, r)
			return g, tree
		}},
		{"uncovered node", func() (*vgraph.Memory, *snarl.Tree) {
			g, tree := linearGraph()
			addNodes(g, map[vgraph.NodeID]int64{5: 1})
			return g, tree
		}},
		{"edge beyond top-level chain", func() (*vgraph.Memory, *snarl.Tree) {
			g, tree := linearGraph()
			addEdge(g, vgraph.Forward(3), vgraph.Forward(1))
			return g, tree
		}},
		{"edge enters outer side", func() (*vgraph.Memory, *snarl.Tree) {
			g, tree := bubbleGraph()
			addEdge(g, vgraph.Forward(2), vgraph.Forward(1))
			return g, tree
		}},
		{"top-level chains joined", func() (*vgraph.Memory, *snarl.Tree) {
			g, tree := linearGraph()
			addNodes(g, map[vgraph.NodeID]int64{5: 1, 6: 1})
			addEdge(g, vgraph.Forward(5), vgraph.Forward(6))
			addEdge(g, vgraph.Forward(3), vgraph.Forward(5))
			r := tree.AddRegion(snarl.Fwd(5), snarl.Fwd(6))
			chainOf(tree, snarl.NoRegion, r)
			return g, tree
		}},
		{"node in two regions", func() (*vgraph.Memory, *snarl.Tree) {
			g, tree := linearGraph()
			addNodes(g, map[vgraph.NodeID]int64{5: 1})
			addEdge(g, vgraph.Forward(1), vgraph.Forward(5))
			addEdge(g, vgraph.Forward(5), vgraph.Forward(3))
			return g, tree
		}},
		{"broken chain", func() (*vgraph.Memory, *snarl.Tree) {
			g := vgraph.New()
			addNodes(g, map[vgraph.NodeID]int64{1: 1, 2: 1, 3: 1})
			addEdge(g, vgraph.Forward(1), vgraph.Forward(2))
			tree := snarl.New()
			a := tree.AddRegion(snarl.Fwd(1), snarl.Fwd(2))
			b := tree.AddRegion(snarl.Fwd(3), snarl.Fwd(2))
			chainOf(tree, snarl.NoRegion, a, b)
			return g, tree
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, tree := tt.build()
			_, err := Build(context.Background(), g, tree)
			if !errors.Is(err, ErrInconsistent) {
				t.Errorf("Build() error = %v, want ErrInconsistent", err)
			}
		})
	}
}

func TestBuildCanceled(t *testing.T) {
	g, tree := linearGraph()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, g, tree); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}
