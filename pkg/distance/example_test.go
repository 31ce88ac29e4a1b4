package distance_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/vgdist/pkg/distance"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// bubble builds 1 -> {2, 3} -> 4 with node 3 the longer branch.
func bubble() (*vgraph.Memory, *snarl.Tree) {
	g := vgraph.New()
	_ = g.AddNode(1, 2)
	_ = g.AddNode(2, 3)
	_ = g.AddNode(3, 5)
	_ = g.AddNode(4, 1)
	_ = g.AddEdge(vgraph.Forward(1), vgraph.Forward(2))
	_ = g.AddEdge(vgraph.Forward(1), vgraph.Forward(3))
	_ = g.AddEdge(vgraph.Forward(2), vgraph.Forward(4))
	_ = g.AddEdge(vgraph.Forward(3), vgraph.Forward(4))

	t := snarl.New()
	r := t.AddRegion(snarl.Fwd(1), snarl.Fwd(4))
	_, _ = t.AddChain(snarl.NoRegion, r)
	return g, t
}

func ExampleIndex_MinDistance() {
	g, tree := bubble()
	idx, err := distance.Build(context.Background(), g, tree)
	if err != nil {
		panic(err)
	}

	d, _ := idx.MinDistance(distance.Pos(1, 0), distance.Pos(4, 0))
	fmt.Println("start to end:", d)
	d, _ = idx.MinDistance(distance.Pos(2, 1), distance.Pos(3, 1))
	fmt.Println("across branches:", d)
	// Output:
	// start to end: 5
	// across branches: unreachable
}

func ExampleIndex_MaxDistance() {
	g, tree := bubble()
	idx, _ := distance.Build(context.Background(), g, tree, distance.WithCap(6))

	b, _ := idx.MaxDistance(distance.Pos(1, 0), distance.Pos(4, 0))
	fmt.Println("bound:", b)
	b, _ = idx.MaxDistance(distance.Pos(2, 0), distance.Pos(4, 0))
	fmt.Println("bound:", b)
	// Output:
	// bound: >=6
	// bound: 3
}

func ExampleLoad() {
	g, tree := bubble()
	idx, _ := distance.Build(context.Background(), g, tree)

	var buf bytes.Buffer
	if err := idx.Serialize(&buf); err != nil {
		panic(err)
	}
	loaded, err := distance.Load(context.Background(), &buf, g)
	if err != nil {
		panic(err)
	}
	d, _ := loaded.MinDistance(distance.Pos(1, 2), distance.Pos(4, 1))
	fmt.Println(d)
	// Output:
	// 4
}
