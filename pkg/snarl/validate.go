package snarl

import "fmt"

// Validate checks the structural integrity of the tree:
//   - every region belongs to exactly one chain
//   - neighbouring regions in a chain share their boundary visit
//   - region and chain ends are distinct nodes
//   - no two regions share a start visit
//   - the parent relation is acyclic
//
// Node references are not checked here; the distance index checks them
// against the graph when it is built.
func (t *Tree) Validate() error {
	starts := make(map[Visit]RegionID, len(t.regions))
	for i, r := range t.regions {
		id := RegionID(i)
		if r.chain == NoChain {
			return fmt.Errorf("%w: %d", ErrOrphanRegion, id)
		}
		if r.Start.Node == r.End.Node {
			return fmt.Errorf("%w: region %d starts and ends on node %d", ErrDegenerate, id, r.Start.Node)
		}
		if prev, ok := starts[r.Start]; ok {
			return fmt.Errorf("%w: regions %d and %d start at %s", ErrDuplicateStart, prev, id, r.Start)
		}
		starts[r.Start] = id
	}

	for i, c := range t.chains {
		for j := 1; j < len(c.regions); j++ {
			prev, next := t.regions[c.regions[j-1]], t.regions[c.regions[j]]
			if prev.End != next.Start {
				return fmt.Errorf("%w: chain %d, %s then %s", ErrBrokenChain, i, prev.End, next.Start)
			}
		}
		if len(c.regions) > 1 && t.Head(ChainID(i)).Node == t.Tail(ChainID(i)).Node {
			return fmt.Errorf("%w: chain %d is circular", ErrDegenerate, i)
		}
	}
	return t.checkAcyclic()
}

// checkAcyclic walks the parent links of every chain, colouring chains as
// in progress and done.
func (t *Tree) checkAcyclic() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(t.chains))
	var path []ChainID
	for i := range t.chains {
		path = path[:0]
		c := ChainID(i)
		for c != NoChain && state[c] == unvisited {
			state[c] = active
			path = append(path, c)
			p := t.chains[c].parent
			if p == NoRegion {
				break
			}
			c = t.regions[p].chain
		}
		if c != NoChain && state[c] == active && t.chains[c].parent != NoRegion {
			return fmt.Errorf("%w: chain %d", ErrCycle, c)
		}
		for _, v := range path {
			state[v] = done
		}
	}
	return nil
}
