package distance

import "github.com/matzehuels/vgdist/pkg/vgraph"

// computeOuter fills the excursion matrices of every chain and region, top
// down. A top-level chain has nothing outside it. Every other level derives
// its excursions from the level directly above, which already accounts for
// everything further out.
func (x *Index) computeOuter() {
	for i := len(x.records) - 1; i >= 0; i-- {
		rec := x.records[i]
		if rec.chain {
			c := x.chains[rec.slot]
			if c.parent < 0 {
				c.outer = [2][2]Distance{}
				continue
			}
			c.outer = closeExcursions(x.regions[c.parent].chainOuter(c.head().Node), c.inner())
			continue
		}
		r := x.regions[rec.slot]
		r.outer = closeExcursions(x.chains[r.chain].regionOuter(r.rank), r.inner())
	}
}

// chainOuter returns the excursions available to the child chain headed by
// node: walks through this region, optionally leaving it through its own
// boundaries. Rows are exits (0 left, 1 right), columns re-entries.
func (r *regionIndex) chainOuter(head vgraph.NodeID) [2][2]Distance {
	f := 2 * r.net[head]
	exits := [2]int{f ^ 1, f}
	entries := [2]int{f, f ^ 1}
	regionExits := [2]int{r.startExit(), r.endSlot()}
	regionEntries := [2]int{r.startSlot(), r.endEntry()}

	var m [2][2]Distance
	for a := range 2 {
		for b := range 2 {
			d := r.farAt(exits[a], entries[b])
			for u := range 2 {
				for w := range 2 {
					d = d.Min(r.exitCost(exits[a], regionExits[u]).
						Add(r.outer[u][w]).
						Add(r.fromStart(regionEntries[w], entries[b])))
				}
			}
			m[a][b] = d
		}
	}
	return m
}

// closeExcursions extends outer with walks that come back in, cross the
// level through inner and leave again. A minimal walk never repeats an exit
// side, so a few rounds over the two sides reach the fixpoint.
func closeExcursions(outer, inner [2][2]Distance) [2][2]Distance {
	m := outer
	for range 3 {
		next := m
		for a := range 2 {
			for b := range 2 {
				for y := range 2 {
					for x := range 2 {
						next[a][b] = next[a][b].Min(m[a][y].Add(inner[y][x]).Add(m[x][b]))
					}
				}
			}
		}
		m = next
	}
	return m
}
