package distance

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// Index answers distance queries over a decomposed variation graph. It is
// immutable once built or loaded and safe for concurrent use.
type Index struct {
	id           uuid.UUID
	minID, maxID vgraph.NodeID
	lengths      []int64 // by id-minID, -1 for gaps

	regions []*regionIndex
	chains  []*chainIndex
	records []record // post-order

	byStart map[snarl.Visit]int32
	byHead  map[vgraph.NodeID]int32

	// nodeRegion holds, per id-minID, the signed start node of the node's
	// canonical region, or 0 for a gap.
	nodeRegion []int64

	max *maxIndex
}

// Stats summarizes an index.
type Stats struct {
	Nodes       int
	Regions     int
	Chains      int
	TopLevel    int
	MatrixCells int
	MaxVisits   int
	Depth       int
	Cap         int64
	Components  int
	Cycles      int
}

// ID returns the build identifier stored in the index header.
func (x *Index) ID() uuid.UUID { return x.id }

// Bounds returns the node id range the index was built for.
func (x *Index) Bounds() (minID, maxID vgraph.NodeID) { return x.minID, x.maxID }

// HasMax reports whether the max-distance estimator was built.
func (x *Index) HasMax() bool { return x.max != nil }

// Cap returns the estimator cap, or 0 without an estimator.
func (x *Index) Cap() int64 {
	if x.max == nil {
		return 0
	}
	return x.max.cap
}

// Stats computes summary counts.
func (x *Index) Stats() Stats {
	s := Stats{Regions: len(x.regions), Chains: len(x.chains), Cap: x.Cap()}
	for _, l := range x.lengths {
		if l >= 0 {
			s.Nodes++
		}
	}
	for _, r := range x.regions {
		s.MatrixCells += len(r.far)
		s.MaxVisits = max(s.MaxVisits, r.size())
	}
	for _, c := range x.chains {
		if c.parent < 0 {
			s.TopLevel++
		}
	}
	for i := range x.regions {
		s.Depth = max(s.Depth, x.depth(int32(i)))
	}
	if x.max != nil {
		s.Components = len(x.max.minDist)
		s.Cycles = x.max.numCycles
	}
	return s
}

func (x *Index) depth(r int32) int {
	d := 0
	for r >= 0 {
		d++
		r = x.chains[x.regions[r].chain].parent
	}
	return d
}

// SnarlOf returns the region immediately containing a node.
func (x *Index) SnarlOf(id vgraph.NodeID) (snarl.Region, bool) {
	slot, ok := x.regionOf(id)
	if !ok {
		return snarl.Region{}, false
	}
	r := x.regions[slot]
	return snarl.Region{Start: r.start, End: r.end}, true
}

// Tree reconstructs the decomposition the index was built over. Region and
// chain ids follow the index's post-order.
func (x *Index) Tree() *snarl.Tree {
	t := snarl.New()
	for _, r := range x.regions {
		t.AddRegion(r.start, r.end)
	}
	for _, c := range x.chains {
		rs := make([]snarl.RegionID, len(c.regions))
		for i, r := range c.regions {
			rs[i] = snarl.RegionID(r)
		}
		// The arrays were validated on build or load.
		_, _ = t.AddChain(snarl.RegionID(c.parent), rs...)
	}
	return t
}

func (x *Index) regionOf(id vgraph.NodeID) (int32, bool) {
	if id < x.minID || id > x.maxID || len(x.nodeRegion) == 0 {
		return 0, false
	}
	v := x.nodeRegion[id-x.minID]
	if v == 0 {
		return 0, false
	}
	slot, ok := x.byStart[snarl.FromSigned(v)]
	return slot, ok
}

func (x *Index) nodeLength(id vgraph.NodeID) (int64, bool) {
	if id < x.minID || id > x.maxID || len(x.lengths) == 0 {
		return 0, false
	}
	l := x.lengths[id-x.minID]
	return l, l >= 0
}

// locate validates p and returns its node length and forward offset.
func (x *Index) locate(p Position) (length, offset int64, err error) {
	l, ok := x.nodeLength(p.Node)
	if !ok {
		return 0, 0, fmt.Errorf("%w: node %d not in graph", ErrInvalidPosition, p.Node)
	}
	if p.Offset < 0 || p.Offset > l {
		return 0, 0, fmt.Errorf("%w: offset %d outside node %d of length %d", ErrInvalidPosition, p.Offset, p.Node, l)
	}
	return l, p.forward(l), nil
}

// MinDistance returns the length of the shortest walk between two points,
// or Unreachable. Each position is resolved to its canonical region; use
// MinDistanceIn to choose the region of a node shared between levels.
func (x *Index) MinDistance(p1, p2 Position) (Distance, error) {
	s1, ok := x.regionOf(p1.Node)
	if !ok {
		return Unreachable, fmt.Errorf("%w: node %d not indexed", ErrInvalidPosition, p1.Node)
	}
	s2, ok := x.regionOf(p2.Node)
	if !ok {
		return Unreachable, fmt.Errorf("%w: node %d not indexed", ErrInvalidPosition, p2.Node)
	}
	return x.minDistance(s1, s2, p1, p2)
}

// MinDistanceIn is MinDistance with the region containing each position
// given explicitly. Each node must be a plain node of its region's net
// graph: an interior node or one of the region's boundaries.
func (x *Index) MinDistanceIn(r1, r2 snarl.Region, p1, p2 Position) (Distance, error) {
	s1, err := x.regionFor(r1, p1.Node)
	if err != nil {
		return Unreachable, err
	}
	s2, err := x.regionFor(r2, p2.Node)
	if err != nil {
		return Unreachable, err
	}
	return x.minDistance(s1, s2, p1, p2)
}

func (x *Index) regionFor(reg snarl.Region, id vgraph.NodeID) (int32, error) {
	slot, ok := x.byStart[reg.Start]
	if !ok || x.regions[slot].end != reg.End {
		return 0, fmt.Errorf("%w: %s..%s", ErrUnknownRegion, reg.Start, reg.End)
	}
	r := x.regions[slot]
	if k, ok := r.net[id]; !ok || r.chains[k] >= 0 {
		return 0, fmt.Errorf("%w: node %d, region %s..%s", ErrNotInRegion, id, reg.Start, reg.End)
	}
	return slot, nil
}

// level is one step of a walk up the tree: a region or a chain slot.
type level struct {
	chain bool
	slot  int32
}

// ancestry lists the levels from region r up to its top-level chain.
func (x *Index) ancestry(r int32) []level {
	var out []level
	for r >= 0 {
		c := x.regions[r].chain
		out = append(out, level{slot: r}, level{chain: true, slot: c})
		r = x.chains[c].parent
	}
	return out
}

// partial is a position seen from one level. At a region level, at is the
// net node holding the position and a, b are the distances to leave it
// through the end of its forward and reverse traversal. At a chain level, at
// is the rank of the region holding the position and a, b are the distances
// to leave that region through its start and end.
type partial struct {
	at   int
	a, b Distance
}

// climb walks a position from path[0] up to the last level of path.
func (x *Index) climb(path []level, node vgraph.NodeID, length, offset int64) partial {
	r := x.regions[path[0].slot]
	st := partial{at: r.net[node], a: Dist(length - offset), b: Dist(offset)}
	for i := 0; i < len(path)-1; i++ {
		lv := path[i]
		if !lv.chain {
			r := x.regions[lv.slot]
			toStart, toEnd := r.toEnds(st.at, st.a, st.b)
			st = partial{at: r.rank, a: toStart, b: toEnd}
			continue
		}
		c := x.chains[lv.slot]
		toLeft, toRight := c.DistanceToEnds(st.at, st.a, st.b)
		parent := x.regions[path[i+1].slot]
		st = partial{at: parent.net[c.head().Node], a: toRight, b: toLeft}
	}
	return st
}

func (x *Index) minDistance(s1, s2 int32, p1, p2 Position) (Distance, error) {
	l1, c1, err := x.locate(p1)
	if err != nil {
		return Unreachable, err
	}
	l2, c2, err := x.locate(p2)
	if err != nil {
		return Unreachable, err
	}
	best := Unreachable
	if p1.Node == p2.Node {
		best = Dist(abs(c1 - c2))
	}

	path1, path2 := x.ancestry(s1), x.ancestry(s2)
	at := make(map[level]int, len(path1))
	for i, lv := range path1 {
		at[lv] = i
	}
	i, j := -1, -1
	for k, lv := range path2 {
		if n, ok := at[lv]; ok {
			i, j = n, k
			break
		}
	}
	if i < 0 {
		return best, nil
	}
	st1 := x.climb(path1[:i+1], p1.Node, l1, c1)
	st2 := x.climb(path2[:j+1], p2.Node, l2, c2)
	lca := path1[i]
	if lca.chain {
		return best.Min(x.chains[lca.slot].combine(st1, st2)), nil
	}
	return best.Min(x.regions[lca.slot].combine(st1, st2)), nil
}

// combine joins two positions held by net nodes of the region.
func (r *regionIndex) combine(p, q partial) Distance {
	best := Unreachable
	dp, dq := [2]Distance{p.a, p.b}, [2]Distance{q.a, q.b}
	for i := range 2 {
		for j := range 2 {
			u, v := 2*p.at+i, 2*q.at+j
			best = best.Min(dp[i].Add(r.farAt(u, v^1)).Add(dq[j]))
		}
	}
	ps, pe := r.toEnds(p.at, p.a, p.b)
	qs, qe := r.toEnds(q.at, q.a, q.b)
	out, in := [2]Distance{ps, pe}, [2]Distance{qs, qe}
	for a := range 2 {
		for b := range 2 {
			best = best.Min(out[a].Add(r.outer[a][b]).Add(in[b]))
		}
	}
	return best
}

// combine joins two positions held by different regions of the chain.
func (c *chainIndex) combine(p, q partial) Distance {
	exits := [2]struct {
		s side
		d Distance
	}{{side{i: p.at, rev: true}, p.a}, {side{i: p.at + 1}, p.b}}
	entries := [2]struct {
		s side
		d Distance
	}{{side{i: q.at}, q.a}, {side{i: q.at + 1, rev: true}, q.b}}

	best := Unreachable
	for _, out := range exits {
		for _, in := range entries {
			d := out.d.Add(c.distance(out.s, in.s)).AddInt(-c.nodeLen(out.s.i)).Add(in.d)
			best = best.Min(d.nonNegative())
		}
	}
	pl, pr := c.DistanceToEnds(p.at, p.a, p.b)
	ql, qr := c.DistanceToEnds(q.at, q.a, q.b)
	out, in := [2]Distance{pl, pr}, [2]Distance{ql, qr}
	for a := range 2 {
		for b := range 2 {
			best = best.Min(out[a].Add(c.outer[a][b]).Add(in[b]))
		}
	}
	return best
}

// MaxDistance returns an upper bound on the distance between two points.
// The bound is saturated when the true distance may reach the cap.
func (x *Index) MaxDistance(p1, p2 Position) (Bound, error) {
	if x.max == nil {
		return Bound{}, ErrNoMaxIndex
	}
	l1, c1, err := x.locate(p1)
	if err != nil {
		return Bound{}, err
	}
	l2, c2, err := x.locate(p2)
	if err != nil {
		return Bound{}, err
	}
	return x.max.bound(p1.Node, c1, l1, p2.Node, c2, l2), nil
}
