package distance

import (
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// side is one traversal of a chain boundary node: forward heads towards the
// chain's tail, reverse towards its head.
type side struct {
	i   int
	rev bool
}

// chainIndex holds prefix sums and turn-back loops along one chain.
//
// Boundary node i spans prefix[2i] (its left side) to prefix[2i+1] (its
// right side). A region that cannot be crossed starts a new segment with
// prefix reset to zero; prefix differences are only meaningful inside one
// segment.
type chainIndex struct {
	visits []snarl.Visit
	rank   map[vgraph.NodeID]int
	prefix []int64
	seg    []int

	// loopFwd[i] runs from the start of visit i to the end of its reverse,
	// turning back somewhere right of node i. loopRev[i] is the mirror image
	// turning back left of node i.
	loopFwd []Distance
	loopRev []Distance

	regions []int32
	parent  int32

	// outer[x][y] is the cheapest excursion outside the chain leaving
	// through side x (0 left, 1 right) and coming back through side y.
	outer [2][2]Distance
}

// newChainIndex derives the chain from its already built regions.
func newChainIndex(regions []*regionIndex) *chainIndex {
	k := len(regions)
	c := &chainIndex{
		visits:  make([]snarl.Visit, k+1),
		prefix:  make([]int64, 2*(k+1)),
		seg:     make([]int, k+1),
		loopFwd: make([]Distance, k+1),
		loopRev: make([]Distance, k+1),
		parent:  -1,
	}
	lens := make([]int64, k+1)
	c.visits[0] = regions[0].start
	lens[0] = regions[0].slotLen(regions[0].startSlot())
	for i, r := range regions {
		c.visits[i+1] = r.end
		lens[i+1] = r.slotLen(r.endSlot())
	}

	c.prefix[1] = lens[0]
	for i, r := range regions {
		through := r.farAt(r.startSlot(), r.endSlot())
		left := c.prefix[2*i+1]
		c.seg[i+1] = c.seg[i]
		if d, ok := through.Value(); ok {
			left += d
		} else {
			c.seg[i+1]++
			left = 0
		}
		c.prefix[2*(i+1)] = left
		c.prefix[2*(i+1)+1] = left + lens[i+1]
	}

	c.loopFwd[k] = Unreachable
	for i := k - 1; i >= 0; i-- {
		r := regions[i]
		s, sx, e, ex := r.startSlot(), r.startExit(), r.endSlot(), r.endEntry()
		turn := Dist(lens[i]).Add(r.farAt(s, sx)).AddInt(lens[i])
		beyond := Dist(lens[i]).Add(r.farAt(s, e)).Add(c.loopFwd[i+1]).
			Add(r.farAt(ex, sx)).AddInt(lens[i])
		c.loopFwd[i] = turn.Min(beyond)
	}
	c.loopRev[0] = Unreachable
	for i := 1; i <= k; i++ {
		r := regions[i-1]
		s, sx, e, ex := r.startSlot(), r.startExit(), r.endSlot(), r.endEntry()
		turn := Dist(lens[i]).Add(r.farAt(ex, e)).AddInt(lens[i])
		beyond := Dist(lens[i]).Add(r.farAt(ex, sx)).Add(c.loopRev[i-1]).
			Add(r.farAt(s, e)).AddInt(lens[i])
		c.loopRev[i] = turn.Min(beyond)
	}
	c.indexRanks()
	return c
}

func (c *chainIndex) indexRanks() {
	c.rank = make(map[vgraph.NodeID]int, len(c.visits))
	for i, v := range c.visits {
		c.rank[v.Node] = i
	}
}

func (c *chainIndex) last() int           { return len(c.visits) - 1 }
func (c *chainIndex) left(i int) int64    { return c.prefix[2*i] }
func (c *chainIndex) right(i int) int64   { return c.prefix[2*i+1] }
func (c *chainIndex) nodeLen(i int) int64 { return c.prefix[2*i+1] - c.prefix[2*i] }
func (c *chainIndex) head() snarl.Visit   { return c.visits[0] }
func (c *chainIndex) tail() snarl.Visit   { return c.visits[c.last()] }

func (c *chainIndex) sideOf(v snarl.Visit) (side, bool) {
	i, ok := c.rank[v.Node]
	if !ok {
		return side{}, false
	}
	return side{i: i, rev: v != c.visits[i]}, true
}

// gap is a prefix difference between nodes i and j, if they share a segment.
func (c *chainIndex) gap(i, j int, d int64) Distance {
	if c.seg[i] != c.seg[j] {
		return Unreachable
	}
	return Dist(d)
}

// Length is the distance from the start of the head visit to the end of the
// tail visit.
func (c *chainIndex) Length() Distance {
	return c.gap(0, c.last(), c.right(c.last())-c.left(0))
}

// LoopLeft is the cost of entering the chain at its head and leaving it
// through the same side.
func (c *chainIndex) LoopLeft() Distance { return c.loopFwd[0] }

// LoopRight is the cost of entering the chain at its tail and leaving it
// through the same side.
func (c *chainIndex) LoopRight() Distance { return c.loopRev[c.last()] }

// Distance returns the distance from the start of visit a to the start of
// visit b. Both must traverse boundary nodes of the chain.
func (c *chainIndex) Distance(a, b snarl.Visit) Distance {
	sa, ok1 := c.sideOf(a)
	sb, ok2 := c.sideOf(b)
	if !ok1 || !ok2 {
		return Unreachable
	}
	return c.distance(sa, sb)
}

// DistanceFromFar returns the distance from the end of visit a to the start
// of visit b.
func (c *chainIndex) DistanceFromFar(a, b snarl.Visit) Distance {
	sa, ok1 := c.sideOf(a)
	sb, ok2 := c.sideOf(b)
	if !ok1 || !ok2 {
		return Unreachable
	}
	if sa == sb {
		return c.loopFwd[sa.i].Add(c.loopRev[sa.i]).AddInt(-3 * c.nodeLen(sa.i))
	}
	return c.distance(sa, sb).AddInt(-c.nodeLen(sa.i))
}

func (c *chainIndex) distance(a, b side) Distance {
	i, j := a.i, b.i
	switch {
	case !a.rev && !b.rev:
		if i <= j {
			return c.gap(i, j, c.left(j)-c.left(i))
		}
		return c.loopFwd[i].Add(c.gap(i, j, c.left(i)-c.left(j))).
			Add(c.loopRev[j]).AddInt(-2 * c.nodeLen(j))
	case !a.rev && b.rev:
		if i <= j {
			return c.gap(i, j, c.right(j)-c.left(i)).
				Add(c.loopFwd[j]).AddInt(-2 * c.nodeLen(j))
		}
		return c.loopFwd[i].Add(c.gap(i, j, c.left(i)-c.right(j)))
	case a.rev && b.rev:
		if j <= i {
			return c.gap(i, j, c.right(i)-c.right(j))
		}
		return c.loopRev[i].Add(c.gap(i, j, c.right(j)-c.right(i))).
			Add(c.loopFwd[j]).AddInt(-2 * c.nodeLen(j))
	default:
		if j <= i {
			return c.gap(i, j, c.right(i)-c.left(j)).
				Add(c.loopRev[j]).AddInt(-2 * c.nodeLen(j))
		}
		return c.loopRev[i].Add(c.gap(i, j, c.left(j)-c.right(i)))
	}
}

// DistanceToEnds converts distances to leave region rank through its start
// and end into distances to leave the chain through its head (left) and
// tail (right).
func (c *chainIndex) DistanceToEnds(rank int, distStart, distEnd Distance) (toLeft, toRight Distance) {
	s, e, k := rank, rank+1, c.last()
	toLeft = Min(
		distStart.Add(c.gap(s, 0, c.left(s)-c.left(0))),
		distEnd.Add(c.loopFwd[e]).AddInt(-2*c.nodeLen(e)).Add(c.gap(e, 0, c.right(e)-c.left(0))),
	)
	toRight = Min(
		distEnd.Add(c.gap(e, k, c.right(k)-c.right(e))),
		distStart.Add(c.loopRev[s]).AddInt(-2*c.nodeLen(s)).Add(c.gap(s, k, c.right(k)-c.left(s))),
	)
	return toLeft, toRight
}

// regionOuter derives the excursion costs of region rank from the chain's
// loops and the chain's own excursions. Rows are exits (0 start, 1 end),
// columns re-entries.
func (c *chainIndex) regionOuter(rank int) [2][2]Distance {
	s, e, k := rank, rank+1, c.last()
	toLeftExit := c.gap(s, 0, c.left(s)-c.left(0))
	toRightExit := c.gap(e, k, c.right(k)-c.right(e))
	turnLeft := c.loopRev[s].AddInt(-2 * c.nodeLen(s))
	turnRight := c.loopFwd[e].AddInt(-2 * c.nodeLen(e))

	var m [2][2]Distance
	m[0][0] = turnLeft.Min(toLeftExit.Add(c.outer[0][0]).Add(toLeftExit))
	m[0][1] = toLeftExit.Add(c.outer[0][1]).Add(toRightExit)
	m[1][1] = turnRight.Min(toRightExit.Add(c.outer[1][1]).Add(toRightExit))
	m[1][0] = toRightExit.Add(c.outer[1][0]).Add(toLeftExit)
	return m
}

// inner returns the cost of crossing the whole chain from a re-entry side
// to an exit side.
func (c *chainIndex) inner() [2][2]Distance {
	l := c.Length()
	return [2][2]Distance{
		{c.LoopLeft(), l},
		{l, c.LoopRight()},
	}
}

// toVector encodes the chain record payload.
func (c *chainIndex) toVector() []int64 {
	out := make([]int64, 0, 1+5*len(c.visits))
	out = append(out, int64(len(c.visits)))
	for i, v := range c.visits {
		out = append(out, v.Signed(), c.prefix[2*i], c.prefix[2*i+1], c.loopFwd[i].raw(), c.loopRev[i].raw())
	}
	return out
}
