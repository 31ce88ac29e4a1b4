package distance

import (
	"container/heap"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// Slots 0 and 1 hold the start node, 2 and 3 the end node. Every net node
// owns the slot pair (2k, 2k+1); the even slot is its forward traversal.
const (
	slotStartFwd = 0
	slotEndFwd   = 2
)

// regionIndex is the distance matrix of one region's net graph: its two
// boundary nodes, its interior nodes, and each child chain collapsed into a
// single node spanning the chain.
type regionIndex struct {
	start, end snarl.Visit

	visits []snarl.Visit
	slot   map[snarl.Visit]int
	net    map[vgraph.NodeID]int // node id or child chain head -> net node

	// far[u*n+v] is the distance from the end of visit u to the start of
	// visit v without leaving the region, -1 when unreachable.
	far []int64

	lengths []int64 // per net node
	turns   []int64 // per slot, turn-back cost through a child chain or -1
	chains  []int32 // per net node, child chain slot or -1

	// tree links
	chain    int32
	rank     int
	children []int32

	// outer[x][y] is the cheapest excursion outside the region that leaves
	// through side x (0 start, 1 end) and comes back through side y.
	outer [2][2]Distance
}

func newRegionIndex(start, end snarl.Visit, visits []snarl.Visit) *regionIndex {
	r := &regionIndex{
		start:  start,
		end:    end,
		visits: visits,
		slot:   make(map[snarl.Visit]int, len(visits)),
		net:    make(map[vgraph.NodeID]int, len(visits)/2),
		chain:  -1,
	}
	n := len(visits)
	for i, v := range visits {
		r.slot[v] = i
		if i%2 == 0 {
			r.net[v.Node] = i / 2
		}
	}
	r.far = make([]int64, n*n)
	for i := range r.far {
		r.far[i] = -1
	}
	r.lengths = make([]int64, n/2)
	r.turns = make([]int64, n)
	r.chains = make([]int32, n/2)
	for i := range r.turns {
		r.turns[i] = -1
	}
	for i := range r.chains {
		r.chains[i] = -1
	}
	return r
}

func (r *regionIndex) size() int { return len(r.visits) }

func (r *regionIndex) farAt(u, v int) Distance { return fromRaw(r.far[u*len(r.visits)+v]) }

func (r *regionIndex) slotLen(u int) int64 { return r.lengths[u/2] }

// through is the cost of crossing slot u from its start to its end. A child
// chain that cannot be crossed is Unreachable.
func (r *regionIndex) through(u int) Distance { return fromRaw(r.lengths[u/2]) }

func (r *regionIndex) startExit() int { return r.slot[r.start.Reverse()] }
func (r *regionIndex) startSlot() int { return r.slot[r.start] }
func (r *regionIndex) endSlot() int   { return r.slot[r.end] }
func (r *regionIndex) endEntry() int  { return r.slot[r.end.Reverse()] }

// fromStart is the distance from the start of slot u to the start of slot v.
func (r *regionIndex) fromStart(u, v int) Distance {
	if u == v {
		return Dist(0)
	}
	d := r.through(u).Add(r.farAt(u, v))
	if t := r.turns[u]; t >= 0 {
		d = d.Min(Dist(t).Add(r.farAt(u^1, v)))
	}
	return d
}

// Distance returns the distance from the start of a to the start of b.
func (r *regionIndex) Distance(a, b snarl.Visit) Distance {
	u, ok1 := r.slot[a]
	v, ok2 := r.slot[b]
	if !ok1 || !ok2 {
		return Unreachable
	}
	return r.fromStart(u, v)
}

// DistanceFromFar returns the distance from the end of a to the start of b.
func (r *regionIndex) DistanceFromFar(a, b snarl.Visit) Distance {
	u, ok1 := r.slot[a]
	v, ok2 := r.slot[b]
	if !ok1 || !ok2 {
		return Unreachable
	}
	return r.farAt(u, v)
}

// InsertDistance records d for the pair, keeping the minimum.
func (r *regionIndex) InsertDistance(a, b snarl.Visit, d int64) {
	u, ok1 := r.slot[a]
	v, ok2 := r.slot[b]
	if !ok1 || !ok2 || d < 0 {
		return
	}
	r.insert(u, v, d)
}

func (r *regionIndex) insert(u, v int, d int64) {
	i := u*len(r.visits) + v
	if r.far[i] < 0 || d < r.far[i] {
		r.far[i] = d
	}
}

// NodeLength returns the length of a plain net node or of a child chain
// keyed by its head node.
func (r *regionIndex) NodeLength(id vgraph.NodeID) (int64, bool) {
	k, ok := r.net[id]
	if !ok {
		return 0, false
	}
	return r.lengths[k], true
}

// Length is the distance from the start of the start visit to the end of
// the end visit.
func (r *regionIndex) Length() Distance {
	return Dist(r.slotLen(slotStartFwd)).
		Add(r.farAt(r.startSlot(), r.endSlot())).
		AddInt(r.slotLen(slotEndFwd))
}

// exitCost is the distance from the end of u to the end of the boundary
// slot t.
func (r *regionIndex) exitCost(u, t int) Distance {
	if u == t {
		return Dist(0)
	}
	return r.farAt(u, t).AddInt(r.slotLen(t))
}

// DistanceToEnds converts the distances from a point to the ends of the
// forward and reverse traversals of node into distances to leave the region
// through the outer side of its start and of its end.
func (r *regionIndex) DistanceToEnds(node vgraph.NodeID, distFwd, distRev Distance) (toStart, toEnd Distance) {
	k, ok := r.net[node]
	if !ok {
		return Unreachable, Unreachable
	}
	return r.toEnds(k, distFwd, distRev)
}

func (r *regionIndex) toEnds(k int, distFwd, distRev Distance) (toStart, toEnd Distance) {
	se, ee := r.startExit(), r.endSlot()
	for i, d := range [2]Distance{distFwd, distRev} {
		if !d.Reachable() {
			continue
		}
		u := 2*k + i
		toStart = toStart.Min(d.Add(r.exitCost(u, se)))
		toEnd = toEnd.Min(d.Add(r.exitCost(u, ee)))
	}
	return toStart, toEnd
}

// inner returns the cost of crossing the region from a re-entry side to an
// exit side, counting both boundary nodes.
func (r *regionIndex) inner() [2][2]Distance {
	ls, le := r.slotLen(slotStartFwd), r.slotLen(slotEndFwd)
	entries := [2]int{r.startSlot(), r.endEntry()}
	entryLen := [2]int64{ls, le}
	exits := [2]int{r.startExit(), r.endSlot()}
	exitLen := [2]int64{ls, le}
	var m [2][2]Distance
	for y := range 2 {
		for x := range 2 {
			m[y][x] = Dist(entryLen[y]).Add(r.farAt(entries[y], exits[x])).AddInt(exitLen[x])
		}
	}
	return m
}

// fill runs one Dijkstra per slot over the net graph. succ[u] lists the
// slots whose start is joined to the end of u.
func (r *regionIndex) fill(succ [][]int) {
	n := len(r.visits)
	dist := make([]int64, n)
	var pq queue
	for u := range n {
		for i := range dist {
			dist[i] = -1
		}
		pq = pq[:0]
		for _, w := range succ[u] {
			heap.Push(&pq, item{slot: w})
		}
		for pq.Len() > 0 {
			it := heap.Pop(&pq).(item)
			if dist[it.slot] >= 0 {
				continue
			}
			w, d := it.slot, it.d
			dist[w] = d
			r.insert(u, w, d)
			if l := r.slotLen(w); l >= 0 {
				for _, x := range succ[w] {
					if dist[x] < 0 {
						heap.Push(&pq, item{slot: x, d: d + l})
					}
				}
			}
			if t := r.turns[w]; t >= 0 {
				for _, x := range succ[w^1] {
					if dist[x] < 0 {
						heap.Push(&pq, item{slot: x, d: d + t})
					}
				}
			}
		}
	}
}

// toVector encodes the region record payload.
func (r *regionIndex) toVector() []int64 {
	n := len(r.visits)
	out := make([]int64, 0, 4+n+n*n)
	out = append(out, int64(n), r.start.Signed(), r.end.Signed(), r.Length().raw())
	for _, v := range r.visits {
		out = append(out, v.Signed())
	}
	return append(out, r.far...)
}

type item struct {
	slot int
	d    int64
}

type queue []item

func (q queue) Len() int           { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].d < q[j].d }
func (q queue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)        { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
