package distance

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/vgdist/pkg/observability"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// Option configures Build.
type Option func(*options)

type options struct {
	cap    int64
	logger *log.Logger
}

// WithCap enables the max-distance estimator with the given cap. A cap of
// zero or less disables it.
func WithCap(n int64) Option { return func(o *options) { o.cap = n } }

// WithLogger sets the logger used for build progress.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// Build indexes g over the decomposition tree. The graph and tree are only
// read during the call; the returned index keeps no reference to either.
func Build(ctx context.Context, g vgraph.Graph, tree *snarl.Tree, opts ...Option) (idx *Index, err error) {
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()
	hooks := observability.Index()
	hooks.OnBuildStart(ctx, g.NodeCount(), tree.RegionCount())
	defer func() {
		var regions, chains int
		if idx != nil {
			regions, chains = len(idx.regions), len(idx.chains)
		}
		hooks.OnBuildComplete(ctx, regions, chains, time.Since(start), err)
	}()

	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInconsistent, err)
	}
	b := newBuilder(g, tree, o.logger)
	if err := b.checkBoundaries(); err != nil {
		return nil, err
	}

	order := postOrder(tree)
	o.logger.Info("indexing decomposition", "regions", tree.RegionCount(), "chains", tree.ChainCount())
	for i, rec := range order {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rec.chain {
			b.buildChain(snarl.ChainID(rec.slot))
			continue
		}
		if err := b.buildRegion(snarl.RegionID(rec.slot)); err != nil {
			return nil, err
		}
	}
	if err := b.assignNodes(); err != nil {
		return nil, err
	}
	if err := b.checkTopLevel(); err != nil {
		return nil, err
	}
	b.idx.computeOuter()

	if o.cap > 0 {
		o.logger.Info("building max-distance estimator", "cap", o.cap)
		b.idx.max = newMaxIndex(g, b.idx.minID, b.idx.lengths, o.cap)
		o.logger.Debug("estimator ready", "components", len(b.idx.max.minDist), "cycles", b.idx.max.numCycles)
	}
	o.logger.Info("index built", "regions", len(b.idx.regions), "chains", len(b.idx.chains),
		"cells", b.idx.Stats().MatrixCells, "took", time.Since(start).Round(time.Millisecond))
	return b.idx, nil
}

// record is one entry of the post-order. slot is a tree id during Build and
// an index slot afterwards.
type record struct {
	chain bool
	slot  int32
}

// postOrder lists every region after its child chains and every chain
// after its regions, using an explicit stack.
func postOrder(t *snarl.Tree) []record {
	type frame struct {
		record
		open bool
	}
	var (
		out   []record
		stack []frame
	)
	top := t.TopLevel()
	for i := len(top) - 1; i >= 0; i-- {
		stack = append(stack, frame{record: record{chain: true, slot: int32(top[i])}})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.open {
			out = append(out, f.record)
			continue
		}
		stack = append(stack, frame{record: f.record, open: true})
		if f.chain {
			rs := t.ChainRegions(snarl.ChainID(f.slot))
			for i := len(rs) - 1; i >= 0; i-- {
				stack = append(stack, frame{record: record{slot: int32(rs[i])}})
			}
			continue
		}
		kids := t.Children(snarl.RegionID(f.slot))
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{record: record{chain: true, slot: int32(kids[i])}})
		}
	}
	return out
}

type builder struct {
	g    vgraph.Graph
	tree *snarl.Tree
	log  *log.Logger
	idx  *Index

	regionSlot []int32
	chainSlot  []int32
	boundary   map[vgraph.NodeID]snarl.ChainID
	interior   map[vgraph.NodeID]int32
}

func newBuilder(g vgraph.Graph, tree *snarl.Tree, logger *log.Logger) *builder {
	minID, maxID := g.MinID(), g.MaxID()
	idx := &Index{
		id:      uuid.New(),
		minID:   minID,
		maxID:   maxID,
		byStart: make(map[snarl.Visit]int32, tree.RegionCount()),
		byHead:  make(map[vgraph.NodeID]int32, tree.ChainCount()),
	}
	if g.NodeCount() > 0 {
		idx.lengths = make([]int64, maxID-minID+1)
		for i := range idx.lengths {
			idx.lengths[i] = -1
		}
		g.ForEachNode(func(id vgraph.NodeID) bool {
			l, _ := g.Length(id)
			idx.lengths[id-minID] = l
			return true
		})
	}
	idx.nodeRegion = make([]int64, len(idx.lengths))

	b := &builder{
		g:          g,
		tree:       tree,
		log:        logger,
		idx:        idx,
		regionSlot: make([]int32, tree.RegionCount()),
		chainSlot:  make([]int32, tree.ChainCount()),
		boundary:   make(map[vgraph.NodeID]snarl.ChainID),
		interior:   make(map[vgraph.NodeID]int32),
	}
	return b
}

func (b *builder) length(id vgraph.NodeID) int64 { return b.idx.lengths[id-b.idx.minID] }

// checkBoundaries rejects boundary visits on missing nodes and nodes that
// bound two different chains.
func (b *builder) checkBoundaries() error {
	for c := range b.tree.ChainCount() {
		cid := snarl.ChainID(c)
		for _, rid := range b.tree.ChainRegions(cid) {
			r := b.tree.Region(rid)
			for _, v := range [2]snarl.Visit{r.Start, r.End} {
				if !b.g.Has(v.Node) {
					return fmt.Errorf("%w: region %d references missing node %d", ErrInconsistent, rid, v.Node)
				}
				if prev, ok := b.boundary[v.Node]; ok && prev != cid {
					return fmt.Errorf("%w: node %d bounds chains %d and %d", ErrInconsistent, v.Node, prev, cid)
				}
				b.boundary[v.Node] = cid
			}
		}
	}
	return nil
}

// childRef describes a child chain as seen from its parent region.
type childRef struct {
	slot       int32
	head, tail snarl.Visit
}

// netGraph discovers the net graph of one region by traversal from its
// boundaries. Keys are visits; a child chain is keyed by its head visit for
// the forward traversal and by the reversed head visit for the backward one.
type netGraph struct {
	b      *builder
	rid    snarl.RegionID
	start  snarl.Visit
	end    snarl.Visit
	heads  map[vgraph.NodeID]childRef
	tails  map[vgraph.NodeID]childRef
	plain  []vgraph.NodeID
	queue  []snarl.Visit
	succ   map[snarl.Visit][]snarl.Visit
	seen   map[vgraph.NodeID]bool
	chains []childRef
}

func (n *netGraph) fail(format string, args ...any) error {
	return fmt.Errorf("%w: region %s..%s: %s", ErrInconsistent, n.start, n.end, fmt.Sprintf(format, args...))
}

// classify maps a handle reached from inside the region to the net visit it
// enters.
func (n *netGraph) classify(h vgraph.Handle) (snarl.Visit, error) {
	v := snarl.FromHandle(h)
	switch {
	case h.ID == n.start.Node:
		if v == n.start {
			return v, n.fail("edge enters the outer side of start node %d", h.ID)
		}
		return v, nil
	case h.ID == n.end.Node:
		if v != n.end {
			return v, n.fail("edge enters the outer side of end node %d", h.ID)
		}
		return v, nil
	}
	if c, ok := n.heads[h.ID]; ok {
		if v != c.head {
			return v, n.fail("edge enters child chain %s from inside", c.head)
		}
		return c.head, nil
	}
	if c, ok := n.tails[h.ID]; ok {
		if v != c.tail.Reverse() {
			return v, n.fail("edge enters child chain %s from inside", c.head)
		}
		return c.head.Reverse(), nil
	}
	if _, ok := n.b.boundary[h.ID]; ok {
		return v, n.fail("edge into the middle of a nested chain at node %d", h.ID)
	}
	if owner, ok := n.b.interior[h.ID]; ok {
		return v, n.fail("node %d already belongs to region %s", h.ID, n.b.idx.regions[owner].start)
	}
	if !n.seen[h.ID] {
		n.seen[h.ID] = true
		n.plain = append(n.plain, h.ID)
		n.queue = append(n.queue, snarl.Fwd(h.ID), snarl.Rev(h.ID))
	}
	return v, nil
}

// exitHandle is the handle whose end a net visit leaves through, or false
// when leaving the visit leaves the region.
func (n *netGraph) exitHandle(v snarl.Visit) (vgraph.Handle, bool) {
	if v == n.start.Reverse() || v == n.end {
		return vgraph.Handle{}, false
	}
	if c, ok := n.heads[v.Node]; ok {
		if v == c.head {
			return c.tail.Handle(), true
		}
		return c.head.Reverse().Handle(), true
	}
	return v.Handle(), true
}

func (n *netGraph) explore() error {
	n.queue = append(n.queue, n.start, n.end.Reverse())
	for _, c := range n.chains {
		n.queue = append(n.queue, c.head, c.head.Reverse())
	}
	for len(n.queue) > 0 {
		v := n.queue[0]
		n.queue = n.queue[1:]
		h, ok := n.exitHandle(v)
		if !ok {
			continue
		}
		var err error
		n.b.g.Follow(h, func(next vgraph.Handle) bool {
			var to snarl.Visit
			if to, err = n.classify(next); err != nil {
				return false
			}
			n.succ[v] = append(n.succ[v], to)
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// buildRegion extracts the net graph of a region and fills its matrix. All
// child chains are already built.
func (b *builder) buildRegion(rid snarl.RegionID) error {
	reg := b.tree.Region(rid)
	n := &netGraph{
		b:     b,
		rid:   rid,
		start: reg.Start,
		end:   reg.End,
		heads: make(map[vgraph.NodeID]childRef),
		tails: make(map[vgraph.NodeID]childRef),
		succ:  make(map[snarl.Visit][]snarl.Visit),
		seen:  make(map[vgraph.NodeID]bool),
	}
	for _, cid := range b.tree.Children(rid) {
		slot := b.chainSlot[cid]
		c := b.idx.chains[slot]
		ref := childRef{slot: slot, head: c.head(), tail: c.tail()}
		n.heads[ref.head.Node] = ref
		n.tails[ref.tail.Node] = ref
		n.chains = append(n.chains, ref)
	}
	if err := n.explore(); err != nil {
		return err
	}

	type netNode struct {
		id    vgraph.NodeID
		fwd   snarl.Visit
		chain int32
	}
	nodes := make([]netNode, 0, len(n.plain)+len(n.chains))
	for _, id := range n.plain {
		nodes = append(nodes, netNode{id: id, fwd: snarl.Fwd(id), chain: -1})
	}
	for _, c := range n.chains {
		nodes = append(nodes, netNode{id: c.head.Node, fwd: c.head, chain: c.slot})
	}
	slices.SortFunc(nodes, func(a, b netNode) int { return int(a.id - b.id) })

	visits := make([]snarl.Visit, 0, 4+2*len(nodes))
	visits = append(visits, snarl.Fwd(reg.Start.Node), snarl.Rev(reg.Start.Node), snarl.Fwd(reg.End.Node), snarl.Rev(reg.End.Node))
	for _, nn := range nodes {
		visits = append(visits, nn.fwd, nn.fwd.Reverse())
	}

	slot := int32(len(b.idx.regions))
	r := newRegionIndex(reg.Start, reg.End, visits)
	r.lengths[0] = b.length(reg.Start.Node)
	r.lengths[1] = b.length(reg.End.Node)
	for k, nn := range nodes {
		if nn.chain < 0 {
			r.lengths[k+2] = b.length(nn.id)
			continue
		}
		b.attachChain(r, k+2, nn.chain, slot)
	}

	succ := make([][]int, len(visits))
	for from, tos := range n.succ {
		u := r.slot[from]
		for _, to := range tos {
			succ[u] = append(succ[u], r.slot[to])
		}
	}
	r.fill(succ)

	for _, id := range n.plain {
		b.interior[id] = slot
		b.idx.nodeRegion[id-b.idx.minID] = reg.Start.Signed()
	}
	b.regionSlot[rid] = slot
	b.idx.regions = append(b.idx.regions, r)
	b.idx.byStart[reg.Start] = slot
	b.idx.records = append(b.idx.records, record{slot: slot})
	b.log.Debug("region indexed", "start", reg.Start, "end", reg.End, "visits", len(visits))
	return nil
}

// attachChain records child chain cs as net node k of region r.
func (b *builder) attachChain(r *regionIndex, k int, cs, rslot int32) {
	c := b.idx.chains[cs]
	r.lengths[k] = c.Length().raw()
	r.turns[2*k] = c.LoopLeft().raw()
	r.turns[2*k+1] = c.LoopRight().raw()
	r.chains[k] = cs
	r.children = append(r.children, cs)
	c.parent = rslot
}

func (b *builder) buildChain(cid snarl.ChainID) {
	rids := b.tree.ChainRegions(cid)
	regs := make([]*regionIndex, len(rids))
	slots := make([]int32, len(rids))
	for i, rid := range rids {
		slots[i] = b.regionSlot[rid]
		regs[i] = b.idx.regions[slots[i]]
	}
	slot := int32(len(b.idx.chains))
	c := newChainIndex(regs)
	c.regions = slots
	for i, r := range regs {
		r.chain = slot
		r.rank = i
	}
	b.chainSlot[cid] = slot
	b.idx.chains = append(b.idx.chains, c)
	b.idx.byHead[c.head().Node] = slot
	b.idx.records = append(b.idx.records, record{chain: true, slot: slot})
}

// assignNodes records the canonical region of every chain boundary node and
// rejects graph nodes no region covers.
func (b *builder) assignNodes() error {
	idx := b.idx
	for _, c := range idx.chains {
		for i, v := range c.visits {
			r := c.regions[max(i-1, 0)]
			idx.nodeRegion[v.Node-idx.minID] = idx.regions[r].start.Signed()
		}
	}
	for i, l := range idx.lengths {
		if l >= 0 && idx.nodeRegion[i] == 0 {
			return fmt.Errorf("%w: node %d is not covered by any region", ErrInconsistent, idx.minID+vgraph.NodeID(i))
		}
	}
	return nil
}

// checkTopLevel rejects top-level chains with edges beyond their ends and
// components holding more than one top-level chain.
func (b *builder) checkTopLevel() error {
	comp := vgraph.ComponentOf(b.g)
	owner := make(map[int]snarl.Visit)
	for _, c := range b.idx.chains {
		if c.parent >= 0 {
			continue
		}
		for _, h := range [2]vgraph.Handle{c.head().Reverse().Handle(), c.tail().Handle()} {
			if !b.g.Follow(h, func(vgraph.Handle) bool { return false }) {
				return fmt.Errorf("%w: top-level chain %s has edges beyond its end %s", ErrInconsistent, c.head(), h)
			}
		}
		id := comp[c.head().Node]
		if prev, ok := owner[id]; ok {
			return fmt.Errorf("%w: top-level chains %s and %s share a component", ErrInconsistent, prev, c.head())
		}
		owner[id] = c.head()
	}
	return nil
}
