package distance

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vgdist/pkg/observability"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

const (
	streamMagic   = 0x76676469 // "vgdi"
	streamVersion = 1

	tagRegion = 1
	tagChain  = 2

	// maxPrealloc bounds allocations driven by counts read from the stream.
	maxPrealloc = 1 << 16
)

// Serialize writes the index as a stream of zigzag varints:
//
//	header   magic version id-hi id-lo minID maxID regions chains hasMax
//	lengths  count, one length per id in [minID, maxID] (-1 for gaps)
//	records  post-order, each [tag len payload...]
//	nodes    count, signed canonical region start per id (0 for gaps)
//	max      [cap numCycles numComponents] components min max (if hasMax)
//	trailer  magic
func (x *Index) Serialize(w io.Writer) error {
	e := &encoder{w: bufio.NewWriter(w)}
	hi := int64(binary.BigEndian.Uint64(x.id[:8]))
	lo := int64(binary.BigEndian.Uint64(x.id[8:]))
	hasMax := int64(0)
	if x.max != nil {
		hasMax = 1
	}
	e.put(streamMagic, streamVersion, hi, lo, int64(x.minID), int64(x.maxID),
		int64(len(x.regions)), int64(len(x.chains)), hasMax)

	e.put(int64(len(x.lengths)))
	e.put(x.lengths...)

	for _, rec := range x.records {
		var payload []int64
		tag := int64(tagRegion)
		if rec.chain {
			tag = tagChain
			payload = x.chains[rec.slot].toVector()
		} else {
			payload = x.regions[rec.slot].toVector()
		}
		e.put(tag, int64(len(payload)))
		e.put(payload...)
	}

	e.put(int64(len(x.nodeRegion)))
	e.put(x.nodeRegion...)
	if x.max != nil {
		e.put(x.max.toVector()...)
	}
	e.put(streamMagic)
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	buf [binary.MaxVarintLen64]byte
	err error
}

func (e *encoder) put(ns ...int64) {
	for _, n := range ns {
		if e.err != nil {
			return
		}
		k := binary.PutVarint(e.buf[:], n)
		_, e.err = e.w.Write(e.buf[:k])
	}
}

type decoder struct {
	r   io.ByteReader
	err error
}

func (d *decoder) next() int64 {
	if d.err != nil {
		return 0
	}
	n, err := binary.ReadVarint(d.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		d.err = err
	}
	return n
}

func (d *decoder) slice(n int64) []int64 {
	out := make([]int64, 0, min(n, maxPrealloc))
	for i := int64(0); i < n && d.err == nil; i++ {
		out = append(out, d.next())
	}
	return out
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// Load reads an index written by Serialize. When g is not nil the stream's
// node id bounds must match it. The returned index is complete; on error no
// index is returned.
func Load(ctx context.Context, r io.Reader, g vgraph.Graph) (idx *Index, err error) {
	start := time.Now()
	defer func() {
		var regions, chains int
		if idx != nil {
			regions, chains = len(idx.regions), len(idx.chains)
		}
		observability.Index().OnLoadComplete(ctx, regions, chains, time.Since(start), err)
	}()

	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &decoder{r: br}
	idx, err = load(d, g)
	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, d.err)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func load(d *decoder, g vgraph.Graph) (*Index, error) {
	h := d.slice(9)
	if d.err != nil {
		return nil, nil
	}
	if h[0] != streamMagic {
		return nil, corrupt("bad magic %#x", h[0])
	}
	if h[1] != streamVersion {
		return nil, corrupt("unsupported version %d", h[1])
	}
	var raw [16]byte
	binary.BigEndian.PutUint64(raw[:8], uint64(h[2]))
	binary.BigEndian.PutUint64(raw[8:], uint64(h[3]))
	id, _ := uuid.FromBytes(raw[:])

	x := &Index{
		id:      id,
		minID:   vgraph.NodeID(h[4]),
		maxID:   vgraph.NodeID(h[5]),
		byStart: make(map[snarl.Visit]int32),
		byHead:  make(map[vgraph.NodeID]int32),
	}
	if g != nil && (g.MinID() != x.minID || g.MaxID() != x.maxID) {
		return nil, fmt.Errorf("%w: stream [%d, %d], graph [%d, %d]",
			ErrIDBoundsMismatch, x.minID, x.maxID, g.MinID(), g.MaxID())
	}
	nRegions, nChains, hasMax := h[6], h[7], h[8]
	if nRegions < 0 || nChains < 0 || hasMax < 0 || hasMax > 1 {
		return nil, corrupt("bad header counts")
	}

	n := d.next()
	want := int64(0)
	if x.maxID >= x.minID && x.minID > 0 {
		want = int64(x.maxID-x.minID) + 1
	}
	if n != want {
		return nil, corrupt("%d node lengths for id range [%d, %d]", n, x.minID, x.maxID)
	}
	x.lengths = d.slice(n)

	for i := int64(0); i < nRegions+nChains && d.err == nil; i++ {
		tag, size := d.next(), d.next()
		if size < 0 {
			return nil, corrupt("negative record size")
		}
		payload := d.slice(size)
		if d.err != nil {
			return nil, nil
		}
		var err error
		switch tag {
		case tagRegion:
			err = x.loadRegion(payload)
		case tagChain:
			err = x.loadChain(payload)
		default:
			err = corrupt("unknown record tag %d", tag)
		}
		if err != nil {
			return nil, err
		}
	}
	if d.err != nil {
		return nil, nil
	}
	if int64(len(x.regions)) != nRegions || int64(len(x.chains)) != nChains {
		return nil, corrupt("record counts do not match header")
	}
	for i, r := range x.regions {
		if r.chain < 0 {
			return nil, corrupt("region %d belongs to no chain", i)
		}
	}

	if n := d.next(); n != int64(len(x.lengths)) {
		return nil, corrupt("node region array of %d entries", n)
	}
	x.nodeRegion = d.slice(int64(len(x.lengths)))
	for i, v := range x.nodeRegion {
		if v == 0 {
			continue
		}
		id := x.minID + vgraph.NodeID(i)
		slot, ok := x.byStart[snarl.FromSigned(v)]
		if !ok || x.lengths[i] < 0 {
			return nil, corrupt("node %d maps to unknown region %d", id, v)
		}
		if k, ok := x.regions[slot].net[id]; !ok || x.regions[slot].chains[k] >= 0 {
			return nil, corrupt("node %d is not in region %d", id, v)
		}
	}

	if hasMax == 1 {
		if err := x.loadMax(d); err != nil {
			return nil, err
		}
	}
	if m := d.next(); d.err == nil && m != streamMagic {
		return nil, corrupt("bad trailer")
	}
	if d.err != nil {
		return nil, nil
	}
	x.computeOuter()
	return x, nil
}

func (x *Index) loadRegion(p []int64) error {
	if len(p) < 4 {
		return corrupt("short region record")
	}
	n := p[0]
	if n < 4 || n%2 != 0 || int64(len(p)) != 4+n+n*n {
		return corrupt("region record of %d visits has %d entries", n, len(p))
	}
	start, end := snarl.FromSigned(p[1]), snarl.FromSigned(p[2])
	if start.Node == end.Node {
		return corrupt("region %s..%s is degenerate", start, end)
	}
	visits := make([]snarl.Visit, n)
	for i := range visits {
		visits[i] = snarl.FromSigned(p[4+i])
	}
	boundary := [4]snarl.Visit{snarl.Fwd(start.Node), snarl.Rev(start.Node), snarl.Fwd(end.Node), snarl.Rev(end.Node)}
	if [4]snarl.Visit(visits[:4]) != boundary {
		return corrupt("region %s..%s has malformed boundary visits", start, end)
	}
	if _, dup := x.byStart[start]; dup {
		return corrupt("duplicate region %s", start)
	}

	slot := int32(len(x.regions))
	r := newRegionIndex(start, end, visits)
	if len(r.slot) != len(visits) {
		return corrupt("region %s..%s repeats a visit", start, end)
	}
	for k := range len(visits) / 2 {
		v := visits[2*k]
		if visits[2*k+1] != v.Reverse() {
			return corrupt("region %s..%s visit %d is unpaired", start, end, 2*k)
		}
		if cs, ok := x.byHead[v.Node]; ok && k >= 2 && x.chains[cs].head() == v && x.chains[cs].parent < 0 {
			c := x.chains[cs]
			r.lengths[k] = c.Length().raw()
			r.turns[2*k] = c.LoopLeft().raw()
			r.turns[2*k+1] = c.LoopRight().raw()
			r.chains[k] = cs
			r.children = append(r.children, cs)
			c.parent = slot
			continue
		}
		l, ok := x.nodeLength(v.Node)
		if !ok || v.Backward {
			return corrupt("region %s..%s references unknown node %s", start, end, v)
		}
		r.lengths[k] = l
	}
	for i, f := range p[4+n:] {
		if f < -1 {
			return corrupt("region %s..%s has bad matrix cell %d", start, end, i)
		}
		r.far[i] = f
	}
	if got := r.Length().raw(); got != p[3] {
		return corrupt("region %s..%s length %d, stored %d", start, end, got, p[3])
	}
	x.regions = append(x.regions, r)
	x.byStart[start] = slot
	x.records = append(x.records, record{slot: slot})
	return nil
}

func (x *Index) loadChain(p []int64) error {
	if len(p) < 1 {
		return corrupt("short chain record")
	}
	n := p[0]
	if n < 2 || int64(len(p)) != 1+5*n {
		return corrupt("chain record of %d nodes has %d entries", n, len(p))
	}
	c := &chainIndex{
		visits:  make([]snarl.Visit, n),
		prefix:  make([]int64, 2*n),
		seg:     make([]int, n),
		loopFwd: make([]Distance, n),
		loopRev: make([]Distance, n),
		regions: make([]int32, n-1),
		parent:  -1,
	}
	for i := range n {
		t := p[1+5*i : 6+5*i]
		c.visits[i] = snarl.FromSigned(t[0])
		c.prefix[2*i], c.prefix[2*i+1] = t[1], t[2]
		c.loopFwd[i], c.loopRev[i] = fromRaw(t[3]), fromRaw(t[4])
		if l, ok := x.nodeLength(c.visits[i].Node); !ok || t[2]-t[1] != l {
			return corrupt("chain node %s has bad prefix", c.visits[i])
		}
	}
	if _, dup := x.byHead[c.head().Node]; dup {
		return corrupt("duplicate chain %s", c.head())
	}
	slot := int32(len(x.chains))
	for i := range n - 1 {
		rs, ok := x.byStart[c.visits[i]]
		if !ok {
			return corrupt("chain %s references unknown region %s", c.head(), c.visits[i])
		}
		r := x.regions[rs]
		if r.end != c.visits[i+1] || r.chain >= 0 {
			return corrupt("chain %s has a mismatched region at %s", c.head(), c.visits[i])
		}
		r.chain, r.rank = slot, int(i)
		c.regions[i] = rs
		c.seg[i+1] = c.seg[i]
		if !r.farAt(r.startSlot(), r.endSlot()).Reachable() {
			c.seg[i+1]++
		}
	}
	c.indexRanks()
	x.chains = append(x.chains, c)
	x.byHead[c.head().Node] = slot
	x.records = append(x.records, record{chain: true, slot: slot})
	return nil
}

func (x *Index) loadMax(d *decoder) error {
	h := d.slice(3)
	if d.err != nil {
		return nil
	}
	limit, cycles, comps := h[0], h[1], h[2]
	if limit <= 0 || cycles < 0 || comps < 0 || cycles > comps {
		return corrupt("bad estimator header")
	}
	m := &maxIndex{cap: limit, minID: x.minID, numCycles: int(cycles)}
	m.component = make([]int32, 0, min(2*int64(len(x.lengths)), maxPrealloc))
	for i := range 2 * len(x.lengths) {
		c := d.next()
		if d.err != nil {
			return nil
		}
		if c < -1 || c >= comps || (c < 0) != (x.lengths[i/2] < 0) {
			return corrupt("bad component %d for handle %d", c, i)
		}
		m.component = append(m.component, int32(c))
	}
	m.minDist = d.slice(comps)
	m.maxDist = d.slice(comps)
	if d.err != nil {
		return nil
	}
	x.max = m
	return nil
}
