package snarl

import (
	"errors"
	"fmt"

	"github.com/matzehuels/vgdist/pkg/vgraph"
)

var (
	// ErrUnknownRegion is returned for a RegionID outside the arena.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrUnknownChain is returned for a ChainID outside the arena.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrEmptyChain is returned when a chain has no regions.
	ErrEmptyChain = errors.New("chain has no regions")

	// ErrRegionInChain is returned when a region joins a second chain.
	ErrRegionInChain = errors.New("region already belongs to a chain")

	// ErrOrphanRegion is returned by Validate for a region in no chain.
	ErrOrphanRegion = errors.New("region belongs to no chain")

	// ErrBrokenChain is returned when neighbouring regions do not share a
	// boundary visit.
	ErrBrokenChain = errors.New("chain regions do not share a boundary")

	// ErrCycle is returned when the parent relation is not a tree.
	ErrCycle = errors.New("decomposition contains a cycle")

	// ErrDuplicateStart is returned when two regions share a start visit.
	ErrDuplicateStart = errors.New("duplicate region start visit")

	// ErrDegenerate is returned for a region or chain whose two ends are
	// the same node.
	ErrDegenerate = errors.New("boundary nodes must differ")
)

// Visit is a directed reference to a node.
type Visit struct {
	Node     vgraph.NodeID
	Backward bool
}

// Fwd returns the forward visit of id.
func Fwd(id vgraph.NodeID) Visit { return Visit{Node: id} }

// Rev returns the backward visit of id.
func Rev(id vgraph.NodeID) Visit { return Visit{Node: id, Backward: true} }

// Reverse returns the visit in the opposite direction.
func (v Visit) Reverse() Visit { return Visit{Node: v.Node, Backward: !v.Backward} }

// Handle returns the graph handle the visit traverses.
func (v Visit) Handle() vgraph.Handle { return vgraph.Handle{ID: v.Node, Reverse: v.Backward} }

// Signed encodes the visit as a node id, negated when backward.
func (v Visit) Signed() int64 {
	if v.Backward {
		return -int64(v.Node)
	}
	return int64(v.Node)
}

// FromSigned decodes a visit encoded with Signed.
func FromSigned(n int64) Visit {
	if n < 0 {
		return Rev(vgraph.NodeID(-n))
	}
	return Fwd(vgraph.NodeID(n))
}

// FromHandle converts a graph handle to a visit.
func FromHandle(h vgraph.Handle) Visit { return Visit{Node: h.ID, Backward: h.Reverse} }

func (v Visit) String() string { return v.Handle().String() }

// RegionID addresses a region in a Tree.
type RegionID int32

// ChainID addresses a chain in a Tree.
type ChainID int32

const (
	// NoRegion is the parent of a top-level chain.
	NoRegion RegionID = -1
	// NoChain marks a region not yet assigned to a chain.
	NoChain ChainID = -1
)

// Region is a bounded subgraph between two boundary visits.
type Region struct {
	Start Visit
	End   Visit
}

type regionEntry struct {
	Region
	chain    ChainID
	rank     int
	children []ChainID
}

type chainEntry struct {
	regions []RegionID
	parent  RegionID
}

// Tree is an arena-backed decomposition tree.
type Tree struct {
	regions []regionEntry
	chains  []chainEntry
}

// New creates an empty tree.
func New() *Tree { return &Tree{} }

// AddRegion adds a region and returns its id. The region must then be
// placed in a chain with AddChain.
func (t *Tree) AddRegion(start, end Visit) RegionID {
	t.regions = append(t.regions, regionEntry{
		Region: Region{Start: start, End: end},
		chain:  NoChain,
	})
	return RegionID(len(t.regions) - 1)
}

// AddChain groups regions, in order, into a chain nested in parent.
func (t *Tree) AddChain(parent RegionID, regions ...RegionID) (ChainID, error) {
	if len(regions) == 0 {
		return NoChain, ErrEmptyChain
	}
	if parent != NoRegion && !t.validRegion(parent) {
		return NoChain, fmt.Errorf("%w: parent %d", ErrUnknownRegion, parent)
	}
	seen := make(map[RegionID]bool, len(regions))
	for _, r := range regions {
		if !t.validRegion(r) {
			return NoChain, fmt.Errorf("%w: %d", ErrUnknownRegion, r)
		}
		if t.regions[r].chain != NoChain || seen[r] {
			return NoChain, fmt.Errorf("%w: %d", ErrRegionInChain, r)
		}
		seen[r] = true
	}
	id := ChainID(len(t.chains))
	for i, r := range regions {
		t.regions[r].chain = id
		t.regions[r].rank = i
	}
	t.chains = append(t.chains, chainEntry{regions: append([]RegionID(nil), regions...), parent: parent})
	if parent != NoRegion {
		t.regions[parent].children = append(t.regions[parent].children, id)
	}
	return id, nil
}

func (t *Tree) validRegion(r RegionID) bool { return r >= 0 && int(r) < len(t.regions) }
func (t *Tree) validChain(c ChainID) bool   { return c >= 0 && int(c) < len(t.chains) }

// RegionCount returns the number of regions.
func (t *Tree) RegionCount() int { return len(t.regions) }

// ChainCount returns the number of chains.
func (t *Tree) ChainCount() int { return len(t.chains) }

// Region returns the boundaries of r.
func (t *Tree) Region(r RegionID) Region { return t.regions[r].Region }

// RegionChain returns the chain r belongs to and its position in it.
func (t *Tree) RegionChain(r RegionID) (ChainID, int) {
	return t.regions[r].chain, t.regions[r].rank
}

// Children returns the chains nested directly in r.
func (t *Tree) Children(r RegionID) []ChainID { return t.regions[r].children }

// ChainRegions returns the regions of c in chain order.
func (t *Tree) ChainRegions(c ChainID) []RegionID { return t.chains[c].regions }

// ChainParent returns the region c is nested in, or NoRegion.
func (t *Tree) ChainParent(c ChainID) RegionID { return t.chains[c].parent }

// Parent returns the region enclosing r's chain, or NoRegion.
func (t *Tree) Parent(r RegionID) RegionID {
	c := t.regions[r].chain
	if c == NoChain {
		return NoRegion
	}
	return t.chains[c].parent
}

// Head returns the first visit of c.
func (t *Tree) Head(c ChainID) Visit {
	return t.regions[t.chains[c].regions[0]].Start
}

// Tail returns the last visit of c.
func (t *Tree) Tail(c ChainID) Visit {
	rs := t.chains[c].regions
	return t.regions[rs[len(rs)-1]].End
}

// TopLevel returns the chains without a parent region, in id order.
func (t *Tree) TopLevel() []ChainID {
	var out []ChainID
	for i, c := range t.chains {
		if c.parent == NoRegion {
			out = append(out, ChainID(i))
		}
	}
	return out
}

// Depth returns the number of regions enclosing r, counting r itself. The
// tree must have passed Validate.
func (t *Tree) Depth(r RegionID) int {
	d := 0
	for r != NoRegion {
		d++
		r = t.Parent(r)
	}
	return d
}
