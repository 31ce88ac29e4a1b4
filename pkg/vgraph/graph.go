package vgraph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

var (
	// ErrInvalidNodeID is returned when a node id is zero or negative.
	ErrInvalidNodeID = errors.New("node id must be positive")

	// ErrDuplicateNode is returned when adding a node whose id already exists.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an edge references a missing node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidLength is returned when a node length is negative.
	ErrInvalidLength = errors.New("node length must not be negative")
)

// NodeID identifies a node. Valid ids are >= 1.
type NodeID int64

// Handle is a node traversed in one orientation.
type Handle struct {
	ID      NodeID
	Reverse bool
}

// Forward returns the forward handle of id.
func Forward(id NodeID) Handle { return Handle{ID: id} }

// Backward returns the reverse handle of id.
func Backward(id NodeID) Handle { return Handle{ID: id, Reverse: true} }

// Flip returns the same node in the opposite orientation.
func (h Handle) Flip() Handle { return Handle{ID: h.ID, Reverse: !h.Reverse} }

// String formats the handle as "id+" or "id-".
func (h Handle) String() string {
	if h.Reverse {
		return strconv.FormatInt(int64(h.ID), 10) + "-"
	}
	return strconv.FormatInt(int64(h.ID), 10) + "+"
}

// Graph is the read-only graph view consumed by the distance index.
type Graph interface {
	// Has reports whether the node exists.
	Has(id NodeID) bool
	// Length returns the sequence length of a node.
	Length(id NodeID) (int64, bool)
	// Follow calls fn for every handle whose start is joined to the end of h.
	// Iteration stops early when fn returns false; Follow then returns false.
	Follow(h Handle, fn func(Handle) bool) bool
	// ForEachNode calls fn for every node in ascending id order.
	ForEachNode(fn func(NodeID) bool) bool
	// NodeCount returns the number of nodes.
	NodeCount() int
	// MinID and MaxID return the id bounds, or 0 for an empty graph.
	MinID() NodeID
	MaxID() NodeID
}

// Edge joins the end of From to the start of To.
type Edge struct {
	From Handle
	To   Handle
}

// canonical returns the representative of the edge and its reverse twin.
func (e Edge) canonical() Edge {
	twin := Edge{From: e.To.Flip(), To: e.From.Flip()}
	if less(twin.From, e.From) || (twin.From == e.From && less(twin.To, e.To)) {
		return twin
	}
	return e
}

func less(a, b Handle) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return !a.Reverse && b.Reverse
}

// Memory is an in-memory bidirected graph. It is not safe for concurrent
// mutation; once built it may be read from many goroutines.
type Memory struct {
	lengths map[NodeID]int64
	out     map[Handle][]Handle
	edges   map[Edge]struct{}
	minID   NodeID
	maxID   NodeID
}

// New creates an empty graph.
func New() *Memory {
	return &Memory{
		lengths: make(map[NodeID]int64),
		out:     make(map[Handle][]Handle),
		edges:   make(map[Edge]struct{}),
	}
}

// AddNode adds a node with the given sequence length.
func (g *Memory) AddNode(id NodeID, length int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidNodeID, id)
	}
	if length < 0 {
		return fmt.Errorf("%w: node %d has length %d", ErrInvalidLength, id, length)
	}
	if _, ok := g.lengths[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	g.lengths[id] = length
	if g.minID == 0 || id < g.minID {
		g.minID = id
	}
	if id > g.maxID {
		g.maxID = id
	}
	return nil
}

// AddEdge joins the end of from to the start of to. Adding an edge that
// already exists, in either of its two equivalent forms, is a no-op.
func (g *Memory) AddEdge(from, to Handle) error {
	if !g.Has(from.ID) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, from.ID)
	}
	if !g.Has(to.ID) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, to.ID)
	}
	e := Edge{From: from, To: to}.canonical()
	if _, ok := g.edges[e]; ok {
		return nil
	}
	g.edges[e] = struct{}{}
	g.link(from, to)
	if twin := (Edge{From: to.Flip(), To: from.Flip()}); twin != (Edge{From: from, To: to}) {
		g.link(twin.From, twin.To)
	}
	return nil
}

func (g *Memory) link(from, to Handle) {
	g.out[from] = append(g.out[from], to)
}

// Has reports whether the node exists.
func (g *Memory) Has(id NodeID) bool {
	_, ok := g.lengths[id]
	return ok
}

// Length returns the node's sequence length.
func (g *Memory) Length(id NodeID) (int64, bool) {
	n, ok := g.lengths[id]
	return n, ok
}

// Follow calls fn for each successor of the end of h.
func (g *Memory) Follow(h Handle, fn func(Handle) bool) bool {
	for _, next := range g.out[h] {
		if !fn(next) {
			return false
		}
	}
	return true
}

// ForEachNode visits nodes in ascending id order.
func (g *Memory) ForEachNode(fn func(NodeID) bool) bool {
	for _, id := range g.Nodes() {
		if !fn(id) {
			return false
		}
	}
	return true
}

// Nodes returns all node ids in ascending order.
func (g *Memory) Nodes() []NodeID {
	return slices.Sorted(maps.Keys(g.lengths))
}

// Edges returns every edge once, in canonical form, sorted.
func (g *Memory) Edges() []Edge {
	out := slices.Collect(maps.Keys(g.edges))
	slices.SortFunc(out, func(a, b Edge) int {
		switch {
		case a.From != b.From:
			if less(a.From, b.From) {
				return -1
			}
			return 1
		case a.To != b.To:
			if less(a.To, b.To) {
				return -1
			}
			return 1
		}
		return 0
	})
	return out
}

func (g *Memory) NodeCount() int { return len(g.lengths) }
func (g *Memory) EdgeCount() int { return len(g.edges) }
func (g *Memory) MinID() NodeID  { return g.minID }
func (g *Memory) MaxID() NodeID  { return g.maxID }
