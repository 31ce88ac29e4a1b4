package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

var (
	// ErrMalformed is returned when the document is not valid JSON of the
	// expected shape.
	ErrMalformed = errors.New("malformed document")

	// ErrNoLength is returned for a node with neither length nor sequence.
	ErrNoLength = errors.New("node has no length or sequence")

	// ErrLengthMismatch is returned when a node's length and sequence
	// disagree.
	ErrLengthMismatch = errors.New("node length does not match its sequence")
)

func fromVisit(v visit) snarl.Visit {
	return snarl.Visit{Node: vgraph.NodeID(v.Node), Backward: v.Backward}
}

// ReadJSON decodes a JSON document from r into a graph and its
// decomposition tree.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - A node has a bad or duplicate id, or no usable length
//   - An edge or region references an unknown node
//   - A chain references an unknown region or parent
//   - The tree fails [snarl.Tree.Validate]
//
// Errors are wrapped with context describing which element caused the
// problem. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*vgraph.Memory, *snarl.Tree, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	g := vgraph.New()
	for i, n := range data.Nodes {
		l, err := n.length()
		if err != nil {
			return nil, nil, fmt.Errorf("node %d (#%d): %w", n.ID, i, err)
		}
		if err := g.AddNode(vgraph.NodeID(n.ID), l); err != nil {
			return nil, nil, fmt.Errorf("node #%d: %w", i, err)
		}
	}
	for _, e := range data.Edges {
		from := vgraph.Handle{ID: vgraph.NodeID(e.From), Reverse: e.FromStart}
		to := vgraph.Handle{ID: vgraph.NodeID(e.To), Reverse: e.ToEnd}
		if err := g.AddEdge(from, to); err != nil {
			return nil, nil, fmt.Errorf("edge %s->%s: %w", from, to, err)
		}
	}

	t := snarl.New()
	for i, rg := range data.Regions {
		start, end := fromVisit(rg.Start), fromVisit(rg.End)
		for _, v := range [2]snarl.Visit{start, end} {
			if !g.Has(v.Node) {
				return nil, nil, fmt.Errorf("region %d: %w: %d", i, vgraph.ErrUnknownNode, v.Node)
			}
		}
		t.AddRegion(start, end)
	}
	for i, c := range data.Chains {
		rs := make([]snarl.RegionID, len(c.Regions))
		for j, r := range c.Regions {
			rs[j] = snarl.RegionID(r)
		}
		if _, err := t.AddChain(snarl.RegionID(c.Parent), rs...); err != nil {
			return nil, nil, fmt.Errorf("chain %d: %w", i, err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	return g, t, nil
}

func (n node) length() (int64, error) {
	switch {
	case n.Length == nil && n.Sequence == "":
		return 0, ErrNoLength
	case n.Length == nil:
		return int64(len(n.Sequence)), nil
	case n.Sequence != "" && *n.Length != int64(len(n.Sequence)):
		return 0, fmt.Errorf("%w: length %d, sequence of %d", ErrLengthMismatch, *n.Length, len(n.Sequence))
	}
	return *n.Length, nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph and
// tree. It returns the same validation errors as [ReadJSON], wrapped with
// the path when the file cannot be opened.
func ImportJSON(path string) (*vgraph.Memory, *snarl.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
