package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

type document struct {
	Nodes   []node   `json:"nodes"`
	Edges   []edge   `json:"edges"`
	Regions []region `json:"regions"`
	Chains  []chain  `json:"chains"`
}

type node struct {
	ID       int64  `json:"id"`
	Length   *int64 `json:"length,omitempty"`
	Sequence string `json:"sequence,omitempty"`
}

type edge struct {
	From      int64 `json:"from"`
	To        int64 `json:"to"`
	FromStart bool  `json:"from_start,omitempty"`
	ToEnd     bool  `json:"to_end,omitempty"`
}

type visit struct {
	Node     int64 `json:"node"`
	Backward bool  `json:"backward,omitempty"`
}

type region struct {
	Start visit `json:"start"`
	End   visit `json:"end"`
}

type chain struct {
	Parent  int32   `json:"parent"`
	Regions []int32 `json:"regions"`
}

func toVisit(v snarl.Visit) visit {
	return visit{Node: int64(v.Node), Backward: v.Backward}
}

// WriteJSON encodes a graph and its decomposition as JSON and writes it to
// w. The output can be re-imported with [ReadJSON].
func WriteJSON(g *vgraph.Memory, t *snarl.Tree, w io.Writer) error {
	nodes := g.Nodes()
	edges := g.Edges()
	out := document{
		Nodes:   make([]node, len(nodes)),
		Edges:   make([]edge, len(edges)),
		Regions: make([]region, t.RegionCount()),
		Chains:  make([]chain, t.ChainCount()),
	}

	for i, id := range nodes {
		l, _ := g.Length(id)
		out.Nodes[i] = node{ID: int64(id), Length: &l}
	}
	for i, e := range edges {
		out.Edges[i] = edge{
			From:      int64(e.From.ID),
			To:        int64(e.To.ID),
			FromStart: e.From.Reverse,
			ToEnd:     e.To.Reverse,
		}
	}
	for i := range out.Regions {
		r := t.Region(snarl.RegionID(i))
		out.Regions[i] = region{Start: toVisit(r.Start), End: toVisit(r.End)}
	}
	for i := range out.Chains {
		c := snarl.ChainID(i)
		rs := t.ChainRegions(c)
		ch := chain{Parent: int32(t.ChainParent(c)), Regions: make([]int32, len(rs))}
		for j, r := range rs {
			ch.Regions[j] = int32(r)
		}
		out.Chains[i] = ch
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a graph and its decomposition to a JSON file at path.
func ExportJSON(g *vgraph.Memory, t *snarl.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, t, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
