package io

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

const nestedDoc = `{
  "nodes": [
    {"id": 1, "length": 5},
    {"id": 2, "sequence": "ACG"},
    {"id": 3, "length": 4, "sequence": "ACGT"},
    {"id": 4, "length": 2}
  ],
  "edges": [
    {"from": 1, "to": 2},
    {"from": 2, "to": 3},
    {"from": 1, "to": 4, "to_end": true},
    {"from": 4, "to": 2, "from_start": true}
  ],
  "regions": [
    {"start": {"node": 1}, "end": {"node": 2}},
    {"start": {"node": 2}, "end": {"node": 3}}
  ],
  "chains": [
    {"parent": -1, "regions": [0, 1]}
  ]
}`

func TestReadJSON(t *testing.T) {
	g, tree, err := ReadJSON(strings.NewReader(nestedDoc))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}
	if l, _ := g.Length(2); l != 3 {
		t.Errorf("Length(2) = %d, want 3", l)
	}
	// 1+ -> 4- and its twin 4+ -> 1- are one edge
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	var next []vgraph.Handle
	g.Follow(vgraph.Forward(1), func(h vgraph.Handle) bool {
		next = append(next, h)
		return true
	})
	want := map[vgraph.Handle]bool{vgraph.Forward(2): true, vgraph.Backward(4): true}
	if len(next) != 2 || !want[next[0]] || !want[next[1]] {
		t.Errorf("Follow(1+) = %v, want 2+ and 4-", next)
	}
	if tree.RegionCount() != 2 || tree.ChainCount() != 1 {
		t.Errorf("tree has %d regions, %d chains, want 2, 1", tree.RegionCount(), tree.ChainCount())
	}
	if got := tree.Head(0); got != snarl.Fwd(1) {
		t.Errorf("Head(0) = %v, want 1+", got)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"no length", `{"nodes":[{"id":1}]}`, ErrNoLength},
		{"length mismatch", `{"nodes":[{"id":1,"length":2,"sequence":"A"}]}`, ErrLengthMismatch},
		{"bad id", `{"nodes":[{"id":0,"length":1}]}`, vgraph.ErrInvalidNodeID},
		{"duplicate", `{"nodes":[{"id":1,"length":1},{"id":1,"length":1}]}`, vgraph.ErrDuplicateNode},
		{"edge to unknown", `{"nodes":[{"id":1,"length":1}],"edges":[{"from":1,"to":2}]}`, vgraph.ErrUnknownNode},
		{"region on unknown", `{"nodes":[{"id":1,"length":1}],"regions":[{"start":{"node":1},"end":{"node":9}}]}`, vgraph.ErrUnknownNode},
		{"chain of unknown region", `{"nodes":[{"id":1,"length":1}],"chains":[{"parent":-1,"regions":[0]}]}`, snarl.ErrUnknownRegion},
		{"orphan region", `{"nodes":[{"id":1,"length":1},{"id":2,"length":1}],"regions":[{"start":{"node":1},"end":{"node":2}}]}`, snarl.ErrOrphanRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadJSON(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadJSON() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, _, err := ReadJSON(strings.NewReader("{")); !errors.Is(err, ErrMalformed) {
		t.Errorf("ReadJSON() of malformed JSON error = %v, want ErrMalformed", err)
	}
}

func TestRoundTrip(t *testing.T) {
	g, tree, err := ReadJSON(strings.NewReader(nestedDoc))
	if err != nil {
		t.Fatal(err)
	}
	var first bytes.Buffer
	if err := WriteJSON(g, tree, &first); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	g2, tree2, err := ReadJSON(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("ReadJSON of exported document: %v", err)
	}
	var second bytes.Buffer
	if err := WriteJSON(g2, tree2, &second); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("export is not stable:\n%s\nvs\n%s", first.String(), second.String())
	}
	if strings.Contains(first.String(), "sequence") {
		t.Error("export should write lengths, not sequences")
	}
}

func TestImportExportFile(t *testing.T) {
	g, tree, err := ReadJSON(strings.NewReader(nestedDoc))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := ExportJSON(g, tree, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	g2, tree2, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if g2.EdgeCount() != g.EdgeCount() || tree2.ChainCount() != tree.ChainCount() {
		t.Error("ImportJSON did not restore the exported document")
	}

	if _, _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportJSON of a missing file should fail")
	}
}
