package distance

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

func serialize(t *testing.T, idx *Index) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := idx.Serialize(&buf); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	return buf.Bytes()
}

func TestSerializeRoundTrip(t *testing.T) {
	graphs := map[string]func() (*vgraph.Memory, *snarl.Tree){
		"linear": linearGraph,
		"bubble": bubbleGraph,
		"nested": nestedGraph,
	}
	for name, build := range graphs {
		t.Run(name, func(t *testing.T) {
			g, tree := build()
			idx := mustBuild(t, g, tree, WithCap(64))
			data := serialize(t, idx)

			loaded, err := Load(context.Background(), bytes.NewReader(data), g)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if loaded.ID() != idx.ID() {
				t.Errorf("ID() = %v, want %v", loaded.ID(), idx.ID())
			}
			if !bytes.Equal(serialize(t, loaded), data) {
				t.Errorf("re-serialized index differs from the original stream")
			}
			pts := samplePositions(g)
			for _, p := range pts {
				for _, q := range pts {
					if got, want := mustMin(t, loaded, p, q), mustMin(t, idx, p, q); got != want {
						t.Errorf("loaded MinDistance(%v, %v) = %v, want %v", p, q, got, want)
					}
					if got, want := mustMax(t, loaded, p, q), mustMax(t, idx, p, q); got != want {
						t.Errorf("loaded MaxDistance(%v, %v) = %v, want %v", p, q, got, want)
					}
				}
			}
		})
	}
}

func TestSerializeRandomRoundTrip(t *testing.T) {
	for seed := range uint64(20) {
		g, tree := randomGraph(seed)
		idx := mustBuild(t, g, tree)
		data := serialize(t, idx)
		loaded, err := Load(context.Background(), bytes.NewReader(data), nil)
		if err != nil {
			t.Fatalf("seed %d: Load() error: %v", seed, err)
		}
		if loaded.HasMax() {
			t.Errorf("seed %d: HasMax() = true for an index built without a cap", seed)
		}
		pts := samplePositions(g)
		for _, p := range pts {
			for _, q := range pts {
				if got, want := mustMin(t, loaded, p, q), mustMin(t, idx, p, q); got != want {
					t.Fatalf("seed %d: loaded MinDistance(%v, %v) = %v, want %v", seed, p, q, got, want)
				}
			}
		}
	}
}

func TestLoadBoundsMismatch(t *testing.T) {
	g, tree := linearGraph()
	data := serialize(t, mustBuild(t, g, tree))

	other := vgraph.New()
	addNodes(other, map[vgraph.NodeID]int64{1: 5, 2: 3, 3: 4, 4: 1})
	_, err := Load(context.Background(), bytes.NewReader(data), other)
	if !errors.Is(err, ErrIDBoundsMismatch) {
		t.Errorf("Load() error = %v, want ErrIDBoundsMismatch", err)
	}
}

func TestLoadTruncated(t *testing.T) {
	g, tree := nestedGraph()
	data := serialize(t, mustBuild(t, g, tree, WithCap(32)))
	for n := 0; n < len(data); n++ {
		idx, err := Load(context.Background(), bytes.NewReader(data[:n]), nil)
		if !errors.Is(err, ErrCorrupt) || idx != nil {
			t.Fatalf("Load(%d of %d bytes) = %v, %v, want ErrCorrupt", n, len(data), idx, err)
		}
	}
}

func TestLoadCorrupt(t *testing.T) {
	g, tree := bubbleGraph()
	data := serialize(t, mustBuild(t, g, tree))

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] ^= 0x02; return b }},
		{"bad trailer", func(b []byte) []byte { b[len(b)-1] ^= 0x04; return b }},
		{"garbage", func([]byte) []byte { return []byte("not an index at all") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.mutate(bytes.Clone(data))
			if _, err := Load(context.Background(), bytes.NewReader(b), nil); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Load() error = %v, want ErrCorrupt", err)
			}
		})
	}
}
