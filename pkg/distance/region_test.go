package distance

import (
	"testing"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

func bubbleRegion(t *testing.T) *regionIndex {
	t.Helper()
	g, tree := bubbleGraph()
	idx := mustBuild(t, g, tree)
	return idx.regions[idx.byStart[snarl.Fwd(1)]]
}

func TestRegionDistance(t *testing.T) {
	r := bubbleRegion(t)

	tests := []struct {
		a, b snarl.Visit
		want Distance
	}{
		{snarl.Fwd(1), snarl.Fwd(4), Dist(5)},
		{snarl.Fwd(1), snarl.Fwd(2), Dist(2)},
		{snarl.Fwd(1), snarl.Fwd(3), Dist(2)},
		{snarl.Rev(4), snarl.Rev(1), Dist(4)},
		{snarl.Fwd(2), snarl.Fwd(3), Unreachable},
		{snarl.Fwd(3), snarl.Fwd(3), Dist(0)},
		{snarl.Fwd(1), snarl.Fwd(42), Unreachable},
	}
	for _, tt := range tests {
		if got := r.Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegionDistanceFromFar(t *testing.T) {
	r := bubbleRegion(t)
	if got := r.DistanceFromFar(snarl.Fwd(1), snarl.Fwd(4)); got != Dist(3) {
		t.Errorf("DistanceFromFar(1+, 4+) = %v, want 3", got)
	}
	if got := r.DistanceFromFar(snarl.Fwd(2), snarl.Fwd(4)); got != Dist(0) {
		t.Errorf("DistanceFromFar(2+, 4+) = %v, want 0", got)
	}
	if got := r.DistanceFromFar(snarl.Fwd(4), snarl.Fwd(2)); got.Reachable() {
		t.Errorf("DistanceFromFar(4+, 2+) = %v, want unreachable", got)
	}
}

func TestRegionLengths(t *testing.T) {
	r := bubbleRegion(t)
	if got := r.Length(); got != Dist(6) {
		t.Errorf("Length() = %v, want 6", got)
	}
	for id, want := range map[vgraph.NodeID]int64{1: 2, 2: 3, 3: 5, 4: 1} {
		got, ok := r.NodeLength(id)
		if !ok || got != want {
			t.Errorf("NodeLength(%d) = %d, %v, want %d", id, got, ok, want)
		}
	}
	if _, ok := r.NodeLength(9); ok {
		t.Errorf("NodeLength(9) ok = true, want false")
	}
}

func TestRegionDistanceToEnds(t *testing.T) {
	r := bubbleRegion(t)
	toStart, toEnd := r.DistanceToEnds(3, Dist(3), Dist(2))
	if toStart != Dist(4) || toEnd != Dist(4) {
		t.Errorf("DistanceToEnds(3, 3, 2) = %v, %v, want 4, 4", toStart, toEnd)
	}
	toStart, toEnd = r.DistanceToEnds(2, Dist(1), Unreachable)
	if toStart.Reachable() || toEnd != Dist(2) {
		t.Errorf("DistanceToEnds(2, 1, -) = %v, %v, want unreachable, 2", toStart, toEnd)
	}
	toStart, toEnd = r.DistanceToEnds(42, Dist(0), Dist(0))
	if toStart.Reachable() || toEnd.Reachable() {
		t.Errorf("DistanceToEnds(42) = %v, %v, want unreachable", toStart, toEnd)
	}
}

func TestRegionInsertDistance(t *testing.T) {
	r := bubbleRegion(t)
	r.InsertDistance(snarl.Fwd(2), snarl.Fwd(3), 7)
	if got := r.DistanceFromFar(snarl.Fwd(2), snarl.Fwd(3)); got != Dist(7) {
		t.Errorf("after insert DistanceFromFar(2+, 3+) = %v, want 7", got)
	}
	r.InsertDistance(snarl.Fwd(2), snarl.Fwd(3), 9)
	if got := r.DistanceFromFar(snarl.Fwd(2), snarl.Fwd(3)); got != Dist(7) {
		t.Errorf("larger insert replaced the minimum: got %v, want 7", got)
	}
	r.InsertDistance(snarl.Fwd(2), snarl.Fwd(3), 1)
	if got := r.DistanceFromFar(snarl.Fwd(2), snarl.Fwd(3)); got != Dist(1) {
		t.Errorf("smaller insert ignored: got %v, want 1", got)
	}
}
