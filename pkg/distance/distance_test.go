package distance

import (
	"errors"
	"testing"
)

func TestDistanceArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Distance
		want Distance
	}{
		{"add", Dist(3).Add(Dist(4)), Dist(7)},
		{"add unreachable", Dist(3).Add(Unreachable), Unreachable},
		{"unreachable add", Unreachable.Add(Dist(3)), Unreachable},
		{"add int", Dist(3).AddInt(-2), Dist(1)},
		{"add int unreachable", Unreachable.AddInt(5), Unreachable},
		{"min", Dist(3).Min(Dist(2)), Dist(2)},
		{"min unreachable", Unreachable.Min(Dist(9)), Dist(9)},
		{"min of nothing", Min(), Unreachable},
		{"min of many", Min(Dist(5), Unreachable, Dist(1), Dist(4)), Dist(1)},
		{"non-negative", Dist(-1).nonNegative(), Unreachable},
		{"raw round trip", fromRaw(Dist(6).raw()), Dist(6)},
		{"raw unreachable", fromRaw(Unreachable.raw()), Unreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestDistanceLess(t *testing.T) {
	if !Dist(0).Less(Unreachable) {
		t.Errorf("Dist(0).Less(Unreachable) = false, want true")
	}
	if Unreachable.Less(Dist(1 << 40)) {
		t.Errorf("Unreachable.Less(finite) = true, want false")
	}
	if Unreachable.Less(Unreachable) {
		t.Errorf("Unreachable.Less(Unreachable) = true, want false")
	}
}

func TestPosition(t *testing.T) {
	p := Position{Node: 4, Offset: 1, Reverse: true}
	if got := p.forward(5); got != 4 {
		t.Errorf("forward(5) = %d, want 4", got)
	}
	f := p.Flip(5)
	if f != Pos(4, 4) {
		t.Errorf("Flip(5) = %v, want 4:4", f)
	}
	if f.Flip(5) != p {
		t.Errorf("Flip(5).Flip(5) = %v, want %v", f.Flip(5), p)
	}
	if p.String() != "4:1:-" || f.String() != "4:4" {
		t.Errorf("String() = %q, %q", p.String(), f.String())
	}
}

func TestBoundString(t *testing.T) {
	if got := (Bound{n: 7}).String(); got != "7" {
		t.Errorf("String() = %q, want 7", got)
	}
	if got := (Bound{n: 50, saturated: true}).String(); got != ">=50" {
		t.Errorf("String() = %q, want >=50", got)
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"12", Pos(12, 0), false},
		{"12:4", Pos(12, 4), false},
		{"12:4:+", Pos(12, 4), false},
		{"12:4:-", Position{Node: 12, Offset: 4, Reverse: true}, false},
		{"", Position{}, true},
		{"0:1", Position{}, true},
		{"x:1", Position{}, true},
		{"3:-1", Position{}, true},
		{"3:1:?", Position{}, true},
		{"3:1:-:9", Position{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("ParsePosition(%q) error = %v, want ErrInvalidPosition", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePosition(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
		if back, _ := ParsePosition(got.String()); back != got {
			t.Errorf("ParsePosition(%q) does not round trip: %v", got.String(), back)
		}
	}
}
