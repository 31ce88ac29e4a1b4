package distance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// Distance is a base-pair count or Unreachable. The zero value is
// Unreachable, and any arithmetic involving Unreachable stays Unreachable.
type Distance struct {
	n  int64
	ok bool
}

// Unreachable means no walk exists.
var Unreachable = Distance{}

// Dist returns the finite distance n.
func Dist(n int64) Distance { return Distance{n: n, ok: true} }

// Reachable reports whether d is finite.
func (d Distance) Reachable() bool { return d.ok }

// Value returns the distance and whether it is finite.
func (d Distance) Value() (int64, bool) { return d.n, d.ok }

// Add sums two distances.
func (d Distance) Add(o Distance) Distance {
	if !d.ok || !o.ok {
		return Unreachable
	}
	return Dist(d.n + o.n)
}

// AddInt adds a plain length.
func (d Distance) AddInt(n int64) Distance {
	if !d.ok {
		return Unreachable
	}
	return Dist(d.n + n)
}

// Less orders finite distances before Unreachable.
func (d Distance) Less(o Distance) bool {
	if !d.ok {
		return false
	}
	return !o.ok || d.n < o.n
}

// Min returns whichever of d and o is smaller.
func (d Distance) Min(o Distance) Distance {
	if o.Less(d) {
		return o
	}
	return d
}

// Min returns the smallest of ds, or Unreachable for none.
func Min(ds ...Distance) Distance {
	out := Unreachable
	for _, d := range ds {
		out = out.Min(d)
	}
	return out
}

func (d Distance) String() string {
	if !d.ok {
		return "unreachable"
	}
	return strconv.FormatInt(d.n, 10)
}

// nonNegative drops candidates that overlap themselves.
func (d Distance) nonNegative() Distance {
	if d.ok && d.n < 0 {
		return Unreachable
	}
	return d
}

// raw encodes d with -1 for Unreachable.
func (d Distance) raw() int64 {
	if !d.ok {
		return -1
	}
	return d.n
}

func fromRaw(n int64) Distance {
	if n < 0 {
		return Unreachable
	}
	return Dist(n)
}

// Bound is an upper bound returned by MaxDistance.
type Bound struct {
	n         int64
	saturated bool
}

// Value returns the bound. For a saturated bound it is the cap.
func (b Bound) Value() int64 { return b.n }

// Saturated reports whether the true distance may be at least the cap.
func (b Bound) Saturated() bool { return b.saturated }

func (b Bound) String() string {
	if b.saturated {
		return ">=" + strconv.FormatInt(b.n, 10)
	}
	return strconv.FormatInt(b.n, 10)
}

// Position is a point between two bases of an oriented node. Offset counts
// bases from the start of the node in the given orientation, so
// (n, o, true) and (n, len-o, false) are the same point.
type Position struct {
	Node    vgraph.NodeID
	Offset  int64
	Reverse bool
}

// Pos returns a forward position.
func Pos(id vgraph.NodeID, offset int64) Position { return Position{Node: id, Offset: offset} }

// Flip returns the same point expressed on the other strand.
func (p Position) Flip(length int64) Position {
	return Position{Node: p.Node, Offset: length - p.Offset, Reverse: !p.Reverse}
}

// forward returns the offset of p measured on the forward strand.
func (p Position) forward(length int64) int64 {
	if p.Reverse {
		return length - p.Offset
	}
	return p.Offset
}

func (p Position) String() string {
	if p.Reverse {
		return fmt.Sprintf("%d:%d:-", p.Node, p.Offset)
	}
	return fmt.Sprintf("%d:%d", p.Node, p.Offset)
}

// ParsePosition parses the form written by [Position.String]: "id:offset"
// for the forward strand and "id:offset:-" for the reverse one. A bare "id"
// is offset 0.
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return Position{}, fmt.Errorf("%w: bad node id in %q", ErrInvalidPosition, s)
	}
	p := Position{Node: vgraph.NodeID(id)}
	if len(parts) > 1 {
		if p.Offset, err = strconv.ParseInt(parts[1], 10, 64); err != nil || p.Offset < 0 {
			return Position{}, fmt.Errorf("%w: bad offset in %q", ErrInvalidPosition, s)
		}
	}
	if len(parts) == 3 {
		switch parts[2] {
		case "-":
			p.Reverse = true
		case "+":
		default:
			return Position{}, fmt.Errorf("%w: bad strand in %q", ErrInvalidPosition, s)
		}
	}
	return p, nil
}
