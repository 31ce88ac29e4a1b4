package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// Options configures decomposition rendering.
type Options struct {
	// Detailed adds boundary visits and depth to labels, and chain order
	// to edges. When false, only the ids are shown.
	Detailed bool

	// Graph, when set, adds node counts and sequence lengths to region
	// labels.
	Graph vgraph.Graph

	// Highlight marks the regions given in a distinct fill, e.g. the
	// regions holding the two ends of a query.
	Highlight []snarl.RegionID
}

// ToDOT converts a decomposition tree to Graphviz DOT format. The tree
// must have passed [snarl.Tree.Validate].
func ToDOT(t *snarl.Tree, opts Options) string {
	marked := make(map[snarl.RegionID]bool, len(opts.Highlight))
	for _, r := range opts.Highlight {
		marked[r] = true
	}
	var sizes map[snarl.RegionID]regionSize
	if opts.Graph != nil {
		sizes = measure(t, opts.Graph)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=20, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i := range t.ChainCount() {
		c := snarl.ChainID(i)
		label := fmt.Sprintf("C%d", c)
		if opts.Detailed {
			label += fmt.Sprintf("\n%s .. %s", t.Head(c), t.Tail(c))
		}
		fmt.Fprintf(&buf, "  %q [shape=ellipse, label=%q];\n", chainName(c), label)
	}
	for i := range t.RegionCount() {
		r := snarl.RegionID(i)
		attrs := []string{"shape=box", "style=\"rounded,filled\"", fmt.Sprintf("label=%q", regionLabel(t, r, opts.Detailed, sizes))}
		if marked[r] {
			attrs = append(attrs, "fillcolor=gold")
		} else {
			attrs = append(attrs, "fillcolor=white")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", regionName(r), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i := range t.ChainCount() {
		c := snarl.ChainID(i)
		for rank, r := range t.ChainRegions(c) {
			if opts.Detailed {
				fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", chainName(c), regionName(r), rank)
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", chainName(c), regionName(r))
		}
	}
	for i := range t.RegionCount() {
		r := snarl.RegionID(i)
		for _, c := range t.Children(r) {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", regionName(r), chainName(c))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func chainName(c snarl.ChainID) string   { return fmt.Sprintf("c%d", c) }
func regionName(r snarl.RegionID) string { return fmt.Sprintf("r%d", r) }

func regionLabel(t *snarl.Tree, r snarl.RegionID, detailed bool, sizes map[snarl.RegionID]regionSize) string {
	label := fmt.Sprintf("R%d", r)
	if !detailed {
		return label
	}
	reg := t.Region(r)
	parts := []string{
		fmt.Sprintf("%s .. %s", reg.Start, reg.End),
		fmt.Sprintf("depth: %d", t.Depth(r)),
	}
	if s, ok := sizes[r]; ok {
		parts = append(parts, fmt.Sprintf("nodes: %d", s.nodes), fmt.Sprintf("bp: %d", s.bases))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

type regionSize struct {
	nodes int
	bases int64
}

// measure counts the nodes and bases of each region, boundaries included,
// by walking the graph from each region's start without crossing its end
// or re-entering through its start. Nested chains are counted in their
// enclosing regions too.
func measure(t *snarl.Tree, g vgraph.Graph) map[snarl.RegionID]regionSize {
	out := make(map[snarl.RegionID]regionSize, t.RegionCount())
	for i := range t.RegionCount() {
		r := snarl.RegionID(i)
		reg := t.Region(r)
		seen := map[vgraph.NodeID]bool{reg.Start.Node: true, reg.End.Node: true}
		stack := []vgraph.Handle{reg.Start.Handle(), reg.End.Reverse().Handle()}
		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			g.Follow(h, func(next vgraph.Handle) bool {
				if !seen[next.ID] {
					seen[next.ID] = true
					stack = append(stack, next, next.Flip())
				}
				return true
			})
		}
		var s regionSize
		for id := range seen {
			s.nodes++
			l, _ := g.Length(id)
			s.bases += l
		}
		out[r] = s
	}
	return out
}
