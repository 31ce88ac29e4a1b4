package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vgdist/pkg/errors"
	"github.com/matzehuels/vgdist/pkg/pipeline"
	"github.com/matzehuels/vgdist/pkg/render"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// Supported output formats.
const (
	formatSVG = "svg"
	formatDOT = "dot"
	formatPDF = "pdf"
	formatPNG = "png"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output    string
	format    string
	detailed  bool
	highlight []int64
	scale     float64
}

// renderCommand creates the render command for drawing the decomposition.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <index|graph.json>",
		Short: "Render the snarl decomposition",
		Long: `Render the chain and region tree of an index as a diagram.

Chains are drawn as ellipses and regions as boxes, each region hanging from
the chain it belongs to. Region sizes are only shown for JSON documents,
since a serialized index does not carry the graph.`,
		Example: `  vgdist render graph.json
  vgdist render graph.vgdi -f dot -o tree.dot
  vgdist render graph.json --detailed --highlight 12,40 -f png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatSVG, "output format: svg, dot, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with boundaries, depth and sizes")
	cmd.Flags().Int64SliceVar(&opts.highlight, "highlight", nil, "highlight the regions holding these node ids")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts renderOpts) error {
	ctx := cmd.Context()
	format := strings.ToLower(opts.format)
	switch format {
	case formatSVG, formatDOT, formatPDF, formatPNG:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want svg, dot, pdf or png)", opts.format)
	}

	op, err := c.openIndex(ctx, input, pipeline.Options{Cap: -1})
	if err != nil {
		return err
	}
	highlight, err := regionsOf(op, opts.highlight)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	dot := render.ToDOT(op.Tree, render.Options{
		Detailed:  opts.detailed,
		Graph:     op.Graph,
		Highlight: highlight,
	})
	data, err := encode(ctx, dot, format, opts.scale)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	prog.done("Rendered", "format", format, "regions", op.Tree.RegionCount())

	printSuccess("Rendered %d regions", op.Tree.RegionCount())
	printFile(out)
	return nil
}

func encode(ctx context.Context, dot, format string, scale float64) ([]byte, error) {
	if format == formatDOT {
		return []byte(dot), nil
	}
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatPDF:
		return render.ToPDF(ctx, svg)
	case formatPNG:
		return render.ToPNG(ctx, svg, scale)
	}
	return svg, nil
}

// regionsOf maps node ids to the ids of their canonical regions in op.Tree.
func regionsOf(op *opened, ids []int64) ([]snarl.RegionID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byRegion := make(map[snarl.Region]snarl.RegionID, op.Tree.RegionCount())
	for i := range op.Tree.RegionCount() {
		r := snarl.RegionID(i)
		byRegion[op.Tree.Region(r)] = r
	}
	out := make([]snarl.RegionID, 0, len(ids))
	for _, id := range ids {
		reg, ok := op.Index.SnarlOf(vgraph.NodeID(id))
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "node %d is not indexed", id)
		}
		out = append(out, byRegion[reg])
	}
	return out, nil
}
