// Package render draws snarl decomposition trees.
//
// [ToDOT] writes the tree in Graphviz DOT format: regions are boxes,
// chains are ellipses, a chain points at its regions in order, and a region
// points at the chains nested in it. [RenderSVG] lays the DOT out with
// Graphviz, and [ToPDF] and [ToPNG] convert the SVG with the external
// rsvg-convert tool (from librsvg).
//
//	dot := render.ToDOT(tree, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
package render
