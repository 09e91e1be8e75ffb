// Package render turns partial ancestral graphs into visual outputs.
//
// # Overview
//
// The package provides:
//
//   - [ToDOT]: Graphviz DOT source for a PAG, with endpoint marks mapped
//     to arrowhead shapes (circle, arrow, tail)
//   - [RenderSVG]: DOT layout and SVG rendering via the embedded Graphviz
//     engine
//   - [ToPDF] and [ToPNG]: SVG conversion using the external rsvg-convert
//     tool (from librsvg)
//
// # Endpoint Marks
//
// PAG edges carry a mark at each endpoint. DOT renders them with dir=both
// and per-end arrow shapes:
//
//	circle -> odot
//	arrow  -> normal
//	tail   -> none
//
// Bidirected edges (arrow at both ends) indicate a latent confounder and
// are drawn in red.
//
// # Usage
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render
