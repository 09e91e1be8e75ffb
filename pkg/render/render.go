package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pagsearch/pkg/pag"
)

// Options configures PAG diagram rendering.
type Options struct {
	// Detailed labels each edge with its mark notation (e.g. "o->") and
	// lists underline triples as comments in the DOT output.
	Detailed bool
}

// ToDOT converts a PAG to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Every edge is emitted with dir=both so that both endpoint marks show:
// circles become odot, arrows become normal, tails become none. Bidirected
// edges (latent confounding) are drawn red.
func ToDOT(g *pag.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=24];\n")
	buf.WriteString("  edge [dir=both];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		n, _ := g.Node(id)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, n.DisplayLabel())
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := fmtEdgeAttrs(e, opts.Detailed)
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.A, e.B, strings.Join(attrs, ", "))
	}

	if opts.Detailed {
		for _, t := range g.Underlines() {
			fmt.Fprintf(&buf, "  // underline %s\n", t)
		}
		for _, t := range g.DottedUnderlines() {
			fmt.Fprintf(&buf, "  // dotted underline %s\n", t)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtEdgeAttrs(e pag.Edge, detailed bool) []string {
	attrs := []string{
		fmt.Sprintf("arrowtail=%s", arrowShape(e.MarkA)),
		fmt.Sprintf("arrowhead=%s", arrowShape(e.MarkB)),
	}
	if e.MarkA == pag.Arrow && e.MarkB == pag.Arrow {
		attrs = append(attrs, "color=red")
	}
	if detailed {
		label := fmt.Sprintf("%s-%s", reverseMark(e.MarkA), e.MarkB)
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	return attrs
}

// arrowShape maps an endpoint mark to its Graphviz arrow type.
func arrowShape(ep pag.Endpoint) string {
	switch ep {
	case pag.Arrow:
		return "normal"
	case pag.Tail:
		return "none"
	default:
		return "odot"
	}
}

// reverseMark renders the mark at the left side of an edge label, where
// an arrow points left rather than right.
func reverseMark(ep pag.Endpoint) string {
	if ep == pag.Arrow {
		return "<"
	}
	return ep.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [ToPDF] or [ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}
