package dot

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/autolayout/pkg/layout"
)

// PointsPerInch converts Graphviz inches to pixels.
const PointsPerInch = 72.0

// DefaultNodeSep is the gap between nodes of the same layer, in pixels.
const DefaultNodeSep = 18.0

// NodeNames assigns each distinct child of g a DOT identifier (n0, n1, ...)
// in child order. Node ids never reach Graphviz, whatever characters they
// contain.
func NodeNames(g *layout.Graph) map[string]string {
	names := make(map[string]string, len(g.Children))
	for _, c := range g.Children {
		if c == nil {
			continue
		}
		if _, ok := names[c.ID]; !ok {
			names[c.ID] = "n" + strconv.Itoa(len(names))
		}
	}
	return names
}

// ToDOT converts g to a DOT digraph with nodes named by NodeNames.
//
// Layers grow rightward for RIGHT and downward otherwise. ranksep is the
// graph's layer spacing. Edges with an endpoint that is not a child are left
// out so Graphviz never invents nodes for them.
func ToDOT(g *layout.Graph, nodeSep float64) string {
	if nodeSep <= 0 {
		nodeSep = DefaultNodeSep
	}
	rankdir := "TB"
	if g.Direction().IsHorizontal() {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(g.LayerSpacing()))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(nodeSep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	names := NodeNames(g)
	written := make(map[string]bool, len(names))
	for _, c := range g.Children {
		if c == nil || written[c.ID] {
			continue
		}
		written[c.ID] = true
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s];\n", names[c.ID], inches(c.Width), inches(c.Height))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		for _, src := range e.Sources {
			for _, dst := range e.Targets {
				from, ok1 := names[src]
				to, ok2 := names[dst]
				if !ok1 || !ok2 {
					continue
				}
				fmt.Fprintf(&buf, "  %s -> %s;\n", from, to)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func inches(px float64) string {
	if px < 0 {
		px = 0
	}
	return strconv.FormatFloat(px/PointsPerInch, 'f', 4, 64)
}
