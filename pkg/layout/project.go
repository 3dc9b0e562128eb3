package layout

import "github.com/matzehuels/autolayout/pkg/diagram"

// Surface resolves a node id to its rendered dimensions. A node that has not
// been measured yet reports false.
type Surface interface {
	FindNode(id string) (diagram.Dimensions, bool)
}

// Project builds a fresh abstract graph from nodes and edges.
//
// Nodes the surface cannot resolve are skipped, as are repeated ids after the
// first occurrence. Every edge is emitted verbatim, even when an endpoint was
// skipped or never existed. A non-positive spacing selects
// DefaultLayerSpacing.
func Project(surface Surface, nodes []diagram.Node, edges []diagram.Edge, dir diagram.Direction, spacing float64) *Graph {
	g := &Graph{
		ID:            RootID,
		LayoutOptions: LayoutOptions(dir, spacing),
		Children:      make([]*GraphNode, 0, len(nodes)),
		Edges:         make([]GraphEdge, 0, len(edges)),
	}

	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		dims, ok := surface.FindNode(n.ID)
		if !ok {
			continue
		}
		seen[n.ID] = struct{}{}
		g.Children = append(g.Children, &GraphNode{
			ID:     n.ID,
			Width:  dims.Width,
			Height: dims.Height,
		})
	}

	for _, e := range edges {
		g.Edges = append(g.Edges, GraphEdge{
			ID:      e.ID,
			Sources: []string{e.Source},
			Targets: []string{e.Target},
		})
	}
	return g
}
