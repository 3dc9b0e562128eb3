package layout

import "github.com/matzehuels/autolayout/pkg/diagram"

// Result maps node ids to computed top-left positions.
type Result map[string]diagram.Point

// Collect copies the coordinates of g's children into a new Result.
// A missing coordinate defaults to 0 on that axis.
func Collect(g *Graph) Result {
	res := make(Result, len(g.Children))
	for _, c := range g.Children {
		if c == nil {
			continue
		}
		var p diagram.Point
		if c.X != nil {
			p.X = *c.X
		}
		if c.Y != nil {
			p.Y = *c.Y
		}
		res[c.ID] = p
	}
	return res
}

// Reconcile returns a new slice with one entry per input node, in input
// order. Nodes absent from res are returned unchanged; the others get their
// computed position and the connector sides for dir.
func Reconcile(nodes []diagram.Node, res Result, dir diagram.Direction) []diagram.Node {
	source, target := dir.Sides()
	out := make([]diagram.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
		p, ok := res[n.ID]
		if !ok {
			continue
		}
		out[i].Position = &diagram.Point{X: p.X, Y: p.Y}
		out[i].SourcePosition = source
		out[i].TargetPosition = target
	}
	return out
}

// placed counts the nodes of nodes that have an entry in res.
func placed(nodes []diagram.Node, res Result) int {
	n := 0
	for _, node := range nodes {
		if _, ok := res[node.ID]; ok {
			n++
		}
	}
	return n
}
