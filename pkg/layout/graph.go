package layout

import (
	"strconv"

	"github.com/matzehuels/autolayout/pkg/diagram"
)

// Layout option keys and values understood by layered engines.
const (
	OptAlgorithm    = "elk.algorithm"
	OptDirection    = "elk.direction"
	OptLayerSpacing = "spacing.nodeNodeBetweenLayers"

	AlgorithmLayered = "layered"
	DirectionRight   = "RIGHT"
	DirectionDown    = "DOWN"
)

// RootID is the id of every projected graph.
const RootID = "root"

// DefaultLayerSpacing is the gap between adjacent layers, in pixels.
const DefaultLayerSpacing = 100.0

// Graph is the abstract graph handed to an engine. Its JSON encoding is the
// ELK graph format.
type Graph struct {
	ID            string            `json:"id"`
	LayoutOptions map[string]string `json:"layoutOptions"`
	Children      []*GraphNode      `json:"children"`
	Edges         []GraphEdge       `json:"edges"`
}

// GraphNode is a sized node. X and Y are nil until an engine sets them and
// denote the top-left corner.
type GraphNode struct {
	ID     string   `json:"id"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// GraphEdge connects Sources to Targets. Projection always emits exactly one
// of each.
type GraphEdge struct {
	ID      string   `json:"id"`
	Sources []string `json:"sources"`
	Targets []string `json:"targets"`
}

// LayoutOptions returns the option map for dir and spacing.
// A non-positive spacing selects DefaultLayerSpacing.
func LayoutOptions(dir diagram.Direction, spacing float64) map[string]string {
	if spacing <= 0 {
		spacing = DefaultLayerSpacing
	}
	elkDir := DirectionDown
	if dir.IsHorizontal() {
		elkDir = DirectionRight
	}
	return map[string]string{
		OptAlgorithm:    AlgorithmLayered,
		OptDirection:    elkDir,
		OptLayerSpacing: strconv.FormatFloat(spacing, 'f', -1, 64),
	}
}

// Direction reads the layout direction back from the options.
// Anything other than RIGHT is treated as top-to-bottom.
func (g *Graph) Direction() diagram.Direction {
	if g.LayoutOptions[OptDirection] == DirectionRight {
		return diagram.LeftToRight
	}
	return diagram.TopToBottom
}

// LayerSpacing reads the layer spacing from the options, falling back to
// DefaultLayerSpacing when missing or malformed.
func (g *Graph) LayerSpacing() float64 {
	v, err := strconv.ParseFloat(g.LayoutOptions[OptLayerSpacing], 64)
	if err != nil || v <= 0 {
		return DefaultLayerSpacing
	}
	return v
}

// Child returns the child with the given id, or nil.
func (g *Graph) Child(id string) *GraphNode {
	for _, c := range g.Children {
		if c != nil && c.ID == id {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		ID:            g.ID,
		LayoutOptions: make(map[string]string, len(g.LayoutOptions)),
		Children:      make([]*GraphNode, 0, len(g.Children)),
		Edges:         make([]GraphEdge, 0, len(g.Edges)),
	}
	for k, v := range g.LayoutOptions {
		out.LayoutOptions[k] = v
	}
	for _, c := range g.Children {
		if c == nil {
			continue
		}
		n := *c
		if c.X != nil {
			x := *c.X
			n.X = &x
		}
		if c.Y != nil {
			y := *c.Y
			n.Y = &y
		}
		out.Children = append(out.Children, &n)
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, GraphEdge{
			ID:      e.ID,
			Sources: append([]string(nil), e.Sources...),
			Targets: append([]string(nil), e.Targets...),
		})
	}
	return out
}

// SetPosition sets both coordinates of n.
func (n *GraphNode) SetPosition(x, y float64) {
	n.X, n.Y = &x, &y
}
