package diagram

import "maps"

// Side is the edge of a node's bounding box where a connector is anchored.
type Side string

// Connector sides. Values match the renderer's position enum.
const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Point is a position in diagram coordinates (top-left origin, y down).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Dimensions are the rendered width and height of a node.
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Node is a diagram node.
//
// Fields other than ID, Position and the connector sides are opaque to layout
// and are carried through untouched.
type Node struct {
	ID             string         `json:"id" yaml:"id"`
	Type           string         `json:"type,omitempty" yaml:"type,omitempty"`
	Label          string         `json:"label,omitempty" yaml:"label,omitempty"`
	Data           map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Position       *Point         `json:"position,omitempty" yaml:"position,omitempty"`
	SourcePosition Side           `json:"sourcePosition,omitempty" yaml:"sourcePosition,omitempty"`
	TargetPosition Side           `json:"targetPosition,omitempty" yaml:"targetPosition,omitempty"`
}

// Clone returns a copy of n that shares no pointers or maps with it.
func (n Node) Clone() Node {
	out := n
	if n.Position != nil {
		p := *n.Position
		out.Position = &p
	}
	if n.Data != nil {
		out.Data = maps.Clone(n.Data)
	}
	return out
}

// Edge is a directed connection from Source to Target.
// Source and Target are not validated against the node list.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}
