// Package diagram defines the node-and-edge model of an interactive diagram.
//
// The types mirror the node shape used by the browser-side flow renderer so
// that documents can move between the UI, the HTTP API and the CLI without
// conversion:
//
//	{
//	  "direction": "LR",
//	  "nodes": [
//	    {"id": "api", "position": {"x": 0, "y": 0}, "sourcePosition": "right", "targetPosition": "left"},
//	    {"id": "db"}
//	  ],
//	  "edges": [{"id": "api-db", "source": "api", "target": "db"}],
//	  "dimensions": {"api": {"width": 150, "height": 40}, "db": {"width": 150, "height": 40}}
//	}
//
// # Positions and Sides
//
// [Node.Position] is nil until a node has been laid out for the first time.
// [Node.SourcePosition] and [Node.TargetPosition] name the [Side] of the node
// where outgoing and incoming edges are anchored.
//
// # Rendering Surface
//
// Dimensions are only known once the renderer has measured a node. The
// [Measurements] map is the in-process view of those measurements and is the
// only source of width and height for layout; it is never read for positions.
//
// # Documents
//
// A [Document] bundles nodes, edges, measurements and the last used
// [Direction]. Use [ReadFile] and [WriteFile] to load and store documents as
// JSON or YAML (chosen by file extension).
package diagram
