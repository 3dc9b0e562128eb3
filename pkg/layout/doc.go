// Package layout positions diagram nodes using an external layered
// graph-drawing engine.
//
// # Overview
//
// A layout call runs three steps in one request/response cycle:
//
//  1. Projection: [Project] turns diagram nodes and edges into an abstract
//     [Graph] in ELK JSON shape. Each node is looked up on the rendering
//     [Surface]; nodes that have not been measured yet are left out. Edges are
//     forwarded as given, including edges whose endpoints were left out.
//  2. Delegation: an [Engine] computes coordinates by mutating
//     [Graph.Children] in place. Engines are black boxes; the orchestrator adds
//     no timeout, retry or fallback, and returns engine errors unchanged.
//  3. Reconciliation: [Collect] reads the coordinates back into a [Result]
//     and [Reconcile] maps them onto copies of the input nodes, setting the
//     connector sides implied by the direction.
//
// # Usage
//
//	orch := layout.New(dot.New(), layout.WithLogger(logger))
//	placed, err := orch.Layout(ctx, dims, nodes, edges, diagram.LeftToRight)
//
// [Orchestrator.Apply] additionally threads a [State] value holding the most
// recently requested direction, for callers that toggle between directions.
//
// # Caching
//
// [NewCachedEngine] wraps any engine with a [cache.Cache]. Keys are derived
// from the projected graph without coordinates, so a hit yields the same
// result the engine would have produced.
package layout
