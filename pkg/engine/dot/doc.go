// Package dot lays out graphs with Graphviz's layered "dot" algorithm.
//
// The engine converts a [layout.Graph] to DOT with fixed-size box nodes,
// renders it in Graphviz's "plain" text format through
// [github.com/goccy/go-graphviz] (Graphviz compiled to WebAssembly, no system
// install needed) and reads back node centres, which it converts to top-left
// pixel coordinates with y pointing down.
//
// Graphviz measures in inches at 72 points per inch; this package treats one
// point as one pixel.
package dot
