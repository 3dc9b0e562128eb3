package layout

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autolayout/pkg/diagram"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/observability"
)

// Engine computes a layered layout by setting X and Y on g.Children.
// Engines may drop children they could not place. Implementations must be
// safe for concurrent use.
type Engine interface {
	Layout(ctx context.Context, g *Graph) error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, g *Graph) error

// Layout calls f(ctx, g).
func (f EngineFunc) Layout(ctx context.Context, g *Graph) error { return f(ctx, g) }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLayerSpacing overrides DefaultLayerSpacing. Non-positive values are
// ignored.
func WithLayerSpacing(spacing float64) Option {
	return func(o *Orchestrator) {
		if spacing > 0 {
			o.spacing = spacing
		}
	}
}

// Orchestrator runs projection, delegation and reconciliation.
//
// It holds no mutable state, so one Orchestrator can serve overlapping calls.
// Overlapping calls are not serialised or cancelled; callers that need only
// the latest result must discard stale ones themselves.
type Orchestrator struct {
	engine  Engine
	logger  *log.Logger
	spacing float64
}

// New creates an orchestrator delegating to engine.
func New(engine Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:  engine,
		logger:  log.Default(),
		spacing: DefaultLayerSpacing,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LayerSpacing returns the configured layer spacing.
func (o *Orchestrator) LayerSpacing() float64 { return o.spacing }

// Layout positions nodes in direction dir and returns a new slice in input
// order. An empty dir means diagram.DefaultDirection. Errors from the engine
// are returned unchanged and no partial result is produced.
func (o *Orchestrator) Layout(ctx context.Context, surface Surface, nodes []diagram.Node, edges []diagram.Edge, dir diagram.Direction) ([]diagram.Node, error) {
	out, err := o.Run(ctx, surface, nodes, edges, dir)
	return out.Nodes, err
}

// Outcome is the result of one layout run.
type Outcome struct {
	// Nodes has one entry per input node, in input order.
	Nodes []diagram.Node
	// Placed counts the nodes positioned by this run. Nodes passed through
	// with a position from an earlier run are not included.
	Placed int
}

// Run is Layout that also reports how many nodes were placed.
func (o *Orchestrator) Run(ctx context.Context, surface Surface, nodes []diagram.Node, edges []diagram.Edge, dir diagram.Direction) (Outcome, error) {
	dir = dir.OrDefault()
	if !dir.Valid() {
		return Outcome{}, errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q (must be LR or TB)", string(dir))
	}
	if o.engine == nil {
		return Outcome{}, errors.New(errors.ErrCodeEngineUnavailable, "no layout engine configured")
	}

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, string(dir), len(nodes), len(edges))
	start := time.Now()

	g := Project(surface, nodes, edges, dir, o.spacing)
	o.logger.Debug("projected graph",
		"direction", dir,
		"children", len(g.Children),
		"skipped", len(nodes)-len(g.Children),
		"edges", len(g.Edges))

	if err := o.engine.Layout(ctx, g); err != nil {
		hooks.OnLayoutComplete(ctx, string(dir), 0, time.Since(start), err)
		o.logger.Debug("layout engine failed", "error", err)
		return Outcome{}, err
	}

	res := Collect(g)
	out := Reconcile(nodes, res, dir)
	n := placed(nodes, res)

	hooks.OnLayoutComplete(ctx, string(dir), n, time.Since(start), nil)
	o.logger.Debug("reconciled layout",
		"placed", n,
		"unchanged", len(nodes)-n,
		"duration", time.Since(start))
	return Outcome{Nodes: out, Placed: n}, nil
}

// State remembers the most recently requested direction. The zero value
// means diagram.DefaultDirection.
type State struct {
	Previous diagram.Direction `json:"previous_direction,omitempty"`
}

// Direction returns the remembered direction or the default.
func (s State) Direction() diagram.Direction { return s.Previous.OrDefault() }

// Apply is Layout with an explicit remembered direction. An empty dir falls
// back to state's direction. The returned State records the direction of
// this call, whether or not the engine succeeded; invalid directions leave
// state unchanged.
func (o *Orchestrator) Apply(ctx context.Context, state State, surface Surface, nodes []diagram.Node, edges []diagram.Edge, dir diagram.Direction) ([]diagram.Node, State, error) {
	if dir == "" {
		dir = state.Direction()
	}
	if !dir.Valid() {
		return nil, state, errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q (must be LR or TB)", string(dir))
	}
	next := State{Previous: dir}
	out, err := o.Layout(ctx, surface, nodes, edges, dir)
	return out, next, err
}
