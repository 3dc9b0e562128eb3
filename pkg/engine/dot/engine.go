package dot

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// Name identifies the engine in config, cache keys and the API.
const Name = "dot"

// formatPlain is Graphviz's line-oriented layout dump.
const formatPlain graphviz.Format = "plain"

// Engine is a layout.Engine backed by Graphviz dot. Each call creates its own
// Graphviz instance, so an Engine is safe for concurrent use.
type Engine struct {
	nodeSep float64
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNodeSep sets the gap between nodes of the same layer, in pixels.
func WithNodeSep(px float64) Option {
	return func(e *Engine) {
		if px > 0 {
			e.nodeSep = px
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates a dot engine.
func New(opts ...Option) *Engine {
	e := &Engine{nodeSep: DefaultNodeSep, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NodeSep returns the configured in-layer gap.
func (e *Engine) NodeSep() float64 { return e.nodeSep }

// Layout implements layout.Engine. Children missing from Graphviz output are
// dropped from g. Failures carry errors.ErrCodeEngineFailed.
func (e *Engine) Layout(ctx context.Context, g *layout.Graph) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "dot layout cancelled")
	}
	if len(g.Children) == 0 {
		return nil
	}

	start := time.Now()
	names := NodeNames(g)
	out, err := Render(ctx, ToDOT(g, e.nodeSep))
	if err != nil {
		return err
	}
	plain, err := ParsePlain(bytes.NewReader(out))
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineFailed, err, "read graphviz output")
	}

	byName := make(map[string]PlainNode, len(plain.Nodes))
	for _, n := range plain.Nodes {
		byName[n.Name] = n
	}
	kept := g.Children[:0]
	for _, c := range g.Children {
		if c == nil {
			continue
		}
		n, ok := byName[names[c.ID]]
		if !ok {
			e.logger.Debug("graphviz omitted node", "id", c.ID)
			continue
		}
		c.SetPosition(plain.TopLeft(n))
		kept = append(kept, c)
	}
	g.Children = kept

	e.logger.Debug("dot layout",
		"nodes", len(kept),
		"width", plain.Width*PointsPerInch,
		"height", plain.Height*PointsPerInch,
		"duration", time.Since(start))
	return nil
}

// Render runs Graphviz on a DOT source and returns plain-format output.
func Render(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineUnavailable, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, formatPlain, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "graphviz render")
	}
	return buf.Bytes(), nil
}

var _ layout.Engine = (*Engine)(nil)
