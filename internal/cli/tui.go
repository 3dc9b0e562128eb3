package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/autolayout/pkg/diagram"
	"github.com/matzehuels/autolayout/pkg/layout"
)

var (
	previewKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	previewHelpStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PreviewModel - Interactive layout preview
// =============================================================================

// layoutDoneMsg carries the result of one layout run. gen identifies the
// request; results from superseded requests are dropped.
type layoutDoneMsg struct {
	gen     int
	outcome layout.Outcome
	dir     diagram.Direction
	err     error
	elapsed time.Duration
}

// writeDoneMsg reports the outcome of writing the document.
type writeDoneMsg struct {
	path string
	err  error
}

// PreviewModel is the bubbletea model for the preview command. It lays out
// the document, shows the positions and lets the user flip the direction.
type PreviewModel struct {
	ctx    context.Context
	orch   *layout.Orchestrator
	doc    *diagram.Document
	output string

	dir     diagram.Direction
	state   layout.State
	nodes   []diagram.Node
	placed  int
	gen     int
	running bool
	elapsed time.Duration
	err     error
	status  string
}

// NewPreviewModel creates a preview for doc starting in dir. Writes go to
// output.
func NewPreviewModel(ctx context.Context, orch *layout.Orchestrator, doc *diagram.Document, dir diagram.Direction, output string) PreviewModel {
	return PreviewModel{
		ctx:     ctx,
		orch:    orch,
		doc:     doc,
		output:  output,
		dir:     dir,
		state:   layout.State{Previous: doc.Direction},
		nodes:   doc.Nodes,
		running: true,
	}
}

// Direction returns the direction currently shown.
func (m PreviewModel) Direction() diagram.Direction { return m.dir }

// Nodes returns the most recent layout result.
func (m PreviewModel) Nodes() []diagram.Node { return m.nodes }

// Err returns the error of the last layout or write, if any.
func (m PreviewModel) Err() error { return m.err }

func (m PreviewModel) Init() tea.Cmd {
	return m.layoutCmd(m.gen)
}

// relayout starts a new run and invalidates any in flight.
func (m PreviewModel) relayout() (PreviewModel, tea.Cmd) {
	m.gen++
	m.running = true
	m.status = ""
	return m, m.layoutCmd(m.gen)
}

func (m PreviewModel) layoutCmd(gen int) tea.Cmd {
	ctx, orch, doc, dir := m.ctx, m.orch, m.doc, m.dir
	return func() tea.Msg {
		start := time.Now()
		out, err := orch.Run(ctx, doc.Dimensions, doc.Nodes, doc.Edges, dir)
		loggerFromContext(ctx).Debug("preview layout", "gen", gen, "direction", dir, "placed", out.Placed, "error", err)
		return layoutDoneMsg{gen: gen, outcome: out, dir: dir, err: err, elapsed: time.Since(start)}
	}
}

func (m PreviewModel) writeCmd() tea.Cmd {
	out := *m.doc
	out.Nodes = m.nodes
	out.Direction = m.state.Previous
	path := m.output
	return func() tea.Msg {
		return writeDoneMsg{path: path, err: diagram.WriteFile(&out, path)}
	}
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "d":
			m.dir = m.dir.Flip()
			return m.relayout()
		case "r":
			return m.relayout()
		case "w":
			if m.running || m.err != nil {
				return m, nil
			}
			return m, m.writeCmd()
		}

	case layoutDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.running = false
		m.state = layout.State{Previous: msg.dir}
		m.elapsed = msg.elapsed
		m.err = msg.err
		if msg.err == nil {
			m.nodes = msg.outcome.Nodes
			m.placed = msg.outcome.Placed
		}

	case writeDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "wrote " + msg.path
		}
	}
	return m, nil
}

func (m PreviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout preview"))
	b.WriteString("  ")
	b.WriteString(StyleValue.Render(m.dir.String()))
	b.WriteString("\n\n")

	b.WriteString(positionsTable(m.nodes))
	b.WriteString("\n")

	switch {
	case m.running:
		b.WriteString(styleIconSpinner.Render("⠋") + " laying out...")
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + StyleError.Render(m.err.Error()))
	default:
		b.WriteString(formatStats(layoutStats{
			Placed: m.placed,
			Nodes:  len(m.nodes),
			Edges:  len(m.doc.Edges),
		}))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" · %s", m.elapsed.Round(time.Millisecond))))
	}
	if m.status != "" {
		b.WriteString("\n" + styleIconSuccess.Render(iconSuccess) + " " + m.status)
	}

	b.WriteString("\n\n")
	b.WriteString(previewHelp("d", "flip direction") + "  ")
	b.WriteString(previewHelp("r", "rerun") + "  ")
	b.WriteString(previewHelp("w", "write "+m.output) + "  ")
	b.WriteString(previewHelp("q", "quit"))
	b.WriteString("\n")
	return b.String()
}

func previewHelp(key, desc string) string {
	return previewKeyStyle.Render(key) + " " + previewHelpStyle.Render(desc)
}
