package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/diagram"
)

// previewCommand creates the interactive preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "preview [diagram.json]",
		Short: "Interactively lay out a diagram and flip its direction",
		Long: `Interactively lay out a diagram and flip its direction.

Keys:
  d   flip between left-to-right and top-to-bottom
  r   run the layout again
  w   write the current result
  q   quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], output, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "file written by w (default: <input>.layout.<ext>)")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input, output string, flags layoutFlags) error {
	doc, err := diagram.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}
	dir, err := c.resolveDirection(flags.direction, doc)
	if err != nil {
		return err
	}

	rt, err := c.newRuntime(ctx, flags.runOptions())
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer rt.Close()

	if output == "" {
		output = defaultLayoutPath(input)
	}

	m := NewPreviewModel(ctx, rt.Orch, doc, dir, output)
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if pm, ok := final.(PreviewModel); ok && pm.Err() != nil {
		return pm.Err()
	}
	return nil
}
