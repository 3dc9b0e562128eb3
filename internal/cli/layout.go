package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/diagram"
)

// layoutFlags are the flags shared by layout and preview.
type layoutFlags struct {
	direction string
	engine    string
	cache     string
	noCache   bool
	spacing   float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "layout direction: LR or TB (default: the document's, then config)")
	cmd.Flags().StringVar(&f.engine, "engine", "", "layout engine: dot, remote (default: config)")
	cmd.Flags().StringVar(&f.cache, "cache", "", "cache backend: none, memory, file, redis, mongo (default: config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&f.spacing, "spacing", 0, "spacing between layers (default: config)")
}

func (f layoutFlags) runOptions() runOptions {
	return runOptions{Engine: f.engine, Cache: f.cache, NoCache: f.noCache, Spacing: f.spacing}
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags     layoutFlags
		output    string
		showTable bool
	)

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Compute node positions for a diagram",
		Long: `Compute node positions for a diagram.

The input is a JSON or YAML document with nodes, edges and the measured
dimensions of each node. Nodes without dimensions keep their current
position. The output is the same document with positions and connector
sides filled in, written to <input>.layout.<ext> unless -o is given.

The direction is taken from -d, then from the document's own direction,
then from the config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, flags, showTable)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.<ext>)")
	cmd.Flags().BoolVar(&showTable, "table", false, "print a table of computed positions")

	return cmd
}

// runLayout reads input, lays it out and writes the result.
func (c *CLI) runLayout(ctx context.Context, input, output string, flags layoutFlags, showTable bool) error {
	doc, err := diagram.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}
	dir, err := c.resolveDirection(flags.direction, doc)
	if err != nil {
		return err
	}
	if len(doc.Dimensions) == 0 && len(doc.Nodes) > 0 {
		printWarning("%s has no dimensions; no node will be placed", input)
	}

	rt, err := c.newRuntime(ctx, flags.runOptions())
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer rt.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Laying out %d nodes %s...", len(doc.Nodes), dir))
	spinner.Start()

	prog := newProgress(loggerFromContext(ctx))
	res, err := rt.Orch.Run(ctx, doc.Dimensions, doc.Nodes, doc.Edges, dir)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	prog.done(fmt.Sprintf("laid out %d nodes", res.Placed))

	doc.Nodes = res.Nodes
	doc.Direction = dir

	outputPath := output
	if outputPath == "" {
		outputPath = defaultLayoutPath(input)
	}
	if err := diagram.WriteFile(doc, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (%s, %s)", dir, rt.Engine)
	printFile(outputPath)
	printStats(layoutStats{
		Placed: res.Placed,
		Nodes:  len(res.Nodes),
		Edges:  len(doc.Edges),
		Cached: rt.EngineCalls() == 0 && res.Placed > 0,
	})
	if showTable {
		printNewline()
		fmt.Println(positionsTable(res.Nodes))
	}
	printNewline()
	printNextStep("Flip direction", fmt.Sprintf("%s layout %s -d %s", appName, outputPath, dir.Flip()))

	return nil
}

// resolveDirection picks the direction from the flag, the document, or the
// config, in that order.
func (c *CLI) resolveDirection(flag string, doc *diagram.Document) (diagram.Direction, error) {
	if flag != "" {
		return diagram.ParseDirection(flag)
	}
	if doc.Direction != "" {
		return doc.Direction, nil
	}
	return c.Config.DefaultDirection(), nil
}

// defaultLayoutPath turns "flow.json" into "flow.layout.json".
func defaultLayoutPath(input string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".json"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout" + ext
}
