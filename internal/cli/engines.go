package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/engine/dot"
	"github.com/matzehuels/autolayout/pkg/engine/remote"
)

// engineRow is one line of the engines listing.
type engineRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
	Active      bool   `json:"active"`
}

func (c *CLI) engineRows() []engineRow {
	remoteDetail := "not configured"
	if u := c.Config.Engine.Remote.URL; u != "" {
		remoteDetail = u
	}
	return []engineRow{
		{
			Name:        dot.Name,
			Description: "Graphviz dot, bundled",
			Detail:      fmt.Sprintf("nodesep %g", c.Config.Engine.Dot.NodeSep),
			Active:      c.Config.Engine.Name == config.EngineDot,
		},
		{
			Name:        remote.Name,
			Description: "ELK-compatible layout service over HTTP",
			Detail:      remoteDetail,
			Active:      c.Config.Engine.Name == config.EngineRemote,
		},
	}
}

// enginesCommand creates the engines command.
func (c *CLI) enginesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List available layout engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeEngines(cmd.OutOrStdout(), c.engineRows(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeEngines(w io.Writer, rows []engineRow, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		mark := ""
		if r.Active {
			mark = iconSuccess
		}
		cells = append(cells, []string{mark, r.Name, r.Description, r.Detail})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Engine", "Description", "Detail").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 0 {
				return base.Foreground(colorGreen)
			}
			if row < len(rows) && !rows[row].Active {
				return base.Foreground(colorGray)
			}
			return base
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Write(redacted(c.Config), cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	})
	return cmd
}

// redacted masks secrets before printing.
func redacted(cfg config.Config) config.Config {
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = "********"
	}
	return cfg
}
