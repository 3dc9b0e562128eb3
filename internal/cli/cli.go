// Package cli implements the autolayout command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/buildinfo"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the binary name used in help text.
const appName = "autolayout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool

	// engine replaces the configured engine when set.
	engine layout.Engine
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Autolayout positions diagram nodes with a layered graph layout",
		Long: `Autolayout takes diagram nodes with known sizes and the edges between
them, hands them to a layered layout engine (Graphviz dot or a remote ELK
service) and writes the computed positions and connector sides back.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/autolayout/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.enginesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves .env, the config file and AUTOLAYOUT_* overrides.
func (c *CLI) loadConfig() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "engine", cfg.Engine.Name, "cache", cfg.Cache.Backend)
	return nil
}

// Execute builds the command tree and runs it with ctx.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
