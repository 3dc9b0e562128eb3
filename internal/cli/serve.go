package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/internal/server"
	"github.com/matzehuels/autolayout/pkg/config"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		flags layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Endpoints:
  POST /api/v1/layout    lay out a diagram document
  GET  /api/v1/engines   describe the configured engine
  GET  /api/v1/version   build information
  GET  /healthz          liveness probe
  GET  /metrics          Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, flags)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr)")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "layout engine: dot, remote (default: config)")
	cmd.Flags().StringVar(&flags.cache, "cache", "", "cache backend: none, memory, file, redis, mongo (default: config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&flags.spacing, "spacing", 0, "spacing between layers (default: config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, flags layoutFlags) error {
	rt, err := c.newRuntime(ctx, flags.runOptions())
	if err != nil {
		return err
	}
	defer rt.Close()

	srvCfg := c.Config.Server
	if addr != "" {
		srvCfg.Addr = addr
	}

	metrics := server.NewMetrics()
	metrics.Install()

	srv := server.New(rt.Orch, server.Options{
		Config:           srvCfg,
		Engine:           c.engineInfo(rt),
		DefaultDirection: c.Config.DefaultDirection(),
		Logger:           c.Logger,
		Metrics:          metrics,
	})
	return srv.Run(ctx)
}

// engineInfo describes the runtime's engine for the engines endpoint and
// command.
func (c *CLI) engineInfo(rt *runtime) server.EngineInfo {
	info := server.EngineInfo{
		Name:         rt.Engine,
		LayerSpacing: rt.Orch.LayerSpacing(),
		Cache:        rt.Cache,
	}
	switch rt.Engine {
	case config.EngineDot:
		info.Options = map[string]any{"node_sep": c.Config.Engine.Dot.NodeSep}
	case config.EngineRemote:
		r := c.Config.Engine.Remote
		info.Options = map[string]any{
			"url":      r.URL,
			"timeout":  r.Timeout.String(),
			"attempts": r.Attempts,
		}
	}
	return info
}
