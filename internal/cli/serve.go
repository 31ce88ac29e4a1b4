package cli

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vgdist/internal/server"
	"github.com/matzehuels/vgdist/pkg/pipeline"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	listen     string
	queryCache int
	cap        int64
}

// serveCommand creates the serve command for the HTTP query API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve <index|graph.json>",
		Short: "Serve distance queries over HTTP",
		Long: `Load an index and answer distance queries over HTTP.

Routes:
  GET /v1/min?from=1:0&to=4:1    minimum distance
  GET /v1/max?from=1:0&to=4:1    max-distance bound
  GET /v1/snarl/{node}           region containing a node
  GET /v1/info                   index summary
  GET /healthz                   liveness
  GET /metrics                   Prometheus metrics`,
		Example: `  vgdist serve graph.vgdi
  vgdist serve graph.json --listen 127.0.0.1:9000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default from config, :8080)")
	cmd.Flags().IntVar(&opts.queryCache, "query-cache", 0, "answers kept in memory (default from config)")
	cmd.Flags().Int64Var(&opts.cap, "cap", pipeline.DefaultCap, "estimator cap when indexing a document")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, input string, opts serveOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	listen := cfg.Server.Listen
	if opts.listen != "" {
		listen = opts.listen
	}
	size := cfg.Server.QueryCacheSize
	if cmd.Flags().Changed("query-cache") {
		size = opts.queryCache
	}

	// Register before loading so index build and cache events are counted.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server.NewMetrics(reg).Register()

	op, err := c.openIndex(ctx, input, pipeline.Options{Cap: capOverride(cmd, opts.cap)})
	if err != nil {
		return err
	}
	srv, err := server.New(op.Index, server.Options{
		Logger:         c.Logger,
		QueryCacheSize: size,
		Gatherer:       reg,
	})
	if err != nil {
		return err
	}

	printSuccess("Serving index %s", op.Index.ID())
	printKeyValue("Listen", listen)
	printNextStep("Try", "curl 'http://"+displayAddr(listen)+"/v1/info'")

	if err := srv.ListenAndServe(ctx, listen); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	c.Logger.Info("server stopped")
	return nil
}

// displayAddr turns a bare ":port" listen address into one curl accepts.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
