package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vgdist/pkg/pipeline"
)

// buildOpts holds the flags of the build command.
type buildOpts struct {
	output  string
	cap     int64
	refresh bool
}

// buildCommand creates the build command for indexing a graph document.
func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{}

	cmd := &cobra.Command{
		Use:   "build <graph.json>",
		Short: "Build a distance index",
		Long: `Build a distance index from a JSON graph document and write it to disk.

The document holds the graph's nodes and edges together with its snarl
decomposition. The index is cached by content, so rebuilding an unchanged
document loads the cached index instead.`,
		Example: `  vgdist build graph.json
  vgdist build graph.json -o graph.vgdi --cap 50000
  vgdist build graph.json --cap 0   # minimum distances only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output index file (default: input with .vgdi)")
	cmd.Flags().Int64Var(&opts.cap, "cap", pipeline.DefaultCap, "max-distance estimator cap (0 disables)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "rebuild even if a cached index exists")

	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, input string, opts buildOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Building index...")
	spinner.Start()
	popts := pipeline.Options{Input: input, Cap: capOverride(cmd, opts.cap), Refresh: opts.refresh}
	if popts.Cap < 0 {
		popts.Cap = cfg.Cap
	}
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	out := indexPath(opts.output, input)
	if err := runner.SaveFile(result.Index, out); err != nil {
		return err
	}
	stats := result.Index.Stats()
	prog.done("Built index", "id", result.ID(), "cached", result.CacheInfo.IndexHit)

	printSuccess("Index ready")
	printStats(stats.Nodes, stats.Regions, stats.Chains, result.CacheInfo.IndexHit)
	printFile(out)
	printNextStep("Query it", fmt.Sprintf("vgdist query %s 1:0 2:0", out))
	return nil
}
