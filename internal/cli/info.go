package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vgdist/pkg/pipeline"
)

// infoCommand creates the info command for summarizing an index.
func (c *CLI) infoCommand() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "info <index|graph.json>",
		Short: "Summarize an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := c.openIndex(cmd.Context(), args[0], pipeline.Options{Cap: capOverride(cmd, limit)})
			if err != nil {
				return err
			}
			idx := op.Index
			s := idx.Stats()
			lo, hi := idx.Bounds()

			fmt.Println(StyleTitle.Render("Index " + idx.ID().String()))
			printKeyValue("Node ids", fmt.Sprintf("%d..%d", lo, hi))
			printKeyValue("Nodes", fmt.Sprint(s.Nodes))
			printKeyValue("Regions", fmt.Sprint(s.Regions))
			printKeyValue("Chains", fmt.Sprintf("%d (%d top-level)", s.Chains, s.TopLevel))
			printKeyValue("Depth", fmt.Sprint(s.Depth))
			printKeyValue("Matrix", fmt.Sprintf("%d cells, widest %d visits", s.MatrixCells, s.MaxVisits))
			if idx.HasMax() {
				printKeyValue("Max cap", fmt.Sprint(s.Cap))
				printKeyValue("Components", fmt.Sprintf("%d (%d cyclic)", s.Components, s.Cycles))
			} else {
				printKeyValue("Max cap", StyleDim.Render("not built"))
			}
			if op.Cached {
				printDetail("loaded from cache")
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "cap", pipeline.DefaultCap, "estimator cap when indexing a document")
	return cmd
}
