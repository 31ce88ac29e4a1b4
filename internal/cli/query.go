package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vgdist/pkg/errors"
	"github.com/matzehuels/vgdist/pkg/pipeline"
)

// queryOpts holds the flags of the query command.
type queryOpts struct {
	max     bool
	jsonOut bool
	cap     int64
}

// queryResult is one answered pair in --json output.
type queryResult struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Kind      string `json:"kind"`
	Reachable bool   `json:"reachable"`
	Distance  *int64 `json:"distance,omitempty"`
	Saturated bool   `json:"saturated,omitempty"`
}

// queryCommand creates the query command for answering distance queries.
func (c *CLI) queryCommand() *cobra.Command {
	opts := queryOpts{}

	cmd := &cobra.Command{
		Use:   "query <index|graph.json> <from> <to> [<from> <to>...]",
		Short: "Answer distance queries between positions",
		Long: `Answer minimum (or, with --max, maximum) distance queries.

Positions are written node:offset for the forward strand and
node:offset:- for the reverse strand. A JSON document is indexed first,
using the cache.`,
		Example: `  vgdist query graph.vgdi 1:0 4:1
  vgdist query graph.json 2:3:- 7:0 --max
  vgdist query graph.vgdi 1:0 4:1 1:0 9:2 --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || (len(args)-1)%2 != 0 {
				return errors.New(errors.ErrCodeInvalidInput, "expected an input followed by from/to position pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.max, "max", false, "report the max-distance upper bound")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")
	cmd.Flags().Int64Var(&opts.cap, "cap", pipeline.DefaultCap, "estimator cap when indexing a document")

	return cmd
}

func (c *CLI) runQuery(cmd *cobra.Command, input string, pairs []string, opts queryOpts) error {
	ctx := cmd.Context()
	op, err := c.openIndex(ctx, input, pipeline.Options{Cap: capOverride(cmd, opts.cap)})
	if err != nil {
		return err
	}

	var results []queryResult
	for i := 0; i < len(pairs); i += 2 {
		p1, p2, err := parsePair(pairs[i], pairs[i+1])
		if err != nil {
			return err
		}
		r := queryResult{From: p1.String(), To: p2.String(), Kind: "min"}
		if opts.max {
			r.Kind = "max"
			b, err := op.Index.MaxDistance(p1, p2)
			if err != nil {
				return err
			}
			v := b.Value()
			r.Reachable, r.Distance, r.Saturated = true, &v, b.Saturated()
		} else {
			d, err := op.Index.MinDistance(p1, p2)
			if err != nil {
				return err
			}
			if v, ok := d.Value(); ok {
				r.Reachable, r.Distance = true, &v
			}
		}
		results = append(results, r)
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		printDistance(r)
	}
	return nil
}
