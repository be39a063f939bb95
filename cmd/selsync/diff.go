package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/selsync/pkg/diff"
)

type diffChange struct {
	Reason string `json:"reason"`
	Item   string `json:"item"`
	Index  int    `json:"index"`
}

type diffResult struct {
	Changes []diffChange `json:"changes"`
	Result  []string     `json:"result"`
}

func diffCmd() *cobra.Command {
	var (
		from   []string
		to     []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Print the changes that turn one selection into another",
		Long: `Print the minimal add and remove steps that turn --from into --to.

Duplicates in --to collapse to their first occurrence. Indices are
positions in the list as it is at the moment each step is applied.

Examples:
  selsync diff --from a,b,c --to b,c,d
  selsync diff --from a,b --to b,a --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), from, to, asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&from, "from", nil, "Current items, comma separated")
	cmd.Flags().StringSliceVar(&to, "to", nil, "Desired items, comma separated")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func runDiff(w io.Writer, from, to []string, asJSON bool) error {
	tracked := diff.New(from...)
	cs := tracked.Edit(to)

	res := diffResult{Changes: []diffChange{}, Result: tracked.Items()}
	for _, c := range cs {
		res.Changes = append(res.Changes, diffChange{
			Reason: c.Reason.String(),
			Item:   c.Item,
			Index:  c.Index,
		})
	}
	if res.Result == nil {
		res.Result = []string{}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(cs) == 0 {
		fmt.Fprintln(w, "no changes")
	}
	for _, c := range cs {
		fmt.Fprintln(w, c.String())
	}
	fmt.Fprintf(w, "result: %v\n", res.Result)
	return nil
}
