package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/tabgrouper/core"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify URL...",
		Short: "Print the grouping key for each url",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, raw := range args {
				key, ok := core.ClassifyContext(cmd.Context(), raw)
				value := string(key)
				if !ok {
					value = "-"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\n", raw, value); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
}
