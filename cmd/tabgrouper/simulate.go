package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/core"
	"pkt.systems/tabgrouper/internal/scenario"
	"pkt.systems/tabgrouper/schema"
)

func newSimulateCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "simulate FILE",
		Short: "Group a yaml tab scenario in memory and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			colors := core.ColorPicker(core.RandomColor)
			if color != "" {
				fixed, err := schema.NormalizeColor(color)
				if err != nil {
					return fmt.Errorf("--color: %w", err)
				}
				colors = func() schema.Color { return fixed }
			}
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			report, runErr := scenario.Run(cmd.Context(), sc, colors)
			if runErr != nil {
				pslog.Ctx(cmd.Context()).Warn("simulate run incomplete", "err", runErr)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "use this color for new groups instead of a random one")
	return cmd
}
