package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/tabgrouper/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and the CDP client modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return version.Read().Write(cmd.OutOrStdout())
		},
	}
}
