package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the spool directory and rebuild the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := appCtx.Spool.Load(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d articles (%d failed, %d duplicates)\n",
			stats.Loaded, stats.Failed, stats.Duplicates)
		return nil
	},
}
