package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datallboy/gospool/internal/article"
	"github.com/datallboy/gospool/internal/domain"
)

var overCmd = &cobra.Command{
	Use:   "over <group> [range]",
	Short: "Print overview lines for a newsgroup",
	Long: fmt.Sprintf(`Print one overview line per article in the group, prefixed with the
article number. Fields: %v.

Range is n, n- or n-m; all articles when omitted.`, article.OverviewFormat()),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rng string
		if len(args) == 2 {
			rng = args[1]
		}
		low, high, err := domain.ParseRange(rng)
		if err != nil {
			return err
		}

		lines, err := appCtx.Index.Overview(cmd.Context(), args[0], low, high)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		for _, l := range lines {
			fmt.Fprintln(out, l.String())
		}
		return nil
	},
}
