package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datallboy/gospool/internal/domain"
	"github.com/datallboy/gospool/internal/nntp"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <message-id>",
	Short: "Pull an article from the upstream servers into the spool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		msgID := args[0]

		if _, err := appCtx.Index.GetArticle(ctx, msgID); err == nil {
			return fmt.Errorf("%s: %w", msgID, domain.ErrDuplicateArticle)
		} else if !errors.Is(err, domain.ErrArticleNotFound) {
			return err
		}

		mgr, err := nntp.NewManager(appCtx)
		if err != nil {
			return err
		}
		appCtx.NNTP = mgr

		r, err := appCtx.NNTP.Fetch(ctx, msgID)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", msgID, err)
		}

		a, numbers, err := appCtx.Spool.Put(ctx, r)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "stored %s %v\n", a.ID(), numbers)
		return nil
	},
}
