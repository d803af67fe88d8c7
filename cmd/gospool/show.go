package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datallboy/gospool/internal/article"
)

var showPart string

var showCmd = &cobra.Command{
	Use:   "show <message-id>",
	Short: "Print an indexed article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := appCtx.Index.GetArticle(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		a, err := article.New(rec.Path)
		if err != nil {
			return err
		}

		var data []byte
		switch showPart {
		case "head":
			data, err = a.Head()
		case "body":
			data, err = a.Body()
		case "all":
			data, err = a.Content()
		default:
			return fmt.Errorf("unknown part %q (want head, body or all)", showPart)
		}
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	showCmd.Flags().StringVar(&showPart, "part", "all", "part to print: head, body or all")
}
