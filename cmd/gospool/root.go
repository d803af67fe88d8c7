package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datallboy/gospool/internal/app"
	"github.com/datallboy/gospool/internal/infra/config"
	"github.com/datallboy/gospool/internal/infra/logger"
)

var (
	cfgFile string
	appCtx  *app.Context
)

var rootCmd = &cobra.Command{
	Use:   "gospool",
	Short: "News article spool with an overview index",
	Long: `gospool keeps a directory of RFC 822 news articles, indexes them by
message-id and newsgroup, and serves them over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appCtx == nil {
			return nil
		}
		err := appCtx.Close()
		appCtx.Logger.Close()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd, indexCmd, showCmd, overCmd, fetchCmd)
}

func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	appCtx = app.NewContext(cfg, log)
	if err := appCtx.OpenSpool(cmd.Context()); err != nil {
		log.Close()
		return fmt.Errorf("failed to open spool: %w", err)
	}
	return nil
}
