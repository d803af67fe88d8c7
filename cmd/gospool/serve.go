package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/datallboy/gospool/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the spool and serve it over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// cancelled on Ctrl+C or SIGTERM
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := appCtx.Spool.Load(ctx); err != nil {
			return err
		}

		e := echo.New()
		api.RegisterRoutes(e, appCtx)

		srv := &http.Server{
			Addr:              ":" + appCtx.Config.Port,
			Handler:           e,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			appCtx.Logger.Info("Serving %d articles on %s", appCtx.Spool.Len(), srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			appCtx.Logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}
