package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"metrologi/internal/platform/httpserver"
	"metrologi/migrations"
)

type serveOptions struct {
	Migrate bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the calibration expiry scanner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("close backends", "error", err)
				}
			}()

			if opts.Migrate && a.db != nil {
				if err := migrations.Up(ctx, a.db); err != nil {
					return err
				}
				logger.InfoContext(ctx, "migrations applied")
			}

			srv := httpserver.New(cfg.Server, a.router)
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.InfoContext(gctx, "starting metrologi", "addr", cfg.Server.Addr, "environment", cfg.Environment)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			if cfg.Scanner.Enabled {
				g.Go(func() error {
					logger.InfoContext(gctx, "expiry scanner started", "interval", cfg.Scanner.Interval)
					if err := a.scanner.Start(gctx, cfg.Scanner.Interval); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
