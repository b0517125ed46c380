package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/taskapi/internal/app"
	"github.com/stolasapp/taskapi/internal/config"
	"github.com/stolasapp/taskapi/internal/devseed"
	"github.com/stolasapp/taskapi/internal/server"
	"github.com/stolasapp/taskapi/internal/tasks"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the task list JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			// In dev mode, make sure there is someone to log in as
			if cfg.DevMode {
				if _, err = devseed.Populate(cmd.Context(), store, logger, devseed.Seed()); err != nil {
					return err
				}
			}

			appServer, err := app.New(cfg, logger, store, tasks.New(store, logger))
			if err != nil {
				return err
			}

			grp, ctx := errgroup.WithContext(cmd.Context())
			serveApp(ctx, grp, cfg, logger, appServer)
			return grp.Wait()
		},
	}
}

func serveApp(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	listener, err := server.Listen(ctx, cfg.Address)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting app server...",
		slog.String("address", listener.Addr().String()),
		slog.String("driver", cfg.Database.Driver),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.ShutdownTimeout)
}
