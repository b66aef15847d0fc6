package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mvc-server/internal/config"
	"mvc-server/internal/db"
	"mvc-server/internal/transport"
)

const redisCheckInterval = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap the application and serve HTTP and websocket requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve runs the public listener, the admin listener and the background
// loops until ctx is done or one of them fails.
func serve(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (err error) {
	rt, err := newRuntime(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("bootstrap failed", zap.Error(err))
		return err
	}
	defer func() { err = multierr.Append(err, rt.Close()) }()

	mux, err := transport.NewRouter(rt.app, transport.RouterOptions{
		WebsocketPath: cfg.WebsocketPath,
		Frames:        rt.metrics,
		Logger:        logger.Named("http"),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.Serve(gctx, transport.NewServer(gctx, cfg.ListenAddr, mux), logger.Named("http"))
	})

	if cfg.AdminAddr != "" {
		admin := transport.NewAdminRouter(transport.AdminOptions{
			Metrics: rt.metrics.Handler(),
			Routes:  rt.app.Routes,
			Health:  rt.health,
			Logger:  logger.Named("admin"),
		})
		g.Go(func() error {
			return transport.Serve(gctx, transport.NewServer(gctx, cfg.AdminAddr, admin), logger.Named("admin"))
		})
	}

	g.Go(func() error {
		rt.metrics.ReportStats(gctx, logger.Named("stats"), time.Duration(cfg.StatsIntervalSec)*time.Second)
		return nil
	})

	if rt.redis != nil {
		db.StartHealthCheck(gctx, rt.redis, logger.Named("redis"), redisCheckInterval)
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
