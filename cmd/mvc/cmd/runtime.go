package cmd

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mvc-server/internal/component"
	"mvc-server/internal/config"
	"mvc-server/internal/db"
	"mvc-server/internal/dispatch"
	"mvc-server/internal/metrics"
)

// RedisBean is the bean name the configured redis client is exposed under.
const RedisBean = "redisClient"

type runtime struct {
	app     *dispatch.Server
	metrics *metrics.Metrics
	redis   *redis.Client
}

// newRuntime connects external resources and bootstraps the application.
// Without withRedis the client is never dialled and optional consumers fall
// back to their local behaviour.
func newRuntime(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, withRedis bool) (*runtime, error) {
	rt := &runtime{metrics: metrics.New()}
	opts := []dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithObserver(rt.metrics),
	}

	if withRedis && cfg.Redis.Enabled() {
		client, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rt.redis = client
		opts = append(opts, dispatch.WithBean(RedisBean, client))
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	app, err := dispatch.Bootstrap(cfg, component.Default, opts...)
	if err != nil {
		if rt.redis != nil {
			err = multierr.Append(err, rt.redis.Close())
		}
		return nil, err
	}
	rt.app = app
	rt.metrics.SetInventory(len(app.Routes()), len(app.Beans().Names()))
	return rt, nil
}

func (rt *runtime) health(ctx context.Context) error {
	if rt.redis == nil {
		return nil
	}
	return db.Ping(ctx, rt.redis)
}

func (rt *runtime) Close() error {
	err := rt.app.Close()
	if rt.redis != nil {
		err = multierr.Append(err, rt.redis.Close())
	}
	return err
}
