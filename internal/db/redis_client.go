package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mvc-server/internal/config"
)

const (
	defaultPoolSize     = 200
	defaultMinIdleConns = 20
	ioTimeout           = 3 * time.Second
)

// NewRedisClient builds a pooled client and pings it once. The client is
// closed again when the ping fails.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.MinIdleConns <= 0 {
		cfg.MinIdleConns = defaultMinIdleConns
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  ioTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Ping reports whether the server answers within the io timeout.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// StartHealthCheck pings client every interval until ctx is done. It only
// probes; the client is never closed or rebuilt here.
func StartHealthCheck(ctx context.Context, client *redis.Client, logger *zap.Logger, interval time.Duration) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := Ping(ctx, client); err != nil && ctx.Err() == nil {
					logger.Warn("redis ping failed",
						zap.String("addr", client.Options().Addr),
						zap.String("reason", err.Error()),
					)
				}
			}
		}
	}()
}
