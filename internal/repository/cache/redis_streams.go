package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/transit-aggregator/internal/config"
	"go.uber.org/zap"
)

// NewRedisStreams creates a dedicated Redis client for stream operations
// (sync requests, alert notifications). Blocking XREADGROUP calls hold a
// connection for the whole block window, so they get their own pool.
func NewRedisStreams(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client, err := dialRedis(cfg, &redis.Options{ClientName: "transit-aggregator-streams"})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis streams: %w", err)
	}

	logger.Info("Redis Streams connected",
		zap.String("addr", client.Options().Addr),
		zap.Int("db", cfg.DB),
	)

	return client, nil
}
