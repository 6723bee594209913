package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/transit-aggregator/internal/config"
	"go.uber.org/zap"
)

const (
	redisPingTimeout = 5 * time.Second
	// чтение из кеша не должно держать запрос дольше ответа провайдера
	redisCacheReadTimeout = 2 * time.Second
)

type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis - клиент кеша ответов. Недоступный redis роняет старт,
// переключение на memory делается через CACHE_BACKEND.
func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client, err := dialRedis(cfg, &redis.Options{
		ClientName:   "transit-aggregator-cache",
		ReadTimeout:  redisCacheReadTimeout,
		WriteTimeout: redisCacheReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", client.Options().Addr),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", client.Options().PoolSize),
	)

	return &Redis{
		client: client,
		logger: logger,
	}, nil
}

// dialRedis дополняет opts адресом из cfg и проверяет соединение.
// При неудачном ping клиент закрывается.
func dialRedis(cfg *config.RedisConfig, opts *redis.Options) (*redis.Client, error) {
	opts.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	opts.Password = cfg.Password
	opts.DB = cfg.DB
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (r *Redis) Close() error {
	stats := r.client.PoolStats()
	r.logger.Info("Closing Redis connection",
		zap.Uint32("hits", stats.Hits),
		zap.Uint32("misses", stats.Misses),
		zap.Uint32("timeouts", stats.Timeouts),
	)
	return r.client.Close()
}

func (r *Redis) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (r *Redis) Client() *redis.Client {
	return r.client
}
