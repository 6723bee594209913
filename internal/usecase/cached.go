package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/pkg/metrics"
)

// cacheKey - "{mode}_{entity}_{id}_{facet}".
func cacheKey(mode, entity, id, facet string) string {
	return strings.Join([]string{mode, entity, id, facet}, "_")
}

// getOrCompute читает значение из кеша, при промахе вызывает supplier.
// Ошибки backend'а считаются промахом, ошибка supplier'а - пустым результатом.
// В кеш попадают только непустые значения.
func getOrCompute[T any](
	ctx context.Context,
	cache repository.CacheRepository,
	logger *zap.Logger,
	key string,
	ttl time.Duration,
	supplier func(ctx context.Context) (T, error),
	isEmpty func(T) bool,
) T {
	return getOrComputeFor(ctx, cache, logger, key, supplier, func(v T) time.Duration {
		if isEmpty(v) {
			return 0
		}
		return ttl
	})
}

// getOrComputeFor - то же, но срок хранения выбирается по значению; 0 - не кешировать.
func getOrComputeFor[T any](
	ctx context.Context,
	cache repository.CacheRepository,
	logger *zap.Logger,
	key string,
	supplier func(ctx context.Context) (T, error),
	ttlFor func(T) time.Duration,
) T {
	entity := cacheEntity(key)

	raw, err := cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheError(entity)
		logger.Warn("Cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
	case raw != nil:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.RecordCacheHit(entity)
			return cached
		}
		metrics.RecordCacheError(entity)
		logger.Warn("Failed to decode cached value", zap.String("key", key), zap.Error(err))
	default:
		metrics.RecordCacheMiss(entity)
	}

	value, err := supplier(ctx)
	if err != nil {
		logger.Error("Failed to compute value", zap.String("key", key), zap.Error(err))
		var zero T
		return zero
	}
	ttl := ttlFor(value)
	if ttl <= 0 {
		return value
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode value for cache", zap.String("key", key), zap.Error(err))
		return value
	}
	if err := cache.Set(ctx, key, encoded, ttl); err != nil {
		metrics.RecordCacheError(entity)
		logger.Warn("Failed to store value in cache", zap.String("key", key), zap.Error(err))
	}
	return value
}

func isEmptySlice[E any](s []E) bool {
	return len(s) == 0
}

// cacheEntity - метка для метрик: "{entity}_{facet}" без режима и id.
func cacheEntity(key string) string {
	parts := strings.Split(key, "_")
	if len(parts) < 4 {
		return key
	}
	return parts[1] + "_" + parts[len(parts)-1]
}
