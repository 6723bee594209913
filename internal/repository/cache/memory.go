package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain/repository"
)

// MemoryCache - in-memory backend поверх ttlcache.
// Используется, когда CACHE_BACKEND=memory (локальный запуск, тесты).
type MemoryCache struct {
	items  *ttlcache.Cache[string, []byte]
	logger *zap.Logger
	once   sync.Once
}

var _ repository.CacheRepository = (*MemoryCache)(nil)

// NewMemoryCache создаёт кеш и запускает удаление просроченных записей.
// capacity == 0 - без ограничения числа записей.
func NewMemoryCache(capacity uint64, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []ttlcache.Option[string, []byte]{
		// чтение не продлевает TTL, как и в Redis
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}

	c := &MemoryCache{
		items:  ttlcache.New[string, []byte](opts...),
		logger: logger,
	}
	c.items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, []byte]) {
		if reason == ttlcache.EvictionReasonCapacityReached {
			c.logger.Debug("Memory cache full, entry evicted", zap.String("key", item.Key()))
		}
	})
	go c.items.Start()
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, nil
	}
	v := item.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set с ttl <= 0 хранит значение без срока, как SET без EX в Redis.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.items.Set(key, stored, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.items.Delete(k)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	return c.items.Get(key) != nil, nil
}

// Len - число записей, включая ещё не удалённые просроченные.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}

// Close останавливает удаление просроченных записей.
func (c *MemoryCache) Close() error {
	c.once.Do(c.items.Stop)
	return nil
}
