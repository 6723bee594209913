// Package gtfsstatic - статическое расписание GTFS (zip) для Rodalies и FGC.
package gtfsstatic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jamespfennell/gtfs"
	"go.uber.org/zap"
)

// Fetcher - источник zip-архива; реализуется httpclient.Client.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client держит разобранный архив в памяти и перечитывает его не чаще reloadTTL.
type Client struct {
	fetcher   Fetcher
	url       string
	reloadTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	static   *gtfs.Static
	loadedAt time.Time
}

func NewClient(fetcher Fetcher, url string, reloadTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{
		fetcher:   fetcher,
		url:       url,
		reloadTTL: reloadTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Load возвращает расписание. При ошибке перезагрузки отдаётся предыдущая версия, если она есть.
func (c *Client) Load(ctx context.Context) (*gtfs.Static, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.static != nil && c.now().Sub(c.loadedAt) < c.reloadTTL {
		return c.static, nil
	}

	start := c.now()
	body, err := c.fetcher.Get(ctx, c.url)
	if err == nil {
		var static *gtfs.Static
		static, err = gtfs.ParseStatic(body, gtfs.ParseStaticOptions{})
		if err == nil {
			c.static = static
			c.loadedAt = c.now()
			c.logger.Info("GTFS static loaded",
				zap.String("url", c.url),
				zap.Int("routes", len(static.Routes)),
				zap.Int("stops", len(static.Stops)),
				zap.Int("trips", len(static.Trips)),
				zap.Duration("duration", c.now().Sub(start)))
			return static, nil
		}
	}

	if c.static != nil {
		c.logger.Warn("GTFS static reload failed, serving previous version",
			zap.String("url", c.url), zap.Error(err))
		return c.static, nil
	}
	return nil, fmt.Errorf("gtfs static %s: %w", c.url, err)
}
