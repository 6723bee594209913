// Package gtfsrt - загрузка и разбор GTFS-Realtime фидов (alerts, trip updates).
package gtfsrt

import (
	"context"
	"fmt"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/transit-aggregator/internal/infrastructure/httpclient"
)

// Fetcher - источник сырых байт; реализуется httpclient.Client.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

type Client struct {
	fetcher Fetcher
	logger  *zap.Logger
}

func NewClient(fetcher Fetcher, logger *zap.Logger) *Client {
	return &Client{fetcher: fetcher, logger: logger}
}

// NewHTTPClient - клиент с собственным rate limiter и breaker.
func NewHTTPClient(name string, timeout time.Duration, rateLimit float64, burst int, logger *zap.Logger) *Client {
	return NewClient(httpclient.New(httpclient.Options{
		Name:      name,
		Timeout:   timeout,
		RateLimit: rateLimit,
		Burst:     burst,
	}, logger), logger)
}

func (c *Client) FetchFeed(ctx context.Context, url string) (*gtfs.FeedMessage, error) {
	body, err := c.fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("gtfs-rt fetch: %w", err)
	}
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		c.logger.Error("Failed to parse GTFS-RT protobuf", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("gtfs-rt parse: %w", err)
	}
	c.logger.Debug("GTFS-RT feed fetched",
		zap.String("url", url),
		zap.Int("entities", len(feed.GetEntity())))
	return feed, nil
}

// Alerts загружает и разбирает фид алертов.
func (c *Client) Alerts(ctx context.Context, url string) ([]Alert, error) {
	feed, err := c.FetchFeed(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseAlerts(feed), nil
}

// Arrivals загружает trip updates и оставляет прибытия на stopIDs.
func (c *Client) Arrivals(ctx context.Context, url string, stopIDs []string) ([]Arrival, error) {
	feed, err := c.FetchFeed(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseArrivals(feed, stopIDs), nil
}
