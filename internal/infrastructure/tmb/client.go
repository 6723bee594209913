// Package tmb - клиент TMB API (метро и автобусы Барселоны).
package tmb

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/infrastructure/httpclient"
)

// Network - сеть TMB в путях API.
type Network string

const (
	NetworkMetro Network = "metro"
	NetworkBus   Network = "bus"
)

type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	query := url.Values{}
	if cfg.AppID != "" {
		query.Set("app_id", cfg.AppID)
	}
	if cfg.AppKey != "" {
		query.Set("app_key", cfg.AppKey)
	}
	return &Client{
		http: httpclient.New(httpclient.Options{
			Name:      "tmb",
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
			Query:     query,
		}, logger),
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// Lines - все линии сети.
func (c *Client) Lines(ctx context.Context, network Network) (*FeatureCollection, error) {
	return c.features(ctx, fmt.Sprintf("%s/transit/linies/%s", c.baseURL, network))
}

// Stations - станции метро или остановки автобуса одной линии.
func (c *Client) Stations(ctx context.Context, network Network, lineCode string) (*FeatureCollection, error) {
	suffix := "estacions"
	if network == NetworkBus {
		suffix = "parades"
	}
	return c.features(ctx, fmt.Sprintf("%s/transit/linies/%s/%s/%s",
		c.baseURL, network, url.PathEscape(lineCode), suffix))
}

func (c *Client) features(ctx context.Context, endpoint string) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := c.http.GetJSON(ctx, endpoint, &fc); err != nil {
		return nil, fmt.Errorf("tmb %s: %w", endpoint, err)
	}
	c.logger.Debug("TMB features fetched",
		zap.String("endpoint", endpoint),
		zap.Int("count", len(fc.Features)))
	return &fc, nil
}
