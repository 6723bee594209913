// Package tram - клиент open data API TRAM (Trambaix / Trambesòs).
package tram

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/infrastructure/httpclient"
)

// Record - сырая запись провайдера; поля вне канонической модели уходят в extras.
type Record map[string]any

func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func (r Record) Int(key string) int {
	f, _ := r.Float(key)
	return int(f)
}

// Alert - инцидент сети. Даты RFC3339, тексты по языкам.
type Alert struct {
	ID        string            `json:"id"`
	BeginDate string            `json:"begin_date"`
	EndDate   string            `json:"end_date"`
	Status    string            `json:"status"`
	Cause     string            `json:"cause"`
	Title     map[string]string `json:"title"`
	Body      map[string]string `json:"body"`
	Lines     []string          `json:"lines"`
	Stops     []AlertStop       `json:"stops"`
}

type AlertStop struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Line string `json:"line"`
}

type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			Name:      "tram",
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
		}, logger),
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

func (c *Client) Lines(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := c.http.GetJSON(ctx, c.baseURL+"/lines", &out); err != nil {
		return nil, fmt.Errorf("tram lines: %w", err)
	}
	return out, nil
}

func (c *Client) Stops(ctx context.Context, lineID string) ([]Record, error) {
	var out []Record
	endpoint := fmt.Sprintf("%s/lines/%s/stops", c.baseURL, url.PathEscape(lineID))
	if err := c.http.GetJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("tram stops %s: %w", lineID, err)
	}
	c.logger.Debug("TRAM stops fetched", zap.String("line", lineID), zap.Int("count", len(out)))
	return out, nil
}

func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var out []Alert
	if err := c.http.GetJSON(ctx, c.baseURL+"/alerts", &out); err != nil {
		return nil, fmt.Errorf("tram alerts: %w", err)
	}
	return out, nil
}
