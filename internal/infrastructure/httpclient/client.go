// Package httpclient - общий HTTP-клиент для upstream провайдеров:
// rate limiter, circuit breaker и метрики на каждый запрос.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/transit-aggregator/internal/pkg/metrics"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	maxErrorBody            = 512
)

// Options описывает одного провайдера.
type Options struct {
	Name      string
	Timeout   time.Duration
	RateLimit float64 // запросов в секунду, 0 - без ограничения
	Burst     int
	// Query добавляется к каждому запросу (app_id/app_key у TMB).
	Query url.Values
	// FailureThreshold - подряд идущие ошибки до размыкания breaker'а.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// StatusError - ответ провайдера с кодом не 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client безопасен для конкурентного использования.
type Client struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	query      url.Values
	logger     *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = defaultFailureThreshold
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	logger = logger.With(zap.String("provider", opts.Name))
	c := &Client{
		name:       opts.Name,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		query:      opts.Query,
		logger:     logger,
	}

	threshold := opts.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    opts.Name,
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 4xx (кроме 429) - ошибка запроса, а не недоступность провайдера.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.BreakerState.WithLabelValues(opts.Name).Set(float64(gobreaker.StateClosed))

	return c
}

func (c *Client) Name() string {
	return c.name
}

// Get выполняет GET и возвращает тело ответа.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, rawURL)
	})
	metrics.RecordProviderRequest(c.name, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON выполняет GET и декодирует JSON в out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Failed to decode response", zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL, err := c.withQuery(rawURL)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Calling provider", zap.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.String("url", rawURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("Provider returned error",
			zap.String("url", rawURL),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (c *Client) withQuery(rawURL string) (string, error) {
	if len(c.query) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	q := u.Query()
	for k, vs := range c.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
