// Package bicing - клиент GBFS фидов Bicing.
package bicing

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/infrastructure/httpclient"
)

type feed[T any] struct {
	LastUpdated int64 `json:"last_updated"`
	TTL         int   `json:"ttl"`
	Data        struct {
		Stations []T `json:"stations"`
	} `json:"data"`
}

type stationStatus struct {
	StationID         any    `json:"station_id"`
	BikesAvailable    int    `json:"num_bikes_available"`
	DocksAvailable    int    `json:"num_docks_available"`
	Status            string `json:"status"`
	BikesAvailability struct {
		Mechanical int `json:"mechanical"`
		Ebike      int `json:"ebike"`
	} `json:"num_bikes_available_types"`
}

// Station - station_information, объединённая со station_status.
// Info содержит все исходные поля station_information.
type Station struct {
	ID              string
	Name            string
	Lat             float64
	Lon             float64
	Address         string
	Capacity        int
	Bikes           int
	MechanicalBikes int
	ElectricalBikes int
	Docks           int
	Status          string
	HasStatus       bool
	Info            map[string]any
}

type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			Name:      "bicing",
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
		}, logger),
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// Stations загружает оба фида параллельно. Ошибка station_status не фатальна:
// станции отдаются без доступности.
func (c *Client) Stations(ctx context.Context) ([]Station, error) {
	var (
		info   feed[map[string]any]
		status feed[stationStatus]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.http.GetJSON(gctx, c.baseURL+"/station_information", &info); err != nil {
			return fmt.Errorf("bicing station_information: %w", err)
		}
		return nil
	})
	var statusErr error
	g.Go(func() error {
		statusErr = c.http.GetJSON(gctx, c.baseURL+"/station_status", &status)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if statusErr != nil {
		c.logger.Warn("Bicing station_status unavailable", zap.Error(statusErr))
	}

	byID := make(map[string]stationStatus, len(status.Data.Stations))
	for _, s := range status.Data.Stations {
		byID[idString(s.StationID)] = s
	}

	out := make([]Station, 0, len(info.Data.Stations))
	for _, raw := range info.Data.Stations {
		id := idString(raw["station_id"])
		if id == "" {
			continue
		}
		st := Station{
			ID:       id,
			Name:     str(raw["name"]),
			Lat:      num(raw["lat"]),
			Lon:      num(raw["lon"]),
			Address:  str(raw["address"]),
			Capacity: int(num(raw["capacity"])),
			Info:     raw,
		}
		if s, ok := byID[id]; ok {
			st.HasStatus = true
			st.Bikes = s.BikesAvailable
			st.MechanicalBikes = s.BikesAvailability.Mechanical
			st.ElectricalBikes = s.BikesAvailability.Ebike
			st.Docks = s.DocksAvailable
			st.Status = s.Status
		}
		out = append(out, st)
	}

	c.logger.Debug("Bicing stations fetched",
		zap.Int("stations", len(out)),
		zap.Int("with_status", len(byID)))
	return out, nil
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
