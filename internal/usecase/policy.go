package usecase

import (
	"time"

	"github.com/transit-aggregator/internal/config"
)

const (
	defaultListTTL     = 24 * time.Hour
	defaultRoutesTTL   = 30 * time.Second
	defaultConcurrency = 5
	defaultBatchSize   = 500
)

// ModePolicy - настройки TransportService для одного режима.
type ModePolicy struct {
	LinesTTL     time.Duration
	StationsTTL  time.Duration
	RoutesTTL    time.Duration
	Concurrency  int
	BatchSize    int
	LiveStations bool
}

func PolicyFromConfig(mc config.ModeConfig) ModePolicy {
	return ModePolicy{
		LinesTTL:     mc.LinesTTL,
		StationsTTL:  mc.StationsTTL,
		RoutesTTL:    mc.RoutesTTL,
		Concurrency:  mc.Concurrency,
		BatchSize:    mc.BatchSize,
		LiveStations: mc.LiveStations,
	}.withDefaults()
}

func (p ModePolicy) withDefaults() ModePolicy {
	if p.LinesTTL <= 0 {
		p.LinesTTL = defaultListTTL
	}
	if p.StationsTTL <= 0 {
		p.StationsTTL = defaultListTTL
	}
	if p.RoutesTTL <= 0 {
		p.RoutesTTL = defaultRoutesTTL
	}
	if p.Concurrency <= 0 {
		p.Concurrency = defaultConcurrency
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaultBatchSize
	}
	return p
}
