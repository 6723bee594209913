package postgres

import (
	"context"
	"fmt"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"go.uber.org/zap"
)

type statsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStatsRepository создает новый экземпляр stats repository
func NewStatsRepository(db *DB, logger *zap.Logger) repository.StatsRepository {
	return &statsRepository{
		db:     db,
		logger: logger,
	}
}

type typeCount struct {
	TransportType string `db:"transport_type"`
	Count         int    `db:"count"`
}

// CountByTransportType возвращает число линий и станций по режимам
func (r *statsRepository) CountByTransportType(ctx context.Context) (map[domain.TransportType]domain.ModeStats, error) {
	stats := make(map[domain.TransportType]domain.ModeStats)

	var lines []typeCount
	if err := r.db.SelectContext(ctx, &lines,
		`SELECT transport_type, COUNT(*) AS count FROM transit_lines GROUP BY transport_type`); err != nil {
		r.logger.Error("failed to count lines", zap.Error(err))
		return nil, fmt.Errorf("count lines: %w", err)
	}
	for _, c := range lines {
		s := stats[domain.TransportType(c.TransportType)]
		s.Lines = c.Count
		stats[domain.TransportType(c.TransportType)] = s
	}

	var stations []typeCount
	if err := r.db.SelectContext(ctx, &stations,
		`SELECT transport_type, COUNT(*) AS count FROM transit_stations GROUP BY transport_type`); err != nil {
		r.logger.Error("failed to count stations", zap.Error(err))
		return nil, fmt.Errorf("count stations: %w", err)
	}
	for _, c := range stations {
		s := stats[domain.TransportType(c.TransportType)]
		s.Stations = c.Count
		stats[domain.TransportType(c.TransportType)] = s
	}

	return stats, nil
}
