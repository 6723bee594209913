package repository

import (
	"context"

	"github.com/transit-aggregator/internal/domain"
)

// StatsRepository интерфейс для работы со статистикой
type StatsRepository interface {
	// CountByTransportType возвращает число линий и станций по режимам
	CountByTransportType(ctx context.Context) (map[domain.TransportType]domain.ModeStats, error)
}
