package repository

import (
	"context"

	"github.com/transit-aggregator/internal/domain"
)

// StationRepository - канонические станции
type StationRepository interface {
	// UpsertMany вставляет или обновляет станции одной транзакцией (last-write-wins по id)
	UpsertMany(ctx context.Context, stations []domain.Station) (int, error)

	// GetByTransportType возвращает все станции режима
	GetByTransportType(ctx context.Context, mode domain.TransportType) ([]domain.Station, error)

	// GetByLineCode возвращает станции линии в порядке следования
	GetByLineCode(ctx context.Context, mode domain.TransportType, lineCode string) ([]domain.Station, error)
}
