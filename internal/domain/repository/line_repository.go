package repository

import (
	"context"

	"github.com/transit-aggregator/internal/domain"
)

// LineRepository - канонические линии
type LineRepository interface {
	// UpsertMany вставляет или обновляет линии одной транзакцией (last-write-wins по id)
	UpsertMany(ctx context.Context, lines []domain.Line) (int, error)

	// GetByTransportType возвращает все линии режима
	GetByTransportType(ctx context.Context, mode domain.TransportType) ([]domain.Line, error)

	// GetByIDs возвращает линии по списку id
	GetByIDs(ctx context.Context, ids []string) ([]domain.Line, error)
}
