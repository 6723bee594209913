package usecase

import (
	"context"
	"time"

	"github.com/transit-aggregator/internal/domain"
)

// Source - обязательные возможности источника режима.
// Реализации живут в usecase/source и возвращают ошибку только если
// ответ провайдера не удалось получить или разобрать целиком.
type Source interface {
	Mode() domain.TransportType
	FetchLines(ctx context.Context) ([]domain.Line, error)
	FetchStationsByLine(ctx context.Context, line domain.Line) ([]domain.Station, error)
	FetchAlerts(ctx context.Context) ([]domain.Alert, error)
}

// BulkStationSource - все станции режима одним запросом.
type BulkStationSource interface {
	FetchAllStations(ctx context.Context) ([]domain.Station, error)
}

// RealtimeSource - живые прибытия на станцию.
type RealtimeSource interface {
	FetchRoutes(ctx context.Context, station domain.Station) ([]domain.Route, error)
}

// ScheduleSource - оценка по расписанию, когда живых данных нет.
type ScheduleSource interface {
	ScheduledRoutes(ctx context.Context, station domain.Station, now time.Time) ([]domain.Route, error)
}
