package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
)

// ActiveAlertsProvider - активные алерты режима.
type ActiveAlertsProvider interface {
	ActiveAlerts(ctx context.Context, mode domain.TransportType) []domain.Alert
}

// StatsUseCase обрабатывает бизнес-логику для статистики
type StatsUseCase struct {
	statsRepo repository.StatsRepository
	cacheRepo repository.CacheRepository
	alerts    ActiveAlertsProvider
	modes     []domain.TransportType
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatsUseCase создает новый экземпляр StatsUseCase
func NewStatsUseCase(
	statsRepo repository.StatsRepository,
	cacheRepo repository.CacheRepository,
	alerts ActiveAlertsProvider,
	modes []domain.TransportType,
	ttl time.Duration,
	logger *zap.Logger,
) *StatsUseCase {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsUseCase{
		statsRepo: statsRepo,
		cacheRepo: cacheRepo,
		alerts:    alerts,
		modes:     modes,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// GetStatistics возвращает статистику по режимам, используя кеш когда возможно
func (uc *StatsUseCase) GetStatistics(ctx context.Context) *domain.Statistics {
	key := cacheKey("all", "stats", "all", "summary")
	stats := getOrCompute(ctx, uc.cacheRepo, uc.logger, key, uc.ttl,
		uc.compute,
		func(s *domain.Statistics) bool { return s == nil || len(s.ByMode) == 0 },
	)
	if stats == nil {
		return &domain.Statistics{ByMode: map[domain.TransportType]domain.ModeStats{}, LastUpdated: uc.now()}
	}
	return stats
}

func (uc *StatsUseCase) compute(ctx context.Context) (*domain.Statistics, error) {
	// 1. Линии и станции из БД
	counts, err := uc.statsRepo.CountByTransportType(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by transport type: %w", err)
	}

	// 2. Активные алерты по каждому режиму
	stats := &domain.Statistics{
		ByMode:      make(map[domain.TransportType]domain.ModeStats, len(uc.modes)),
		LastUpdated: uc.now(),
	}
	for _, mode := range uc.modes {
		ms := counts[mode]
		ms.ActiveAlerts = len(uc.alerts.ActiveAlerts(ctx, mode))
		stats.ByMode[mode] = ms

		stats.Total.Lines += ms.Lines
		stats.Total.Stations += ms.Stations
		stats.Total.ActiveAlerts += ms.ActiveAlerts
	}
	return stats, nil
}
