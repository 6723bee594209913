package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/pkg/audit"
)

// пустой ответ может быть сбоем провайдера, поэтому хранится недолго
const maxEmptyAlertsTTL = 5 * time.Minute

// AlertFetcher - то, что AlertUseCase нужно от TransportService.
type AlertFetcher interface {
	Mode() domain.TransportType
	FetchAlerts(ctx context.Context) []domain.Alert
}

// AlertsProvider используется TransportService для обогащения ответов.
type AlertsProvider interface {
	GetAlertsMap(ctx context.Context, mode domain.TransportType) domain.AlertsMap
}

// AlertUseCase собирает алерты режимов, регистрирует их и кеширует активные.
type AlertUseCase struct {
	alertRepo repository.AlertRepository
	cacheRepo repository.CacheRepository
	ttl       time.Duration
	emptyTTL  time.Duration
	audit     *audit.Recorder
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	fetchers map[domain.TransportType]AlertFetcher
}

func NewAlertUseCase(
	alertRepo repository.AlertRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *AlertUseCase {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AlertUseCase{
		alertRepo: alertRepo,
		cacheRepo: cacheRepo,
		ttl:       ttl,
		emptyTTL:  min(ttl, maxEmptyAlertsTTL),
		audit:     recorder,
		logger:    logger.Named("alerts"),
		now:       time.Now,
		fetchers:  make(map[domain.TransportType]AlertFetcher),
	}
}

// Register подключает источник алертов режима. Вызывается после создания
// TransportService, т.к. сервис сам зависит от AlertUseCase.
func (uc *AlertUseCase) Register(f AlertFetcher) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.fetchers[f.Mode()] = f
}

func (uc *AlertUseCase) fetcher(mode domain.TransportType) (AlertFetcher, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	f, ok := uc.fetchers[mode]
	return f, ok
}

// ActiveAlerts - активные алерты режима без дублей, кеш на ttl.
// Пустой список тоже кешируется, но не дольше maxEmptyAlertsTTL.
func (uc *AlertUseCase) ActiveAlerts(ctx context.Context, mode domain.TransportType) []domain.Alert {
	key := cacheKey(string(mode), "alerts", "all", "active")
	alerts := getOrComputeFor(ctx, uc.cacheRepo, uc.logger, key,
		func(ctx context.Context) ([]domain.Alert, error) {
			return uc.buildActive(ctx, mode), nil
		},
		func(active []domain.Alert) time.Duration {
			if len(active) == 0 {
				return uc.emptyTTL
			}
			return uc.ttl
		},
	)
	if alerts == nil {
		return []domain.Alert{}
	}
	return alerts
}

// GetAlertsMap - имя линии -> активные алерты.
func (uc *AlertUseCase) GetAlertsMap(ctx context.Context, mode domain.TransportType) domain.AlertsMap {
	return domain.BuildAlertsMap(uc.ActiveAlerts(ctx, mode))
}

func (uc *AlertUseCase) buildActive(ctx context.Context, mode domain.TransportType) []domain.Alert {
	f, ok := uc.fetcher(mode)
	if !ok {
		return nil
	}

	// 1. Забираем алерты у источника
	fetched := f.FetchAlerts(ctx)

	// 2. Регистрируем каждый (идемпотентно), ошибки не прерывают цикл
	registered, failed := 0, 0
	for _, a := range fetched {
		isNew, err := uc.alertRepo.RegisterAlert(ctx, a)
		if err != nil {
			failed++
			uc.logger.Warn("Failed to register alert",
				zap.String("mode", string(mode)),
				zap.String("alert_id", a.ID),
				zap.Error(err))
			continue
		}
		if isNew {
			registered++
		}
	}
	if len(fetched) > 0 {
		outcome := audit.OutcomeSuccess
		if failed > 0 {
			outcome = audit.OutcomePartial
		}
		uc.audit.Record(ctx, audit.Event{
			Operation: "alerts.register",
			Mode:      string(mode),
			Outcome:   outcome,
			Counts:    map[string]int{"fetched": len(fetched), "new": registered, "failed": failed},
		})
	}

	// 3. Оставляем активные, по одному на id
	now := uc.now()
	seen := make(map[string]struct{}, len(fetched))
	active := make([]domain.Alert, 0, len(fetched))
	for _, a := range fetched {
		if !a.IsActive(now) {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		active = append(active, a)
	}

	uc.logger.Debug("Active alerts built",
		zap.String("mode", string(mode)),
		zap.Int("fetched", len(fetched)),
		zap.Int("active", len(active)))
	return active
}

// EnrichStations выставляет алерты станциям по точному имени линии.
func EnrichStations(stations []domain.Station, alerts domain.AlertsMap) {
	for i := range stations {
		stations[i].SetAlerts(alerts.For(stations[i].LineName))
	}
}

// EnrichLines выставляет алерты линиям по точному имени.
func EnrichLines(lines []domain.Line, alerts domain.AlertsMap) {
	for i := range lines {
		lines[i].SetAlerts(alerts.For(lines[i].Name))
	}
}
