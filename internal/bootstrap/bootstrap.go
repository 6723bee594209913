// Package bootstrap собирает провайдеров, источники и use case'ы режимов.
// Общий код для cmd/api и cmd/worker.
package bootstrap

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/infrastructure/bicing"
	"github.com/transit-aggregator/internal/infrastructure/gtfsrt"
	"github.com/transit-aggregator/internal/infrastructure/gtfsstatic"
	"github.com/transit-aggregator/internal/infrastructure/httpclient"
	"github.com/transit-aggregator/internal/infrastructure/tmb"
	"github.com/transit-aggregator/internal/infrastructure/tram"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/repository/cache"
	"github.com/transit-aggregator/internal/repository/postgres"
	"github.com/transit-aggregator/internal/usecase"
	"github.com/transit-aggregator/internal/usecase/source"
)

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Deps - подключения, открытые в main
type Deps struct {
	DB       *postgres.DB
	Cache    repository.CacheRepository
	Streams  repository.StreamRepository
	Recorder *audit.Recorder
}

// Container - готовые use case'ы
type Container struct {
	Modes         []domain.TransportType
	Services      []*usecase.TransportService
	Alerts        *usecase.AlertUseCase
	Search        *usecase.SearchUseCase
	Stats         *usecase.StatsUseCase
	Notifications *usecase.NotificationUseCase
	SyncRequests  *usecase.SyncRequestUseCase
}

// OpenCache выбирает backend по CACHE_BACKEND. Closer закрывает соединение
// (redis) или останавливает очистку просроченных записей (memory).
func OpenCache(cfg *config.Config, logger *zap.Logger) (repository.CacheRepository, io.Closer, error) {
	switch cfg.Cache.Backend {
	case CacheBackendMemory:
		mc := cache.NewMemoryCache(cfg.Cache.MemoryCapacity, logger)
		logger.Info("Using in-memory cache", zap.Uint64("capacity", cfg.Cache.MemoryCapacity))
		return mc, mc, nil
	case CacheBackendRedis, "":
		client, err := cache.NewRedis(&cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewCacheRepository(client), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// EnabledModes разбирает WORKER_MODES; порядок сохраняется, повторы отбрасываются.
func EnabledModes(names []string) ([]domain.TransportType, error) {
	seen := make(map[domain.TransportType]bool, len(names))
	modes := make([]domain.TransportType, 0, len(names))
	for _, name := range names {
		mode, err := domain.ParseTransportType(name)
		if err != nil {
			return nil, fmt.Errorf("mode %q: %w", name, err)
		}
		if seen[mode] {
			continue
		}
		seen[mode] = true
		modes = append(modes, mode)
	}
	return modes, nil
}

// Sources создаёт адаптеры режимов; metro и bus делят один клиент TMB
// (общие rate limiter и breaker на app_id).
type Sources struct {
	providers config.ProvidersConfig
	logger    *zap.Logger
	tmbClient *tmb.Client
}

func NewSources(providers config.ProvidersConfig, logger *zap.Logger) *Sources {
	return &Sources{providers: providers, logger: logger}
}

func (s *Sources) tmb() *tmb.Client {
	if s.tmbClient == nil {
		s.tmbClient = tmb.NewClient(s.providers.TMB, s.logger)
	}
	return s.tmbClient
}

// For - клиент провайдера и адаптер режима
func (s *Sources) For(mode domain.TransportType) (usecase.Source, error) {
	switch mode {
	case domain.TransportTypeMetro:
		return source.NewMetroSource(s.tmb(), s.logger), nil
	case domain.TransportTypeBus:
		return source.NewBusSource(s.tmb(), s.logger), nil
	case domain.TransportTypeTram:
		return source.NewTramSource(tram.NewClient(s.providers.Tram, s.logger), s.logger), nil
	case domain.TransportTypeBicing:
		return source.NewBicingSource(bicing.NewClient(s.providers.Bicing, s.logger), s.logger), nil
	case domain.TransportTypeRodalies:
		return newGTFSSource(mode, s.providers.Rodalies, s.logger), nil
	case domain.TransportTypeFGC:
		return newGTFSSource(mode, s.providers.FGC, s.logger), nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTransportType, mode)
}

func newGTFSSource(mode domain.TransportType, cfg config.GTFSConfig, logger *zap.Logger) *source.GTFSSource {
	fetcher := httpclient.New(httpclient.Options{
		Name:      string(mode),
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
	}, logger)

	return source.NewGTFSSource(mode,
		gtfsstatic.NewClient(fetcher, cfg.StaticURL, cfg.StaticReloadTTL, logger),
		gtfsrt.NewClient(fetcher, logger),
		source.GTFSOptions{
			AlertsURL:      cfg.AlertsURL,
			TripUpdatesURL: cfg.TripUpdatesURL,
			RouteFilter:    cfg.RouteFilter,
		},
		logger,
	)
}

// Build создаёт сервисы режимов и регистрирует их как источники алертов.
func Build(cfg *config.Config, deps Deps, logger *zap.Logger) (*Container, error) {
	modes, err := EnabledModes(cfg.Worker.Modes)
	if err != nil {
		return nil, err
	}

	lineRepo := postgres.NewLineRepository(deps.DB)
	stationRepo := postgres.NewStationRepository(deps.DB)
	alertRepo := postgres.NewAlertRepository(deps.DB)
	userRepo := postgres.NewUserRepository(deps.DB)
	statsRepo := postgres.NewStatsRepository(deps.DB, logger)

	alertUC := usecase.NewAlertUseCase(alertRepo, deps.Cache, cfg.Cache.AlertsTTL, deps.Recorder, logger)

	sources := NewSources(cfg.Providers, logger)
	services := make([]*usecase.TransportService, 0, len(modes))
	listers := make([]usecase.StationLister, 0, len(modes))
	for _, mode := range modes {
		src, err := sources.For(mode)
		if err != nil {
			return nil, err
		}
		svc := usecase.NewTransportService(
			src,
			usecase.PolicyFromConfig(cfg.Mode(string(mode))),
			lineRepo,
			stationRepo,
			deps.Cache,
			alertUC,
			deps.Recorder,
			logger,
		)
		alertUC.Register(svc)
		services = append(services, svc)
		listers = append(listers, svc)
	}

	logger.Info("Transport services initialized", zap.Int("modes", len(services)))

	return &Container{
		Modes:         modes,
		Services:      services,
		Alerts:        alertUC,
		Search:        usecase.NewSearchUseCase(listers, logger),
		Stats:         usecase.NewStatsUseCase(statsRepo, deps.Cache, alertUC, modes, cfg.Cache.StatsTTL, logger),
		Notifications: usecase.NewNotificationUseCase(alertUC, userRepo, deps.Streams, modes, deps.Recorder, logger),
		SyncRequests:  usecase.NewSyncRequestUseCase(deps.Streams, deps.Recorder, logger),
	}, nil
}
