package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/pkg/fuzzy"
	"github.com/transit-aggregator/internal/pkg/metrics"
)

// scheduleWindow - горизонт оценки по расписанию.
const scheduleWindow = 2 * time.Hour

// TransportService - общий движок режима: синхронизация с провайдером
// и чтение с кешем и алертами. Возможности режима задаются Source.
type TransportService struct {
	mode     domain.TransportType
	source   Source
	bulk     BulkStationSource
	realtime RealtimeSource
	schedule ScheduleSource
	policy   ModePolicy

	lineRepo    repository.LineRepository
	stationRepo repository.StationRepository
	cacheRepo   repository.CacheRepository
	alerts      AlertsProvider
	audit       *audit.Recorder
	logger      *zap.Logger
	now         func() time.Time

	stateMu sync.RWMutex
	states  map[domain.SyncEntity]domain.SyncState
}

func NewTransportService(
	source Source,
	policy ModePolicy,
	lineRepo repository.LineRepository,
	stationRepo repository.StationRepository,
	cacheRepo repository.CacheRepository,
	alerts AlertsProvider,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *TransportService {
	s := &TransportService{
		mode:        source.Mode(),
		source:      source,
		policy:      policy.withDefaults(),
		lineRepo:    lineRepo,
		stationRepo: stationRepo,
		cacheRepo:   cacheRepo,
		alerts:      alerts,
		audit:       recorder,
		logger:      logger.With(zap.String("mode", string(source.Mode()))),
		now:         time.Now,
		states: map[domain.SyncEntity]domain.SyncState{
			domain.SyncEntityLines:    domain.SyncStateIdle,
			domain.SyncEntityStations: domain.SyncStateIdle,
		},
	}
	// Необязательные возможности определяются по типу источника
	if b, ok := source.(BulkStationSource); ok {
		s.bulk = b
	}
	if r, ok := source.(RealtimeSource); ok {
		s.realtime = r
	}
	if sch, ok := source.(ScheduleSource); ok {
		s.schedule = sch
	}
	return s
}

func (s *TransportService) Mode() domain.TransportType {
	return s.mode
}

// State - текущая стадия синхронизации сущности.
func (s *TransportService) State(entity domain.SyncEntity) domain.SyncState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if st, ok := s.states[entity]; ok {
		return st
	}
	return domain.SyncStateIdle
}

func (s *TransportService) setState(entity domain.SyncEntity, state domain.SyncState) {
	s.stateMu.Lock()
	s.states[entity] = state
	s.stateMu.Unlock()
}

func (s *TransportService) linesKey() string {
	return cacheKey(string(s.mode), "lines", "all", "list")
}

func (s *TransportService) stationsKey() string {
	return cacheKey(string(s.mode), "stations", "all", "list")
}

func (s *TransportService) routesKey(code string) string {
	return cacheKey(string(s.mode), "station", code, "routes")
}

// ---------------------------------------------------------------------------
// Fetch
// ---------------------------------------------------------------------------

// FetchLines - линии провайдера в канонической форме. Ошибка провайдера - пустой список.
func (s *TransportService) FetchLines(ctx context.Context) []domain.Line {
	lines, _, err := s.fetchLines(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch lines", zap.Error(err))
		return []domain.Line{}
	}
	return lines
}

func (s *TransportService) fetchLines(ctx context.Context) ([]domain.Line, int, error) {
	raw, err := s.source.FetchLines(ctx)
	if err != nil {
		return nil, 0, err
	}
	lines, dups := s.normalizeLines(raw)
	if dups > 0 {
		s.logger.Info("Duplicate lines collapsed", zap.Int("duplicates", dups))
	}
	return lines, dups, nil
}

// normalizeLines: id, цвет, display name; дубли по id схлопываются, побеждает последний.
func (s *TransportService) normalizeLines(raw []domain.Line) ([]domain.Line, int) {
	index := make(map[string]int, len(raw))
	out := make([]domain.Line, 0, len(raw))
	dups := 0
	for _, l := range raw {
		l.TransportType = s.mode
		if l.ID == "" {
			l.ID = domain.LineID(s.mode, l.OriginalID)
		}
		l.Color = domain.ResolveColor(l.Name, s.mode, l.Color)
		l.DisplayName = domain.BuildDisplayName(s.mode, l.Name)
		if i, ok := index[l.ID]; ok {
			out[i] = l
			dups++
			continue
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	return out, dups
}

// FetchStationsByLine - станции одной линии. Ошибка логируется, результат пустой.
func (s *TransportService) FetchStationsByLine(ctx context.Context, line domain.Line) []domain.Station {
	stations, err := s.source.FetchStationsByLine(ctx, line)
	if err != nil {
		s.logger.Warn("Failed to fetch stations for line",
			zap.String("line", line.Code),
			zap.Error(err))
		return []domain.Station{}
	}
	return stations
}

// FetchStations - все станции режима: bulk-запрос или обход линий
// с ограниченной параллельностью. Дубли по id схлопываются.
func (s *TransportService) FetchStations(ctx context.Context) []domain.Station {
	stations, _, err := s.fetchStations(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch stations", zap.Error(err))
		return []domain.Station{}
	}
	return stations
}

func (s *TransportService) fetchStations(ctx context.Context) ([]domain.Station, int, error) {
	var raw []domain.Station
	if s.bulk != nil {
		all, err := s.bulk.FetchAllStations(ctx)
		if err != nil {
			return nil, 0, err
		}
		raw = all
	} else {
		lines, _, err := s.fetchLines(ctx)
		if err != nil {
			return nil, 0, err
		}
		raw = s.fanOutStations(ctx, lines)
	}

	stations, dups := s.normalizeStations(raw)
	if dups > 0 {
		s.logger.Info("Duplicate stations collapsed", zap.Int("duplicates", dups))
	}
	return stations, dups, nil
}

func (s *TransportService) fanOutStations(ctx context.Context, lines []domain.Line) []domain.Station {
	perLine := make([][]domain.Station, len(lines))
	sem := semaphore.NewWeighted(int64(s.policy.Concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i, line := range lines {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			stations := s.FetchStationsByLine(gctx, line)
			for j := range stations {
				if stations[j].LineID == "" {
					stations[j].LineID = line.ID
				}
				if stations[j].LineCode == "" {
					stations[j].LineCode = line.Code
				}
				if stations[j].LineName == "" {
					stations[j].LineName = line.Name
				}
				if stations[j].LineColor == "" {
					stations[j].LineColor = line.Color
				}
			}
			perLine[i] = stations
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.Station
	for _, ss := range perLine {
		out = append(out, ss...)
	}
	return out
}

func (s *TransportService) normalizeStations(raw []domain.Station) ([]domain.Station, int) {
	index := make(map[string]int, len(raw))
	out := make([]domain.Station, 0, len(raw))
	dups := 0
	for _, st := range raw {
		st.TransportType = s.mode
		if st.ID == "" {
			st.ID = domain.StationID(s.mode, st.LineCode, st.OriginalID)
		}
		if st.LineName != "" {
			st.LineColor = domain.ResolveColor(st.LineName, s.mode, st.LineColor)
		}
		if i, ok := index[st.ID]; ok {
			out[i] = st
			dups++
			continue
		}
		index[st.ID] = len(out)
		out = append(out, st)
	}
	return out, dups
}

// FetchAlerts - алерты провайдера. Ошибка логируется, результат пустой.
func (s *TransportService) FetchAlerts(ctx context.Context) []domain.Alert {
	alerts, err := s.source.FetchAlerts(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch alerts", zap.Error(err))
		return []domain.Alert{}
	}
	for i := range alerts {
		alerts[i].TransportType = s.mode
		if alerts[i].ID == "" {
			alerts[i].ID = domain.AlertID(s.mode, alerts[i].ExternalID)
		}
	}
	return alerts
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

// Sync запускает синхронизацию сущности.
func (s *TransportService) Sync(ctx context.Context, entity domain.SyncEntity) (domain.SyncResult, error) {
	switch entity {
	case domain.SyncEntityLines:
		return s.SyncLines(ctx)
	case domain.SyncEntityStations:
		return s.SyncStations(ctx)
	}
	return domain.SyncResult{}, fmt.Errorf("unknown sync entity %q", entity)
}

// SyncLines: FETCHING -> TRANSFORMING -> UPSERTING -> IDLE.
func (s *TransportService) SyncLines(ctx context.Context) (domain.SyncResult, error) {
	entity := domain.SyncEntityLines
	start := s.now()
	result := domain.SyncResult{Mode: s.mode, Entity: entity}
	defer s.setState(entity, domain.SyncStateIdle)

	if !s.mode.HasLines() {
		return result, nil
	}

	s.setState(entity, domain.SyncStateFetching)
	raw, err := s.source.FetchLines(ctx)
	if err != nil {
		return s.finishSync(ctx, result, start, fmt.Errorf("fetch lines: %w", err))
	}
	result.Fetched = len(raw)

	s.setState(entity, domain.SyncStateTransforming)
	lines, dups := s.normalizeLines(raw)
	result.Duplicates = dups

	s.setState(entity, domain.SyncStateUpserting)
	result.Upserted, result.FailedBatches = upsertBatches(ctx, s, lines, s.lineRepo.UpsertMany)

	s.invalidate(ctx, s.linesKey())
	return s.finishSync(ctx, result, start, nil)
}

// SyncStations: как SyncLines, перед записью строятся пересадки.
func (s *TransportService) SyncStations(ctx context.Context) (domain.SyncResult, error) {
	entity := domain.SyncEntityStations
	start := s.now()
	result := domain.SyncResult{Mode: s.mode, Entity: entity}
	defer s.setState(entity, domain.SyncStateIdle)

	s.setState(entity, domain.SyncStateFetching)
	var raw []domain.Station
	if s.bulk != nil {
		all, err := s.bulk.FetchAllStations(ctx)
		if err != nil {
			return s.finishSync(ctx, result, start, fmt.Errorf("fetch stations: %w", err))
		}
		raw = all
	} else {
		lines, _, err := s.fetchLines(ctx)
		if err != nil {
			return s.finishSync(ctx, result, start, fmt.Errorf("fetch lines: %w", err))
		}
		raw = s.fanOutStations(ctx, lines)
	}
	result.Fetched = len(raw)

	s.setState(entity, domain.SyncStateTransforming)
	stations, dups := s.normalizeStations(raw)
	result.Duplicates = dups
	domain.BuildConnections(stations)

	s.setState(entity, domain.SyncStateUpserting)
	result.Upserted, result.FailedBatches = upsertBatches(ctx, s, stations, s.stationRepo.UpsertMany)

	s.invalidate(ctx, s.stationsKey())
	return s.finishSync(ctx, result, start, nil)
}

// upsertBatches пишет батчами; упавший батч логируется и пропускается.
func upsertBatches[T any](
	ctx context.Context,
	s *TransportService,
	items []T,
	upsert func(context.Context, []T) (int, error),
) (upserted, failed int) {
	size := s.policy.BatchSize
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		n, err := upsert(ctx, items[start:end])
		if err != nil {
			failed++
			s.logger.Error("Upsert batch failed, skipping",
				zap.Int("batch_start", start),
				zap.Int("batch_size", end-start),
				zap.Error(err))
			continue
		}
		upserted += n
	}
	return upserted, failed
}

func (s *TransportService) finishSync(ctx context.Context, result domain.SyncResult, start time.Time, err error) (domain.SyncResult, error) {
	result.Duration = s.now().Sub(start)
	mode, entity := string(result.Mode), string(result.Entity)

	outcome := audit.OutcomeSuccess
	switch {
	case err != nil:
		outcome = audit.OutcomeFailure
	case result.FailedBatches > 0:
		outcome = audit.OutcomePartial
	}

	metrics.RecordSync(mode, entity, err == nil, result.Duration)
	metrics.RecordSyncRecords(mode, entity, "fetched", result.Fetched)
	metrics.RecordSyncRecords(mode, entity, "upserted", result.Upserted)
	if result.FailedBatches > 0 {
		metrics.SyncFailedBatchesTotal.WithLabelValues(mode, entity).Add(float64(result.FailedBatches))
	}

	s.audit.Record(ctx, audit.Event{
		Operation: "sync." + entity,
		Mode:      mode,
		Outcome:   outcome,
		Counts: map[string]int{
			"fetched":        result.Fetched,
			"duplicates":     result.Duplicates,
			"upserted":       result.Upserted,
			"failed_batches": result.FailedBatches,
		},
		Duration: result.Duration,
		Err:      err,
	})

	if err != nil {
		s.logger.Error("Sync failed", zap.String("entity", entity), zap.Error(err))
		return result, err
	}
	s.logger.Info("Sync completed",
		zap.String("entity", entity),
		zap.Int("fetched", result.Fetched),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("upserted", result.Upserted),
		zap.Int("failed_batches", result.FailedBatches),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (s *TransportService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cacheRepo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

func (s *TransportService) alertsMap(ctx context.Context) domain.AlertsMap {
	if s.alerts == nil {
		return nil
	}
	return s.alerts.GetAlertsMap(ctx, s.mode)
}

func (s *TransportService) cachedLines(ctx context.Context) []domain.Line {
	if !s.mode.HasLines() {
		return []domain.Line{}
	}
	return getOrCompute(ctx, s.cacheRepo, s.logger, s.linesKey(), s.policy.LinesTTL,
		func(ctx context.Context) ([]domain.Line, error) {
			return s.lineRepo.GetByTransportType(ctx, s.mode)
		},
		isEmptySlice[domain.Line],
	)
}

// allStations - полный список станций режима. Live-режимы читают провайдера.
func (s *TransportService) allStations(ctx context.Context) []domain.Station {
	return getOrCompute(ctx, s.cacheRepo, s.logger, s.stationsKey(), s.policy.StationsTTL,
		func(ctx context.Context) ([]domain.Station, error) {
			if s.policy.LiveStations {
				stations, _, err := s.fetchStations(ctx)
				return stations, err
			}
			return s.stationRepo.GetByTransportType(ctx, s.mode)
		},
		isEmptySlice[domain.Station],
	)
}

// GetAllLines - линии режима с алертами в порядке режима.
func (s *TransportService) GetAllLines(ctx context.Context) []domain.Line {
	var (
		lines  []domain.Line
		alerts domain.AlertsMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lines = s.cachedLines(gctx)
		return nil
	})
	g.Go(func() error {
		alerts = s.alertsMap(gctx)
		return nil
	})
	_ = g.Wait()

	if lines == nil {
		lines = []domain.Line{}
	}
	EnrichLines(lines, alerts)
	domain.SortLines(lines)
	return lines
}

// GetStationsByLineCode - станции линии по порядку следования.
func (s *TransportService) GetStationsByLineCode(ctx context.Context, lineCode string) []domain.Station {
	var (
		stations []domain.Station
		alerts   domain.AlertsMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.stationRepo.GetByLineCode(gctx, s.mode, lineCode)
		if err != nil {
			s.logger.Error("Failed to get stations by line", zap.String("line", lineCode), zap.Error(err))
			return nil
		}
		stations = found
		return nil
	})
	g.Go(func() error {
		alerts = s.alertsMap(gctx)
		return nil
	})
	_ = g.Wait()

	if stations == nil {
		stations = []domain.Station{}
	}
	slices.SortStableFunc(stations, func(a, b domain.Station) int {
		return a.Order - b.Order
	})
	EnrichStations(stations, alerts)
	return stations
}

// GetStationsByName: пустой запрос - все станции, иначе нечёткий поиск по имени.
func (s *TransportService) GetStationsByName(ctx context.Context, query string) []domain.Station {
	var (
		stations []domain.Station
		alerts   domain.AlertsMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stations = s.allStations(gctx)
		return nil
	})
	g.Go(func() error {
		alerts = s.alertsMap(gctx)
		return nil
	})
	_ = g.Wait()

	if query = strings.TrimSpace(query); query != "" {
		stations = fuzzy.Match(query, stations, stationName, fuzzy.DefaultThreshold)
	}
	if stations == nil {
		stations = []domain.Station{}
	}
	EnrichStations(stations, alerts)
	return stations
}

func stationName(s domain.Station) string {
	return s.Name
}

// GetStationByCode - первая запись станции с этим кодом.
func (s *TransportService) GetStationByCode(ctx context.Context, code string) (domain.Station, bool) {
	for _, st := range s.allStations(ctx) {
		if st.Code == code {
			return st, true
		}
	}
	return domain.Station{}, false
}

// GetStationRoutes - ближайшие рейсы: кеш, затем живые данные, затем расписание.
// Кешируется только непустой ответ.
func (s *TransportService) GetStationRoutes(ctx context.Context, code string) []domain.Route {
	if s.realtime == nil && s.schedule == nil {
		return []domain.Route{}
	}
	routes := getOrCompute(ctx, s.cacheRepo, s.logger, s.routesKey(code), s.policy.RoutesTTL,
		func(ctx context.Context) ([]domain.Route, error) {
			return s.computeRoutes(ctx, code), nil
		},
		isEmptySlice[domain.Route],
	)
	if routes == nil {
		return []domain.Route{}
	}
	return routes
}

func (s *TransportService) computeRoutes(ctx context.Context, code string) []domain.Route {
	station, ok := s.GetStationByCode(ctx, code)
	if !ok {
		s.logger.Debug("Station not found for routes", zap.String("code", code))
		return nil
	}

	if s.realtime != nil {
		live, err := s.realtime.FetchRoutes(ctx, station)
		if err != nil {
			s.logger.Warn("Failed to fetch live routes", zap.String("code", code), zap.Error(err))
		}
		if routes := s.finishRoutes(live, false); len(routes) > 0 {
			return routes
		}
	}

	if s.schedule != nil {
		scheduled, err := s.schedule.ScheduledRoutes(ctx, station, s.now())
		if err != nil {
			s.logger.Warn("Failed to build scheduled routes", zap.String("code", code), zap.Error(err))
			return nil
		}
		return s.finishRoutes(scheduled, true)
	}
	return nil
}

func (s *TransportService) finishRoutes(routes []domain.Route, estimated bool) []domain.Route {
	if len(routes) == 0 {
		return nil
	}
	for i := range routes {
		routes[i].TransportType = s.mode
		routes[i].Estimated = estimated
		routes[i].Color = domain.ResolveColor(routes[i].LineName, s.mode, routes[i].Color)
	}
	return domain.DedupeRoutes(routes)
}

// GetStationConnections - линии пересадок всех записей станции с этим кодом.
func (s *TransportService) GetStationConnections(ctx context.Context, code string) []domain.Line {
	seen := make(map[string]struct{})
	var ids []string
	for _, st := range s.allStations(ctx) {
		if st.Code != code {
			continue
		}
		for _, id := range st.ConnectionLineIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []domain.Line{}
	}

	lines, err := s.lineRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to resolve connection lines", zap.String("code", code), zap.Error(err))
		return []domain.Line{}
	}
	EnrichLines(lines, s.alertsMap(ctx))
	domain.SortLines(lines)
	return lines
}
