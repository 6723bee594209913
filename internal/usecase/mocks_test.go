package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/transit-aggregator/internal/domain"
)

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockStationRepository is a mock of StationRepository
type MockStationRepository struct {
	mock.Mock
}

func (m *MockStationRepository) UpsertMany(ctx context.Context, stations []domain.Station) (int, error) {
	args := m.Called(ctx, stations)
	return args.Int(0), args.Error(1)
}

func (m *MockStationRepository) GetByTransportType(ctx context.Context, mode domain.TransportType) ([]domain.Station, error) {
	args := m.Called(ctx, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Station), args.Error(1)
}

func (m *MockStationRepository) GetByLineCode(ctx context.Context, mode domain.TransportType, lineCode string) ([]domain.Station, error) {
	args := m.Called(ctx, mode, lineCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Station), args.Error(1)
}

// MockAlertRepository is a mock of AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) RegisterAlert(ctx context.Context, alert domain.Alert) (bool, error) {
	args := m.Called(ctx, alert)
	return args.Bool(0), args.Error(1)
}

func (m *MockAlertRepository) Exists(ctx context.Context, mode domain.TransportType, externalID string) (bool, error) {
	args := m.Called(ctx, mode, externalID)
	return args.Bool(0), args.Error(1)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs ...string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) (string, error) {
	args := m.Called(ctx, stream, data)
	return args.String(0), args.Error(1)
}

// MockStatsRepository is a mock of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CountByTransportType(ctx context.Context) (map[domain.TransportType]domain.ModeStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.TransportType]domain.ModeStats), args.Error(1)
}

// memLineRepository - upsert по id, как в Postgres.
type memLineRepository struct {
	mu    sync.Mutex
	lines map[string]domain.Line
	calls int
}

func newMemLineRepository() *memLineRepository {
	return &memLineRepository{lines: make(map[string]domain.Line)}
}

func (r *memLineRepository) UpsertMany(_ context.Context, lines []domain.Line) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, l := range lines {
		r.lines[l.ID] = l
	}
	return len(lines), nil
}

func (r *memLineRepository) GetByTransportType(_ context.Context, mode domain.TransportType) ([]domain.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Line
	for _, l := range r.lines {
		if l.TransportType == mode {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLineRepository) GetByIDs(_ context.Context, ids []string) ([]domain.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Line
	for _, id := range ids {
		if l, ok := r.lines[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

type memStationRepository struct {
	mu       sync.Mutex
	stations map[string]domain.Station
}

func newMemStationRepository(initial ...domain.Station) *memStationRepository {
	r := &memStationRepository{stations: make(map[string]domain.Station)}
	for _, s := range initial {
		r.stations[s.ID] = s
	}
	return r
}

func (r *memStationRepository) UpsertMany(_ context.Context, stations []domain.Station) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stations {
		r.stations[s.ID] = s
	}
	return len(stations), nil
}

func (r *memStationRepository) GetByTransportType(_ context.Context, mode domain.TransportType) ([]domain.Station, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Station
	for _, s := range r.stations {
		if s.TransportType == mode {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memStationRepository) GetByLineCode(_ context.Context, mode domain.TransportType, lineCode string) ([]domain.Station, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Station
	for _, s := range r.stations {
		if s.TransportType == mode && s.LineCode == lineCode {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memStationRepository) get(id string) (domain.Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stations[id]
	return s, ok
}

// fakeSource - источник режима с линиями по линиям.
type fakeSource struct {
	mode      domain.TransportType
	lines     []domain.Line
	linesErr  error
	stations  map[string][]domain.Station
	alerts    []domain.Alert
	alertsErr error
}

func (f *fakeSource) Mode() domain.TransportType { return f.mode }

func (f *fakeSource) FetchLines(context.Context) ([]domain.Line, error) {
	return f.lines, f.linesErr
}

func (f *fakeSource) FetchStationsByLine(_ context.Context, line domain.Line) ([]domain.Station, error) {
	return f.stations[line.OriginalID], nil
}

func (f *fakeSource) FetchAlerts(context.Context) ([]domain.Alert, error) {
	return f.alerts, f.alertsErr
}

// slowSource отдаёт по станции на линию с задержкой, считает пик
// одновременных запросов и падает на линиях из failLines.
type slowSource struct {
	fakeSource
	delay     time.Duration
	failLines map[string]bool
	inFlight  atomic.Int32
	peak      atomic.Int32
}

func (f *slowSource) FetchStationsByLine(_ context.Context, line domain.Line) ([]domain.Station, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	if f.failLines[line.OriginalID] {
		return nil, errors.New("upstream 503")
	}
	return []domain.Station{{OriginalID: line.OriginalID + "01", Code: line.OriginalID + "01", Name: "Parada " + line.Name}}, nil
}

// realtimeSource добавляет живые прибытия и расписание.
type realtimeSource struct {
	fakeSource
	live          []domain.Route
	liveErr       error
	liveCalls     atomic.Int32
	scheduled     []domain.Route
	scheduleCalls atomic.Int32
}

func (f *realtimeSource) FetchRoutes(context.Context, domain.Station) ([]domain.Route, error) {
	f.liveCalls.Add(1)
	return f.live, f.liveErr
}

func (f *realtimeSource) ScheduledRoutes(context.Context, domain.Station, time.Time) ([]domain.Route, error) {
	f.scheduleCalls.Add(1)
	return f.scheduled, nil
}

// bulkSource - режим без линий.
type bulkSource struct {
	fakeSource
	all   []domain.Station
	calls atomic.Int32
}

func (f *bulkSource) FetchAllStations(context.Context) ([]domain.Station, error) {
	f.calls.Add(1)
	return f.all, nil
}

type staticAlerts map[domain.TransportType][]domain.Alert

func (s staticAlerts) ActiveAlerts(_ context.Context, mode domain.TransportType) []domain.Alert {
	return s[mode]
}

func (s staticAlerts) GetAlertsMap(_ context.Context, mode domain.TransportType) domain.AlertsMap {
	return domain.BuildAlertsMap(s[mode])
}
