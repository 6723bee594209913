package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/repository/cache"
	"github.com/transit-aggregator/internal/usecase"
)

func metroSource() *fakeSource {
	return &fakeSource{
		mode: domain.TransportTypeMetro,
		lines: []domain.Line{
			{OriginalID: "1", Code: "1", Name: "L1"},
			{OriginalID: "3", Code: "3", Name: "L3"},
		},
		stations: map[string][]domain.Station{
			"1": {
				{OriginalID: "126", Code: "126", Name: "Catalunya", Order: 2, Extra: domain.ExtraData{domain.ExtraGroupCode: "6660126"}},
				{OriginalID: "127", Code: "127", Name: "Urquinaona", Order: 1},
			},
			"3": {
				{OriginalID: "326", Code: "326", Name: "Catalunya", Extra: domain.ExtraData{domain.ExtraGroupCode: "6660126"}},
			},
		},
	}
}

func newService(src usecase.Source, lines *memLineRepository, stations *memStationRepository, alerts usecase.AlertsProvider) (*usecase.TransportService, *cache.MemoryCache) {
	c := cache.NewMemoryCache(0, zap.NewNop())
	svc := usecase.NewTransportService(src, usecase.ModePolicy{}, lines, stations, c, alerts, nil, zap.NewNop())
	return svc, c
}

func TestTransportService_SyncLines_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	src := metroSource()
	src.lines = append(src.lines, domain.Line{OriginalID: "1", Code: "1", Name: "L1", Description: "newer"})
	lines := newMemLineRepository()
	svc, _ := newService(src, lines, newMemStationRepository(), nil)

	first, err := svc.SyncLines(ctx)
	require.NoError(t, err)
	second, err := svc.SyncLines(ctx)
	require.NoError(t, err)

	for _, r := range []domain.SyncResult{first, second} {
		assert.Equal(t, 3, r.Fetched)
		assert.Equal(t, 1, r.Duplicates)
		assert.Equal(t, 2, r.Upserted)
		assert.Zero(t, r.FailedBatches)
	}
	stored, _ := lines.GetByTransportType(ctx, domain.TransportTypeMetro)
	assert.Len(t, stored, 2)
	assert.Equal(t, "newer", lines.lines["metro-1"].Description)
	assert.Equal(t, domain.SyncStateIdle, svc.State(domain.SyncEntityLines))
}

func TestTransportService_SyncLines_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	lines := newMemLineRepository()
	svc, c := newService(metroSource(), lines, newMemStationRepository(), nil)

	require.NoError(t, c.Set(ctx, "metro_lines_all_list", []byte(`[]`), time.Hour))
	_, err := svc.SyncLines(ctx)
	require.NoError(t, err)

	exists, err := c.Exists(ctx, "metro_lines_all_list")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransportService_SyncLines_FetchError(t *testing.T) {
	src := metroSource()
	src.linesErr = errors.New("upstream 503")
	lines := newMemLineRepository()
	svc, _ := newService(src, lines, newMemStationRepository(), nil)

	_, err := svc.SyncLines(context.Background())

	assert.Error(t, err)
	assert.Zero(t, lines.calls)
	assert.Equal(t, domain.SyncStateIdle, svc.State(domain.SyncEntityLines))
}

func TestTransportService_SyncLines_NoLinesMode(t *testing.T) {
	src := &bulkSource{fakeSource: fakeSource{mode: domain.TransportTypeBicing}}
	lines := newMemLineRepository()
	svc, _ := newService(src, lines, newMemStationRepository(), nil)

	result, err := svc.SyncLines(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Fetched)
	assert.Zero(t, lines.calls)
}

func TestTransportService_SyncStations_BuildsConnections(t *testing.T) {
	ctx := context.Background()
	lines := newMemLineRepository()
	stations := newMemStationRepository()
	svc, _ := newService(metroSource(), lines, stations, nil)

	result, err := svc.SyncStations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.Upserted)

	cat1, ok := stations.get("metro-1-126")
	require.True(t, ok)
	assert.Equal(t, "metro-1", cat1.LineID)
	assert.Equal(t, "L1", cat1.LineName)
	assert.Equal(t, []string{"metro-3"}, cat1.ConnectionLineIDs)

	urq, ok := stations.get("metro-1-127")
	require.True(t, ok)
	assert.Empty(t, urq.ConnectionLineIDs)

	_, err = svc.SyncLines(ctx)
	require.NoError(t, err)
	conns := svc.GetStationConnections(ctx, "126")
	require.Len(t, conns, 1)
	assert.Equal(t, "L3", conns[0].Name)
}

type failingStationRepository struct {
	*memStationRepository
	mu      sync.Mutex
	call    int
	failOn  int
	batches []int
}

func (r *failingStationRepository) UpsertMany(ctx context.Context, stations []domain.Station) (int, error) {
	r.mu.Lock()
	r.call++
	call := r.call
	r.batches = append(r.batches, len(stations))
	r.mu.Unlock()
	if call == r.failOn {
		return 0, errors.New("deadlock detected")
	}
	return r.memStationRepository.UpsertMany(ctx, stations)
}

func TestTransportService_SyncStations_SkipsFailedBatch(t *testing.T) {
	src := &bulkSource{fakeSource: fakeSource{mode: domain.TransportTypeBicing}}
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		src.all = append(src.all, domain.Station{OriginalID: id, Code: id, Name: "Station " + id})
	}
	repo := &failingStationRepository{memStationRepository: newMemStationRepository(), failOn: 2}
	svc := usecase.NewTransportService(src, usecase.ModePolicy{BatchSize: 2}, newMemLineRepository(), repo,
		cache.NewMemoryCache(0, zap.NewNop()), nil, nil, zap.NewNop())

	result, err := svc.SyncStations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, repo.batches)
	assert.Equal(t, 5, result.Fetched)
	assert.Equal(t, 3, result.Upserted)
	assert.Equal(t, 1, result.FailedBatches)
	_, ok := repo.get("bicing-3")
	assert.False(t, ok)
	_, ok = repo.get("bicing-5")
	assert.True(t, ok)
}

func TestTransportService_FetchStations_Dedupes(t *testing.T) {
	src := metroSource()
	src.stations["3"] = append(src.stations["3"], domain.Station{OriginalID: "326", Code: "326", Name: "Catalunya (L3)"})
	svc, _ := newService(src, newMemLineRepository(), newMemStationRepository(), nil)

	stations := svc.FetchStations(context.Background())

	require.Len(t, stations, 3)
	for _, s := range stations {
		if s.ID == "metro-3-326" {
			assert.Equal(t, "Catalunya (L3)", s.Name)
		}
	}
}

func manyLinesSource(n int, failing ...string) *slowSource {
	src := &slowSource{
		fakeSource: fakeSource{mode: domain.TransportTypeMetro},
		delay:      20 * time.Millisecond,
		failLines:  make(map[string]bool),
	}
	for i := 1; i <= n; i++ {
		code := strconv.Itoa(i)
		src.lines = append(src.lines, domain.Line{OriginalID: code, Code: code, Name: "L" + code})
	}
	for _, code := range failing {
		src.failLines[code] = true
	}
	return src
}

func TestTransportService_FetchStations_FailedLineIsIsolated(t *testing.T) {
	src := manyLinesSource(20, "3")
	svc := usecase.NewTransportService(src, usecase.ModePolicy{Concurrency: 4},
		newMemLineRepository(), newMemStationRepository(),
		cache.NewMemoryCache(0, zap.NewNop()), nil, nil, zap.NewNop())

	stations := svc.FetchStations(context.Background())

	require.Len(t, stations, 19)
	codes := make(map[string]bool, len(stations))
	for _, s := range stations {
		codes[s.LineCode] = true
	}
	assert.False(t, codes["3"])
	assert.True(t, codes["2"])
	assert.True(t, codes["4"])
	assert.True(t, codes["20"])
}

func TestTransportService_FetchStations_BoundedConcurrency(t *testing.T) {
	src := manyLinesSource(20)
	svc := usecase.NewTransportService(src, usecase.ModePolicy{Concurrency: 4},
		newMemLineRepository(), newMemStationRepository(),
		cache.NewMemoryCache(0, zap.NewNop()), nil, nil, zap.NewNop())

	stations := svc.FetchStations(context.Background())

	assert.Len(t, stations, 20)
	assert.LessOrEqual(t, src.peak.Load(), int32(4))
	assert.Greater(t, src.peak.Load(), int32(1), "lines should be fetched in parallel")
}

func TestTransportService_SyncStations_FailedLineStillSyncsOthers(t *testing.T) {
	src := manyLinesSource(6, "2", "5")
	stations := newMemStationRepository()
	svc := usecase.NewTransportService(src, usecase.ModePolicy{Concurrency: 2},
		newMemLineRepository(), stations,
		cache.NewMemoryCache(0, zap.NewNop()), nil, nil, zap.NewNop())

	result, err := svc.SyncStations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, result.Upserted)
	_, ok := stations.get(domain.StationID(domain.TransportTypeMetro, "1", "101"))
	assert.True(t, ok)
	_, ok = stations.get(domain.StationID(domain.TransportTypeMetro, "2", "201"))
	assert.False(t, ok)
	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestTransportService_FetchLines_ErrorIsEmpty(t *testing.T) {
	src := metroSource()
	src.linesErr = errors.New("timeout")
	svc, _ := newService(src, newMemLineRepository(), newMemStationRepository(), nil)

	lines := svc.FetchLines(context.Background())

	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestTransportService_FetchAlerts_SetsModeAndID(t *testing.T) {
	src := metroSource()
	src.alerts = []domain.Alert{{ExternalID: "9"}}
	svc, _ := newService(src, newMemLineRepository(), newMemStationRepository(), nil)

	alerts := svc.FetchAlerts(context.Background())

	require.Len(t, alerts, 1)
	assert.Equal(t, "metro-9", alerts[0].ID)
	assert.Equal(t, domain.TransportTypeMetro, alerts[0].TransportType)
}

func TestTransportService_GetAllLines_OrderedWithAlerts(t *testing.T) {
	ctx := context.Background()
	lines := newMemLineRepository()
	_, _ = lines.UpsertMany(ctx, []domain.Line{
		{ID: "metro-10", Code: "10", Name: "L10", TransportType: domain.TransportTypeMetro},
		{ID: "metro-1", Code: "1", Name: "L1", TransportType: domain.TransportTypeMetro},
		{ID: "metro-5", Code: "5", Name: "L5", TransportType: domain.TransportTypeMetro},
	})
	alerts := staticAlerts{domain.TransportTypeMetro: {
		{ID: "metro-a", TransportType: domain.TransportTypeMetro, AffectedEntities: []domain.AffectedEntity{{LineName: "L1"}}},
	}}
	svc, _ := newService(metroSource(), lines, newMemStationRepository(), alerts)

	result := svc.GetAllLines(ctx)

	require.Len(t, result, 3)
	assert.Equal(t, []string{"1", "5", "10"}, []string{result[0].Code, result[1].Code, result[2].Code})
	assert.True(t, result[0].HasAlerts)
	assert.Len(t, result[0].Alerts, 1)
	assert.False(t, result[1].HasAlerts)
	assert.NotNil(t, result[1].Alerts)
}

func TestTransportService_GetAllLines_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	lines := newMemLineRepository()
	_, _ = lines.UpsertMany(ctx, []domain.Line{{ID: "metro-1", Code: "1", Name: "L1", TransportType: domain.TransportTypeMetro}})

	broken := new(MockCacheRepository)
	broken.On("Get", mock.Anything, "metro_lines_all_list").Return(nil, errors.New("connection refused"))
	broken.On("Set", mock.Anything, "metro_lines_all_list", mock.Anything, 24*time.Hour).Return(errors.New("connection refused"))

	svc := usecase.NewTransportService(metroSource(), usecase.ModePolicy{}, lines, newMemStationRepository(), broken, nil, nil, zap.NewNop())

	result := svc.GetAllLines(ctx)

	require.Len(t, result, 1)
	assert.Equal(t, "L1", result[0].Name)
	broken.AssertExpectations(t)
}

func TestTransportService_GetStationsByLineCode_Ordered(t *testing.T) {
	ctx := context.Background()
	stations := newMemStationRepository(
		domain.Station{ID: "metro-1-126", Code: "126", Name: "Catalunya", Order: 2, LineCode: "1", LineName: "L1", TransportType: domain.TransportTypeMetro},
		domain.Station{ID: "metro-1-127", Code: "127", Name: "Urquinaona", Order: 1, LineCode: "1", LineName: "L1", TransportType: domain.TransportTypeMetro},
		domain.Station{ID: "metro-3-326", Code: "326", Name: "Catalunya", Order: 1, LineCode: "3", LineName: "L3", TransportType: domain.TransportTypeMetro},
	)
	svc, _ := newService(metroSource(), newMemLineRepository(), stations, nil)

	result := svc.GetStationsByLineCode(ctx, "1")

	require.Len(t, result, 2)
	assert.Equal(t, "Urquinaona", result[0].Name)
	assert.Equal(t, "Catalunya", result[1].Name)
	assert.NotNil(t, result[0].Alerts)
}

func TestTransportService_GetStationsByName(t *testing.T) {
	ctx := context.Background()
	stations := newMemStationRepository(
		domain.Station{ID: "metro-1-126", Code: "126", Name: "Catalunya", TransportType: domain.TransportTypeMetro},
		domain.Station{ID: "metro-1-127", Code: "127", Name: "Urquinaona", TransportType: domain.TransportTypeMetro},
	)
	svc, _ := newService(metroSource(), newMemLineRepository(), stations, nil)

	assert.Len(t, svc.GetStationsByName(ctx, ""), 2)

	found := svc.GetStationsByName(ctx, "catalu")
	require.Len(t, found, 1)
	assert.Equal(t, "Catalunya", found[0].Name)

	assert.Empty(t, svc.GetStationsByName(ctx, "zzzzzz"))
}

func TestTransportService_LiveStationsAreCached(t *testing.T) {
	ctx := context.Background()
	src := &bulkSource{
		fakeSource: fakeSource{mode: domain.TransportTypeBicing},
		all:        []domain.Station{{OriginalID: "1", Code: "1", Name: "Gran Via"}},
	}
	svc := usecase.NewTransportService(src, usecase.ModePolicy{LiveStations: true}, newMemLineRepository(), newMemStationRepository(),
		cache.NewMemoryCache(0, zap.NewNop()), nil, nil, zap.NewNop())

	first := svc.GetStationsByName(ctx, "")
	second := svc.GetStationsByName(ctx, "gran")

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "bicing-1", second[0].ID)
	assert.Equal(t, int32(1), src.calls.Load())

	st, ok := svc.GetStationByCode(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Gran Via", st.Name)
	_, ok = svc.GetStationByCode(ctx, "missing")
	assert.False(t, ok)
}

func routesFixture() *memStationRepository {
	return newMemStationRepository(domain.Station{
		ID: "metro-1-126", Code: "126", Name: "Catalunya", LineCode: "1", LineName: "L1", TransportType: domain.TransportTypeMetro,
	})
}

func TestTransportService_GetStationRoutes_CachesOnlyNonEmpty(t *testing.T) {
	ctx := context.Background()
	src := &realtimeSource{fakeSource: *metroSource()}
	svc, c := newService(src, newMemLineRepository(), routesFixture(), nil)
	key := "metro_station_126_routes"

	empty := svc.GetStationRoutes(ctx, "126")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	exists, _ := c.Exists(ctx, key)
	assert.False(t, exists)

	src.live = []domain.Route{
		{LineCode: "1", LineName: "L1", Destination: "Fondo", Trips: []domain.NextTrip{{ArrivalTime: 1_700_000_300_000}}},
		{LineCode: "1", LineName: "L1", Destination: "Fondo", Trips: []domain.NextTrip{{ArrivalTime: 1_700_000_100_000}}},
	}
	live := svc.GetStationRoutes(ctx, "126")
	require.Len(t, live, 1)
	assert.False(t, live[0].Estimated)
	assert.Equal(t, domain.TransportTypeMetro, live[0].TransportType)
	require.Len(t, live[0].Trips, 2)
	assert.Equal(t, int64(1_700_000_100), live[0].Trips[0].ArrivalTime)

	exists, _ = c.Exists(ctx, key)
	assert.True(t, exists)

	_ = svc.GetStationRoutes(ctx, "126")
	assert.Equal(t, int32(2), src.liveCalls.Load())
}

func TestTransportService_GetStationRoutes_FallsBackToSchedule(t *testing.T) {
	ctx := context.Background()
	src := &realtimeSource{
		fakeSource: *metroSource(),
		liveErr:    errors.New("itransit down"),
		scheduled: []domain.Route{
			{LineCode: "1", LineName: "L1", Destination: "Fondo", Trips: []domain.NextTrip{{ArrivalTime: 1_700_000_000}}},
		},
	}
	svc, _ := newService(src, newMemLineRepository(), routesFixture(), nil)

	routes := svc.GetStationRoutes(ctx, "126")

	require.Len(t, routes, 1)
	assert.True(t, routes[0].Estimated)
	assert.Equal(t, int32(1), src.scheduleCalls.Load())
}

func TestTransportService_GetStationRoutes_UnknownStation(t *testing.T) {
	src := &realtimeSource{fakeSource: *metroSource()}
	svc, _ := newService(src, newMemLineRepository(), routesFixture(), nil)

	routes := svc.GetStationRoutes(context.Background(), "999")

	assert.Empty(t, routes)
	assert.Zero(t, src.liveCalls.Load())
}

func TestTransportService_GetStationRoutes_NoRealtimeCapability(t *testing.T) {
	svc, _ := newService(metroSource(), newMemLineRepository(), routesFixture(), nil)

	assert.Empty(t, svc.GetStationRoutes(context.Background(), "126"))
}

func TestTransportService_Sync_UnknownEntity(t *testing.T) {
	svc, _ := newService(metroSource(), newMemLineRepository(), newMemStationRepository(), nil)

	_, err := svc.Sync(context.Background(), domain.SyncEntity("routes"))

	assert.Error(t, err)
}
