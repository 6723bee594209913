package usecase

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/pkg/utils"
	"github.com/transit-aggregator/internal/usecase/dto"
)

const (
	DefaultSearchLimit  = 50
	DefaultLocatedLimit = 10
	DefaultNearRadiusKm = 1.0
)

// StationLister - то, что поиску нужно от TransportService.
type StationLister interface {
	Mode() domain.TransportType
	GetStationsByName(ctx context.Context, query string) []domain.Station
}

// SearchUseCase - поиск станций по всем режимам сразу.
type SearchUseCase struct {
	services []StationLister
	logger   *zap.Logger
}

func NewSearchUseCase(services []StationLister, logger *zap.Logger) *SearchUseCase {
	return &SearchUseCase{
		services: services,
		logger:   logger,
	}
}

// Near - станции всех режимов в радиусе от точки.
func (uc *SearchUseCase) Near(ctx context.Context, req dto.NearRequest) ([]domain.SearchResult, error) {
	radius := DefaultNearRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}
	lat, lon := req.Lat, req.Lon
	return uc.Search(ctx, dto.SearchRequest{
		Lat:      &lat,
		Lon:      &lon,
		RadiusKm: &radius,
		Limit:    req.Limit,
	})
}

// Search - нечёткий поиск по имени (пустое имя - все станции) с необязательной
// фильтрацией по расстоянию. С координатами результат сортируется по расстоянию.
func (uc *SearchUseCase) Search(ctx context.Context, req dto.SearchRequest) ([]domain.SearchResult, error) {
	// Валидация
	located := req.Lat != nil || req.Lon != nil
	if located {
		if req.Lat == nil || req.Lon == nil || !utils.ValidateCoordinates(*req.Lat, *req.Lon) {
			return nil, errors.ErrInvalidCoordinates
		}
	}
	if req.RadiusKm != nil && !utils.ValidateRadius(*req.RadiusKm) {
		return nil, errors.ErrInvalidRadius
	}

	limit := DefaultSearchLimit
	if located {
		limit = DefaultLocatedLimit
	}
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	// Параллельно опрашиваем все режимы
	stations := uc.collect(ctx, req.Name)

	// Фильтр по расстоянию
	if located {
		stations = filterByDistance(stations, *req.Lat, *req.Lon, req.RadiusKm)
	}

	sortByDistance(stations)
	if len(stations) > limit {
		stations = stations[:limit]
	}

	results := make([]domain.SearchResult, 0, len(stations))
	for _, s := range stations {
		results = append(results, domain.NewSearchResult(s))
	}
	return results, nil
}

func (uc *SearchUseCase) collect(ctx context.Context, query string) []domain.Station {
	perMode := make([][]domain.Station, len(uc.services))
	var wg sync.WaitGroup
	for i, svc := range uc.services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perMode[i] = svc.GetStationsByName(ctx, query)
		}()
	}
	wg.Wait()

	var out []domain.Station
	for i, stations := range perMode {
		uc.logger.Debug("Search results from mode",
			zap.String("mode", string(uc.services[i].Mode())),
			zap.Int("count", len(stations)))
		out = append(out, stations...)
	}
	return out
}

// filterByDistance: bbox-префильтр, затем haversine; без радиуса только считает расстояние.
func filterByDistance(stations []domain.Station, lat, lon float64, radiusKm *float64) []domain.Station {
	var box *utils.BoundingBox
	if radiusKm != nil {
		b := utils.NewBoundingBox(lat, lon, *radiusKm)
		box = &b
	}

	out := stations[:0]
	for _, s := range stations {
		if box != nil && !box.Contains(s.Lat, s.Lon) {
			continue
		}
		d := utils.HaversineDistance(lat, lon, s.Lat, s.Lon)
		if radiusKm != nil && d > *radiusKm {
			continue
		}
		s.Distance = &d
		out = append(out, s)
	}
	return out
}

// sortByDistance - по возрастанию расстояния, без расстояния в конце, стабильно.
func sortByDistance(stations []domain.Station) {
	slices.SortStableFunc(stations, func(a, b domain.Station) int {
		switch {
		case a.Distance == nil && b.Distance == nil:
			return 0
		case a.Distance == nil:
			return 1
		case b.Distance == nil:
			return -1
		case *a.Distance < *b.Distance:
			return -1
		case *a.Distance > *b.Distance:
			return 1
		}
		return 0
	})
}
