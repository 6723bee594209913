package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/infrastructure/tmb"
)

const (
	busStopCode  = "CODI_PARADA"
	busStopName  = "NOM_PARADA"
	busStopOrder = "ORDRE"
)

var busStopSchema = domain.NewExtraSchema(
	[]string{busStopCode, busStopName, busStopOrder, tmbLineCode, tmbLineName, tmbLineColor},
	map[string]string{
		"ID_SENTIT":             domain.ExtraDirection,
		"DESTI_SENTIT":          domain.ExtraDestination,
		"CODI_TRAJECTE_ANADA":   domain.ExtraOutboundCode,
		"CODI_TRAJECTE_TORNADA": domain.ExtraReturnCode,
		"ADRECA":                domain.ExtraAddress,
	},
)

// BusSource - автобусы TMB. Код линии - её имя (V15, H12), запросы к API по CODI_LINIA.
type BusSource struct {
	client TMBClient
	logger *zap.Logger
}

func NewBusSource(client TMBClient, logger *zap.Logger) *BusSource {
	return &BusSource{client: client, logger: logger}
}

func (s *BusSource) Mode() domain.TransportType {
	return domain.TransportTypeBus
}

func (s *BusSource) FetchLines(ctx context.Context) ([]domain.Line, error) {
	fc, err := s.client.Lines(ctx, tmb.NetworkBus)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.Line, 0, len(fc.Features))
	for _, f := range fc.Features {
		l, ok := tmbLine(s.Mode(), f)
		if !ok {
			continue
		}
		if l.Name != "" {
			l.Code = l.Name
		}
		if family := f.String(tmbLineFamily); family != "" {
			l.Category = &family
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (s *BusSource) FetchStationsByLine(ctx context.Context, line domain.Line) ([]domain.Station, error) {
	fc, err := s.client.Stations(ctx, tmb.NetworkBus, line.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("bus stops for line %s: %w", line.Code, err)
	}

	stations := make([]domain.Station, 0, len(fc.Features))
	for _, f := range fc.Features {
		code := f.String(busStopCode)
		if code == "" {
			continue
		}
		lat, lon, _ := f.Geometry.Point()
		stations = append(stations, domain.Station{
			ID:            domain.StationID(s.Mode(), line.Code, code),
			OriginalID:    code,
			Code:          code,
			Name:          f.String(busStopName),
			Lat:           lat,
			Lon:           lon,
			Order:         f.Int(busStopOrder),
			TransportType: s.Mode(),
			LineID:        line.ID,
			LineCode:      line.Code,
			LineName:      line.Name,
			LineColor:     line.Color,
			Extra:         busStopSchema.Capture(f.Properties),
		})
	}
	return stations, nil
}

func (s *BusSource) FetchAlerts(ctx context.Context) ([]domain.Alert, error) {
	raw, err := s.client.Alerts(ctx, tmb.NetworkBus)
	if err != nil {
		return nil, err
	}
	return tmbAlerts(s.Mode(), raw), nil
}

// FetchRoutes - iBus по коду остановки.
func (s *BusSource) FetchRoutes(ctx context.Context, station domain.Station) ([]domain.Route, error) {
	arrivals, err := s.client.BusArrivals(ctx, station.Code)
	if err != nil {
		return nil, err
	}
	return routesFromArrivals(s.Mode(), arrivals), nil
}
