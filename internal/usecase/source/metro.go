package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/infrastructure/tmb"
)

const (
	metroStationCode  = "CODI_ESTACIO"
	metroStationName  = "NOM_ESTACIO"
	metroStationOrder = "ORDRE_ESTACIO"
)

var metroStationSchema = domain.NewExtraSchema(
	[]string{metroStationCode, metroStationName, metroStationOrder, tmbLineCode, tmbLineName, tmbLineColor},
	map[string]string{
		"CODI_GRUP_ESTACIO":  domain.ExtraGroupCode,
		"ID_ESTACIO_LINIA":   domain.ExtraStationLineID,
		"CODI_ESTACIO_LINIA": domain.ExtraRealtimeID,
	},
)

// MetroSource - метро TMB: линии, станции по линии, алерты, iTransit.
type MetroSource struct {
	client TMBClient
	logger *zap.Logger
}

func NewMetroSource(client TMBClient, logger *zap.Logger) *MetroSource {
	return &MetroSource{client: client, logger: logger}
}

func (s *MetroSource) Mode() domain.TransportType {
	return domain.TransportTypeMetro
}

func (s *MetroSource) FetchLines(ctx context.Context) ([]domain.Line, error) {
	fc, err := s.client.Lines(ctx, tmb.NetworkMetro)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.Line, 0, len(fc.Features))
	for _, f := range fc.Features {
		if l, ok := tmbLine(s.Mode(), f); ok {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (s *MetroSource) FetchStationsByLine(ctx context.Context, line domain.Line) ([]domain.Station, error) {
	fc, err := s.client.Stations(ctx, tmb.NetworkMetro, line.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("metro stations for line %s: %w", line.Code, err)
	}

	stations := make([]domain.Station, 0, len(fc.Features))
	for _, f := range fc.Features {
		code := f.String(metroStationCode)
		if code == "" {
			continue
		}
		lat, lon, _ := f.Geometry.Point()
		stations = append(stations, domain.Station{
			ID:            domain.StationID(s.Mode(), line.Code, code),
			OriginalID:    code,
			Code:          code,
			Name:          f.String(metroStationName),
			Lat:           lat,
			Lon:           lon,
			Order:         f.Int(metroStationOrder),
			TransportType: s.Mode(),
			LineID:        line.ID,
			LineCode:      line.Code,
			LineName:      line.Name,
			LineColor:     line.Color,
			Extra:         metroStationSchema.Capture(f.Properties),
		})
	}
	return stations, nil
}

func (s *MetroSource) FetchAlerts(ctx context.Context) ([]domain.Alert, error) {
	raw, err := s.client.Alerts(ctx, tmb.NetworkMetro)
	if err != nil {
		return nil, err
	}
	return tmbAlerts(s.Mode(), raw), nil
}

// FetchRoutes - iTransit по коду станции.
func (s *MetroSource) FetchRoutes(ctx context.Context, station domain.Station) ([]domain.Route, error) {
	arrivals, err := s.client.MetroArrivals(ctx, station.Code)
	if err != nil {
		return nil, err
	}
	return routesFromArrivals(s.Mode(), arrivals), nil
}
