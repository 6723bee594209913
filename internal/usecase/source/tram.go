package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/infrastructure/tram"
)

// TramClient - методы tram.Client.
type TramClient interface {
	Lines(ctx context.Context) ([]tram.Record, error)
	Stops(ctx context.Context, lineID string) ([]tram.Record, error)
	Alerts(ctx context.Context) ([]tram.Alert, error)
}

var tramLineSchema = domain.NewExtraSchema(
	[]string{"id", "code", "name", "description", "origin", "destination", "color"},
	nil,
)

var tramStopSchema = domain.NewExtraSchema(
	[]string{"id", "code", "name", "latitude", "longitude", "order"},
	map[string]string{
		"direction":   domain.ExtraDirection,
		"destination": domain.ExtraDestination,
	},
)

type TramSource struct {
	client TramClient
	logger *zap.Logger
}

func NewTramSource(client TramClient, logger *zap.Logger) *TramSource {
	return &TramSource{client: client, logger: logger}
}

func (s *TramSource) Mode() domain.TransportType {
	return domain.TransportTypeTram
}

func (s *TramSource) FetchLines(ctx context.Context) ([]domain.Line, error) {
	records, err := s.client.Lines(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.Line, 0, len(records))
	for _, r := range records {
		id := r.String("id")
		if id == "" {
			continue
		}
		code := r.String("code")
		if code == "" {
			code = r.String("name")
		}
		lines = append(lines, domain.Line{
			OriginalID:    id,
			Code:          code,
			Name:          r.String("name"),
			Description:   r.String("description"),
			Origin:        r.String("origin"),
			Destination:   r.String("destination"),
			Color:         r.String("color"),
			TransportType: s.Mode(),
			Extra:         tramLineSchema.Capture(r),
		})
	}
	return lines, nil
}

func (s *TramSource) FetchStationsByLine(ctx context.Context, line domain.Line) ([]domain.Station, error) {
	records, err := s.client.Stops(ctx, line.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("tram stops for line %s: %w", line.Code, err)
	}

	stations := make([]domain.Station, 0, len(records))
	for _, r := range records {
		id := r.String("id")
		if id == "" {
			continue
		}
		code := r.String("code")
		if code == "" {
			code = id
		}
		lat, _ := r.Float("latitude")
		lon, _ := r.Float("longitude")
		stations = append(stations, domain.Station{
			ID:            domain.StationID(s.Mode(), line.Code, id),
			OriginalID:    id,
			Code:          code,
			Name:          r.String("name"),
			Lat:           lat,
			Lon:           lon,
			Order:         r.Int("order"),
			TransportType: s.Mode(),
			LineID:        line.ID,
			LineCode:      line.Code,
			LineName:      line.Name,
			LineColor:     line.Color,
			Extra:         tramStopSchema.Capture(r),
		})
	}
	return stations, nil
}

func (s *TramSource) FetchAlerts(ctx context.Context) ([]domain.Alert, error) {
	raw, err := s.client.Alerts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Alert, 0, len(raw))
	for _, a := range raw {
		if a.ID == "" {
			continue
		}
		alert := domain.Alert{
			ID:            domain.AlertID(s.Mode(), a.ID),
			ExternalID:    a.ID,
			TransportType: s.Mode(),
			Status:        a.Status,
			Cause:         a.Cause,
		}
		if begin, err := time.Parse(time.RFC3339, a.BeginDate); err == nil {
			alert.BeginDate = begin.UTC()
		} else {
			s.logger.Debug("TRAM alert without valid begin date",
				zap.String("alert_id", a.ID), zap.String("begin_date", a.BeginDate))
		}
		if end, err := time.Parse(time.RFC3339, a.EndDate); err == nil {
			end = end.UTC()
			alert.EndDate = &end
		}

		langs := make([]string, 0, len(a.Title))
		for lang := range a.Title {
			langs = append(langs, lang)
		}
		for lang := range a.Body {
			if _, ok := a.Title[lang]; !ok {
				langs = append(langs, lang)
			}
		}
		sort.Strings(langs)
		for _, lang := range langs {
			alert.Publications = appendPublication(alert.Publications, lang, a.Title[lang], a.Body[lang])
		}

		for _, line := range a.Lines {
			alert.AffectedEntities = append(alert.AffectedEntities, domain.AffectedEntity{
				LineCode: line,
				LineName: line,
			})
		}
		for _, st := range a.Stops {
			alert.AffectedEntities = append(alert.AffectedEntities, domain.AffectedEntity{
				LineCode:    st.Line,
				LineName:    st.Line,
				StationCode: st.Code,
				StationName: st.Name,
			})
		}
		out = append(out, alert)
	}
	return out, nil
}
