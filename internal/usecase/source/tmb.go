// Package source - источники режимов: сырые ответы провайдеров -> каноническая модель.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/infrastructure/tmb"
)

// TMBClient - методы tmb.Client, используемые метро и автобусом.
type TMBClient interface {
	Lines(ctx context.Context, network tmb.Network) (*tmb.FeatureCollection, error)
	Stations(ctx context.Context, network tmb.Network, lineCode string) (*tmb.FeatureCollection, error)
	Alerts(ctx context.Context, network tmb.Network) ([]tmb.Alert, error)
	MetroArrivals(ctx context.Context, stationCode string) ([]tmb.Arrival, error)
	BusArrivals(ctx context.Context, stopCode string) ([]tmb.Arrival, error)
}

// Колонки линий TMB, общие для метро и автобуса.
const (
	tmbLineID          = "ID_LINIA"
	tmbLineCode        = "CODI_LINIA"
	tmbLineName        = "NOM_LINIA"
	tmbLineDescription = "DESC_LINIA"
	tmbLineOrigin      = "ORIGEN_LINIA"
	tmbLineDestination = "DESTI_LINIA"
	tmbLineColor       = "COLOR_LINIA"
	tmbLineFamily      = "NOM_FAMILIA"
)

var tmbLineSchema = domain.NewExtraSchema(
	[]string{tmbLineID, tmbLineCode, tmbLineName, tmbLineDescription, tmbLineOrigin, tmbLineDestination, tmbLineColor, tmbLineFamily},
	nil,
)

func tmbLine(mode domain.TransportType, f tmb.Feature) (domain.Line, bool) {
	code := f.String(tmbLineCode)
	if code == "" {
		return domain.Line{}, false
	}
	name := f.String(tmbLineName)
	l := domain.Line{
		OriginalID:    code,
		Code:          code,
		Name:          name,
		Description:   f.String(tmbLineDescription),
		Origin:        f.String(tmbLineOrigin),
		Destination:   f.String(tmbLineDestination),
		Color:         f.String(tmbLineColor),
		TransportType: mode,
		Extra:         tmbLineSchema.Capture(f.Properties),
	}
	return l, true
}

func tmbAlerts(mode domain.TransportType, raw []tmb.Alert) []domain.Alert {
	out := make([]domain.Alert, 0, len(raw))
	for _, a := range raw {
		id := a.ID.String()
		if id == "" {
			continue
		}
		alert := domain.Alert{
			ID:            domain.AlertID(mode, id),
			ExternalID:    id,
			TransportType: mode,
			BeginDate:     epochToTime(a.BeginDate),
			Status:        a.Status,
			Cause:         a.Cause,
		}
		if a.EndDate != nil && *a.EndDate > 0 {
			end := epochToTime(*a.EndDate)
			alert.EndDate = &end
		}
		for _, p := range a.Publications {
			alert.Publications = appendPublication(alert.Publications, "ca", p.HeaderCa, p.TextCa)
			alert.Publications = appendPublication(alert.Publications, "es", p.HeaderEs, p.TextEs)
			alert.Publications = appendPublication(alert.Publications, "en", p.HeaderEn, p.TextEn)
		}
		for _, e := range a.Entities {
			alert.AffectedEntities = append(alert.AffectedEntities, domain.AffectedEntity{
				LineCode:     e.LineCode.String(),
				LineName:     e.LineName,
				StationCode:  e.StationCode.String(),
				StationName:  e.StationName,
				Direction:    e.DirectionName,
				EntranceCode: e.EntranceCode.String(),
				EntranceName: e.EntranceName,
			})
		}
		out = append(out, alert)
	}
	return out
}

func appendPublication(pubs []domain.Publication, lang, title, body string) []domain.Publication {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" && body == "" {
		return pubs
	}
	return append(pubs, domain.Publication{Language: lang, Title: title, Body: body})
}

func epochToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.Unix(domain.NormalizeEpoch(v), 0).UTC()
}

// routesFromArrivals: одна запись на прибытие, слияние по (линия, направление) делает движок.
func routesFromArrivals(mode domain.TransportType, arrivals []tmb.Arrival) []domain.Route {
	out := make([]domain.Route, 0, len(arrivals))
	for _, a := range arrivals {
		out = append(out, domain.Route{
			LineCode:      a.LineCode,
			LineName:      a.LineName,
			Color:         a.Color,
			Destination:   a.Destination,
			TransportType: mode,
			Trips:         []domain.NextTrip{{ArrivalTime: a.ArrivalTime, TripID: a.TripID}},
		})
	}
	return out
}
