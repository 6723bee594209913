package gtfsrt

import (
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

type Translation struct {
	Language string
	Text     string
}

// Alert - разобранный GTFS-RT alert. RouteIDs и StopIDs без дублей.
type Alert struct {
	ID           string
	Begin        *time.Time
	End          *time.Time
	Cause        string
	Effect       string
	Headers      []Translation
	Descriptions []Translation
	RouteIDs     []string
	StopIDs      []string
}

// Arrival - прогноз прибытия рейса на остановку.
type Arrival struct {
	TripID      string
	RouteID     string
	StopID      string
	ArrivalTime int64
	Delay       *int
}

func ParseAlerts(feed *gtfs.FeedMessage) []Alert {
	var out []Alert
	for _, entity := range feed.GetEntity() {
		a := entity.GetAlert()
		if a == nil || entity.GetIsDeleted() {
			continue
		}

		alert := Alert{
			ID:           entity.GetId(),
			Cause:        a.GetCause().String(),
			Effect:       a.GetEffect().String(),
			Headers:      translations(a.GetHeaderText()),
			Descriptions: translations(a.GetDescriptionText()),
		}
		// Берём первый active_period; пустые границы - открытый интервал.
		if periods := a.GetActivePeriod(); len(periods) > 0 {
			if s := periods[0].GetStart(); s > 0 {
				t := time.Unix(int64(s), 0).UTC()
				alert.Begin = &t
			}
			if e := periods[0].GetEnd(); e > 0 {
				t := time.Unix(int64(e), 0).UTC()
				alert.End = &t
			}
		}

		routes := make(map[string]struct{})
		stops := make(map[string]struct{})
		for _, ie := range a.GetInformedEntity() {
			if rid := ie.GetRouteId(); rid != "" {
				if _, ok := routes[rid]; !ok {
					routes[rid] = struct{}{}
					alert.RouteIDs = append(alert.RouteIDs, rid)
				}
			}
			if sid := ie.GetStopId(); sid != "" {
				if _, ok := stops[sid]; !ok {
					stops[sid] = struct{}{}
					alert.StopIDs = append(alert.StopIDs, sid)
				}
			}
		}

		out = append(out, alert)
	}
	return out
}

func translations(ts *gtfs.TranslatedString) []Translation {
	var out []Translation
	for _, t := range ts.GetTranslation() {
		if t.GetText() == "" {
			continue
		}
		out = append(out, Translation{Language: t.GetLanguage(), Text: t.GetText()})
	}
	return out
}

// ParseArrivals возвращает прибытия на указанные остановки. Если в событии
// нет абсолютного времени, но есть задержка, время не вычисляется и запись пропускается.
func ParseArrivals(feed *gtfs.FeedMessage, stopIDs []string) []Arrival {
	wanted := make(map[string]struct{}, len(stopIDs))
	for _, id := range stopIDs {
		wanted[id] = struct{}{}
	}

	var out []Arrival
	for _, entity := range feed.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil || entity.GetIsDeleted() {
			continue
		}
		trip := tu.GetTrip()
		for _, stu := range tu.GetStopTimeUpdate() {
			if _, ok := wanted[stu.GetStopId()]; !ok {
				continue
			}
			event := stu.GetArrival()
			if event == nil {
				event = stu.GetDeparture()
			}
			if event.GetTime() == 0 {
				continue
			}
			arrival := Arrival{
				TripID:      trip.GetTripId(),
				RouteID:     trip.GetRouteId(),
				StopID:      stu.GetStopId(),
				ArrivalTime: event.GetTime(),
			}
			if event.Delay != nil {
				d := int(event.GetDelay())
				arrival.Delay = &d
			}
			out = append(out, arrival)
		}
	}
	return out
}
