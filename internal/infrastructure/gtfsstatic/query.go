package gtfsstatic

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
)

// Routes возвращает маршруты, чьё короткое имя начинается с prefix (без учёта регистра).
// Пустой prefix - все маршруты.
func Routes(static *gtfs.Static, prefix string) []gtfs.Route {
	prefix = strings.ToUpper(prefix)
	out := make([]gtfs.Route, 0, len(static.Routes))
	for _, r := range static.Routes {
		if prefix == "" || strings.HasPrefix(strings.ToUpper(r.ShortName), prefix) {
			out = append(out, r)
		}
	}
	return out
}

// RouteStop - остановка маршрута в порядке следования.
type RouteStop struct {
	Stop     *gtfs.Stop
	Sequence int
	Headsign string
}

// StopsForRoute - остановки самого длинного рейса маршрута.
func StopsForRoute(static *gtfs.Static, routeID string) []RouteStop {
	var longest *gtfs.ScheduledTrip
	for i := range static.Trips {
		t := &static.Trips[i]
		if t.Route == nil || t.Route.Id != routeID {
			continue
		}
		if longest == nil || len(t.StopTimes) > len(longest.StopTimes) {
			longest = t
		}
	}
	if longest == nil {
		return nil
	}

	stopTimes := slices.Clone(longest.StopTimes)
	slices.SortFunc(stopTimes, func(a, b gtfs.ScheduledStopTime) int {
		return cmp.Compare(a.StopSequence, b.StopSequence)
	})

	out := make([]RouteStop, 0, len(stopTimes))
	for i, st := range stopTimes {
		if st.Stop == nil {
			continue
		}
		out = append(out, RouteStop{Stop: st.Stop, Sequence: i + 1, Headsign: longest.Headsign})
	}
	return out
}

// Departure - плановое отправление с остановки.
type Departure struct {
	TripID    string
	RouteID   string
	RouteName string
	Color     string
	Headsign  string
	StopID    string
	Platform  string
	Time      time.Time
}

// Departures - отправления с stopIDs в окне [now, now+window), по времени.
// Учитываются сервисы вчерашнего дня (время после 24:00) и сегодняшнего.
func Departures(static *gtfs.Static, stopIDs []string, now time.Time, window time.Duration, limit int) []Departure {
	wanted := make(map[string]struct{}, len(stopIDs))
	for _, id := range stopIDs {
		wanted[id] = struct{}{}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := []time.Time{today.AddDate(0, 0, -1), today}
	end := now.Add(window)

	var out []Departure
	for i := range static.Trips {
		t := &static.Trips[i]
		for _, st := range t.StopTimes {
			if st.Stop == nil {
				continue
			}
			if _, ok := wanted[st.Stop.Id]; !ok {
				continue
			}
			offset := st.DepartureTime
			if offset == 0 {
				offset = st.ArrivalTime
			}
			for _, day := range days {
				if !serviceActive(t.Service, day) {
					continue
				}
				at := day.Add(offset)
				if at.Before(now) || !at.Before(end) {
					continue
				}
				d := Departure{
					TripID:   t.ID,
					Headsign: t.Headsign,
					StopID:   st.Stop.Id,
					Platform: st.Stop.PlatformCode,
					Time:     at,
				}
				if t.Route != nil {
					d.RouteID = t.Route.Id
					d.RouteName = t.Route.ShortName
					d.Color = t.Route.Color
				}
				out = append(out, d)
			}
		}
	}

	slices.SortStableFunc(out, func(a, b Departure) int {
		return a.Time.Compare(b.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func serviceActive(s *gtfs.Service, day time.Time) bool {
	if s == nil {
		return false
	}
	for _, d := range s.RemovedDates {
		if sameDate(d, day) {
			return false
		}
	}
	for _, d := range s.AddedDates {
		if sameDate(d, day) {
			return true
		}
	}
	date := dateOnly(day)
	if date.Before(dateOnly(s.StartDate)) || date.After(dateOnly(s.EndDate)) {
		return false
	}
	switch day.Weekday() {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	case time.Sunday:
		return s.Sunday
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
