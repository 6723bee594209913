package domain

import (
	"cmp"
	"slices"
)

// NextTrip - ближайший рейс. ArrivalTime в секундах epoch.
type NextTrip struct {
	ArrivalTime int64  `json:"arrival_time"`
	Delay       *int   `json:"delay_seconds,omitempty"`
	Platform    string `json:"platform,omitempty"`
	TripID      string `json:"trip_id,omitempty"`
}

// Route - рейсы одной линии в одном направлении.
type Route struct {
	LineCode      string        `json:"line_code"`
	LineName      string        `json:"line_name"`
	Color         string        `json:"color,omitempty"`
	Destination   string        `json:"destination"`
	TransportType TransportType `json:"transport_type"`
	Trips         []NextTrip    `json:"next_trips"`
	Estimated     bool          `json:"estimated"`
}

const epochMillisThreshold = 1_000_000_000_000

// NormalizeEpoch переводит миллисекунды в секунды.
func NormalizeEpoch(v int64) int64 {
	if v >= epochMillisThreshold {
		return v / 1000
	}
	return v
}

func (r *Route) key() string {
	return r.LineCode + "|" + r.Destination
}

// DedupeRoutes сливает маршруты с одинаковыми (линия, направление),
// рейсы сортируются по времени, дубли рейсов убираются.
func DedupeRoutes(routes []Route) []Route {
	index := make(map[string]int, len(routes))
	out := make([]Route, 0, len(routes))

	for _, r := range routes {
		r.Trips = slices.Clone(r.Trips)
		for i := range r.Trips {
			r.Trips[i].ArrivalTime = NormalizeEpoch(r.Trips[i].ArrivalTime)
		}
		k := r.key()
		if i, ok := index[k]; ok {
			out[i].Trips = append(out[i].Trips, r.Trips...)
			out[i].Estimated = out[i].Estimated && r.Estimated
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}

	for i := range out {
		slices.SortStableFunc(out[i].Trips, func(a, b NextTrip) int {
			return cmp.Compare(a.ArrivalTime, b.ArrivalTime)
		})
		out[i].Trips = slices.CompactFunc(out[i].Trips, func(a, b NextTrip) bool {
			return a.ArrivalTime == b.ArrivalTime && a.TripID == b.TripID
		})
	}

	slices.SortStableFunc(out, func(a, b Route) int {
		return cmp.Compare(firstArrival(a), firstArrival(b))
	})
	return out
}

func firstArrival(r Route) int64 {
	if len(r.Trips) == 0 {
		return 1<<63 - 1
	}
	return r.Trips[0].ArrivalTime
}
