package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jamespfennell/gtfs"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/infrastructure/gtfsrt"
	"github.com/transit-aggregator/internal/infrastructure/gtfsstatic"
)

const (
	defaultTimezone       = "Europe/Madrid"
	defaultScheduleWindow = 2 * time.Hour
	defaultScheduledTrips = 20
	gtfsLongNameSeparator = " - "
)

// StaticLoader - последняя загруженная версия статического GTFS.
type StaticLoader interface {
	Load(ctx context.Context) (*gtfs.Static, error)
}

// RealtimeFeeds - разбор GTFS-RT фидов.
type RealtimeFeeds interface {
	Alerts(ctx context.Context, url string) ([]gtfsrt.Alert, error)
	Arrivals(ctx context.Context, url string, stopIDs []string) ([]gtfsrt.Arrival, error)
}

type GTFSOptions struct {
	AlertsURL      string
	TripUpdatesURL string
	// RouteFilter - префикс short_name, например "R" для Rodalies.
	RouteFilter string
	Location    *time.Location
	Window      time.Duration
	Limit       int
}

// GTFSSource - режимы на GTFS (Rodalies, FGC): статика для линий и станций,
// GTFS-RT для алертов и прибытий, расписание как запасной вариант.
type GTFSSource struct {
	mode     domain.TransportType
	static   StaticLoader
	realtime RealtimeFeeds
	opts     GTFSOptions
	logger   *zap.Logger

	mu    sync.Mutex
	index *gtfsIndex
}

type gtfsIndex struct {
	static *gtfs.Static
	routes map[string]*gtfs.Route
	stops  map[string]*gtfs.Stop
	trips  map[string]*gtfs.ScheduledTrip
}

func NewGTFSSource(mode domain.TransportType, static StaticLoader, realtime RealtimeFeeds, opts GTFSOptions, logger *zap.Logger) *GTFSSource {
	if opts.Location == nil {
		loc, err := time.LoadLocation(defaultTimezone)
		if err != nil {
			logger.Warn("Timezone not available, using UTC", zap.String("tz", defaultTimezone), zap.Error(err))
			loc = time.UTC
		}
		opts.Location = loc
	}
	if opts.Window <= 0 {
		opts.Window = defaultScheduleWindow
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultScheduledTrips
	}
	return &GTFSSource{
		mode:     mode,
		static:   static,
		realtime: realtime,
		opts:     opts,
		logger:   logger,
	}
}

func (s *GTFSSource) Mode() domain.TransportType {
	return s.mode
}

// lookup - индексы по id для текущей версии статики, перестраиваются при перезагрузке.
func (s *GTFSSource) lookup(ctx context.Context) (*gtfsIndex, error) {
	static, err := s.static.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil && s.index.static == static {
		return s.index, nil
	}

	idx := &gtfsIndex{
		static: static,
		routes: make(map[string]*gtfs.Route, len(static.Routes)),
		stops:  make(map[string]*gtfs.Stop, len(static.Stops)),
		trips:  make(map[string]*gtfs.ScheduledTrip, len(static.Trips)),
	}
	for i := range static.Routes {
		idx.routes[static.Routes[i].Id] = &static.Routes[i]
	}
	for i := range static.Stops {
		idx.stops[static.Stops[i].Id] = &static.Stops[i]
	}
	for i := range static.Trips {
		idx.trips[static.Trips[i].ID] = &static.Trips[i]
	}
	s.index = idx
	return idx, nil
}

func (s *GTFSSource) FetchLines(ctx context.Context) ([]domain.Line, error) {
	idx, err := s.lookup(ctx)
	if err != nil {
		return nil, err
	}

	routes := gtfsstatic.Routes(idx.static, s.opts.RouteFilter)
	lines := make([]domain.Line, 0, len(routes))
	for _, r := range routes {
		name := r.ShortName
		if name == "" {
			name = r.LongName
		}
		l := domain.Line{
			OriginalID:    r.Id,
			Code:          name,
			Name:          name,
			Description:   r.LongName,
			Color:         r.Color,
			TransportType: s.mode,
			Extra:         domain.ExtraData{},
		}
		if origin, dest, ok := strings.Cut(r.LongName, gtfsLongNameSeparator); ok {
			l.Origin = strings.TrimSpace(origin)
			l.Destination = strings.TrimSpace(dest)
		}
		if r.Agency != nil && r.Agency.Name != "" {
			l.Extra["agency"] = r.Agency.Name
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (s *GTFSSource) FetchStationsByLine(ctx context.Context, line domain.Line) ([]domain.Station, error) {
	idx, err := s.lookup(ctx)
	if err != nil {
		return nil, err
	}

	stops := gtfsstatic.StopsForRoute(idx.static, line.OriginalID)
	stations := make([]domain.Station, 0, len(stops))
	for _, rs := range stops {
		stop := rs.Stop
		extra := domain.ExtraData{}
		// станции одного узла на разных линиях группируются по parent_station
		group := stop.Id
		if stop.Parent != nil {
			extra[domain.ExtraParentStation] = stop.Parent.Id
			group = stop.Parent.Id
		}
		extra[domain.ExtraGroupCode] = group
		if stop.PlatformCode != "" {
			extra[domain.ExtraPlatform] = stop.PlatformCode
		}
		if rs.Headsign != "" {
			extra[domain.ExtraDestination] = rs.Headsign
		}

		st := domain.Station{
			ID:            domain.StationID(s.mode, line.Code, stop.Id),
			OriginalID:    stop.Id,
			Code:          stop.Id,
			Name:          stop.Name,
			Order:         rs.Sequence,
			TransportType: s.mode,
			LineID:        line.ID,
			LineCode:      line.Code,
			LineName:      line.Name,
			LineColor:     line.Color,
			Extra:         extra,
		}
		if stop.Latitude != nil {
			st.Lat = *stop.Latitude
		}
		if stop.Longitude != nil {
			st.Lon = *stop.Longitude
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func (s *GTFSSource) FetchAlerts(ctx context.Context) ([]domain.Alert, error) {
	if s.opts.AlertsURL == "" {
		return nil, nil
	}
	raw, err := s.realtime.Alerts(ctx, s.opts.AlertsURL)
	if err != nil {
		return nil, err
	}

	// без статики алерты остаются, но без имён линий и станций
	idx, err := s.lookup(ctx)
	if err != nil {
		s.logger.Warn("GTFS static unavailable for alert enrichment",
			zap.String("mode", string(s.mode)), zap.Error(err))
		idx = nil
	}

	out := make([]domain.Alert, 0, len(raw))
	for _, a := range raw {
		alert := domain.Alert{
			ID:            domain.AlertID(s.mode, a.ID),
			ExternalID:    a.ID,
			TransportType: s.mode,
			EndDate:       a.End,
			Status:        a.Effect,
			Cause:         a.Cause,
		}
		// без active_period.start начало неизвестно: нулевое время не считается свежим
		if a.Begin != nil {
			alert.BeginDate = *a.Begin
		}
		alert.Publications = pairTranslations(a.Headers, a.Descriptions)

		for _, routeID := range a.RouteIDs {
			e := domain.AffectedEntity{LineCode: routeID, LineName: routeID}
			if idx != nil {
				if r, ok := idx.routes[routeID]; ok && r.ShortName != "" {
					e.LineCode, e.LineName = r.ShortName, r.ShortName
				}
			}
			alert.AffectedEntities = append(alert.AffectedEntities, e)
		}
		for _, stopID := range a.StopIDs {
			e := domain.AffectedEntity{StationCode: stopID}
			if idx != nil {
				if st, ok := idx.stops[stopID]; ok {
					e.StationName = st.Name
				}
			}
			alert.AffectedEntities = append(alert.AffectedEntities, e)
		}
		out = append(out, alert)
	}
	return out, nil
}

func pairTranslations(headers, descriptions []gtfsrt.Translation) []domain.Publication {
	var out []domain.Publication
	seen := make(map[string]int)
	for _, h := range headers {
		seen[h.Language] = len(out)
		out = append(out, domain.Publication{Language: h.Language, Title: h.Text})
	}
	for _, d := range descriptions {
		if i, ok := seen[d.Language]; ok {
			out[i].Body = d.Text
			continue
		}
		seen[d.Language] = len(out)
		out = append(out, domain.Publication{Language: d.Language, Body: d.Text})
	}
	return out
}

// FetchRoutes - GTFS-RT trip updates для остановки.
func (s *GTFSSource) FetchRoutes(ctx context.Context, station domain.Station) ([]domain.Route, error) {
	if s.opts.TripUpdatesURL == "" {
		return nil, nil
	}
	arrivals, err := s.realtime.Arrivals(ctx, s.opts.TripUpdatesURL, []string{station.OriginalID})
	if err != nil {
		return nil, err
	}
	if len(arrivals) == 0 {
		return nil, nil
	}

	idx, err := s.lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s static for realtime: %w", s.mode, err)
	}

	routes := make([]domain.Route, 0, len(arrivals))
	for _, a := range arrivals {
		r := domain.Route{
			LineCode:      a.RouteID,
			LineName:      a.RouteID,
			TransportType: s.mode,
			Trips: []domain.NextTrip{{
				ArrivalTime: a.ArrivalTime,
				Delay:       a.Delay,
				TripID:      a.TripID,
			}},
		}
		trip, hasTrip := idx.trips[a.TripID]
		routeID := a.RouteID
		if routeID == "" && hasTrip && trip.Route != nil {
			routeID = trip.Route.Id
		}
		if route, ok := idx.routes[routeID]; ok {
			r.LineCode, r.LineName, r.Color = route.ShortName, route.ShortName, route.Color
		}
		if hasTrip {
			r.Destination = trip.Headsign
		}
		if st, ok := idx.stops[a.StopID]; ok {
			r.Trips[0].Platform = st.PlatformCode
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// ScheduledRoutes - плановые отправления в окне, время в локальной зоне сети.
func (s *GTFSSource) ScheduledRoutes(ctx context.Context, station domain.Station, now time.Time) ([]domain.Route, error) {
	idx, err := s.lookup(ctx)
	if err != nil {
		return nil, err
	}

	deps := gtfsstatic.Departures(idx.static, []string{station.OriginalID}, now.In(s.opts.Location), s.opts.Window, s.opts.Limit)
	routes := make([]domain.Route, 0, len(deps))
	for _, d := range deps {
		routes = append(routes, domain.Route{
			LineCode:      d.RouteName,
			LineName:      d.RouteName,
			Color:         d.Color,
			Destination:   d.Headsign,
			TransportType: s.mode,
			Trips: []domain.NextTrip{{
				ArrivalTime: d.Time.Unix(),
				Platform:    d.Platform,
				TripID:      d.TripID,
			}},
		})
	}
	return routes, nil
}
