package source

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/infrastructure/bicing"
)

type BicingClient interface {
	Stations(ctx context.Context) ([]bicing.Station, error)
}

var bicingInfoSchema = domain.NewExtraSchema(
	[]string{"station_id", "name", "lat", "lon", "address", "capacity"},
	nil,
)

// BicingSource - станции Bicing без линий и алертов, доступность из station_status.
type BicingSource struct {
	client BicingClient
	logger *zap.Logger
}

func NewBicingSource(client BicingClient, logger *zap.Logger) *BicingSource {
	return &BicingSource{client: client, logger: logger}
}

func (s *BicingSource) Mode() domain.TransportType {
	return domain.TransportTypeBicing
}

func (s *BicingSource) FetchLines(context.Context) ([]domain.Line, error) {
	return nil, nil
}

func (s *BicingSource) FetchStationsByLine(context.Context, domain.Line) ([]domain.Station, error) {
	return nil, nil
}

func (s *BicingSource) FetchAlerts(context.Context) ([]domain.Alert, error) {
	return nil, nil
}

func (s *BicingSource) FetchAllStations(ctx context.Context) ([]domain.Station, error) {
	raw, err := s.client.Stations(ctx)
	if err != nil {
		return nil, err
	}

	stations := make([]domain.Station, 0, len(raw))
	for _, b := range raw {
		if b.ID == "" {
			continue
		}
		extra := bicingInfoSchema.Capture(b.Info)
		extra[domain.ExtraCapacity] = strconv.Itoa(b.Capacity)
		if b.Address != "" {
			extra[domain.ExtraAddress] = b.Address
		}
		if b.HasStatus {
			extra[domain.ExtraBikes] = strconv.Itoa(b.Bikes)
			extra[domain.ExtraMechanicalBikes] = strconv.Itoa(b.MechanicalBikes)
			extra[domain.ExtraElectricalBikes] = strconv.Itoa(b.ElectricalBikes)
			extra[domain.ExtraDocks] = strconv.Itoa(b.Docks)
			extra[domain.ExtraStatus] = b.Status
		}
		stations = append(stations, domain.Station{
			ID:            domain.StationID(s.Mode(), "", b.ID),
			OriginalID:    b.ID,
			Code:          b.ID,
			Name:          b.Name,
			Lat:           b.Lat,
			Lon:           b.Lon,
			TransportType: s.Mode(),
			Extra:         extra,
		})
	}
	return stations, nil
}
