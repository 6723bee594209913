package tmb

import (
	"context"
	"fmt"
	"net/url"
)

// Arrival - один ближайший поезд/автобус. ArrivalTime в миллисекундах epoch.
type Arrival struct {
	LineCode    string
	LineName    string
	Color       string
	Destination string
	ArrivalTime int64
	TripID      string
}

type metroArrivalsResponse struct {
	Timestamp int64 `json:"timestamp"`
	Lines     []struct {
		LineCode FlexString `json:"codi_linia"`
		LineName string     `json:"nom_linia"`
		Color    string     `json:"color_linia"`
		Stations []struct {
			StationCode FlexString `json:"codi_estacio"`
			Routes      []struct {
				LineCode    FlexString `json:"codi_linia"`
				LineName    string     `json:"nom_linia"`
				Color       string     `json:"color_linia"`
				Destination string     `json:"desti_trajecte"`
				Trains      []struct {
					ServiceCode FlexString `json:"codi_servei"`
					Arrival     int64      `json:"temps_arribada"`
				} `json:"propers_trens"`
			} `json:"linies_trajectes"`
		} `json:"estacions"`
	} `json:"linies"`
}

type busArrivalsResponse struct {
	Timestamp int64 `json:"timestamp"`
	Stops     []struct {
		StopCode FlexString `json:"codi_parada"`
		Routes   []struct {
			LineCode    FlexString `json:"codi_linia"`
			LineName    string     `json:"nom_linia"`
			Color       string     `json:"color_linia"`
			Destination string     `json:"desti_trajecte"`
			Buses       []struct {
				BusID   FlexString `json:"id_bus"`
				Arrival int64      `json:"temps_arribada"`
			} `json:"propers_busos"`
		} `json:"linies_trajectes"`
	} `json:"parades"`
}

// MetroArrivals - iTransit для одной станции метро.
func (c *Client) MetroArrivals(ctx context.Context, stationCode string) ([]Arrival, error) {
	endpoint := fmt.Sprintf("%s/itransit/metro/estacions?estacions=%s", c.baseURL, url.QueryEscape(stationCode))
	var resp metroArrivalsResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("tmb itransit metro %s: %w", stationCode, err)
	}

	var out []Arrival
	for _, line := range resp.Lines {
		for _, st := range line.Stations {
			for _, r := range st.Routes {
				lineCode, lineName, color := r.LineCode.String(), r.LineName, r.Color
				if lineCode == "" {
					lineCode = line.LineCode.String()
				}
				if lineName == "" {
					lineName = line.LineName
				}
				if color == "" {
					color = line.Color
				}
				for _, t := range r.Trains {
					out = append(out, Arrival{
						LineCode:    lineCode,
						LineName:    lineName,
						Color:       color,
						Destination: r.Destination,
						ArrivalTime: t.Arrival,
						TripID:      t.ServiceCode.String(),
					})
				}
			}
		}
	}
	return out, nil
}

// BusArrivals - iBus для одной остановки.
func (c *Client) BusArrivals(ctx context.Context, stopCode string) ([]Arrival, error) {
	endpoint := fmt.Sprintf("%s/itransit/bus/parades/%s", c.baseURL, url.PathEscape(stopCode))
	var resp busArrivalsResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("tmb itransit bus %s: %w", stopCode, err)
	}

	var out []Arrival
	for _, stop := range resp.Stops {
		for _, r := range stop.Routes {
			for _, b := range r.Buses {
				out = append(out, Arrival{
					LineCode:    r.LineCode.String(),
					LineName:    r.LineName,
					Color:       r.Color,
					Destination: r.Destination,
					ArrivalTime: b.Arrival,
					TripID:      b.BusID.String(),
				})
			}
		}
	}
	return out, nil
}
