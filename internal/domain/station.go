package domain

import (
	"time"

	"github.com/transit-aggregator/internal/pkg/fuzzy"
)

type Station struct {
	ID                string        `json:"id" db:"id"`
	OriginalID        string        `json:"original_id" db:"original_id"`
	Code              string        `json:"code" db:"code"`
	Name              string        `json:"name" db:"name"`
	Lat               float64       `json:"lat" db:"lat"`
	Lon               float64       `json:"lon" db:"lon"`
	Order             int           `json:"order" db:"station_order"`
	TransportType     TransportType `json:"transport_type" db:"transport_type"`
	LineID            string        `json:"line_id,omitempty" db:"line_id"`
	LineCode          string        `json:"line_code,omitempty" db:"line_code"`
	LineName          string        `json:"line_name,omitempty" db:"line_name"`
	LineColor         string        `json:"line_color,omitempty" db:"line_color"`
	Extra             ExtraData     `json:"extra,omitempty" db:"extra"`
	ConnectionLineIDs []string      `json:"connection_line_ids,omitempty" db:"-"`
	HasAlerts         bool          `json:"has_alerts" db:"-"`
	Alerts            []Alert       `json:"alerts" db:"-"`
	Distance          *float64      `json:"distance_km,omitempty" db:"-"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// StationID строит "{mode}-{line code}-{original id}", для режимов без линий "{mode}-{original id}".
func StationID(mode TransportType, lineCode, originalID string) string {
	if lineCode == "" {
		return string(mode) + "-" + originalID
	}
	return string(mode) + "-" + lineCode + "-" + originalID
}

// GroupKey - ключ пересадочного узла: group_code провайдера или нормализованное имя.
func (s *Station) GroupKey() string {
	if gc := s.Extra.Get(ExtraGroupCode); gc != "" {
		return "g:" + gc
	}
	return "n:" + fuzzy.Normalize(s.Name)
}

func (s *Station) SetAlerts(alerts []Alert) {
	if alerts == nil {
		alerts = []Alert{}
	}
	s.Alerts = alerts
	s.HasAlerts = len(alerts) > 0
}
