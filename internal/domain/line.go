package domain

import (
	"strings"
	"time"
)

type Line struct {
	ID            string        `json:"id" db:"id"`
	OriginalID    string        `json:"original_id" db:"original_id"`
	Code          string        `json:"code" db:"code"`
	Name          string        `json:"name" db:"name"`
	DisplayName   string        `json:"display_name" db:"display_name"`
	Description   string        `json:"description,omitempty" db:"description"`
	Origin        string        `json:"origin,omitempty" db:"origin"`
	Destination   string        `json:"destination,omitempty" db:"destination"`
	Color         string        `json:"color" db:"color"`
	TransportType TransportType `json:"transport_type" db:"transport_type"`
	Category      *string       `json:"category,omitempty" db:"category"`
	StationIDs    []string      `json:"station_ids,omitempty" db:"-"`
	Extra         ExtraData     `json:"extra,omitempty" db:"extra"`
	HasAlerts     bool          `json:"has_alerts" db:"-"`
	Alerts        []Alert       `json:"alerts" db:"-"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// LineID строит идентификатор линии "{mode}-{original id}".
func LineID(mode TransportType, originalID string) string {
	return string(mode) + "-" + originalID
}

// BuildDisplayName - пиктограмма режима + имя линии.
func BuildDisplayName(mode TransportType, name string) string {
	name = strings.TrimSpace(name)
	if p := mode.Pictogram(); p != "" {
		return p + " " + name
	}
	return name
}

// SetAlerts выставляет алерты и пересчитывает HasAlerts.
func (l *Line) SetAlerts(alerts []Alert) {
	if alerts == nil {
		alerts = []Alert{}
	}
	l.Alerts = alerts
	l.HasAlerts = len(alerts) > 0
}
