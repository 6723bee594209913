package domain

import (
	"strings"
	"time"
)

// RecentAlertWindow - алерты старше окна не уходят в уведомления.
const RecentAlertWindow = 24 * time.Hour

type Alert struct {
	ID               string           `json:"id" db:"id"`
	ExternalID       string           `json:"external_id" db:"external_id"`
	TransportType    TransportType    `json:"transport_type" db:"transport_type"`
	BeginDate        time.Time        `json:"begin_date" db:"begin_date"`
	EndDate          *time.Time       `json:"end_date,omitempty" db:"end_date"`
	Status           string           `json:"status,omitempty" db:"status"`
	Cause            string           `json:"cause,omitempty" db:"cause"`
	Publications     []Publication    `json:"publications" db:"-"`
	AffectedEntities []AffectedEntity `json:"affected_entities" db:"-"`
}

type Publication struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// AffectedEntity - любое подмножество полей может быть пустым, зависит от провайдера.
type AffectedEntity struct {
	LineCode     string `json:"line_code,omitempty"`
	LineName     string `json:"line_name,omitempty"`
	StationCode  string `json:"station_code,omitempty"`
	StationName  string `json:"station_name,omitempty"`
	Direction    string `json:"direction,omitempty"`
	EntranceCode string `json:"entrance_code,omitempty"`
	EntranceName string `json:"entrance_name,omitempty"`
}

func AlertID(mode TransportType, externalID string) string {
	return string(mode) + "-" + externalID
}

// IsActive: конец не задан или в будущем.
func (a *Alert) IsActive(now time.Time) bool {
	return a.EndDate == nil || a.EndDate.After(now)
}

// IsRecent: начало в пределах последних 24ч.
func (a *Alert) IsRecent(now time.Time) bool {
	return !a.BeginDate.Before(now.Add(-RecentAlertWindow))
}

// IsRelevantTo - тот же режим и совпадение кода станции или кода линии.
// Пустые коды не совпадают ни с чем.
func (a *Alert) IsRelevantTo(f Favorite) bool {
	if a.TransportType != f.TransportType {
		return false
	}
	for _, e := range a.AffectedEntities {
		if f.StationCode != "" && e.StationCode != "" && strings.EqualFold(e.StationCode, f.StationCode) {
			return true
		}
		if f.LineCode != "" && e.LineCode != "" && strings.EqualFold(e.LineCode, f.LineCode) {
			return true
		}
	}
	return false
}

// PublicationFor выбирает публикацию на языке пользователя, иначе первую.
func (a *Alert) PublicationFor(language string) (Publication, bool) {
	if len(a.Publications) == 0 {
		return Publication{}, false
	}
	for _, p := range a.Publications {
		if strings.EqualFold(p.Language, language) {
			return p, true
		}
	}
	return a.Publications[0], true
}

// AlertsMap - имя линии -> активные алерты.
type AlertsMap map[string][]Alert

// BuildAlertsMap группирует алерты по имени затронутой линии, не более одного раза на линию.
func BuildAlertsMap(alerts []Alert) AlertsMap {
	m := make(AlertsMap)
	for _, a := range alerts {
		seen := make(map[string]struct{})
		for _, e := range a.AffectedEntities {
			if e.LineName == "" {
				continue
			}
			if _, ok := seen[e.LineName]; ok {
				continue
			}
			seen[e.LineName] = struct{}{}
			m[e.LineName] = append(m[e.LineName], a)
		}
	}
	return m
}

func (m AlertsMap) For(lineName string) []Alert {
	if m == nil || lineName == "" {
		return nil
	}
	return m[lineName]
}
