package domain

import "time"

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// ModeStats статистика по одному режиму
type ModeStats struct {
	Lines        int `json:"lines"`
	Stations     int `json:"stations"`
	ActiveAlerts int `json:"active_alerts"`
}

// Statistics представляет общую статистику по режимам
type Statistics struct {
	ByMode      map[TransportType]ModeStats `json:"by_mode"`
	Total       ModeStats                   `json:"total"`
	LastUpdated time.Time                   `json:"last_updated"`
}
