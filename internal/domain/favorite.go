package domain

import "time"

type Favorite struct {
	TransportType TransportType `json:"transport_type" db:"transport_type"`
	StationCode   string        `json:"station_code" db:"station_code"`
	LineCode      string        `json:"line_code" db:"line_code"`
	StationName   string        `json:"station_name" db:"station_name"`
}

// UserFavorites - пользователь с избранным. Ядро только читает.
type UserFavorites struct {
	UserID    int64      `json:"user_id"`
	Language  string     `json:"language"`
	Favorites []Favorite `json:"favorites"`
}

// NotificationLog - маркер "уведомление отправлено" для (user, alert).
type NotificationLog struct {
	UserID  int64     `db:"user_id"`
	AlertID string    `db:"alert_id"`
	SentAt  time.Time `db:"sent_at"`
}
