package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamSyncRequests  = "stream:transit:sync"
	StreamNotifications = "stream:transit:notifications"
)

// SyncRequestEvent - запрос на внеплановую синхронизацию (admin API -> worker)
type SyncRequestEvent struct {
	RequestID   uuid.UUID  `json:"request_id"`
	Mode        string     `json:"mode"`
	Entity      string     `json:"entity"`
	RequestedBy string     `json:"requested_by,omitempty"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
}

// JobID возвращает id задачи планировщика или ошибку для некорректного запроса.
func (e *SyncRequestEvent) JobID() (string, error) {
	mode, err := ParseTransportType(e.Mode)
	if err != nil {
		return "", err
	}
	entity, err := ParseSyncEntity(e.Entity)
	if err != nil {
		return "", err
	}
	return SyncJobID(mode, entity), nil
}

// AlertNotificationEvent - уведомление для push-транспорта
type AlertNotificationEvent struct {
	EventID       uuid.UUID     `json:"event_id"`
	UserID        int64         `json:"user_id"`
	AlertID       string        `json:"alert_id"`
	TransportType TransportType `json:"transport_type"`
	StationCode   string        `json:"station_code,omitempty"`
	LineCode      string        `json:"line_code,omitempty"`
	StationName   string        `json:"station_name,omitempty"`
	Language      string        `json:"language"`
	Title         string        `json:"title"`
	Body          string        `json:"body"`
	CreatedAt     time.Time     `json:"created_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
