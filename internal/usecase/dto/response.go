package dto

import "time"

// SyncRequestResponse - ответ на admin-запрос синхронизации
type SyncRequestResponse struct {
	RequestID string `json:"request_id"`
	JobID     string `json:"job_id"`
	MessageID string `json:"message_id"`
}

// HealthResponse - состояние зависимостей
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Time   time.Time         `json:"time"`
}
