package repository

import (
	"context"

	"github.com/transit-aggregator/internal/domain"
)

// AlertRepository - журнал зарегистрированных алертов
type AlertRepository interface {
	// RegisterAlert сохраняет алерт; повторная регистрация (external_id + mode) - no-op.
	// Возвращает true, если алерт новый.
	RegisterAlert(ctx context.Context, alert domain.Alert) (bool, error)

	// Exists проверяет, зарегистрирован ли алерт
	Exists(ctx context.Context, mode domain.TransportType, externalID string) (bool, error)
}
