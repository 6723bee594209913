package repository

import (
	"context"

	"github.com/transit-aggregator/internal/domain"
)

// UserRepository - то немногое из пользовательской подсистемы, что нужно ядру
type UserRepository interface {
	// GetUsersWithFavorites возвращает пользователей, у которых есть избранное
	GetUsersWithFavorites(ctx context.Context) ([]domain.UserFavorites, error)

	// HasNotificationBeenSent проверяет маркер (user, alert)
	HasNotificationBeenSent(ctx context.Context, userID int64, alertID string) (bool, error)

	// LogNotificationSent атомарно ставит маркер; false - маркер уже был
	LogNotificationSent(ctx context.Context, userID int64, alertID string) (bool, error)
}
