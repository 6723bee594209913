package postgres

import (
	"context"
	"fmt"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
)

type userRepository struct {
	db *DB
}

// NewUserRepository создает новый экземпляр user repository
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

type favoriteRow struct {
	UserID        int64  `db:"user_id"`
	Language      string `db:"language"`
	TransportType string `db:"transport_type"`
	StationCode   string `db:"station_code"`
	LineCode      string `db:"line_code"`
	StationName   string `db:"station_name"`
}

// GetUsersWithFavorites возвращает пользователей, у которых есть избранное
func (r *userRepository) GetUsersWithFavorites(ctx context.Context) ([]domain.UserFavorites, error) {
	query := `
		SELECT u.id AS user_id, u.language, f.transport_type, f.station_code, f.line_code, f.station_name
		FROM users u
		JOIN user_favorites f ON f.user_id = u.id
		ORDER BY u.id, f.id
	`
	var rows []favoriteRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("get users with favorites: %w", err)
	}

	var users []domain.UserFavorites
	for _, row := range rows {
		if len(users) == 0 || users[len(users)-1].UserID != row.UserID {
			users = append(users, domain.UserFavorites{
				UserID:   row.UserID,
				Language: row.Language,
			})
		}
		u := &users[len(users)-1]
		u.Favorites = append(u.Favorites, domain.Favorite{
			TransportType: domain.TransportType(row.TransportType),
			StationCode:   row.StationCode,
			LineCode:      row.LineCode,
			StationName:   row.StationName,
		})
	}
	return users, nil
}

// HasNotificationBeenSent проверяет маркер (user, alert)
func (r *userRepository) HasNotificationBeenSent(ctx context.Context, userID int64, alertID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM notification_logs WHERE user_id = $1 AND alert_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, alertID); err != nil {
		return false, fmt.Errorf("check notification sent: %w", err)
	}
	return exists, nil
}

// LogNotificationSent атомарно ставит маркер; false - другой запуск успел первым
func (r *userRepository) LogNotificationSent(ctx context.Context, userID int64, alertID string) (bool, error) {
	query := `
		INSERT INTO notification_logs (user_id, alert_id, sent_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, alert_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, userID, alertID)
	if err != nil {
		return false, fmt.Errorf("log notification sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
