package postgres

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
)

type alertRepository struct {
	db *DB
}

// NewAlertRepository создает новый экземпляр alert repository
func NewAlertRepository(db *DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

// RegisterAlert - INSERT ... ON CONFLICT DO NOTHING по (external_id, transport_type)
func (r *alertRepository) RegisterAlert(ctx context.Context, alert domain.Alert) (bool, error) {
	publications, err := json.Marshal(alert.Publications)
	if err != nil {
		return false, fmt.Errorf("marshal publications: %w", err)
	}
	entities, err := json.Marshal(alert.AffectedEntities)
	if err != nil {
		return false, fmt.Errorf("marshal affected entities: %w", err)
	}

	query := `
		INSERT INTO transit_alerts (
			id, external_id, transport_type, begin_date, end_date, status, cause,
			publications, affected_entities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id, transport_type) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.ExternalID,
		string(alert.TransportType),
		alert.BeginDate,
		alert.EndDate,
		alert.Status,
		alert.Cause,
		publications,
		entities,
	)
	if err != nil {
		return false, fmt.Errorf("register alert %s: %w", alert.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Exists проверяет, зарегистрирован ли алерт
func (r *alertRepository) Exists(ctx context.Context, mode domain.TransportType, externalID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM transit_alerts WHERE external_id = $1 AND transport_type = $2)`
	if err := r.db.GetContext(ctx, &exists, query, externalID, string(mode)); err != nil {
		return false, fmt.Errorf("check alert exists: %w", err)
	}
	return exists, nil
}
