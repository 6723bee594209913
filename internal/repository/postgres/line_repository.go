package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"go.uber.org/zap"
)

type lineRepository struct {
	db *DB
}

// NewLineRepository создает новый экземпляр line repository
func NewLineRepository(db *DB) repository.LineRepository {
	return &lineRepository{db: db}
}

type lineRow struct {
	ID            string           `db:"id"`
	OriginalID    string           `db:"original_id"`
	Code          string           `db:"code"`
	Name          string           `db:"name"`
	DisplayName   string           `db:"display_name"`
	Description   string           `db:"description"`
	Origin        string           `db:"origin"`
	Destination   string           `db:"destination"`
	Color         string           `db:"color"`
	TransportType string           `db:"transport_type"`
	Category      *string          `db:"category"`
	StationIDs    pq.StringArray   `db:"station_ids"`
	Extra         domain.ExtraData `db:"extra"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

func newLineRow(l domain.Line) lineRow {
	stationIDs := l.StationIDs
	if stationIDs == nil {
		stationIDs = []string{}
	}
	return lineRow{
		ID:            l.ID,
		OriginalID:    l.OriginalID,
		Code:          l.Code,
		Name:          l.Name,
		DisplayName:   l.DisplayName,
		Description:   l.Description,
		Origin:        l.Origin,
		Destination:   l.Destination,
		Color:         l.Color,
		TransportType: string(l.TransportType),
		Category:      l.Category,
		StationIDs:    stationIDs,
		Extra:         l.Extra,
	}
}

func (r lineRow) toDomain() domain.Line {
	return domain.Line{
		ID:            r.ID,
		OriginalID:    r.OriginalID,
		Code:          r.Code,
		Name:          r.Name,
		DisplayName:   r.DisplayName,
		Description:   r.Description,
		Origin:        r.Origin,
		Destination:   r.Destination,
		Color:         r.Color,
		TransportType: domain.TransportType(r.TransportType),
		Category:      r.Category,
		StationIDs:    []string(r.StationIDs),
		Extra:         r.Extra,
		UpdatedAt:     r.UpdatedAt,
	}
}

const upsertLineQuery = `
	INSERT INTO transit_lines (
		id, original_id, code, name, display_name, description, origin, destination,
		color, transport_type, category, station_ids, extra, updated_at
	) VALUES (
		:id, :original_id, :code, :name, :display_name, :description, :origin, :destination,
		:color, :transport_type, :category, :station_ids, :extra, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		original_id    = EXCLUDED.original_id,
		code           = EXCLUDED.code,
		name           = EXCLUDED.name,
		display_name   = EXCLUDED.display_name,
		description    = EXCLUDED.description,
		origin         = EXCLUDED.origin,
		destination    = EXCLUDED.destination,
		color          = EXCLUDED.color,
		transport_type = EXCLUDED.transport_type,
		category       = EXCLUDED.category,
		station_ids    = EXCLUDED.station_ids,
		extra          = EXCLUDED.extra,
		updated_at     = NOW()
`

const selectLineColumns = `
	SELECT id, original_id, code, name, display_name, description, origin, destination,
		color, transport_type, category, station_ids, extra, updated_at
	FROM transit_lines
`

// UpsertMany - одна транзакция на вызов; вызывающий код режет данные на батчи
func (r *lineRepository) UpsertMany(ctx context.Context, lines []domain.Line) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}

	err := execBatch(ctx, r.db, upsertLineQuery, lines,
		func(v domain.Line) any { return newLineRow(v) },
		func(v domain.Line) string { return v.ID },
	)
	if err != nil {
		return 0, fmt.Errorf("upsert lines: %w", err)
	}

	r.db.logger.Debug("Lines upserted", zap.Int("count", len(lines)))
	return len(lines), nil
}

// GetByTransportType возвращает все линии режима
func (r *lineRepository) GetByTransportType(ctx context.Context, mode domain.TransportType) ([]domain.Line, error) {
	var rows []lineRow
	query := selectLineColumns + ` WHERE transport_type = $1 ORDER BY code, name`
	if err := r.db.SelectContext(ctx, &rows, query, string(mode)); err != nil {
		return nil, fmt.Errorf("get lines by transport type: %w", err)
	}
	return linesToDomain(rows), nil
}

// GetByIDs возвращает линии по списку id
func (r *lineRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Line, error) {
	if len(ids) == 0 {
		return []domain.Line{}, nil
	}
	var rows []lineRow
	query := selectLineColumns + ` WHERE id = ANY($1) ORDER BY code, name`
	if err := r.db.SelectContext(ctx, &rows, query, pq.StringArray(ids)); err != nil {
		return nil, fmt.Errorf("get lines by ids: %w", err)
	}
	return linesToDomain(rows), nil
}

func linesToDomain(rows []lineRow) []domain.Line {
	out := make([]domain.Line, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
