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

type stationRepository struct {
	db *DB
}

// NewStationRepository создает новый экземпляр station repository
func NewStationRepository(db *DB) repository.StationRepository {
	return &stationRepository{db: db}
}

type stationRow struct {
	ID                string           `db:"id"`
	OriginalID        string           `db:"original_id"`
	Code              string           `db:"code"`
	Name              string           `db:"name"`
	Lat               float64          `db:"lat"`
	Lon               float64          `db:"lon"`
	Order             int              `db:"station_order"`
	TransportType     string           `db:"transport_type"`
	LineID            string           `db:"line_id"`
	LineCode          string           `db:"line_code"`
	LineName          string           `db:"line_name"`
	LineColor         string           `db:"line_color"`
	Extra             domain.ExtraData `db:"extra"`
	ConnectionLineIDs pq.StringArray   `db:"connection_line_ids"`
	UpdatedAt         time.Time        `db:"updated_at"`
}

func newStationRow(s domain.Station) stationRow {
	conns := s.ConnectionLineIDs
	if conns == nil {
		conns = []string{}
	}
	return stationRow{
		ID:                s.ID,
		OriginalID:        s.OriginalID,
		Code:              s.Code,
		Name:              s.Name,
		Lat:               s.Lat,
		Lon:               s.Lon,
		Order:             s.Order,
		TransportType:     string(s.TransportType),
		LineID:            s.LineID,
		LineCode:          s.LineCode,
		LineName:          s.LineName,
		LineColor:         s.LineColor,
		Extra:             s.Extra,
		ConnectionLineIDs: conns,
	}
}

func (r stationRow) toDomain() domain.Station {
	return domain.Station{
		ID:                r.ID,
		OriginalID:        r.OriginalID,
		Code:              r.Code,
		Name:              r.Name,
		Lat:               r.Lat,
		Lon:               r.Lon,
		Order:             r.Order,
		TransportType:     domain.TransportType(r.TransportType),
		LineID:            r.LineID,
		LineCode:          r.LineCode,
		LineName:          r.LineName,
		LineColor:         r.LineColor,
		Extra:             r.Extra,
		ConnectionLineIDs: []string(r.ConnectionLineIDs),
		UpdatedAt:         r.UpdatedAt,
	}
}

const upsertStationQuery = `
	INSERT INTO transit_stations (
		id, original_id, code, name, lat, lon, station_order, transport_type,
		line_id, line_code, line_name, line_color, extra, connection_line_ids, updated_at
	) VALUES (
		:id, :original_id, :code, :name, :lat, :lon, :station_order, :transport_type,
		:line_id, :line_code, :line_name, :line_color, :extra, :connection_line_ids, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		original_id         = EXCLUDED.original_id,
		code                = EXCLUDED.code,
		name                = EXCLUDED.name,
		lat                 = EXCLUDED.lat,
		lon                 = EXCLUDED.lon,
		station_order       = EXCLUDED.station_order,
		transport_type      = EXCLUDED.transport_type,
		line_id             = EXCLUDED.line_id,
		line_code           = EXCLUDED.line_code,
		line_name           = EXCLUDED.line_name,
		line_color          = EXCLUDED.line_color,
		extra               = EXCLUDED.extra,
		connection_line_ids = EXCLUDED.connection_line_ids,
		updated_at          = NOW()
`

const selectStationColumns = `
	SELECT id, original_id, code, name, lat, lon, station_order, transport_type,
		line_id, line_code, line_name, line_color, extra, connection_line_ids, updated_at
	FROM transit_stations
`

// UpsertMany - одна транзакция на вызов; вызывающий код режет данные на батчи
func (r *stationRepository) UpsertMany(ctx context.Context, stations []domain.Station) (int, error) {
	if len(stations) == 0 {
		return 0, nil
	}

	err := execBatch(ctx, r.db, upsertStationQuery, stations,
		func(v domain.Station) any { return newStationRow(v) },
		func(v domain.Station) string { return v.ID },
	)
	if err != nil {
		return 0, fmt.Errorf("upsert stations: %w", err)
	}

	r.db.logger.Debug("Stations upserted", zap.Int("count", len(stations)))
	return len(stations), nil
}

// GetByTransportType возвращает все станции режима
func (r *stationRepository) GetByTransportType(ctx context.Context, mode domain.TransportType) ([]domain.Station, error) {
	var rows []stationRow
	query := selectStationColumns + ` WHERE transport_type = $1 ORDER BY line_code, station_order, name`
	if err := r.db.SelectContext(ctx, &rows, query, string(mode)); err != nil {
		return nil, fmt.Errorf("get stations by transport type: %w", err)
	}
	return stationsToDomain(rows), nil
}

// GetByLineCode возвращает станции линии в порядке следования
func (r *stationRepository) GetByLineCode(ctx context.Context, mode domain.TransportType, lineCode string) ([]domain.Station, error) {
	var rows []stationRow
	query := selectStationColumns + ` WHERE transport_type = $1 AND line_code = $2 ORDER BY station_order, name`
	if err := r.db.SelectContext(ctx, &rows, query, string(mode), lineCode); err != nil {
		return nil, fmt.Errorf("get stations by line code: %w", err)
	}
	return stationsToDomain(rows), nil
}

func stationsToDomain(rows []stationRow) []domain.Station {
	out := make([]domain.Station, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
