package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/repository/postgres"
	"go.uber.org/zap"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewLineRepositoryForTest creates a line repository with test database and logger
func NewLineRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.LineRepository {
	return postgres.NewLineRepository(NewDBForTest(db, logger))
}

// NewStationRepositoryForTest creates a station repository with test database and logger
func NewStationRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.StationRepository {
	return postgres.NewStationRepository(NewDBForTest(db, logger))
}

// NewAlertRepositoryForTest creates an alert repository with test database and logger
func NewAlertRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.AlertRepository {
	return postgres.NewAlertRepository(NewDBForTest(db, logger))
}

// NewUserRepositoryForTest creates a user repository with test database and logger
func NewUserRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.UserRepository {
	return postgres.NewUserRepository(NewDBForTest(db, logger))
}

// NewStatsRepositoryForTest creates a stats repository with test database and logger
func NewStatsRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.StatsRepository {
	return postgres.NewStatsRepository(NewDBForTest(db, logger), logger)
}
