package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFixtures loads SQL fixture files into the database
func LoadFixtures(db *sql.DB, fixturesPath string, files []string) error {
	for _, file := range files {
		path := filepath.Join(fixturesPath, file)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("load fixture %s: %w", file, err)
		}
		fmt.Printf("Loaded fixture: %s\n", file)
	}

	return nil
}

// FavoriteFixture - избранное для InsertUserWithFavorites
type FavoriteFixture struct {
	TransportType string
	StationCode   string
	LineCode      string
	StationName   string
}

// InsertUserWithFavorites создаёт пользователя с избранным и возвращает его id
func InsertUserWithFavorites(ctx context.Context, db *sql.DB, language string, favorites ...FavoriteFixture) (int64, error) {
	var userID int64
	err := db.QueryRowContext(ctx,
		"INSERT INTO users (language) VALUES ($1) RETURNING id", language).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	for _, f := range favorites {
		_, err := db.ExecContext(ctx, `
			INSERT INTO user_favorites (user_id, transport_type, station_code, line_code, station_name)
			VALUES ($1, $2, $3, $4, $5)`,
			userID, f.TransportType, f.StationCode, f.LineCode, f.StationName)
		if err != nil {
			return 0, fmt.Errorf("insert favorite: %w", err)
		}
	}
	return userID, nil
}
