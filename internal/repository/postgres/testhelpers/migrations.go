package testhelpers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ApplyMigrations накатывает все *.up.sql из migrationsPath по порядку имён.
func ApplyMigrations(db *sql.DB, migrationsPath string) error {
	files, err := migrationFiles(migrationsPath, ".up.sql")
	if err != nil {
		return err
	}
	return execFiles(db, migrationsPath, files)
}

// ResetSchema откатывает *.down.sql в обратном порядке и накатывает схему заново.
func ResetSchema(db *sql.DB, migrationsPath string) error {
	down, err := migrationFiles(migrationsPath, ".down.sql")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(down)))
	if err := execFiles(db, migrationsPath, down); err != nil {
		return err
	}
	return ApplyMigrations(db, migrationsPath)
}

func migrationFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// каждый файл - своя транзакция, частично применённых файлов не бывает
func execFiles(db *sql.DB, dir string, files []string) error {
	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}
