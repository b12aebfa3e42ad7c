package database

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"ims_backend/internal/database/migrations"
	"ims_backend/pkg/utils"
)

const migrationTable = "schema_migrations"

// ApplyMigrations runs the embedded schema for the connection's dialect.
func ApplyMigrations(db *DB) error {
	return applyMigrations(db, migrations.FS, string(db.dialect))
}

// applyMigrations executes every *.sql file under root at most once, in name order.
func applyMigrations(db *DB, migrationFS fs.FS, root string) error {
	if db == nil {
		return errors.New("database is required")
	}

	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name VARCHAR(255) PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`, migrationTable)
	if _, err := db.Exec(createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		name := path.Join(root, file)

		applied, err := isApplied(db, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			utils.LogDebug("Migration already applied", map[string]interface{}{"migration": name})
			continue
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		upSQL := extractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		err = db.InTx(func(exec Executor) error {
			if _, err := exec.Exec(upSQL); err != nil && !isAlreadyExistsError(err) {
				return fmt.Errorf("exec migration %s: %w", name, err)
			}
			insert := fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING", migrationTable)
			if _, err := exec.Exec(insert, name, time.Now().UTC().UnixMilli()); err != nil {
				return fmt.Errorf("record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		utils.LogInfo("Migration applied", map[string]interface{}{"migration": name})
	}

	return nil
}

// extractUpMigration returns the SQL in the "-- +migrate Up" section, or the whole file without markers.
func extractUpMigration(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	upIdx := strings.Index(content, up)
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, down)
	if downIdx == -1 {
		return content[upIdx+len(up):]
	}
	return content[upIdx+len(up) : downIdx]
}

func isAlreadyExistsError(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

func isApplied(db *DB, name string) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM "+migrationTable+" WHERE name = $1", name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
