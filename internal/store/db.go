package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS weather_data(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	station_id TEXT,
	obs_time_local TEXT UNIQUE,
	temperature_high REAL,
	temperature_low REAL,
	temperature_average REAL,
	humidity REAL,
	wind_speed_high REAL,
	wind_speed_low REAL,
	wind_speed_average REAL,
	windchill_high REAL,
	windchill_low REAL,
	windchill_average REAL,
	precip_rate REAL,
	precip_total REAL
)`

// Open opens (creating if necessary) the sqlite archive at path and ensures
// the schema exists.
func Open(path string) (*sql.DB, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	// A single ingestion path writes to this database; keep the pool small.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}

	return db, nil
}

func buildDSN(path string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// busy_timeout helps with "database is locked" during dev; WAL gives
	// better concurrent reads while an insert batch runs.
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
