// Package store persists raw observations in a single sqlite table keyed by
// station-local timestamp. Inserts are idempotent: a duplicate timestamp is
// skipped, never overwritten.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/climecapsule/climecapsule/internal/observation"
)

const insertSQL = `
INSERT INTO weather_data (
	station_id,
	obs_time_local,
	temperature_high,
	temperature_low,
	temperature_average,
	humidity,
	wind_speed_high,
	wind_speed_low,
	wind_speed_average,
	windchill_high,
	windchill_low,
	windchill_average,
	precip_rate,
	precip_total
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const queryByDateSQL = `
SELECT
	station_id,
	obs_time_local,
	temperature_high,
	temperature_low,
	temperature_average,
	humidity,
	wind_speed_high,
	wind_speed_low,
	wind_speed_average,
	windchill_high,
	windchill_low,
	windchill_average,
	precip_rate,
	precip_total
FROM weather_data
WHERE obs_time_local >= ? AND obs_time_local < ?
ORDER BY obs_time_local ASC`

// ObservationStore owns the persisted observation set.
type ObservationStore struct {
	db *sql.DB
}

func New(db *sql.DB) *ObservationStore {
	return &ObservationStore{db: db}
}

// Report summarizes one insert batch.
type Report struct {
	Inserted int
	Skipped  int
}

// Insert writes each observation, skipping rows whose (station, timestamp)
// key is already archived. Re-inserting an already-seen batch is a no-op; any
// other database error fails the batch.
func (s *ObservationStore) Insert(ctx context.Context, observations []observation.Raw) (Report, error) {
	var report Report

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback()

	for _, obs := range observations {
		_, err := tx.ExecContext(ctx, insertSQL,
			obs.StationID,
			obs.ObsTimeLocal,
			obs.TempHigh,
			obs.TempLow,
			obs.TempAvg,
			obs.Humidity,
			obs.WindSpeedHigh,
			obs.WindSpeedLow,
			obs.WindSpeedAvg,
			obs.WindChillHigh,
			obs.WindChillLow,
			obs.WindChillAvg,
			obs.PrecipRate,
			obs.PrecipTotal,
		)
		if err != nil {
			if isUniqueViolation(err) {
				slog.Info("observation already archived, skipping",
					"station", obs.StationID, "obsTimeLocal", obs.ObsTimeLocal)
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("insert observation %s: %w", obs.ObsTimeLocal, err)
		}
		report.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit insert batch: %w", err)
	}
	return report, nil
}

// QueryByDate returns all observations whose local timestamp falls within
// [day 00:00:00, day+1 00:00:00), ascending. No matches yields an empty
// slice. The day must already be validated by the caller.
func (s *ObservationStore) QueryByDate(ctx context.Context, day time.Time) ([]observation.Raw, error) {
	start := day.Format(observation.DayLayout) + " 00:00:00"
	end := day.AddDate(0, 0, 1).Format(observation.DayLayout) + " 00:00:00"

	rows, err := s.db.QueryContext(ctx, queryByDateSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("query observations for %s: %w", start, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close observation rows", "error", err)
		}
	}()

	out := []observation.Raw{}
	for rows.Next() {
		var obs observation.Raw
		if err := rows.Scan(
			&obs.StationID,
			&obs.ObsTimeLocal,
			&obs.TempHigh,
			&obs.TempLow,
			&obs.TempAvg,
			&obs.Humidity,
			&obs.WindSpeedHigh,
			&obs.WindSpeedLow,
			&obs.WindSpeedAvg,
			&obs.WindChillHigh,
			&obs.WindChillLow,
			&obs.WindChillAvg,
			&obs.PrecipRate,
			&obs.PrecipTotal,
		); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// Count reports how many observations are archived. Used at startup to
// decide whether a first-run backfill is needed.
func (s *ObservationStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM weather_data`).Scan(&n)
	return n, err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
