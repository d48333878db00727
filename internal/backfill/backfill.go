// Package backfill walks a date range day by day, fetching each day's hourly
// observations and archiving the accumulated result in one batch. Used for
// first-run historical population and for filling gaps.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/climecapsule/climecapsule/internal/common"
	"github.com/climecapsule/climecapsule/internal/observation"
	"github.com/climecapsule/climecapsule/internal/store"
)

// Fetcher retrieves one calendar day of hourly observations.
type Fetcher interface {
	FetchHourly(ctx context.Context, day time.Time) ([]observation.Raw, error)
}

// Inserter archives a batch of observations, skipping duplicates.
type Inserter interface {
	Insert(ctx context.Context, observations []observation.Raw) (store.Report, error)
}

type Driver struct {
	fetcher Fetcher
	store   Inserter
}

func New(fetcher Fetcher, store Inserter) *Driver {
	return &Driver{fetcher: fetcher, store: store}
}

// Run fetches every day in [start, end] inclusive, ascending, one provider
// call per day, and forwards the accumulated observations to a single insert.
// Both bounds are YYYY-MM-DD strings and are validated before any network or
// database work. A fetch failure aborts the run without inserting.
func (d *Driver) Run(ctx context.Context, start, end string) (store.Report, error) {
	startDay, err := common.ParseDay(start)
	if err != nil {
		return store.Report{}, err
	}
	endDay, err := common.ParseDay(end)
	if err != nil {
		return store.Report{}, err
	}
	if endDay.Before(startDay) {
		return store.Report{}, fmt.Errorf("%w: range end %s before start %s", common.ErrInvalidDate, end, start)
	}

	slog.Info("starting backfill", "start", start, "end", end)

	var all []observation.Raw
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		observations, err := d.fetcher.FetchHourly(ctx, day)
		if err != nil {
			return store.Report{}, fmt.Errorf("backfill fetch for %s: %w", common.FormatDay(day), err)
		}
		all = append(all, observations...)
	}

	if len(all) == 0 {
		slog.Info("backfill found no observations", "start", start, "end", end)
		return store.Report{}, nil
	}

	report, err := d.store.Insert(ctx, all)
	if err != nil {
		return report, fmt.Errorf("backfill insert: %w", err)
	}

	slog.Info("backfill complete",
		"start", start, "end", end,
		"inserted", report.Inserted, "skipped", report.Skipped)
	return report, nil
}
