// Package archive orchestrates the ingestion-and-aggregation core: it ties
// the provider fetch client, the observation store, the backfill driver and
// the daily aggregator together for the HTTP boundary.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/climecapsule/climecapsule/internal/backfill"
	"github.com/climecapsule/climecapsule/internal/common"
	"github.com/climecapsule/climecapsule/internal/observation"
	"github.com/climecapsule/climecapsule/internal/store"
)

var (
	// ErrNoData marks a date with no archived observations. Not an error
	// condition in the store; the boundary maps it to not-found.
	ErrNoData = errors.New("no observations for date")

	// ErrUpstream marks a failed provider fetch so the boundary can
	// distinguish it from local failures.
	ErrUpstream = errors.New("upstream fetch failed")
)

// Fetcher is the provider-facing side of the service.
type Fetcher interface {
	FetchCurrent(ctx context.Context) ([]observation.Raw, error)
	FetchHourly(ctx context.Context, day time.Time) ([]observation.Raw, error)
}

// Store is the persistence side of the service.
type Store interface {
	Insert(ctx context.Context, observations []observation.Raw) (store.Report, error)
	QueryByDate(ctx context.Context, day time.Time) ([]observation.Raw, error)
	Count(ctx context.Context) (int, error)
}

// Service exposes the archive's operations to the HTTP boundary and the
// scheduler.
type Service struct {
	fetcher  Fetcher
	store    Store
	backfill *backfill.Driver

	// now is injectable for tests.
	now func() time.Time
}

func NewService(fetcher Fetcher, st Store) *Service {
	return &Service{
		fetcher:  fetcher,
		store:    st,
		backfill: backfill.New(fetcher, st),
		now:      time.Now,
	}
}

// IngestCurrent fetches the station's current conditions, archives them
// (duplicates skipped) and returns the fetched batch.
func (s *Service) IngestCurrent(ctx context.Context) ([]observation.Raw, store.Report, error) {
	observations, err := s.fetcher.FetchCurrent(ctx)
	if err != nil {
		return nil, store.Report{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	report, err := s.store.Insert(ctx, observations)
	if err != nil {
		return nil, report, fmt.Errorf("archive current conditions: %w", err)
	}
	return observations, report, nil
}

// DailySummary compiles the archived observations of one calendar day. The
// date is validated before any database work; a day with no observations
// yields ErrNoData.
func (s *Service) DailySummary(ctx context.Context, date string) (observation.Summary, error) {
	day, err := common.ParseDay(date)
	if err != nil {
		return observation.Summary{}, err
	}

	observations, err := s.store.QueryByDate(ctx, day)
	if err != nil {
		return observation.Summary{}, fmt.Errorf("query %s: %w", date, err)
	}
	if len(observations) == 0 {
		return observation.Summary{}, fmt.Errorf("%w: %s", ErrNoData, date)
	}

	return observation.Compile(observations)
}

// TodayReport is today's compiled summary next to the same calendar day of
// previous years.
type TodayReport struct {
	Today            string                `json:"today"`
	TodayObservation observation.Summary   `json:"today_observation"`
	Historical       []observation.Summary `json:"historical_comparisons"`
}

// TodayWithHistory ingests current conditions, compiles today's summary and
// the summaries of the same date one..yearsBack years ago. Past days with no
// data produce empty summaries rather than failing, so comparison rendering
// never breaks. Feb 29 is projected onto Feb 28 for non-leap target years.
func (s *Service) TodayWithHistory(ctx context.Context, yearsBack int) (TodayReport, error) {
	if _, _, err := s.IngestCurrent(ctx); err != nil {
		return TodayReport{}, err
	}

	today := s.now()
	todayObs, err := s.store.QueryByDate(ctx, today)
	if err != nil {
		return TodayReport{}, fmt.Errorf("query today: %w", err)
	}
	todaySummary, err := observation.Compile(todayObs)
	if err != nil {
		return TodayReport{}, err
	}

	report := TodayReport{
		Today:            common.FormatDay(today),
		TodayObservation: todaySummary,
		Historical:       make([]observation.Summary, 0, yearsBack),
	}

	for i := 1; i <= yearsBack; i++ {
		past := common.YearsAgo(today, i)
		observations, err := s.store.QueryByDate(ctx, past)
		if err != nil {
			return TodayReport{}, fmt.Errorf("query %s: %w", common.FormatDay(past), err)
		}
		summary, err := observation.Compile(observations)
		if err != nil {
			return TodayReport{}, err
		}
		report.Historical = append(report.Historical, summary)
	}

	return report, nil
}

// RunBackfill walks [start, end] and archives every hourly observation the
// provider has for those days.
func (s *Service) RunBackfill(ctx context.Context, start, end string) (store.Report, error) {
	return s.backfill.Run(ctx, start, end)
}

// EnsurePopulated backfills the archive from the station's earliest known
// observation through today when the store is empty. First-run population.
func (s *Service) EnsurePopulated(ctx context.Context, earliestObservation string) error {
	n, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count archived observations: %w", err)
	}
	if n > 0 {
		slog.Info("using existing archive", "observations", n)
		return nil
	}

	slog.Info("empty archive, populating with historical data", "from", earliestObservation)
	_, err = s.backfill.Run(ctx, earliestObservation, common.FormatDay(s.now()))
	return err
}
