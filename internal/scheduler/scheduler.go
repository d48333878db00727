// Package scheduler keeps today's archive warm: it periodically runs the
// same synchronous current-conditions ingest the /current endpoint uses.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/climecapsule/climecapsule/internal/observation"
	"github.com/climecapsule/climecapsule/internal/store"
)

// Ingester fetches and archives the station's current conditions.
type Ingester interface {
	IngestCurrent(ctx context.Context) ([]observation.Raw, store.Report, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	ingester  Ingester
	interval  time.Duration
}

// New creates a Scheduler that ingests every interval.
func New(interval time.Duration, ingester Ingester) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ingester:  ingester,
		interval:  interval,
	}
}

// Start schedules the periodic ingest job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		_, report, err := s.ingester.IngestCurrent(ctx)
		if err != nil {
			slog.Error("scheduled ingest failed", "error", err)
			return
		}
		slog.Info("scheduled ingest complete",
			"inserted", report.Inserted, "skipped", report.Skipped)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
