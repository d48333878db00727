// Package httpapi is the routing boundary: request parsing, status mapping
// and JSON rendering for the archive's operations.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/climecapsule/climecapsule/internal/archive"
	"github.com/climecapsule/climecapsule/internal/common"
	"github.com/climecapsule/climecapsule/internal/observation"
	"github.com/climecapsule/climecapsule/internal/store"
)

var validate = validator.New()

// Service is the archive surface the routes consume.
type Service interface {
	IngestCurrent(ctx context.Context) ([]observation.Raw, store.Report, error)
	DailySummary(ctx context.Context, date string) (observation.Summary, error)
	TodayWithHistory(ctx context.Context, yearsBack int) (archive.TodayReport, error)
	RunBackfill(ctx context.Context, start, end string) (store.Report, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/current", func(c *fiber.Ctx) error {
		observations, report, err := service.IngestCurrent(c.Context())
		if err != nil {
			return mapError(err)
		}

		return c.JSON(fiber.Map{
			"date":         common.FormatDay(time.Now()),
			"observations": observations,
			"inserted":     report.Inserted,
			"skipped":      report.Skipped,
		})
	})

	v1.Get("/historical/:date", func(c *fiber.Ctx) error {
		date := c.Params("date")

		summary, err := service.DailySummary(c.Context(), date)
		if err != nil {
			return mapError(err)
		}

		return c.JSON(fiber.Map{
			"date":        date,
			"observation": summary,
		})
	})

	v1.Get("/today", func(c *fiber.Ctx) error {
		var q todayQuery
		q.YearsBack = c.QueryInt("years_back", 2)
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.TodayWithHistory(c.Context(), q.YearsBack)
		if err != nil {
			return mapError(err)
		}

		return c.JSON(report)
	})

	v1.Post("/backfill", func(c *fiber.Ctx) error {
		q := backfillQuery{
			Start: c.Query("start"),
			End:   c.Query("end", c.Query("start")),
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.RunBackfill(c.Context(), q.Start, q.End)
		if err != nil {
			if errors.Is(err, common.ErrInvalidDate) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			slog.Error("backfill failed", "start", q.Start, "end", q.End, "error", err)
			return fiber.NewError(fiber.StatusBadGateway, "backfill failed")
		}

		return c.JSON(fiber.Map{
			"start":    q.Start,
			"end":      q.End,
			"inserted": report.Inserted,
			"skipped":  report.Skipped,
		})
	})
}

type todayQuery struct {
	YearsBack int `validate:"gte=1,lte=25"`
}

type backfillQuery struct {
	Start string `validate:"required"`
	End   string `validate:"required"`
}

// mapError translates the archive's error taxonomy onto HTTP statuses:
// malformed date → 400, no data → 404, provider failure → 502, anything
// else → 500.
func mapError(err error) *fiber.Error {
	switch {
	case errors.Is(err, common.ErrInvalidDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, archive.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, archive.ErrUpstream):
		slog.Error("upstream fetch failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, "upstream fetch failed")
	default:
		slog.Error("request failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
