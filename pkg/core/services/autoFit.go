package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
	"github.com/jakechorley/caregiver-rota/pkg/core/scheduler"
)

// AutoFitRunner runs the scheduler for one day
type AutoFitRunner interface {
	Run(ctx context.Context, date time.Time) (*scheduler.Summary, error)
}

// AutoFitResult contains the outcome of an auto-fit run and the day as re-read afterwards
type AutoFitResult struct {
	Date                 time.Time
	Open                 bool
	Committed            []model.Appointment
	IneligibleCaregivers []string
	Day                  *DayView
}

// AutoFit fills the open slots of the date's working day, then reads the day back
// from the store so the result reflects everything persisted, including
// appointments made before this run
func AutoFit(
	ctx context.Context,
	runner AutoFitRunner,
	store DayScheduleStore,
	layout DayLayout,
	logger *zap.Logger,
	date time.Time,
) (*AutoFitResult, error) {
	logger.Info("Running auto-fit", zap.Time("date", date))

	summary, err := runner.Run(ctx, date)
	if err != nil {
		committed := 0
		if summary != nil {
			committed = len(summary.Committed)
		}
		return nil, fmt.Errorf("auto-fit failed after %d commits: %w", committed, err)
	}

	day, err := DaySchedule(ctx, store, layout, logger, date)
	if err != nil {
		return nil, fmt.Errorf("failed to read back day: %w", err)
	}

	result := &AutoFitResult{
		Date:                 summary.Date,
		Open:                 summary.Open,
		Committed:            summary.Committed,
		IneligibleCaregivers: summary.IneligibleCaregivers,
		Day:                  day,
	}

	logger.Info("Auto-fit complete",
		zap.Time("date", result.Date),
		zap.Int("committed", len(result.Committed)),
		zap.Int("filled", day.FilledSlots()),
		zap.Int("unfilled", day.UnfilledSlots()))

	return result, nil
}
