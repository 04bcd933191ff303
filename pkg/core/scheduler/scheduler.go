package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/calendar"
	"github.com/jakechorley/caregiver-rota/pkg/core/errs"
	"github.com/jakechorley/caregiver-rota/pkg/core/model"
	"github.com/jakechorley/caregiver-rota/pkg/core/rooms"
	"github.com/jakechorley/caregiver-rota/pkg/core/scorer"
	"github.com/jakechorley/caregiver-rota/pkg/core/workday"
)

const (
	// MaxRegularHours is the regular weekly capacity of a caregiver
	MaxRegularHours = scorer.MaxRegularHours

	// MaxOvertimeHours is the overtime allowed on top of MaxRegularHours
	MaxOvertimeHours = 1

	// WeeklyCap is the weekly count at which a caregiver becomes ineligible
	WeeklyCap = MaxRegularHours + MaxOvertimeHours

	// FairnessWindowWeeks is the number of calendar weeks, ending with the scheduled
	// date's week, used to find the least-worked caregivers
	FairnessWindowWeeks = 4
)

// Run outcomes reported to the Recorder
const (
	OutcomeSuccess   = "success"
	OutcomeCancelled = "cancelled"
	OutcomeStoreErr  = "store_error"
	OutcomeConfigErr = "configuration_error"
)

// Config contains the configuration for creating a new Scheduler
type Config struct {
	// Rooms is the catalog of valid room numbers
	Rooms *rooms.Catalog

	// Policy resolves the working hours of each day
	Policy workday.Policy

	// Calendar performs hour and week arithmetic in the hospital's time zone
	Calendar calendar.Calendar

	// Scorer ranks candidates for a slot. Nil uses scorer.Default().
	Scorer *scorer.Scorer
}

// Summary describes what one run did
type Summary struct {
	Date                 time.Time
	Open                 bool
	SlotsEvaluated       int
	Committed            []model.Appointment
	UnfilledSlots        int
	IneligibleCaregivers []string
}

// Scheduler assigns caregivers to open room/hour slots of a working day.
// A Scheduler runs at most one auto-fit at a time.
type Scheduler struct {
	directory CaregiverDirectory
	store     AppointmentStore
	rooms     *rooms.Catalog
	policy    workday.Policy
	calendar  calendar.Calendar
	scorer    *scorer.Scorer
	logger    *zap.Logger

	recorder   Recorder
	newID      func() string
	onFinished func(date time.Time)

	running sync.Mutex
}

// Option customises a Scheduler
type Option func(*Scheduler)

// WithRecorder sets the Recorder notified of commits, unfilled slots and run outcomes
func WithRecorder(recorder Recorder) Option {
	return func(s *Scheduler) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithIDGenerator sets the function used to create appointment ids
func WithIDGenerator(newID func() string) Option {
	return func(s *Scheduler) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithOnFinished sets a callback invoked with the run's date after every successful run
func WithOnFinished(onFinished func(date time.Time)) Option {
	return func(s *Scheduler) {
		s.onFinished = onFinished
	}
}

// New validates the configuration and creates a Scheduler
func New(cfg Config, directory CaregiverDirectory, store AppointmentStore, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if cfg.Rooms == nil {
		return nil, errs.Configuration("rooms", "room catalog is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if directory == nil || store == nil {
		return nil, fmt.Errorf("caregiver directory and appointment store are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sc := cfg.Scorer
	if sc == nil {
		sc = scorer.Default()
	}
	cal := cfg.Calendar
	if cal.Location == nil {
		cal = calendar.New(time.UTC, cal.FirstDay)
	}

	s := &Scheduler{
		directory: directory,
		store:     store,
		rooms:     cfg.Rooms,
		policy:    cfg.Policy,
		calendar:  cal,
		scorer:    sc,
		logger:    logger,
		recorder:  nopRecorder{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunAutoFit fills every open room/hour slot of the date's working day.
//
// Appointments are committed one at a time and each commit is visible to the next
// evaluation. Any store failure aborts the run. Cancelling ctx stops further slots;
// appointments committed before the failure or cancellation stay persisted.
func (s *Scheduler) RunAutoFit(ctx context.Context, date time.Time) error {
	_, err := s.Run(ctx, date)
	return err
}

// Run is RunAutoFit returning a summary of the work done, which is populated
// even when the run is aborted.
func (s *Scheduler) Run(ctx context.Context, date time.Time) (*Summary, error) {
	if !s.running.TryLock() {
		return nil, errs.ErrRunInProgress
	}
	defer s.running.Unlock()

	started := time.Now()
	summary, err := s.run(ctx, date)
	s.recorder.RunFinished(outcomeOf(err), time.Since(started))

	if err != nil {
		s.logger.Error("Auto-fit aborted",
			zap.Time("date", date),
			zap.Int("committed", len(summary.Committed)),
			zap.Error(err))
		return summary, err
	}

	s.logger.Info("Auto-fit finished",
		zap.Time("date", date),
		zap.Int("committed", len(summary.Committed)),
		zap.Int("unfilled", summary.UnfilledSlots),
		zap.Int("ineligible", len(summary.IneligibleCaregivers)),
		zap.Duration("duration", time.Since(started)))

	if s.onFinished != nil {
		s.onFinished(date)
	}
	return summary, nil
}

func (s *Scheduler) run(ctx context.Context, date time.Time) (*Summary, error) {
	day := s.calendar.DayStart(date)
	summary := &Summary{Date: day}

	hours, open := s.policy.HoursFor(day)
	if !open {
		s.logger.Info("Day is closed, nothing to schedule", zap.Time("date", day))
		return summary, nil
	}
	if err := hours.Validate(); err != nil {
		return summary, err
	}
	summary.Open = true

	ids, err := s.directory.AllCaregiverIDs(ctx)
	if err != nil {
		return summary, errs.Store("list caregiver ids", err)
	}
	pool := newCandidatePool(ids)

	week := s.calendar.WeekStart(day)
	trailing := s.calendar.TrailingWeeks(day, FairnessWindowWeeks)

	s.logger.Info("Starting auto-fit",
		zap.Time("date", day),
		zap.Int("start_hour", hours.Start),
		zap.Int("end_hour", hours.End),
		zap.Int("caregivers", pool.active()),
		zap.Int("rooms", s.rooms.Count()))

	for _, hour := range hours.Slots() {
		slot := s.calendar.At(day, hour)

		taken, err := s.store.TakenRooms(ctx, slot)
		if err != nil {
			return summary, errs.Store("taken rooms", err)
		}
		openRooms := s.rooms.Available(taken)

		s.logger.Debug("Evaluating hour",
			zap.Time("slot", slot),
			zap.Int("open_rooms", len(openRooms)))

		for _, room := range openRooms {
			if err := ctx.Err(); err != nil {
				return summary, fmt.Errorf("auto-fit cancelled before %s room %d: %w", slot.Format("2006-01-02 15:04"), room, err)
			}

			summary.SlotsEvaluated++
			appointment, err := s.fillSlot(ctx, pool, summary, slot, room, week, day, trailing)
			if err != nil {
				return summary, err
			}
			if appointment == nil {
				summary.UnfilledSlots++
				s.recorder.SlotUnfilled()
				continue
			}
			summary.Committed = append(summary.Committed, *appointment)
			s.recorder.AppointmentCommitted(room)
		}
	}

	return summary, nil
}

// fillSlot scores the live candidates for one (slot, room), commits the winner and
// returns the committed appointment, or nil when no caregiver can take the slot
func (s *Scheduler) fillSlot(
	ctx context.Context,
	pool *candidatePool,
	summary *Summary,
	slot time.Time,
	room int,
	week time.Time,
	day time.Time,
	trailing calendar.Range,
) (*model.Appointment, error) {
	busyThisHour, err := s.store.BusyCaregivers(ctx, slot)
	if err != nil {
		return nil, errs.Store("busy caregivers", err)
	}
	candidates := pool.candidates(busyThisHour)

	leastWorkedIDs, err := s.directory.LeastWorkedBetween(ctx, trailing.Start, trailing.End)
	if err != nil {
		return nil, errs.Store("least worked caregivers", err)
	}
	leastWorked := make(map[string]bool, len(leastWorkedIDs))
	for _, id := range leastWorkedIDs {
		leastWorked[id] = true
	}

	var winner scorer.Candidate
	var bestScore float64
	found := false

	for _, id := range candidates {
		weekCount, err := s.store.WeeklyCount(ctx, id, week)
		if err != nil {
			return nil, errs.Store("weekly count", err)
		}

		if weekCount >= WeeklyCap {
			pool.markIneligible(id)
			summary.IneligibleCaregivers = append(summary.IneligibleCaregivers, id)
			s.recorder.CaregiverIneligible()
			s.logger.Debug("Caregiver reached weekly cap",
				zap.String("caregiver_id", id),
				zap.Int("week_count", weekCount))
			continue
		}

		dayRooms, err := s.store.RoomsForCaregiverOnDay(ctx, id, day)
		if err != nil {
			return nil, errs.Store("rooms for caregiver on day", err)
		}

		candidate := scorer.Candidate{
			ID:          id,
			WeekCount:   weekCount,
			DayRooms:    dayRooms,
			LeastWorked: leastWorked[id],
		}
		score := s.scorer.Evaluate(candidate, room)

		// Strictly greater keeps the first candidate in roster order on ties
		if !found || score > bestScore {
			winner = candidate
			bestScore = score
			found = true
		}
	}

	if !found {
		s.logger.Debug("No candidate for slot", zap.Time("slot", slot), zap.Int("room", room))
		return nil, nil
	}

	appointment := model.Appointment{
		ID:          s.newID(),
		Slot:        slot,
		Room:        room,
		CaregiverID: winner.ID,
	}
	if err := s.store.InsertAppointment(ctx, appointment); err != nil {
		return nil, errs.Store("insert appointment", err)
	}

	if ce := s.logger.Check(zap.DebugLevel, "Committed appointment"); ce != nil {
		ce.Write(
			zap.Time("slot", slot),
			zap.Int("room", room),
			zap.String("caregiver_id", winner.ID),
			zap.Float64("score", bestScore),
			zap.Any("breakdown", s.scorer.Breakdown(winner, room)))
	}

	return &appointment, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.Is(err, errs.ErrConfiguration):
		return OutcomeConfigErr
	default:
		return OutcomeStoreErr
	}
}
