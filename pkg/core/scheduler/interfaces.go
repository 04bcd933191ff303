package scheduler

import (
	"context"
	"time"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// CaregiverDirectory is the read-only view of the caregiver roster used by a run
type CaregiverDirectory interface {
	// AllCaregiverIDs returns the id of every caregiver on the roster
	AllCaregiverIDs(ctx context.Context) ([]string, error)

	// LeastWorkedBetween returns the caregivers tied for the fewest appointments in
	// [start, end), derived from the ten lowest counts
	LeastWorkedBetween(ctx context.Context, start, end time.Time) ([]string, error)
}

// AppointmentStore is the read/write view of persisted appointments used by a run.
// Every call is synchronous and an insert must be visible to the next read.
type AppointmentStore interface {
	// BusyCaregivers returns caregivers with an appointment in [slot, slot+1h)
	BusyCaregivers(ctx context.Context, slot time.Time) ([]string, error)

	// TakenRooms returns rooms with an appointment in [slot, slot+1h)
	TakenRooms(ctx context.Context, slot time.Time) ([]int, error)

	// WeeklyCount returns the caregiver's appointments in [weekStart, weekStart+7d)
	WeeklyCount(ctx context.Context, caregiverID string, weekStart time.Time) (int, error)

	// RoomsForCaregiverOnDay returns the caregiver's rooms in [day, day+1d)
	RoomsForCaregiverOnDay(ctx context.Context, caregiverID string, day time.Time) ([]int, error)

	// InsertAppointment persists a new appointment
	InsertAppointment(ctx context.Context, appointment model.Appointment) error
}

// Recorder observes what a run does. Implementations must be cheap and non-blocking.
type Recorder interface {
	AppointmentCommitted(room int)
	SlotUnfilled()
	CaregiverIneligible()
	RunFinished(outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) AppointmentCommitted(int) {}
func (nopRecorder) SlotUnfilled() {}
func (nopRecorder) CaregiverIneligible() {}
func (nopRecorder) RunFinished(string, time.Duration) {}
