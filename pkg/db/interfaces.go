package db

import (
	"context"
	"time"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// CaregiverStore defines the interface for caregiver roster operations
type CaregiverStore interface {
	GetCaregivers(ctx context.Context) ([]model.Caregiver, error)
	GetCaregiversByIDs(ctx context.Context, ids []string) (map[string]model.Caregiver, error)
	UpsertCaregivers(ctx context.Context, caregivers []model.Caregiver) error
}

// Database defines the interface for all database operations.
// Both the in-memory db.MemoryDB and postgres.DB implement this interface, and
// either can be handed to the scheduler as its directory and appointment store.
type Database interface {
	CaregiverStore

	AllCaregiverIDs(ctx context.Context) ([]string, error)
	LeastWorkedBetween(ctx context.Context, start, end time.Time) ([]string, error)

	BusyCaregivers(ctx context.Context, slot time.Time) ([]string, error)
	TakenRooms(ctx context.Context, slot time.Time) ([]int, error)
	WeeklyCount(ctx context.Context, caregiverID string, weekStart time.Time) (int, error)
	RoomsForCaregiverOnDay(ctx context.Context, caregiverID string, day time.Time) ([]int, error)
	InsertAppointment(ctx context.Context, appointment model.Appointment) error

	GetAppointmentsBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
}
