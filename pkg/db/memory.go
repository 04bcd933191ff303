package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// ErrConstraintViolation is returned when an insert would break slot or caregiver exclusivity
var ErrConstraintViolation = errors.New("constraint violation")

var _ Database = (*MemoryDB)(nil)

// MemoryDB is an in-memory Database. Reads see every completed write.
type MemoryDB struct {
	mu           sync.RWMutex
	caregivers   map[string]model.Caregiver
	appointments []model.Appointment
}

// NewMemoryDB creates an empty in-memory database holding the given caregivers
func NewMemoryDB(caregivers ...model.Caregiver) *MemoryDB {
	m := &MemoryDB{caregivers: make(map[string]model.Caregiver)}
	for _, c := range caregivers {
		m.caregivers[c.ID] = c
	}
	return m
}

// GetCaregivers returns every caregiver ordered by id
func (m *MemoryDB) GetCaregivers(ctx context.Context) ([]model.Caregiver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	caregivers := make([]model.Caregiver, 0, len(m.caregivers))
	for _, c := range m.caregivers {
		caregivers = append(caregivers, c)
	}
	sort.Slice(caregivers, func(i, j int) bool { return caregivers[i].ID < caregivers[j].ID })
	return caregivers, nil
}

// GetCaregiversByIDs returns the known caregivers among ids keyed by id
func (m *MemoryDB) GetCaregiversByIDs(ctx context.Context, ids []string) (map[string]model.Caregiver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]model.Caregiver, len(ids))
	for _, id := range ids {
		if c, ok := m.caregivers[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

// UpsertCaregivers inserts new caregivers and replaces the details of existing ones
func (m *MemoryDB) UpsertCaregivers(ctx context.Context, caregivers []model.Caregiver) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range caregivers {
		if c.ID == "" {
			return fmt.Errorf("%w: caregiver id is required", ErrConstraintViolation)
		}
		m.caregivers[c.ID] = c
	}
	return nil
}

// AllCaregiverIDs returns every caregiver id in ascending order
func (m *MemoryDB) AllCaregiverIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.caregivers))
	for id := range m.caregivers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LeastWorkedBetween counts every caregiver's appointments in [start, end), including
// caregivers with none, and returns those tied for the minimum
func (m *MemoryDB) LeastWorkedBetween(ctx context.Context, start, end time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int, len(m.caregivers))
	for id := range m.caregivers {
		counts[id] = 0
	}
	for _, a := range m.appointments {
		if within(a.Slot, start, end) {
			if _, ok := counts[a.CaregiverID]; ok {
				counts[a.CaregiverID]++
			}
		}
	}

	rows := make([]model.CountWork, 0, len(counts))
	for id, count := range counts {
		rows = append(rows, model.CountWork{CaregiverID: id, Count: count})
	}
	return LeastWorked(rows), nil
}

// BusyCaregivers returns the caregivers with an appointment in the slot's hour
func (m *MemoryDB) BusyCaregivers(ctx context.Context, slot time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var busy []string
	for _, a := range m.appointmentsIn(slot, slot.Add(time.Hour)) {
		busy = append(busy, a.CaregiverID)
	}
	return busy, nil
}

// TakenRooms returns the rooms with an appointment in the slot's hour
func (m *MemoryDB) TakenRooms(ctx context.Context, slot time.Time) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var taken []int
	for _, a := range m.appointmentsIn(slot, slot.Add(time.Hour)) {
		taken = append(taken, a.Room)
	}
	return taken, nil
}

// WeeklyCount returns the caregiver's appointments in [weekStart, weekStart+7 days)
func (m *MemoryDB) WeeklyCount(ctx context.Context, caregiverID string, weekStart time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, a := range m.appointmentsIn(weekStart, weekStart.AddDate(0, 0, 7)) {
		if a.CaregiverID == caregiverID {
			count++
		}
	}
	return count, nil
}

// RoomsForCaregiverOnDay returns the caregiver's rooms in [day, day+1 day) ordered by slot
func (m *MemoryDB) RoomsForCaregiverOnDay(ctx context.Context, caregiverID string, day time.Time) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rooms []int
	for _, a := range m.appointmentsIn(day, day.AddDate(0, 0, 1)) {
		if a.CaregiverID == caregiverID {
			rooms = append(rooms, a.Room)
		}
	}
	return rooms, nil
}

// InsertAppointment stores the appointment unless it would put two appointments in one
// room, or one caregiver in two rooms, during the same hour
func (m *MemoryDB) InsertAppointment(ctx context.Context, appointment model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := CheckSlot(appointment.Slot); err != nil {
		return err
	}
	if appointment.Room < 1 {
		return fmt.Errorf("%w: room %d must be positive", ErrConstraintViolation, appointment.Room)
	}
	if _, ok := m.caregivers[appointment.CaregiverID]; !ok {
		return fmt.Errorf("%w: unknown caregiver %q", ErrConstraintViolation, appointment.CaregiverID)
	}

	for _, existing := range m.appointments {
		if appointment.ID != "" && existing.ID == appointment.ID {
			return fmt.Errorf("%w: duplicate appointment id %q", ErrConstraintViolation, appointment.ID)
		}
		if !existing.Slot.Equal(appointment.Slot) {
			continue
		}
		if existing.Room == appointment.Room {
			return fmt.Errorf("%w: room %d already booked at %s", ErrConstraintViolation, appointment.Room, appointment.Slot)
		}
		if existing.CaregiverID == appointment.CaregiverID {
			return fmt.Errorf("%w: caregiver %q already booked at %s", ErrConstraintViolation, appointment.CaregiverID, appointment.Slot)
		}
	}

	m.appointments = append(m.appointments, appointment)
	return nil
}

// GetAppointmentsBetween returns appointments in [start, end) ordered by slot then room
func (m *MemoryDB) GetAppointmentsBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.appointmentsIn(start, end), nil
}

// appointmentsIn returns a sorted copy of the appointments in [start, end). Callers hold mu.
func (m *MemoryDB) appointmentsIn(start, end time.Time) []model.Appointment {
	var result []model.Appointment
	for _, a := range m.appointments {
		if within(a.Slot, start, end) {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Slot.Equal(result[j].Slot) {
			return result[i].Slot.Before(result[j].Slot)
		}
		return result[i].Room < result[j].Room
	})
	return result
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
