package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/calendar"
	"github.com/jakechorley/caregiver-rota/pkg/core/model"
	"github.com/jakechorley/caregiver-rota/pkg/core/rooms"
	"github.com/jakechorley/caregiver-rota/pkg/core/workday"
)

// DayLayout describes the room/hour grid of a working day
type DayLayout struct {
	Calendar calendar.Calendar
	Policy   workday.Policy
	Rooms    *rooms.Catalog
}

// DayScheduleStore defines the database operations needed to build a day view
type DayScheduleStore interface {
	GetAppointmentsBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
	GetCaregiversByIDs(ctx context.Context, ids []string) (map[string]model.Caregiver, error)
}

// DayCell is one room during one hour
type DayCell struct {
	Room          int    `json:"room"`
	AppointmentID string `json:"appointmentId,omitempty"`
	CaregiverID   string `json:"caregiverId,omitempty"`
	CaregiverName string `json:"caregiverName,omitempty"`
	PatientName   string `json:"patientName,omitempty"`
}

// Filled reports whether an appointment occupies the cell
func (c DayCell) Filled() bool {
	return c.AppointmentID != ""
}

// DayRow is every room during one hour
type DayRow struct {
	Slot  time.Time `json:"slot"`
	Cells []DayCell `json:"cells"`
}

// DayView is the hour x room grid of a single day
type DayView struct {
	Date  time.Time `json:"date"`
	Open  bool      `json:"open"`
	Rooms []int     `json:"rooms"`
	Rows  []DayRow  `json:"rows"`

	// Outside holds appointments that fall outside the configured hours or rooms
	Outside []model.Appointment `json:"outside,omitempty"`
}

// FilledSlots returns the number of occupied cells
func (v *DayView) FilledSlots() int {
	filled := 0
	for _, row := range v.Rows {
		for _, cell := range row.Cells {
			if cell.Filled() {
				filled++
			}
		}
	}
	return filled
}

// UnfilledSlots returns the number of empty cells
func (v *DayView) UnfilledSlots() int {
	total := 0
	for _, row := range v.Rows {
		total += len(row.Cells)
	}
	return total - v.FilledSlots()
}

// DaySchedule reads the day's appointments and lays them out as a grid
func DaySchedule(
	ctx context.Context,
	store DayScheduleStore,
	layout DayLayout,
	logger *zap.Logger,
	date time.Time,
) (*DayView, error) {
	day := layout.Calendar.Day(date)
	logger.Debug("Building day schedule", zap.Time("date", day.Start))

	appointments, err := store.GetAppointmentsBetween(ctx, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	ids := make([]string, 0, len(appointments))
	seen := make(map[string]bool)
	for _, a := range appointments {
		if !seen[a.CaregiverID] {
			seen[a.CaregiverID] = true
			ids = append(ids, a.CaregiverID)
		}
	}
	caregivers, err := store.GetCaregiversByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch caregivers: %w", err)
	}

	hours, open := layout.Policy.HoursFor(day.Start)
	view := &DayView{
		Date:  day.Start,
		Open:  open,
		Rooms: layout.Rooms.All(),
	}

	// Index of each grid cell by its slot and room
	type cellKey struct {
		slot int64
		room int
	}
	index := make(map[cellKey]*DayCell)

	if open {
		for _, hour := range hours.Slots() {
			slot := layout.Calendar.At(day.Start, hour)
			row := DayRow{Slot: slot, Cells: make([]DayCell, len(view.Rooms))}
			for i, room := range view.Rooms {
				row.Cells[i] = DayCell{Room: room}
			}
			view.Rows = append(view.Rows, row)
		}
		for r := range view.Rows {
			for c := range view.Rows[r].Cells {
				cell := &view.Rows[r].Cells[c]
				index[cellKey{slot: view.Rows[r].Slot.Unix(), room: cell.Room}] = cell
			}
		}
	}

	for _, a := range appointments {
		cell, ok := index[cellKey{slot: layout.Calendar.TruncateHour(a.Slot).Unix(), room: a.Room}]
		if !ok || cell.Filled() {
			view.Outside = append(view.Outside, a)
			continue
		}
		cell.AppointmentID = a.ID
		cell.CaregiverID = a.CaregiverID
		cell.CaregiverName = caregivers[a.CaregiverID].FullName()
		cell.PatientName = a.PatientName
		if cell.CaregiverName == "" {
			cell.CaregiverName = a.CaregiverID
		}
	}

	if len(view.Outside) > 0 {
		logger.Warn("Appointments outside the configured grid",
			zap.Time("date", day.Start),
			zap.Int("count", len(view.Outside)))
	}

	return view, nil
}
