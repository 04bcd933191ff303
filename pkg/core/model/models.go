package model

import "time"

// Caregiver represents a caregiver on the hospital roster
type Caregiver struct {
	ID         string
	FirstName  string
	LastName   string
	PictureURL string
}

// FullName returns "FirstName LastName", trimmed when either part is missing
func (c Caregiver) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Appointment represents one caregiver assigned to one room for one hour slot
type Appointment struct {
	ID          string
	Slot        time.Time // Truncated to the hour
	Room        int
	CaregiverID string
	PatientName string // Empty for auto-fit appointments
}

// CountWork is the number of appointments a caregiver has within a date range
type CountWork struct {
	CaregiverID string
	Count       int
}
