package db

import (
	"fmt"
	"time"
)

// CheckSlot rejects appointment slots that do not start on the hour in their own
// location. Occupancy is queried over [slot, slot+1h), so an off-hour slot would
// occupy an hour without colliding with the appointment keyed to it.
func CheckSlot(slot time.Time) error {
	if slot.IsZero() || slot.Minute() != 0 || slot.Second() != 0 || slot.Nanosecond() != 0 {
		return fmt.Errorf("%w: slot %s is not on the hour", ErrConstraintViolation, slot.Format(time.RFC3339Nano))
	}
	return nil
}
