package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
	"github.com/jakechorley/caregiver-rota/pkg/db"
)

// Postgres error codes mapped to db.ErrConstraintViolation
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

var _ db.Database = (*DB)(nil)

// LeastWorkedBetween counts appointments per caregiver in [start, end), including
// caregivers without any, and returns those tied for the minimum among the lowest
// db.LeastWorkedQueryLimit counts
func (d *DB) LeastWorkedBetween(ctx context.Context, start, end time.Time) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT c.id, COUNT(a.id) AS counts
		FROM caregiver c
		LEFT JOIN appointment a
			ON a.caregiver_id = c.id AND a.slot >= $1 AND a.slot < $2
		GROUP BY c.id
		ORDER BY counts ASC, c.id ASC
		LIMIT $3
	`, start, end, db.LeastWorkedQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query work counts: %w", err)
	}
	defer rows.Close()

	var counts []model.CountWork
	for rows.Next() {
		var cw model.CountWork
		if err := rows.Scan(&cw.CaregiverID, &cw.Count); err != nil {
			return nil, fmt.Errorf("failed to scan work count: %w", err)
		}
		counts = append(counts, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work counts: %w", err)
	}

	return db.LeastWorked(counts), nil
}

// BusyCaregivers returns caregivers with an appointment in [slot, slot+1h)
func (d *DB) BusyCaregivers(ctx context.Context, slot time.Time) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT caregiver_id FROM appointment
		WHERE slot >= $1 AND slot < $2
	`, slot, slot.Add(time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to query busy caregivers: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// TakenRooms returns rooms with an appointment in [slot, slot+1h)
func (d *DB) TakenRooms(ctx context.Context, slot time.Time) ([]int, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT room_number FROM appointment
		WHERE slot >= $1 AND slot < $2
		ORDER BY room_number
	`, slot, slot.Add(time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to query taken rooms: %w", err)
	}
	defer rows.Close()

	return scanInts(rows)
}

// WeeklyCount returns the caregiver's appointments in [weekStart, weekStart+7 days)
func (d *DB) WeeklyCount(ctx context.Context, caregiverID string, weekStart time.Time) (int, error) {
	var count int
	err := d.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE caregiver_id = $1 AND slot >= $2 AND slot < $3
	`, caregiverID, weekStart, weekStart.AddDate(0, 0, 7)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count weekly appointments: %w", err)
	}
	return count, nil
}

// RoomsForCaregiverOnDay returns the caregiver's rooms in [day, day+1 day) ordered by slot
func (d *DB) RoomsForCaregiverOnDay(ctx context.Context, caregiverID string, day time.Time) ([]int, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT room_number FROM appointment
		WHERE caregiver_id = $1 AND slot >= $2 AND slot < $3
		ORDER BY slot
	`, caregiverID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to query caregiver rooms: %w", err)
	}
	defer rows.Close()

	return scanInts(rows)
}

// InsertAppointment persists one appointment. Violations of the slot/room and
// slot/caregiver unique constraints are reported as db.ErrConstraintViolation.
func (d *DB) InsertAppointment(ctx context.Context, appointment model.Appointment) error {
	if err := db.CheckSlot(appointment.Slot); err != nil {
		return err
	}

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO appointment (id, slot, room_number, caregiver_id, patient_name)
		VALUES ($1, $2, $3, $4, $5)
	`, appointment.ID, appointment.Slot, appointment.Room, appointment.CaregiverID, appointment.PatientName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation, foreignKeyViolation, checkViolation:
				return fmt.Errorf("%w: %s", db.ErrConstraintViolation, pgErr.ConstraintName)
			}
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// GetAppointmentsBetween retrieves appointments in [start, end) ordered by slot then room
func (d *DB) GetAppointmentsBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, slot, room_number, caregiver_id, patient_name
		FROM appointment
		WHERE slot >= $1 AND slot < $2
		ORDER BY slot, room_number
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.Slot, &a.Room, &a.CaregiverID, &a.PatientName); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return values, nil
}

func scanInts(rows *sql.Rows) ([]int, error) {
	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return values, nil
}
