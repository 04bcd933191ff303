package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
	"github.com/jakechorley/caregiver-rota/pkg/db"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *DB) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	return conn, mock, New(conn)
}

var slot = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

func TestRunMigrations_AppliesPending(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT filename FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS caregiver`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs("001_init.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ran, err := store.RunMigrations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql"}, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SkipsApplied(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT filename FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).AddRow("001_init.sql"))

	ran, err := store.RunMigrations(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackFailedMigration(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT filename FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS caregiver`).
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	_, err := store.RunMigrations(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute migration 001_init.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeastWorkedBetween(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	start := time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "counts"}).
		AddRow("amy", 0).
		AddRow("bob", 0).
		AddRow("cat", 2)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT c.id, COUNT(a.id) AS counts`)).
		WithArgs(start, end, db.LeastWorkedQueryLimit).
		WillReturnRows(rows)

	ids, err := store.LeastWorkedBetween(context.Background(), start, end)

	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "bob"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotQueries(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT caregiver_id FROM appointment`).
		WithArgs(slot, slot.Add(time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"caregiver_id"}).AddRow("amy").AddRow("bob"))
	mock.ExpectQuery(`SELECT room_number FROM appointment`).
		WithArgs(slot, slot.Add(time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"room_number"}).AddRow(1).AddRow(3))

	busy, err := store.BusyCaregivers(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "bob"}, busy)

	taken, err := store.TakenRooms(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, taken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyCount(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	weekStart := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM appointment`)).
		WithArgs("amy", weekStart, weekStart.AddDate(0, 0, 7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := store.WeeklyCount(context.Background(), "amy", weekStart)

	require.NoError(t, err)
	assert.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomsForCaregiverOnDay(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT room_number FROM appointment`).
		WithArgs("amy", day, day.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"room_number"}).AddRow(2).AddRow(2).AddRow(4))

	rooms, err := store.RoomsForCaregiverOnDay(context.Background(), "amy", day)

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 4}, rooms)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAppointment(t *testing.T) {
	appointment := model.Appointment{ID: "appt-1", Slot: slot, Room: 2, CaregiverID: "amy"}

	t.Run("success", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		mock.ExpectExec(`INSERT INTO appointment`).
			WithArgs("appt-1", slot, 2, "amy", "").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, store.InsertAppointment(context.Background(), appointment))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("slot off the hour", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		offHour := appointment
		offHour.Slot = slot.Add(15 * time.Minute)

		err := store.InsertAppointment(context.Background(), offHour)
		assert.ErrorIs(t, err, db.ErrConstraintViolation)
		require.NoError(t, mock.ExpectationsWereMet(), "no statement is sent")
	})

	t.Run("unique violation", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		mock.ExpectExec(`INSERT INTO appointment`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointment_slot_room_key"})

		err := store.InsertAppointment(context.Background(), appointment)

		assert.ErrorIs(t, err, db.ErrConstraintViolation)
		assert.Contains(t, err.Error(), "appointment_slot_room_key")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other failure", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		mock.ExpectExec(`INSERT INTO appointment`).
			WillReturnError(sql.ErrConnDone)

		err := store.InsertAppointment(context.Background(), appointment)

		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NotErrorIs(t, err, db.ErrConstraintViolation)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetAppointmentsBetween(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	start := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows := sqlmock.NewRows([]string{"id", "slot", "room_number", "caregiver_id", "patient_name"}).
		AddRow("appt-1", slot, 1, "amy", "").
		AddRow("appt-2", slot, 2, "bob", "J. Doe")

	mock.ExpectQuery(`SELECT id, slot, room_number, caregiver_id, patient_name`).
		WithArgs(start, end).
		WillReturnRows(rows)

	appointments, err := store.GetAppointmentsBetween(context.Background(), start, end)

	require.NoError(t, err)
	require.Len(t, appointments, 2)
	assert.Equal(t, model.Appointment{ID: "appt-2", Slot: slot, Room: 2, CaregiverID: "bob", PatientName: "J. Doe"}, appointments[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaregivers(t *testing.T) {
	t.Run("get by ids", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		mock.ExpectQuery(`SELECT id, first_name, last_name, picture_url`).
			WithArgs("amy", "bob").
			WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "picture_url"}).
				AddRow("amy", "Amy", "Pond", "https://example.com/amy.jpg"))

		byID, err := store.GetCaregiversByIDs(context.Background(), []string{"amy", "bob"})

		require.NoError(t, err)
		assert.Len(t, byID, 1)
		assert.Equal(t, "Amy Pond", byID["amy"].FullName())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get by no ids skips the query", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		byID, err := store.GetCaregiversByIDs(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, byID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("upsert in one transaction", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO caregiver`).
			WithArgs("amy", "Amy", "Pond", "").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO caregiver`).
			WithArgs("bob", "Bob", "", "").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := store.UpsertCaregivers(context.Background(), []model.Caregiver{
			{ID: "amy", FirstName: "Amy", LastName: "Pond"},
			{ID: "bob", FirstName: "Bob"},
		})

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all ids", func(t *testing.T) {
		conn, mock, store := setupMockDB(t)
		defer conn.Close()

		mock.ExpectQuery(`SELECT id FROM caregiver ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("amy").AddRow("bob"))

		ids, err := store.AllCaregiverIDs(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"amy", "bob"}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
