package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/caregiver-rota/pkg/core/calendar"
	"github.com/jakechorley/caregiver-rota/pkg/core/rooms"
	"github.com/jakechorley/caregiver-rota/pkg/core/workday"
)

var wednesday = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func testLayout(t *testing.T, roomCount, start, end int, overrides ...workday.Override) DayLayout {
	t.Helper()

	catalog, err := rooms.New(roomCount)
	require.NoError(t, err)

	return DayLayout{
		Calendar: calendar.New(time.UTC, time.Sunday),
		Policy: workday.Policy{
			Default:   workday.Hours{Start: start, End: end},
			Overrides: overrides,
		},
		Rooms: catalog,
	}
}
