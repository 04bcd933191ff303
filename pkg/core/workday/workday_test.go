package workday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/caregiver-rota/pkg/core/errs"
)

func TestHoursValidate(t *testing.T) {
	tests := []struct {
		name    string
		hours   Hours
		wantErr bool
	}{
		{name: "standard day", hours: Hours{Start: 9, End: 17}},
		{name: "full day", hours: Hours{Start: 0, End: 24}},
		{name: "single slot", hours: Hours{Start: 9, End: 10}},
		{name: "empty range", hours: Hours{Start: 9, End: 9}, wantErr: true},
		{name: "inverted range", hours: Hours{Start: 17, End: 9}, wantErr: true},
		{name: "negative start", hours: Hours{Start: -1, End: 9}, wantErr: true},
		{name: "end past midnight", hours: Hours{Start: 9, End: 25}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHoursSlots(t *testing.T) {
	assert.Equal(t, []int{9, 10, 11, 12, 13, 14, 15, 16}, Hours{Start: 9, End: 17}.Slots())
	assert.Equal(t, []int{9, 10}, Hours{Start: 9, End: 11}.Slots())
	assert.Empty(t, Hours{Start: 9, End: 9}.Slots())
}

func TestNewOverride_InvalidRule(t *testing.T) {
	_, err := NewOverride("NOT_A_RULE", true, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rrule")
}

func TestNewOverride_InvalidHours(t *testing.T) {
	_, err := NewOverride("FREQ=WEEKLY;BYDAY=SA", false, &Hours{Start: 12, End: 10})
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestOverride_AppliesToWeekends(t *testing.T) {
	override, err := NewOverride("FREQ=WEEKLY;BYDAY=SA,SU", true, nil)
	require.NoError(t, err)

	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, override.AppliesTo(saturday))
	assert.True(t, override.AppliesTo(sunday))
	assert.False(t, override.AppliesTo(monday))
}

func TestOverride_IntervalRules(t *testing.T) {
	anchor := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		rule    string
		anchor  time.Time
		applies map[int]bool
	}{
		{
			name:    "every other wednesday",
			rule:    "FREQ=WEEKLY;INTERVAL=2;BYDAY=WE",
			anchor:  anchor,
			applies: map[int]bool{6: true, 13: false, 20: true, 27: false},
		},
		{
			name:    "every third day",
			rule:    "FREQ=DAILY;INTERVAL=3",
			anchor:  anchor,
			applies: map[int]bool{6: true, 7: false, 8: false, 9: true, 12: true},
		},
		{
			name:    "default anchor fixes the phase",
			rule:    "FREQ=WEEKLY;INTERVAL=2;BYDAY=WE",
			applies: map[int]bool{6: false, 13: true, 20: false, 27: true},
		},
		{
			name:    "dtstart in the rule wins",
			rule:    "DTSTART:20240313T000000Z\nRRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=WE",
			anchor:  anchor,
			applies: map[int]bool{6: false, 13: true, 20: false, 27: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override, err := NewAnchoredOverride(tt.rule, tt.anchor, true, nil)
			require.NoError(t, err)

			for d, want := range tt.applies {
				assert.Equal(t, want, override.AppliesTo(day(d)), "2024-03-%02d", d)
			}
			// Repeated lookups must not shift the phase
			for d, want := range tt.applies {
				assert.Equal(t, want, override.AppliesTo(day(d)), "2024-03-%02d again", d)
			}
		})
	}
}

func TestOverride_IntervalRuleInLocalTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	override, err := NewAnchoredOverride("FREQ=WEEKLY;INTERVAL=2;BYDAY=WE", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), true, nil)
	require.NoError(t, err)

	assert.True(t, override.AppliesTo(time.Date(2024, 3, 6, 0, 0, 0, 0, loc)))
	assert.False(t, override.AppliesTo(time.Date(2024, 3, 5, 0, 0, 0, 0, loc)))
	assert.False(t, override.AppliesTo(time.Date(2024, 3, 13, 0, 0, 0, 0, loc)))
	assert.True(t, override.AppliesTo(time.Date(2024, 3, 20, 0, 0, 0, 0, loc)), "across the DST change")
}

func TestPolicyHoursFor_ClosedEveryOtherWeek(t *testing.T) {
	closed, err := NewAnchoredOverride("FREQ=WEEKLY;INTERVAL=2;BYDAY=WE", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), true, nil)
	require.NoError(t, err)
	policy := Policy{Default: Hours{Start: 9, End: 17}, Overrides: []Override{closed}}

	_, open := policy.HoursFor(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	assert.False(t, open)

	_, open = policy.HoursFor(time.Date(2024, 3, 27, 0, 0, 0, 0, time.UTC))
	assert.True(t, open)
}

func TestOverride_ZeroValueNeverApplies(t *testing.T) {
	assert.False(t, Override{}.AppliesTo(time.Now()))
}

func TestPolicyHoursFor(t *testing.T) {
	closedSundays, err := NewOverride("FREQ=WEEKLY;BYDAY=SU", true, nil)
	require.NoError(t, err)
	shortFridays, err := NewOverride("FREQ=WEEKLY;BYDAY=FR", false, &Hours{Start: 9, End: 13})
	require.NoError(t, err)

	policy := Policy{
		Default:   Hours{Start: 9, End: 17},
		Overrides: []Override{closedSundays, shortFridays},
	}

	hours, open := policy.HoursFor(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) // Sunday
	assert.False(t, open)
	assert.Empty(t, hours.Slots())

	hours, open = policy.HoursFor(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)) // Friday
	assert.True(t, open)
	assert.Equal(t, Hours{Start: 9, End: 13}, hours)

	hours, open = policy.HoursFor(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)) // Wednesday
	assert.True(t, open)
	assert.Equal(t, Hours{Start: 9, End: 17}, hours)
}

func TestPolicyHoursFor_FirstMatchWins(t *testing.T) {
	shortWeekdays, err := NewOverride("FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", false, &Hours{Start: 10, End: 12})
	require.NoError(t, err)
	closedWednesdays, err := NewOverride("FREQ=WEEKLY;BYDAY=WE", true, nil)
	require.NoError(t, err)

	policy := Policy{
		Default:   Hours{Start: 9, End: 17},
		Overrides: []Override{shortWeekdays, closedWednesdays},
	}

	hours, open := policy.HoursFor(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	assert.True(t, open)
	assert.Equal(t, Hours{Start: 10, End: 12}, hours)
}
