package workday

import (
	"fmt"
	"sync"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/caregiver-rota/pkg/core/errs"
)

// Hours is a working-hour range with an exclusive end, e.g. {9, 17} covers 09:00-16:59
type Hours struct {
	Start int
	End   int
}

// Validate checks 0 <= Start < End <= 24
func (h Hours) Validate() error {
	if h.Start < 0 || h.Start > 23 {
		return errs.Configuration("workday", "start hour %d must be between 0 and 23", h.Start)
	}
	if h.End < 1 || h.End > 24 {
		return errs.Configuration("workday", "end hour %d must be between 1 and 24", h.End)
	}
	if h.Start >= h.End {
		return errs.Configuration("workday", "start hour %d must be before end hour %d", h.Start, h.End)
	}
	return nil
}

// Slots returns each hour of the range in ascending order
func (h Hours) Slots() []int {
	if h.End <= h.Start {
		return nil
	}
	slots := make([]int, 0, h.End-h.Start)
	for hour := h.Start; hour < h.End; hour++ {
		slots = append(slots, hour)
	}
	return slots
}

// Override changes the working hours of the days matched by a recurrence rule.
// A closed override means no slots are scheduled that day.
type Override struct {
	Rule   string
	Closed bool
	Hours  *Hours

	appliesTo func(day time.Time) bool
}

// DefaultAnchor is the first occurrence date assumed for rules that carry no DTSTART.
// It fixes the phase of INTERVAL>1 rules.
var DefaultAnchor = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

// NewOverride parses an RRULE string (e.g. "FREQ=WEEKLY;BYDAY=SA,SU") into an Override.
// A DTSTART in the rule is honoured, otherwise the rule is anchored at DefaultAnchor.
func NewOverride(rule string, closed bool, hours *Hours) (Override, error) {
	return NewAnchoredOverride(rule, time.Time{}, closed, hours)
}

// NewAnchoredOverride is NewOverride with an explicit anchor date. Only the
// calendar date of anchor is used; occurrences are computed in the location of
// the day being checked. A DTSTART inside the rule takes precedence over anchor.
func NewAnchoredOverride(rule string, anchor time.Time, closed bool, hours *Hours) (Override, error) {
	parsed, err := rrule.StrToRRule(rule)
	if err != nil {
		return Override{}, fmt.Errorf("failed to parse rrule %q: %w", rule, err)
	}
	if hours != nil && !closed {
		if err := hours.Validate(); err != nil {
			return Override{}, err
		}
	}

	switch {
	case !parsed.OrigOptions.Dtstart.IsZero():
		anchor = parsed.OrigOptions.Dtstart
	case anchor.IsZero():
		anchor = DefaultAnchor
	}
	anchorYear, anchorMonth, anchorDay := anchor.Date()

	var mu sync.Mutex
	var anchoredIn *time.Location
	appliesTo := func(day time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		loc := day.Location()
		if anchoredIn != loc {
			parsed.DTStart(time.Date(anchorYear, anchorMonth, anchorDay, 0, 0, 0, 0, loc))
			anchoredIn = loc
		}

		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return len(parsed.Between(dayStart, dayEnd, true)) > 0
	}

	return Override{
		Rule:      rule,
		Closed:    closed,
		Hours:     hours,
		appliesTo: appliesTo,
	}, nil
}

// AppliesTo reports whether the override matches the given date
func (o Override) AppliesTo(day time.Time) bool {
	if o.appliesTo == nil {
		return false
	}
	return o.appliesTo(day)
}

// Policy resolves the working hours for a date
type Policy struct {
	Default   Hours
	Overrides []Override
}

// Validate checks the default hours
func (p Policy) Validate() error {
	return p.Default.Validate()
}

// HoursFor returns the working hours for the date and whether the day is open.
// The first matching override wins.
func (p Policy) HoursFor(day time.Time) (Hours, bool) {
	for _, override := range p.Overrides {
		if !override.AppliesTo(day) {
			continue
		}
		if override.Closed {
			return Hours{}, false
		}
		if override.Hours != nil {
			return *override.Hours, true
		}
	}
	return p.Default, true
}
