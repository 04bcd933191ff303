package calendar

import "time"

// Range is a half-open time interval [Start, End)
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Calendar performs hour, day and week arithmetic in a fixed location.
// FirstDay is the weekday a calendar week starts on.
type Calendar struct {
	Location *time.Location
	FirstDay time.Weekday
}

// New creates a Calendar. A nil location means UTC.
func New(loc *time.Location, firstDay time.Weekday) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Location: loc, FirstDay: firstDay}
}

// TruncateHour zeroes minutes, seconds and nanoseconds
func (c Calendar) TruncateHour(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, c.Location)
}

// At returns the given date at the given hour of the day, truncated to the hour
func (c Calendar) At(date time.Time, hour int) time.Time {
	date = date.In(c.Location)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, c.Location)
}

// Hour returns the slot covering t: [hour, hour+1h)
func (c Calendar) Hour(t time.Time) Range {
	start := c.TruncateHour(t)
	return Range{Start: start, End: start.Add(time.Hour)}
}

// DayStart returns midnight of the given date
func (c Calendar) DayStart(t time.Time) time.Time {
	return c.At(t, 0)
}

// DayEnd returns midnight of the following day
func (c Calendar) DayEnd(t time.Time) time.Time {
	return c.DayStart(t).AddDate(0, 0, 1)
}

// Day returns [DayStart, DayEnd)
func (c Calendar) Day(t time.Time) Range {
	return Range{Start: c.DayStart(t), End: c.DayEnd(t)}
}

// WeekStart returns midnight of the most recent FirstDay on or before t
func (c Calendar) WeekStart(t time.Time) time.Time {
	day := c.DayStart(t)
	offset := (int(day.Weekday()) - int(c.FirstDay) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the start of the following week
func (c Calendar) WeekEnd(t time.Time) time.Time {
	return c.WeekStart(t).AddDate(0, 0, 7)
}

// Week returns [WeekStart, WeekEnd)
func (c Calendar) Week(t time.Time) Range {
	return Range{Start: c.WeekStart(t), End: c.WeekEnd(t)}
}

// WeeksBack returns t moved back n calendar weeks, keeping the wall clock time
func (c Calendar) WeeksBack(t time.Time, n int) time.Time {
	return t.In(c.Location).AddDate(0, 0, -7*n)
}

// TrailingWeeks returns the n whole calendar weeks ending with the week containing t
func (c Calendar) TrailingWeeks(t time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{
		Start: c.WeeksBack(c.WeekStart(t), n-1),
		End:   c.WeekEnd(t),
	}
}
