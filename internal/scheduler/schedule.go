package scheduler

import "time"

// Schedule decides whether a job is due at now, given when it last ran.
// last is the zero time for a job that has not run since startup.
type Schedule interface {
	Due(last, now time.Time) bool
}

type everyTick struct{}

// EveryTick runs the job on every scheduler tick.
func EveryTick() Schedule { return everyTick{} }

func (everyTick) Due(time.Time, time.Time) bool { return true }

type daily struct{ hour int }

// DailyAt runs once per UTC day, on the first tick at or after hour.
func DailyAt(hour int) Schedule { return daily{hour: hour} }

func (d daily) Due(last, now time.Time) bool {
	now = now.UTC()
	if now.Hour() < d.hour {
		return false
	}
	return !sameDay(last.UTC(), now)
}

type weekly struct {
	day  time.Weekday
	hour int
}

// WeeklyAt runs once on the given UTC weekday, on the first tick at or after
// hour.
func WeeklyAt(day time.Weekday, hour int) Schedule { return weekly{day: day, hour: hour} }

func (w weekly) Due(last, now time.Time) bool {
	now = now.UTC()
	if now.Weekday() != w.day || now.Hour() < w.hour {
		return false
	}
	return !sameDay(last.UTC(), now)
}

type monthly struct {
	day  int
	hour int
}

// MonthlyAt runs once on the given UTC day of the month, on the first tick
// at or after hour.
func MonthlyAt(day, hour int) Schedule { return monthly{day: day, hour: hour} }

func (m monthly) Due(last, now time.Time) bool {
	now = now.UTC()
	if now.Day() != m.day || now.Hour() < m.hour {
		return false
	}
	return !sameDay(last.UTC(), now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// PreviousMonth returns the first instant of the calendar month before now,
// in UTC.
func PreviousMonth(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
}
