package timeutils

import "time"

// DayKey formats t's calendar day in loc as the canonical YYYY-MM-DD key used
// for quotas, plans and ledgers.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// NextMidnight returns the first moment of the next calendar day in loc.
func NextMidnight(from time.Time, loc *time.Location) time.Time {
	local := from.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).Add(24 * time.Hour)
}

// NextDailyOccurrence returns the next time the clock reads hour:minute in
// loc, strictly after from.
func NextDailyOccurrence(from time.Time, hour, minute int, loc *time.Location) time.Time {
	local := from.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(from) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}
