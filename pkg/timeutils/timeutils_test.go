package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey(t *testing.T) {
	utc := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-10", DayKey(utc, time.UTC))

	// The same instant can fall on the next day in an eastern timezone.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err == nil {
		assert.Equal(t, "2026-03-11", DayKey(utc, tokyo))
	}
}

func TestNextMidnight(t *testing.T) {
	from := time.Date(2026, 3, 10, 15, 42, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), NextMidnight(from, time.UTC))

	// Already at midnight still moves forward a full day.
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), NextMidnight(midnight, time.UTC))
}

func TestNextDailyOccurrence(t *testing.T) {
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC),
		NextDailyOccurrence(morning, 12, 30, time.UTC))

	afternoon := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 12, 30, 0, 0, time.UTC),
		NextDailyOccurrence(afternoon, 12, 30, time.UTC))

	// The occurrence is strictly after from.
	exact := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 12, 30, 0, 0, time.UTC),
		NextDailyOccurrence(exact, 12, 30, time.UTC))
}
