package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDay(t *testing.T) {
	t.Run("applies template rule for the weekday", func(t *testing.T) {
		tpl := WeeklyTemplate{
			time.Monday: {Capacity: 10, Opens: "09:00", Closes: "15:00"},
		}
		// 2026-09-07 is a Monday.
		day := ResolveDay(tpl, date(2026, time.September, 7))
		assert.Equal(t, 10, day.Capacity)
		assert.Equal(t, "09:00", day.Opens)
		assert.Equal(t, "15:00", day.Closes)
		assert.False(t, day.Closed)
	})

	t.Run("falls back to defaults for missing weekday", func(t *testing.T) {
		day := ResolveDay(WeeklyTemplate{}, date(2026, time.September, 11)) // Friday
		assert.Equal(t, 24, day.Capacity)
		assert.Equal(t, "08:00", day.Opens)
		assert.Equal(t, "13:00", day.Closes)
	})

	t.Run("zero capacity marks the day closed", func(t *testing.T) {
		day := ResolveDay(DefaultTemplate(), date(2026, time.September, 13)) // Sunday
		assert.True(t, day.Closed)
		assert.Equal(t, 0, day.Capacity)
		assert.NotEmpty(t, day.Opens)
		assert.NotEmpty(t, day.Closes)
	})

	t.Run("fills missing hours from defaults", func(t *testing.T) {
		tpl := WeeklyTemplate{
			time.Tuesday: {Capacity: 30},
		}
		day := ResolveDay(tpl, date(2026, time.September, 8)) // Tuesday
		assert.Equal(t, 30, day.Capacity)
		assert.Equal(t, "08:00", day.Opens)
		assert.Equal(t, "17:00", day.Closes)
	})

	t.Run("negative capacity falls back to default capacity", func(t *testing.T) {
		tpl := WeeklyTemplate{
			time.Wednesday: {Capacity: -1, Opens: "08:00", Closes: "17:00"},
		}
		day := ResolveDay(tpl, date(2026, time.September, 9)) // Wednesday
		assert.Equal(t, 48, day.Capacity)
		assert.False(t, day.Closed)
	})
}

func TestAvailability(t *testing.T) {
	t.Run("closed day is not zero slots", func(t *testing.T) {
		closed := ClosedDay()
		assert.True(t, closed.Closed())
		assert.False(t, closed.Bookable())
		assert.Equal(t, 0, closed.Slots())

		full := Open(0)
		assert.False(t, full.Closed())
		assert.False(t, full.Bookable())
	})

	t.Run("open day with remaining slots is bookable", func(t *testing.T) {
		avail := Open(3)
		assert.True(t, avail.Bookable())
		assert.Equal(t, 3, avail.Slots())
	})
}
