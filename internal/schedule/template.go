package schedule

import (
	"time"
)

// DayRule is one weekday's capacity template: how many slots the center can
// serve and its operating hours. Capacity 0 means the center is closed that
// weekday.
type DayRule struct {
	Capacity int    `json:"capacity"`
	Opens    string `json:"opens"`  // "08:00"
	Closes   string `json:"closes"` // "17:00"
}

// WeeklyTemplate maps each weekday to its rule. Missing or malformed entries
// are filled from the system defaults at resolution time rather than failing.
type WeeklyTemplate map[time.Weekday]DayRule

// DefaultTemplate is the system-wide weekday policy: full service Monday
// through Thursday, reduced Friday, minimal Saturday, closed Sunday.
func DefaultTemplate() WeeklyTemplate {
	return WeeklyTemplate{
		time.Monday:    {Capacity: 48, Opens: "08:00", Closes: "17:00"},
		time.Tuesday:   {Capacity: 48, Opens: "08:00", Closes: "17:00"},
		time.Wednesday: {Capacity: 48, Opens: "08:00", Closes: "17:00"},
		time.Thursday:  {Capacity: 48, Opens: "08:00", Closes: "17:00"},
		time.Friday:    {Capacity: 24, Opens: "08:00", Closes: "13:00"},
		time.Saturday:  {Capacity: 12, Opens: "09:00", Closes: "12:00"},
		time.Sunday:    {Capacity: 0, Opens: "00:00", Closes: "00:00"},
	}
}

// ResolveDay maps a calendar date onto its (capacity, opening, closing) tuple
// for the given template. Pure function, no error conditions: a rule with
// missing hours is filled from the defaults so the day entry stays
// structurally valid. A zero-capacity weekday yields a closed day that still
// carries placeholder hours.
func ResolveDay(tpl WeeklyTemplate, date time.Time) DayEntry {
	weekday := date.Weekday()
	defaults := DefaultTemplate()[weekday]

	rule, ok := tpl[weekday]
	if !ok {
		rule = defaults
	}
	if rule.Opens == "" || rule.Closes == "" {
		rule.Opens = defaults.Opens
		rule.Closes = defaults.Closes
	}
	if rule.Capacity < 0 {
		rule.Capacity = defaults.Capacity
	}

	return DayEntry{
		Date:     date,
		Capacity: rule.Capacity,
		Opens:    rule.Opens,
		Closes:   rule.Closes,
		Closed:   rule.Capacity == 0,
	}
}
