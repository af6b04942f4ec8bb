package schedule

import (
	"strconv"
	"time"

	id "civid/pkg/domain"
)

// Ledger is the per-(center, month) collection of day entries tracking
// booking capacity. Exactly one ledger exists per (center, month) pair;
// stores enforce the uniqueness structurally through their key.
//
// Invariants:
//   - Days are ordered by date and cover every calendar day of Month
//   - 0 <= Reserved <= Capacity for every open day, at all times
//   - Regeneration preserves existing reservations (count and details)
type Ledger struct {
	CenterID  id.CenterID `json:"center_id"`
	Month     id.Month    `json:"month"`
	Days      []DayEntry  `json:"days"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Day returns the entry for the given calendar date, if present.
func (l *Ledger) Day(date time.Time) (*DayEntry, bool) {
	for i := range l.Days {
		if sameDate(l.Days[i].Date, date) {
			return &l.Days[i], true
		}
	}
	return nil, false
}

// ReservationCount sums reservations across all days.
func (l *Ledger) ReservationCount() int {
	n := 0
	for i := range l.Days {
		n += l.Days[i].Reserved
	}
	return n
}

// DayEntry is one calendar day's capacity, reservations and operating hours
// within a ledger. A closed day keeps placeholder hours so the entry remains
// structurally valid, but is never bookable.
type DayEntry struct {
	Date         time.Time     `json:"date"`
	Capacity     int           `json:"capacity"`
	Opens        string        `json:"opens"`
	Closes       string        `json:"closes"`
	Closed       bool          `json:"closed"`
	Reserved     int           `json:"reserved"`
	Reservations []Reservation `json:"reservations"`
}

// Remaining returns the number of unreserved slots on an open day.
func (d *DayEntry) Remaining() int { return d.Capacity - d.Reserved }

// Reservation records one consumed slot: which appointment holds it, for
// whom, and at what time of day.
type Reservation struct {
	Slot          string           `json:"slot"` // "10:30"
	AppointmentID id.AppointmentID `json:"appointment_id"`
	UserID        id.UserID        `json:"user_id"`
}

// Availability is the tri-state answer to "how many slots are free on this
// day". A closed day is distinguished from a fully booked one: zero remaining
// slots on an open day reports Open(0), a closed day reports Closed.
type Availability struct {
	closed bool
	slots  int
}

// Open returns availability with n free slots.
func Open(n int) Availability { return Availability{slots: n} }

// ClosedDay returns the not-bookable availability.
func ClosedDay() Availability { return Availability{closed: true} }

// Closed reports whether the day is not bookable at all.
func (a Availability) Closed() bool { return a.closed }

// Slots returns the number of free slots; 0 for closed days.
func (a Availability) Slots() int {
	if a.closed {
		return 0
	}
	return a.slots
}

// Bookable reports whether at least one slot can still be reserved.
func (a Availability) Bookable() bool { return !a.closed && a.slots > 0 }

// String renders "closed" or the decimal slot count.
func (a Availability) String() string {
	if a.closed {
		return "closed"
	}
	return strconv.Itoa(a.slots)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
