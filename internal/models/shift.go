package models

import "time"

// Shift is one of the three fixed time-of-day windows used for venue capacity
// scheduling. Assigning a shift rewrites the time-of-day of a guest's
// invitation time while keeping the date.
type Shift string

const (
	ShiftOne   Shift = "shift1" // 10.00 - 11.00
	ShiftTwo   Shift = "shift2" // 11.00 - 12.30
	ShiftThree Shift = "shift3" // 12.30 - 13.00
)

func (s Shift) Valid() bool {
	return s == ShiftOne || s == ShiftTwo || s == ShiftThree
}

// Start returns the shift's start time-of-day.
func (s Shift) Start() (hour, minute int) {
	switch s {
	case ShiftTwo:
		return 11, 0
	case ShiftThree:
		return 12, 30
	default:
		return 10, 0
	}
}

func (s Shift) Label() string {
	switch s {
	case ShiftTwo:
		return "Shift 2: 11.00 - 12.30"
	case ShiftThree:
		return "Shift 3: 12.30 - 13.00"
	default:
		return "Shift 1: 10.00 - 11.00"
	}
}

// Wedding dates per venue, used as the date part when a guest has no
// invitation time yet.
var weddingDates = map[string]time.Time{
	"Semarang": time.Date(2026, time.July, 25, 0, 0, 0, 0, time.Local),
	"Magetan":  time.Date(2026, time.August, 1, 0, 0, 0, 0, time.Local),
}

// Apply returns the invitation time with this shift's start time-of-day.
// The date comes from the current invitation time when set; otherwise from
// the venue's wedding date, falling back to now.
func (s Shift) Apply(current *time.Time, location *string, now time.Time) time.Time {
	base := now
	switch {
	case current != nil:
		base = *current
	case location != nil:
		if d, ok := weddingDates[*location]; ok {
			base = d
		}
	}
	hour, minute := s.Start()
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}

// ShiftForTime maps an invitation time back to its shift window. Times that
// match no window report the first shift, like the list screen does.
func ShiftForTime(t *time.Time) Shift {
	if t == nil {
		return ShiftOne
	}
	switch h, m := t.Hour(), t.Minute(); {
	case h == 11 && m == 0:
		return ShiftTwo
	case h == 12 && m == 30:
		return ShiftThree
	default:
		return ShiftOne
	}
}
