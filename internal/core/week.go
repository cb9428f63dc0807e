package core

import (
	"fmt"
	"time"
)

// WeekID identifies an ISO week as YYYY-Wnn. The zero value is not a valid
// week; instances come from ParseWeekID or WeekOf.
type WeekID struct {
	year int
	week int
}

// MaxWeek is the highest week number accepted by ParseWeekID.
const MaxWeek = 53

// ParseWeekID accepts exactly four year digits, a literal "-W" and two week
// digits in 01..53.
func ParseWeekID(raw string) (WeekID, error) {
	invalid := func(reason string) (WeekID, error) {
		return WeekID{}, &ValidationError{Field: "week", Reason: fmt.Sprintf("%q %s", raw, reason)}
	}
	if len(raw) != 8 || raw[4] != '-' || raw[5] != 'W' {
		return invalid("does not match YYYY-Wnn")
	}
	year, ok := digits(raw[0:4])
	if !ok {
		return invalid("has a non-numeric year")
	}
	week, ok := digits(raw[6:8])
	if !ok {
		return invalid("has a non-numeric week")
	}
	if week < 1 || week > MaxWeek {
		return invalid("has a week number outside 01..53")
	}
	return WeekID{year: year, week: week}, nil
}

// MustParseWeekID is ParseWeekID for constants; it panics on malformed input.
func MustParseWeekID(raw string) WeekID {
	w, err := ParseWeekID(raw)
	if err != nil {
		panic(err)
	}
	return w
}

// WeekOf returns the ISO week containing d. A week spanning two calendar
// years gets a single identifier from its ISO year.
func WeekOf(d Date) WeekID {
	year, week := d.ISOWeek()
	return WeekID{year: year, week: week}
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (w WeekID) Year() int { return w.year }

func (w WeekID) Week() int { return w.week }

// IsZero reports whether w was never initialized.
func (w WeekID) IsZero() bool { return w.week == 0 }

func (w WeekID) String() string {
	return fmt.Sprintf("%04d-W%02d", w.year, w.week)
}

// Bounds returns the Monday and Sunday of the week.
func (w WeekID) Bounds() (start, end Date) {
	// January 4th is always in ISO week 1.
	jan4 := time.Date(w.year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+7*(w.week-1))
	start = Date{Time: monday}
	return start, start.AddDays(6)
}

// Month returns the month containing the week's Thursday. Every week belongs
// to exactly one month under this rule.
func (w WeekID) Month() MonthID {
	start, _ := w.Bounds()
	return MonthOf(start.AddDays(3))
}

// Next returns the following week.
func (w WeekID) Next() WeekID {
	_, end := w.Bounds()
	return WeekOf(end.AddDays(1))
}

// Compare orders weeks chronologically: -1, 0 or +1.
func (w WeekID) Compare(o WeekID) int {
	switch {
	case w.year < o.year:
		return -1
	case w.year > o.year:
		return 1
	case w.week < o.week:
		return -1
	case w.week > o.week:
		return 1
	default:
		return 0
	}
}

// Before reports whether w is strictly earlier than o.
func (w WeekID) Before(o WeekID) bool { return w.Compare(o) < 0 }

// MarshalText implements encoding.TextMarshaler
func (w WeekID) MarshalText() ([]byte, error) {
	if w.IsZero() {
		return nil, &ValidationError{Field: "week", Reason: "is not initialized"}
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and validates the input.
func (w *WeekID) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekID(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// MonthID identifies a calendar month as YYYY-MM.
type MonthID struct {
	year  int
	month time.Month
}

// MonthOf returns the calendar month containing d.
func MonthOf(d Date) MonthID {
	return MonthID{year: d.Year(), month: d.Month()}
}

// ParseMonthID parses a YYYY-MM month identifier.
func ParseMonthID(raw string) (MonthID, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil || len(raw) != 7 {
		return MonthID{}, &ValidationError{Field: "month", Reason: fmt.Sprintf("%q does not match YYYY-MM", raw)}
	}
	return MonthID{year: t.Year(), month: t.Month()}, nil
}

func (m MonthID) Year() int { return m.year }

func (m MonthID) Month() time.Month { return m.month }

func (m MonthID) IsZero() bool { return m.month == 0 }

func (m MonthID) String() string {
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// Compare orders months chronologically: -1, 0 or +1.
func (m MonthID) Compare(o MonthID) int {
	switch {
	case m.year != o.year:
		if m.year < o.year {
			return -1
		}
		return 1
	case m.month < o.month:
		return -1
	case m.month > o.month:
		return 1
	default:
		return 0
	}
}

// Weeks returns the ISO weeks whose Thursday falls in the month, in order.
func (m MonthID) Weeks() []WeekID {
	first := time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
	thursday := first.AddDate(0, 0, (int(time.Thursday)-int(first.Weekday())+7)%7)
	var weeks []WeekID
	for t := thursday; t.Month() == m.month; t = t.AddDate(0, 0, 7) {
		weeks = append(weeks, WeekOf(Date{Time: t}))
	}
	return weeks
}
