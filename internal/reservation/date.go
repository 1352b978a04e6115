package reservation

import (
	"time"
)

// Date is a calendar date in strict YYYY-MM-DD form without any timezone
// attached. The canonical fixed-width representation keeps lexicographic
// comparison equivalent to chronological comparison, which the persistence
// layer relies on for range queries over TEXT columns.
type Date struct {
	value string
}

const (
	dateLayout  = "2006-01-02"
	minDateYear = 1900
	maxDateYear = 2100
)

// ParseDate validates a YYYY-MM-DD string and returns the immutable Date
// value. Non-calendar dates (month 13, Feb 31, non-leap Feb 29) and years
// outside 1900-2100 are rejected with *DateInvalidError.
func ParseDate(value string) (Date, error) {
	if len(value) != 10 || value[4] != '-' || value[7] != '-' {
		return Date{}, &DateInvalidError{Value: value}
	}

	year, ok := parseDigits(value[0:4])
	if !ok {
		return Date{}, &DateInvalidError{Value: value}
	}
	month, ok := parseDigits(value[5:7])
	if !ok {
		return Date{}, &DateInvalidError{Value: value}
	}
	day, ok := parseDigits(value[8:10])
	if !ok {
		return Date{}, &DateInvalidError{Value: value}
	}

	if year < minDateYear || year > maxDateYear {
		return Date{}, &DateInvalidError{Value: value}
	}
	if month < 1 || month > 12 {
		return Date{}, &DateInvalidError{Value: value}
	}
	if day < 1 || day > daysInMonth(year, month) {
		return Date{}, &DateInvalidError{Value: value}
	}

	return Date{value: value}, nil
}

// MustParseDate is a test and fixture helper that panics on invalid input.
func MustParseDate(value string) Date {
	date, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return date
}

// String returns the canonical YYYY-MM-DD form. Parse and String round-trip
// to the identical string for every valid input.
func (d Date) String() string {
	return d.value
}

// IsZero reports whether the date is the unparsed zero value.
func (d Date) IsZero() bool {
	return d.value == ""
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.value < other.value
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.value > other.value
}

// Equal reports whether both values name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.value == other.value
}

// Time returns midnight UTC of the calendar day. Callers needing civil time
// in an office timezone must not use this; it exists for weekday
// classification and date arithmetic only.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, d.value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Weekday returns the weekday of the calendar day itself, interpreted in UTC.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// DateOf converts an instant observed in loc into the calendar Date of that
// civil day.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date{value: t.In(loc).Format(dateLayout)}
}

func parseDigits(s string) (int, bool) {
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

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func isLeapYear(year int) bool {
	if year%400 == 0 {
		return true
	}
	if year%100 == 0 {
		return false
	}
	return year%4 == 0
}
