package reservation

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate_RoundTripsValidInput(t *testing.T) {
	t.Parallel()

	values := []string{
		"1900-01-01",
		"2024-02-29",
		"2026-08-29",
		"2100-12-31",
	}

	for _, value := range values {
		date, err := ParseDate(value)
		if err != nil {
			t.Fatalf("ParseDate(%q) returned error: %v", value, err)
		}
		if got := date.String(); got != value {
			t.Fatalf("round-trip mismatch: parsed %q, formatted %q", value, got)
		}
	}
}

func TestParseDate_RejectsNonCalendarInput(t *testing.T) {
	t.Parallel()

	values := []string{
		"",
		"2026-2-01",
		"2026/02/01",
		"2026-02-31",
		"2026-13-01",
		"2026-00-15",
		"2026-01-00",
		"2026-02-29",
		"1899-12-31",
		"2101-01-01",
		"20260101",
		"2026-01-01T00:00:00Z",
		"abcd-ef-gh",
	}

	for _, value := range values {
		_, err := ParseDate(value)
		if err == nil {
			t.Fatalf("ParseDate(%q) unexpectedly succeeded", value)
		}
		var invalid *DateInvalidError
		if !errors.As(err, &invalid) {
			t.Fatalf("ParseDate(%q) returned %T, want *DateInvalidError", value, err)
		}
		if invalid.Value != value {
			t.Fatalf("DateInvalidError carries %q, want %q", invalid.Value, value)
		}
	}
}

func TestParseDate_LeapYearBoundaries(t *testing.T) {
	t.Parallel()

	if _, err := ParseDate("2024-02-29"); err != nil {
		t.Fatalf("2024-02-29 should parse on a leap year: %v", err)
	}
	if _, err := ParseDate("2000-02-29"); err != nil {
		t.Fatalf("2000-02-29 should parse: 2000 is divisible by 400: %v", err)
	}
	if _, err := ParseDate("1900-02-29"); err == nil {
		t.Fatal("1900-02-29 should fail: 1900 is not a leap year")
	}
	if _, err := ParseDate("2026-02-29"); err == nil {
		t.Fatal("2026-02-29 should fail: 2026 is not a leap year")
	}
}

func TestDate_ComparisonMatchesChronology(t *testing.T) {
	t.Parallel()

	earlier := MustParseDate("2026-08-09")
	later := MustParseDate("2026-08-10")

	if !earlier.Before(later) {
		t.Fatal("expected 2026-08-09 to sort before 2026-08-10")
	}
	if !later.After(earlier) {
		t.Fatal("expected 2026-08-10 to sort after 2026-08-09")
	}
	if !earlier.Equal(MustParseDate("2026-08-09")) {
		t.Fatal("expected equal dates to compare equal")
	}
}

func TestDate_WeekdayUsesUTCInterpretation(t *testing.T) {
	t.Parallel()

	// 2026-08-29 is a Saturday and 2026-08-31 a Monday regardless of any zone.
	if got := MustParseDate("2026-08-29").Weekday(); got != time.Saturday {
		t.Fatalf("weekday = %v, want Saturday", got)
	}
	if got := MustParseDate("2026-08-31").Weekday(); got != time.Monday {
		t.Fatalf("weekday = %v, want Monday", got)
	}
}

func TestDateOf_UsesCivilDayOfLocation(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load Asia/Tokyo: %v", err)
	}

	// 23:30 UTC on the 9th is already the 10th in Tokyo.
	instant := time.Date(2026, 8, 9, 23, 30, 0, 0, time.UTC)

	if got := DateOf(instant, time.UTC).String(); got != "2026-08-09" {
		t.Fatalf("UTC civil date = %s, want 2026-08-09", got)
	}
	if got := DateOf(instant, tokyo).String(); got != "2026-08-10" {
		t.Fatalf("Tokyo civil date = %s, want 2026-08-10", got)
	}
}
