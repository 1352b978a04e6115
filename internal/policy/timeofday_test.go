package policy

import "testing"

func TestParseTimeOfDay_AcceptsMinuteAndSecondPrecision(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"00:00", "00:00"},
		{"06:00", "06:00"},
		{"23:59", "23:59"},
		{"08:30:45", "08:30"}, // storage values carry seconds, truncated
		{"12:00:00", "12:00"},
	}

	for _, tc := range cases {
		parsed, err := ParseTimeOfDay(tc.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) returned error: %v", tc.in, err)
		}
		if got := parsed.String(); got != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseTimeOfDay_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	values := []string{"", "6:00", "24:00", "12:60", "12-30", "12:30:61", "noon", "12:3", "123:0"}

	for _, value := range values {
		if _, err := ParseTimeOfDay(value); err == nil {
			t.Fatalf("ParseTimeOfDay(%q) unexpectedly succeeded", value)
		}
	}
}

func TestParseTimeOfDayOrDefault_FailsOpen(t *testing.T) {
	t.Parallel()

	if got := ParseTimeOfDayOrDefault("garbage", DefaultCheckInAllowedFrom); got != DefaultCheckInAllowedFrom {
		t.Fatalf("malformed value = %v, want default %v", got, DefaultCheckInAllowedFrom)
	}
	if got := ParseTimeOfDayOrDefault("", DefaultCheckInCutoff); got != DefaultCheckInCutoff {
		t.Fatalf("empty value = %v, want default %v", got, DefaultCheckInCutoff)
	}
	if got := ParseTimeOfDayOrDefault("09:15", DefaultCheckInCutoff); got.String() != "09:15" {
		t.Fatalf("valid value = %v, want 09:15", got)
	}
}

func TestTimeOfDay_Ordering(t *testing.T) {
	t.Parallel()

	earlier := TimeOfDay{Hour: 8, Minute: 59}
	later := TimeOfDay{Hour: 9, Minute: 0}

	if !earlier.Before(later) || later.Before(earlier) {
		t.Fatal("Before must order by minute of day")
	}
	if !later.After(earlier) || earlier.After(later) {
		t.Fatal("After must order by minute of day")
	}
	if earlier.Before(earlier) || earlier.After(earlier) {
		t.Fatal("a value is neither before nor after itself")
	}
}
