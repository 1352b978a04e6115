package policy

import "fmt"

// TimeOfDay is a wall-clock minute within a civil day. Comparisons are at
// minute precision; storage-level HH:MM:SS values are truncated on parse.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var (
	// DefaultCheckInAllowedFrom opens the check-in window at 06:00 local.
	DefaultCheckInAllowedFrom = TimeOfDay{Hour: 6}
	// DefaultCheckInCutoff closes the check-in window at 12:00 local.
	DefaultCheckInCutoff = TimeOfDay{Hour: 12, Minute: 0}
)

// ParseTimeOfDay parses strict "HH:MM" or "HH:MM:SS" with range validation.
// The seconds component is accepted from storage but truncated.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	if len(value) != 5 && len(value) != 8 {
		return TimeOfDay{}, fmt.Errorf("policy: invalid time of day %q", value)
	}
	if value[2] != ':' || (len(value) == 8 && value[5] != ':') {
		return TimeOfDay{}, fmt.Errorf("policy: invalid time of day %q", value)
	}

	hour, okH := parseTwoDigits(value[0:2])
	minute, okM := parseTwoDigits(value[3:5])
	if !okH || !okM || hour > 23 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("policy: invalid time of day %q", value)
	}
	if len(value) == 8 {
		if second, ok := parseTwoDigits(value[6:8]); !ok || second > 59 {
			return TimeOfDay{}, fmt.Errorf("policy: invalid time of day %q", value)
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseTimeOfDayOrDefault falls back to def when the stored value is
// malformed or absent. Policy rows are operator-entered; a single bad row
// must not take desk booking down, so parsing never raises to callers.
func ParseTimeOfDayOrDefault(value string, def TimeOfDay) TimeOfDay {
	if value == "" {
		return def
	}
	parsed, err := ParseTimeOfDay(value)
	if err != nil {
		return def
	}
	return parsed
}

// String renders the canonical HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.minuteOfDay() < other.minuteOfDay()
}

// After reports whether t is strictly later than other.
func (t TimeOfDay) After(other TimeOfDay) bool {
	return t.minuteOfDay() > other.minuteOfDay()
}

func (t TimeOfDay) minuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func parseTwoDigits(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
