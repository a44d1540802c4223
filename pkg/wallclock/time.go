// Package wallclock models local time-of-day values for a professional's
// working day. Times carry no date and no zone.
package wallclock

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	minutesPerDay = 24 * 60

	// Midnight is the first minute of the day (00:00).
	Midnight Time = 0
	// LastMinute is the latest representable time (23:59).
	LastMinute Time = minutesPerDay - 1
)

// ErrInvalidTime is returned for strings that are not zero-padded 24-hour HH:mm.
var ErrInvalidTime = errors.New("invalid time of day, expected HH:mm")

// ErrPastMidnight is returned when arithmetic would leave the current day.
var ErrPastMidnight = errors.New("time of day passes midnight")

// Time is a minute-of-day in the range [00:00, 23:59].
type Time int

// Parse accepts exactly "HH:mm" with HH in 00-23 and mm in 00-59.
func Parse(s string) (Time, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, ok1 := twoDigits(s[0], s[1])
	m, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return Time(h*60 + m), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMinutes validates a raw minute-of-day.
func FromMinutes(m int) (Time, error) {
	if m < 0 || m > int(LastMinute) {
		return 0, fmt.Errorf("%w: %d minutes", ErrInvalidTime, m)
	}
	return Time(m), nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// Minutes returns the number of minutes since midnight.
func (t Time) Minutes() int { return int(t) }

// Hour returns the hour component.
func (t Time) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t Time) Minute() int { return int(t) % 60 }

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool { return t < u }

// After reports whether t is strictly later than u.
func (t Time) After(u Time) bool { return t > u }

// AddMinutes returns t+n. The result must stay within the same day.
func (t Time) AddMinutes(n int) (Time, error) {
	r := int(t) + n
	if r < 0 || r > int(LastMinute) {
		return 0, fmt.Errorf("%w: %s + %d minutes", ErrPastMidnight, t, n)
	}
	return Time(r), nil
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTime, string(b))
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value stores the time as its minute-of-day.
func (t Time) Value() (driver.Value, error) {
	return int64(t), nil
}

// Scan reads a minute-of-day integer column.
func (t *Time) Scan(src interface{}) error {
	var m int64
	switch v := src.(type) {
	case int64:
		m = v
	case int32:
		m = int64(v)
	case int16:
		m = int64(v)
	case int:
		m = int64(v)
	default:
		return fmt.Errorf("wallclock: cannot scan %T", src)
	}
	parsed, err := FromMinutes(int(m))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
