package labor

import (
	"encoding/json"
	"fmt"
	"time"
)

// MonthFormat is the ISO-8601 layout used to write months; the day is always 01.
const MonthFormat = "2006-01-02"

// Month is a calendar month with no lower granularity.
// Its canonical instant is the first day of the month at midnight UTC.
type Month struct {
	y int
	m time.Month
}

// NewMonth returns a normalized Month (month 13 of 2024 is January 2025).
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{t.Year(), t.Month()}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month { return NewMonth(t.Year(), t.Month()) }

// Year returns the year of the month.
func (m Month) Year() int { return m.y }

// Month returns the month of the year.
func (m Month) Month() time.Month { return m.m }

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool { return m.y == 0 && m.m == 0 }

// Time returns the first day of the month at midnight UTC.
func (m Month) Time() time.Time { return time.Date(m.y, m.m, 1, 0, 0, 0, 0, time.UTC) }

// AddMonths returns m shifted by n months (n may be negative).
func (m Month) AddMonths(n int) Month { return NewMonth(m.y, m.m+time.Month(n)) }

// Before reports whether m is before x.
func (m Month) Before(x Month) bool { return m.Compare(x) < 0 }

// After reports whether m is after x.
func (m Month) After(x Month) bool { return m.Compare(x) > 0 }

// Equal reports whether m and x are the same month.
func (m Month) Equal(x Month) bool { return m == x }

// Compare returns -1, 0 or +1 depending on whether m is before, equal to or after x.
func (m Month) Compare(x Month) int {
	switch {
	case m.y < x.y:
		return -1
	case m.y > x.y:
		return 1
	case m.m < x.m:
		return -1
	case m.m > x.m:
		return 1
	}
	return 0
}

// String formats the month as its first day, e.g. "2025-06-01".
func (m Month) String() string { return m.Time().Format(MonthFormat) }

// ParseMonth parses "2025-06-01" or "2025-06". Any day of month is accepted and dropped.
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{"2006-1-2", "2006-1"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("invalid month %q want format %q", s, MonthFormat)
}

// MustParseMonth is like ParseMonth but panics on error.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// UnmarshalJSON decodes a month from a JSON string.
func (m *Month) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

var _ json.Marshaler = Month{}
var _ json.Unmarshaler = (*Month)(nil)
