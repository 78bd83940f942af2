package labor

import (
	"strconv"
	"time"
)

// ParsePeriod converts an upstream (year, period code) pair into a Month.
// Only monthly codes "M01".."M12" are accepted; annual averages ("M13"),
// quarterly, semi-annual and annual codes report false.
func ParsePeriod(year int, code string) (Month, bool) {
	if len(code) != 3 || code[0] != 'M' {
		return Month{}, false
	}
	if code[1] < '0' || code[1] > '9' || code[2] < '0' || code[2] > '9' {
		return Month{}, false
	}
	n, err := strconv.Atoi(code[1:])
	if err != nil || n < 1 || n > 12 {
		return Month{}, false
	}
	return NewMonth(year, time.Month(n)), true
}
