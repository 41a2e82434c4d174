package collector

import (
	"fmt"
	"strings"
)

// Query plan modes.
const (
	ModeSingle = "single" // one key per month, on Day
	ModeMulti  = "multi"  // every day in [FromDay, ToDay) of every month
)

// Plan describes which dates to fetch.
type Plan struct {
	Mode    string
	Year    int
	Day     int
	FromDay int
	ToDay   int
}

// Validate checks that the plan produces at least one real calendar date.
func (p Plan) Validate() error {
	switch strings.ToLower(p.Mode) {
	case ModeSingle:
		if p.Day < 1 || p.Day > 28 {
			return fmt.Errorf("day must be in 1..28, got %d", p.Day)
		}
	case ModeMulti:
		if p.FromDay < 1 || p.ToDay > 29 || p.FromDay >= p.ToDay {
			return fmt.Errorf("day range must satisfy 1 <= from_day < to_day <= 29, got %d..%d", p.FromDay, p.ToDay)
		}
	default:
		return fmt.Errorf("invalid mode %q, must be %s or %s", p.Mode, ModeSingle, ModeMulti)
	}
	if p.Year < 1999 || p.Year > 9999 {
		return fmt.Errorf("year out of range: %d", p.Year)
	}
	return nil
}

// Keys returns the ordered YYYY-MM-DD keys for the plan.
func (p Plan) Keys() ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var keys []string
	for month := 1; month <= 12; month++ {
		if strings.ToLower(p.Mode) == ModeSingle {
			keys = append(keys, dateKey(p.Year, month, p.Day))
			continue
		}
		for day := p.FromDay; day < p.ToDay; day++ {
			keys = append(keys, dateKey(p.Year, month, day))
		}
	}
	return keys, nil
}

func dateKey(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
