package query

import (
	"time"

	"github.com/waabox/testdeck/internal/domain"
)

// DateRange is a relative window ending now.
type DateRange string

const (
	RangeToday      DateRange = "today"
	RangeSevenDays  DateRange = "7days"
	RangeThirtyDays DateRange = "30days"
	RangeAll        DateRange = All
)

// DateRanges lists the accepted ranges in display order.
var DateRanges = []DateRange{RangeToday, RangeSevenDays, RangeThirtyDays, RangeAll}

// ParseDateRange accepts the range names above; empty means RangeAll.
func ParseDateRange(s string) (DateRange, error) {
	if s == "" {
		return RangeAll, nil
	}
	for _, r := range DateRanges {
		if DateRange(s) == r {
			return r, nil
		}
	}
	return "", &domain.ValidationError{Field: "range", Reason: "must be one of today, 7days, 30days, all"}
}

// Cutoff returns the earliest time inside the range. The second result is false for RangeAll.
// "today" starts at midnight in now's location.
func (r DateRange) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeSevenDays:
		return now.Add(-7 * 24 * time.Hour), true
	case RangeThirtyDays:
		return now.Add(-30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}
