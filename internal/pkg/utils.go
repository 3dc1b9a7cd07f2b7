package pkg

import (
	"math"
	"time"
)

func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// MinimumDaysForUpgrade is the Friend→Rider tenure in days, adjusted for the
// member's join year (366 when the join year is a leap year).
func MinimumDaysForUpgrade(joinedAt time.Time) int {
	if IsLeapYear(joinedAt.Year()) {
		return 366
	}
	return 365
}

func DaysSince(t, now time.Time) int {
	if now.Before(t) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

func RollingYearStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -365)
}

// Percentile maps a 1-based rank onto a 1..100 percentile, floored at 1.
func Percentile(rank, total int) int {
	if total <= 0 || rank <= 0 {
		return 1
	}
	p := int(math.Round(float64(total-rank) / float64(total) * 100))
	if p < 1 {
		return 1
	}
	return p
}

// Progress clamps have/want into the 0..1 report range; a zero requirement is
// always complete.
func Progress(have, want int) float64 {
	if want <= 0 {
		return 1
	}
	if have >= want {
		return 1
	}
	if have <= 0 {
		return 0
	}
	return float64(have) / float64(want)
}

// PercentOf returns the ceiling of pct percent of total.
func PercentOf(total, pct int) int {
	if total <= 0 || pct <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) * float64(pct) / 100))
}
