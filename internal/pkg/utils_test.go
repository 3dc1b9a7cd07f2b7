package pkg

import (
	"testing"
	"time"
)

func TestIsLeapYear(t *testing.T) {
	cases := []struct {
		year int
		want bool
	}{
		{2020, true},
		{2021, false},
		{2023, false},
		{2024, true},
		{1900, false},
		{2000, true},
	}

	for _, c := range cases {
		if got := IsLeapYear(c.year); got != c.want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", c.year, got, c.want)
		}
	}
}

func TestMinimumDaysForUpgrade(t *testing.T) {
	cases := []struct {
		name     string
		joinedAt time.Time
		want     int
	}{
		{"regular year", time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), 365},
		{"leap year", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 366},
		{"century non-leap", time.Date(1900, 6, 1, 0, 0, 0, 0, time.UTC), 365},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := MinimumDaysForUpgrade(c.joinedAt); got != c.want {
				t.Errorf("MinimumDaysForUpgrade(%v) = %d, want %d", c.joinedAt, got, c.want)
			}
		})
	}
}

func TestDaysSince(t *testing.T) {
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := DaysSince(joined, now); got != 366 {
		t.Errorf("DaysSince = %d, want 366", got)
	}
	if got := DaysSince(now, joined); got != 0 {
		t.Errorf("DaysSince with future start = %d, want 0", got)
	}
}

func TestRollingYearStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	want := now.AddDate(0, 0, -365)

	if got := RollingYearStart(now); !got.Equal(want) {
		t.Errorf("RollingYearStart = %v, want %v", got, want)
	}
}

func TestPercentile(t *testing.T) {
	cases := []struct {
		rank, total, want int
	}{
		{1, 100, 99},
		{100, 100, 1},
		{50, 100, 50},
		{1, 1, 1},
		{0, 100, 1},
		{5, 0, 1},
	}

	for _, c := range cases {
		if got := Percentile(c.rank, c.total); got != c.want {
			t.Errorf("Percentile(%d, %d) = %d, want %d", c.rank, c.total, got, c.want)
		}
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		have, want int
		expect     float64
	}{
		{0, 100, 0},
		{50, 100, 0.5},
		{100, 100, 1},
		{150, 100, 1},
		{7, 0, 1},
	}

	for _, c := range cases {
		if got := Progress(c.have, c.want); got != c.expect {
			t.Errorf("Progress(%d, %d) = %v, want %v", c.have, c.want, got, c.expect)
		}
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		total, pct, want int
	}{
		{10, 50, 5},
		{7, 50, 4},
		{10, 80, 8},
		{0, 50, 0},
		{3, 100, 3},
	}

	for _, c := range cases {
		if got := PercentOf(c.total, c.pct); got != c.want {
			t.Errorf("PercentOf(%d, %d) = %d, want %d", c.total, c.pct, got, c.want)
		}
	}
}
