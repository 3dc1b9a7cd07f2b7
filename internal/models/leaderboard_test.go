package models

import (
	"testing"
	"time"
)

func TestSortLeaderboardRows(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := []*LeaderboardRow{
		{MemberID: "m-3", TotalPoints: 500, TierSince: base},
		{MemberID: "m-1", TotalPoints: 900, TierSince: base},
		{MemberID: "m-4", TotalPoints: 500, TierSince: base.AddDate(0, -6, 0)},
		{MemberID: "m-2", TotalPoints: 500, TierSince: base},
		{MemberID: "m-5", TotalPoints: 1200, TierSince: base},
	}

	SortLeaderboardRows(rows)

	want := []string{"m-5", "m-1", "m-4", "m-2", "m-3"}
	for i, id := range want {
		if rows[i].MemberID != id {
			t.Fatalf("rank %d = %s, want %s", i+1, rows[i].MemberID, id)
		}
	}

	// strictly more points always ranks ahead
	for i := 1; i < len(rows); i++ {
		if rows[i].TotalPoints > rows[i-1].TotalPoints {
			t.Fatalf("rank %d has %d points above rank %d's %d", i+1, rows[i].TotalPoints, i, rows[i-1].TotalPoints)
		}
	}
}
