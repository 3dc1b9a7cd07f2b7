package models

import (
	"sort"
	"time"
)

// LeaderboardEntry is a derived row, rebuilt from the ledger and member
// facts; it is never mutated independently.
type LeaderboardEntry struct {
	MemberID  string    `json:"member_id" msgpack:"member_id"`
	Name      string    `json:"name" msgpack:"name"`
	Points    int       `json:"points" msgpack:"points"`
	Rank      int       `json:"rank" msgpack:"rank"`
	Tier      Tier      `json:"tier" msgpack:"tier"`
	TierSince time.Time `json:"tier_since" msgpack:"tier_since"`
}

type LeaderboardResponse struct {
	Entries   []*LeaderboardEntry `json:"entries"`
	Total     int                 `json:"total"`
	RebuiltAt time.Time           `json:"rebuilt_at"`
	Me        *MemberRanking      `json:"me,omitempty"`
}

// MemberRanking is the PositionOf projection for one member.
type MemberRanking struct {
	MemberID     string `json:"member_id"`
	Rank         int    `json:"rank"`
	TotalMembers int    `json:"total_members"`
	Points       int    `json:"points"`
	Percentile   int    `json:"percentile"`
}

// SortLeaderboardRows orders rows for ranking: points descending, ties to
// the earlier tier_since, then member id for a stable total order.
func SortLeaderboardRows(rows []*LeaderboardRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if !a.TierSince.Equal(b.TierSince) {
			return a.TierSince.Before(b.TierSince)
		}
		return a.MemberID < b.MemberID
	})
}

// LeaderboardRow joins a ledger sum with the member facts needed for
// ordering; produced by the rebuild query.
type LeaderboardRow struct {
	MemberID    string    `bun:"member_id"`
	FirstName   string    `bun:"first_name"`
	LastName    string    `bun:"last_name"`
	Tier        Tier      `bun:"tier"`
	TierSince   time.Time `bun:"tier_since"`
	TotalPoints int       `bun:"total_points"`
}
