package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TransactionKind string

const (
	TransactionEarn    TransactionKind = "earn"
	TransactionRedeem  TransactionKind = "redeem"
	TransactionBonus   TransactionKind = "bonus"
	TransactionPenalty TransactionKind = "penalty"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionEarn, TransactionRedeem, TransactionBonus, TransactionPenalty:
		return true
	}
	return false
}

// Credits reports whether the kind carries a non-negative amount.
func (k TransactionKind) Credits() bool {
	return k == TransactionEarn || k == TransactionBonus
}

// PointsTransaction is an immutable ledger row. Amounts are signed: Earn and
// Bonus are >= 0, Redeem and Penalty are <= 0. History is never edited;
// corrections append compensating rows.
type PointsTransaction struct {
	bun.BaseModel `bun:"table:points_transaction"`
	ID            string          `bun:"id,pk" json:"id"`
	MemberID      string          `bun:"member_id" json:"member_id"`
	Kind          TransactionKind `bun:"kind" json:"kind"`
	Amount        int             `bun:"amount" json:"amount"`
	Reason        string          `bun:"reason" json:"reason"`
	Metadata      map[string]any  `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time       `bun:"created_at,default:current_timestamp" json:"created_at"`
}

// Metadata keys referenced across the engine.
const (
	MetaEventID      = "event_id"
	MetaRewardID     = "reward_id"
	MetaRedemptionID = "redemption_id"
	MetaActorID      = "actor_id"
)

// TotalPoints is the per-member aggregate used by balance checks and the
// leaderboard rebuild.
type TotalPoints struct {
	MemberID    string `bun:"member_id" json:"member_id"`
	TotalPoints int    `bun:"total_points" json:"total_points"`
}

// HistoryCursor restarts a History page; zero value means newest first.
type HistoryCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

func (c HistoryCursor) IsZero() bool {
	return c.CreatedAt.IsZero() && c.ID == ""
}

type HistoryPage struct {
	Transactions []*PointsTransaction `json:"transactions"`
	Next         *HistoryCursor       `json:"next,omitempty"`
}
