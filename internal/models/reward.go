package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RewardCategory string

const (
	RewardMerchandising RewardCategory = "merchandising"
	RewardDiscounts     RewardCategory = "discounts"
	RewardEvents        RewardCategory = "events"
	RewardDigital       RewardCategory = "digital"
	RewardExperiences   RewardCategory = "experiences"
)

// Reward is a catalog entry. Stock nil means unlimited; stock is never
// negative, and a reward with stock 0 is not redeemable even while active.
type Reward struct {
	bun.BaseModel `bun:"table:reward"`
	ID            int64          `bun:"id,pk,autoincrement" json:"id"`
	Name          string         `bun:"name" json:"name"`
	Description   string         `bun:"description" json:"description"`
	CostPoints    int            `bun:"cost_points" json:"cost_points"`
	Category      RewardCategory `bun:"category" json:"category"`
	MinimumTier   *Tier          `bun:"minimum_tier" json:"minimum_tier,omitempty"`
	Stock         *int           `bun:"stock" json:"stock"`
	InitialStock  *int           `bun:"initial_stock" json:"initial_stock,omitempty"`
	ValidFrom     time.Time      `bun:"valid_from" json:"valid_from"`
	ValidUntil    *time.Time     `bun:"valid_until" json:"valid_until,omitempty"`
	Active        bool           `bun:"active" json:"active"`
	// Redemption counters, maintained in the same transaction as the
	// redemption row they describe.
	PendingRedemptions   int       `bun:"pending_redemptions" json:"pending_redemptions"`
	CompletedRedemptions int       `bun:"completed_redemptions" json:"completed_redemptions"`
	CreatedAt            time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at" json:"updated_at"`
}

func (r *Reward) Unlimited() bool {
	return r.Stock == nil
}

// RedeemableAt reports the catalog-side availability filter; the caller still
// has to pass the tier and balance gates.
func (r *Reward) RedeemableAt(now time.Time) bool {
	if !r.Active {
		return false
	}
	if now.Before(r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	if r.Stock != nil && *r.Stock == 0 {
		return false
	}
	return true
}

type RedemptionState string

const (
	RedemptionPending    RedemptionState = "pending"
	RedemptionProcessing RedemptionState = "processing"
	RedemptionCompleted  RedemptionState = "completed"
	RedemptionCancelled  RedemptionState = "cancelled"
)

func (s RedemptionState) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionProcessing, RedemptionCompleted, RedemptionCancelled:
		return true
	}
	return false
}

// Redemption is one exchange of points for a reward. The original Redeem
// transaction is never edited; cancellation restocks and refunds through a
// compensating Bonus row.
type Redemption struct {
	bun.BaseModel      `bun:"table:redemption"`
	ID                 string          `bun:"id,pk" json:"id"`
	MemberID           string          `bun:"member_id" json:"member_id"`
	RewardID           int64           `bun:"reward_id" json:"reward_id"`
	PointsSpent        int             `bun:"points_spent" json:"points_spent"`
	State              RedemptionState `bun:"state" json:"state"`
	ProcessedBy        string          `bun:"processed_by" json:"processed_by,omitempty"`
	CancellationReason string          `bun:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `bun:"created_at,default:current_timestamp" json:"created_at"`
	CompletedAt        *time.Time      `bun:"completed_at" json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `bun:"cancelled_at" json:"cancelled_at,omitempty"`
}
