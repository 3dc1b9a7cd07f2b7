package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Endorsement is one formal vote of support from an active Leader or Master.
type Endorsement struct {
	EndorserID string    `json:"endorser_id"`
	Role       Tier      `json:"role"`
	EndorsedAt time.Time `json:"endorsed_at"`
}

// LeaderApplication is one row of the multi-stage Leader workflow. It stays
// Pending through endorsement collection and committee evaluation; only
// ratification flips it to Approved, any rejection flips it to Rejected.
type LeaderApplication struct {
	bun.BaseModel   `bun:"table:leader_application"`
	ID              string            `bun:"id,pk" json:"id"`
	MemberID        string            `bun:"member_id" json:"member_id"`
	Status          ApplicationStatus `bun:"status" json:"status"`
	LeadershipPlan  string            `bun:"leadership_plan" json:"leadership_plan"`
	Endorsements    []Endorsement     `bun:"endorsements,type:jsonb" json:"endorsements"`
	EvaluationDone  bool              `bun:"evaluation_done" json:"evaluation_done"`
	EvaluationNotes string            `bun:"evaluation_notes" json:"evaluation_notes,omitempty"`
	RejectionReason string            `bun:"rejection_reason" json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time         `bun:"submitted_at" json:"submitted_at"`
	DecidedAt       *time.Time        `bun:"decided_at" json:"decided_at,omitempty"`
}

// CountEndorsements tallies collected endorsements by endorser role.
func (a *LeaderApplication) CountEndorsements() EndorsementQuota {
	var q EndorsementQuota
	for _, e := range a.Endorsements {
		switch e.Role {
		case TierLeader:
			q.Leaders++
		case TierMaster:
			q.Masters++
		}
	}
	return q
}

// HasEndorser reports whether the endorser already endorsed this application.
func (a *LeaderApplication) HasEndorser(endorserID string) bool {
	for _, e := range a.Endorsements {
		if e.EndorserID == endorserID {
			return true
		}
	}
	return false
}

// QuotaMet reports whether collected endorsements satisfy the configured
// quota. Partial quotas never advance the workflow.
func (a *LeaderApplication) QuotaMet(quota EndorsementQuota) bool {
	got := a.CountEndorsements()
	return got.Leaders >= quota.Leaders && got.Masters >= quota.Masters
}
