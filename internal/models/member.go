package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Member carries the facts this core reads and the denormalized balance it
// maintains. Identity fields belong to the identity subsystem; they are
// mirrored here read-only.
type Member struct {
	bun.BaseModel `bun:"table:member"`
	ID            string    `bun:"id,pk" json:"id"`
	FirstName     string    `bun:"first_name" json:"first_name"`
	LastName      string    `bun:"last_name" json:"last_name"`
	Email         string    `bun:"email" json:"-"`
	Tier          Tier      `bun:"tier" json:"tier"`
	TierSince     time.Time `bun:"tier_since" json:"tier_since"`
	JoinedAt      time.Time `bun:"joined_at" json:"joined_at"`
	// PointsBalance is a cache of the ledger sum, maintained transactionally
	// with every ledger write and rebuildable by full replay.
	PointsBalance      int        `bun:"points_balance" json:"points_balance"`
	Volunteer          bool       `bun:"volunteer" json:"volunteer"`
	DisciplinaryFlags  []string   `bun:"disciplinary_flags,type:jsonb" json:"disciplinary_flags"`
	LeaderUntil        *time.Time `bun:"leader_until" json:"leader_until,omitempty"`
	LeaderCooldownTill *time.Time `bun:"leader_cooldown_till" json:"-"`
	CreatedAt          time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at" json:"updated_at"`
}

func (m *Member) HasCleanRecord() bool {
	return len(m.DisciplinaryFlags) == 0
}

// MemberClaims only used in auth middleware.
type MemberClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// VolunteerHours is the volunteering subsystem's summary for one member.
type VolunteerHours struct {
	Total      int            `json:"total"`
	HighImpact int            `json:"high_impact"`
	ByCategory map[string]int `json:"by_category"`
}

// MemberFacts is the flattened snapshot the requirement evaluator consumes.
// It is assembled from the ledger, the member row and the collaborator
// subsystems; the evaluator itself never touches storage.
type MemberFacts struct {
	MemberID          string         `json:"member_id"`
	Tier              Tier           `json:"tier"`
	TierSince         time.Time      `json:"tier_since"`
	JoinedAt          time.Time      `json:"joined_at"`
	PointsBalance     int            `json:"points_balance"`
	LifetimePoints    int            `json:"lifetime_points"`
	LastYearPoints    int            `json:"last_year_points"`
	EventsAttended    int            `json:"events_attended"`
	EligibleEvents    int            `json:"eligible_events"`
	EventBreakdown    map[string]int `json:"event_breakdown"`
	Volunteering      VolunteerHours `json:"volunteering"`
	Volunteer         bool           `json:"volunteer"`
	DisciplinaryFlags []string      `json:"disciplinary_flags"`
	Now               time.Time      `json:"now"`
}

// MembershipEvent is the audit row written on every tier change, override and
// application outcome.
type MembershipEvent struct {
	bun.BaseModel `bun:"table:membership_event"`
	ID            int64          `bun:"id,pk,autoincrement" json:"id"`
	MemberID      string         `bun:"member_id" json:"member_id"`
	Type          string         `bun:"type" json:"type"`
	FromTier      Tier           `bun:"from_tier" json:"from_tier,omitempty"`
	ToTier        Tier           `bun:"to_tier" json:"to_tier,omitempty"`
	ActorID       string         `bun:"actor_id" json:"actor_id,omitempty"`
	Reason        string         `bun:"reason" json:"reason,omitempty"`
	Metadata      map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `bun:"created_at,default:current_timestamp" json:"created_at"`
}

const (
	MembershipEventUpgrade         = "upgrade"
	MembershipEventDowngrade       = "downgrade"
	MembershipEventAdminOverride   = "admin_override"
	MembershipEventVolunteerToggle = "volunteer_toggle"
	MembershipEventLeaderApplied   = "leader_application"
	MembershipEventLeaderOutcome   = "leader_outcome"
	MembershipEventMandateExpired  = "mandate_expired"
	MembershipEventMandateRenewed  = "mandate_renewed"
)
