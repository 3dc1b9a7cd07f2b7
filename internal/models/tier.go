package models

// Tier is the ordered membership rank. Volunteer is an orthogonal modifier
// on the member row, not a tier.
type Tier string

const (
	TierFriend Tier = "Friend"
	TierRider  Tier = "Rider"
	TierPro    Tier = "Pro"
	TierLegend Tier = "Legend"
	TierMaster Tier = "Master"
	TierLeader Tier = "Leader"
)

var tierOrder = map[Tier]int{
	TierFriend: 0,
	TierRider:  1,
	TierPro:    2,
	TierLegend: 3,
	TierMaster: 4,
	TierLeader: 5,
}

func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

func (t Tier) Order() int {
	return tierOrder[t]
}

// Next returns the tier one step up, or "" for Leader.
func (t Tier) Next() Tier {
	switch t {
	case TierFriend:
		return TierRider
	case TierRider:
		return TierPro
	case TierPro:
		return TierLegend
	case TierLegend:
		return TierMaster
	case TierMaster:
		return TierLeader
	}
	return ""
}

// AtLeast reports whether t satisfies a minimum-tier gate.
func (t Tier) AtLeast(min Tier) bool {
	return tierOrder[t] >= tierOrder[min]
}

// EndorsementQuota is the minimum endorsement count per endorser role for a
// Leader application.
type EndorsementQuota struct {
	Leaders int `json:"leaders"`
	Masters int `json:"masters"`
}

// SpecialRequirements holds the tier-specific predicates that do not fit the
// four standard thresholds. Only the Leader tier uses all of them.
type SpecialRequirements struct {
	MustBeMaster                   bool             `json:"must_be_master"`
	MustBeActiveVolunteer          bool             `json:"must_be_active_volunteer"`
	PointsAtApplication            int              `json:"points_at_application"`
	HighImpactVolunteeringRequired int              `json:"high_impact_volunteering_required"`
	EndorsementsRequired           EndorsementQuota `json:"endorsements_required"`
	CommitteeEvaluation            bool             `json:"committee_evaluation"`
	VacancyRequired                bool             `json:"vacancy_required"`
	// EventTypeDistribution maps an event category to the minimum percentage
	// of the member's confirmed events that must fall in it.
	EventTypeDistribution map[string]int `json:"event_type_distribution,omitempty"`
}

// RequirementSet is the declarative rule block a member must satisfy to reach
// a tier. Thresholds are inclusive.
type RequirementSet struct {
	Tier              Tier `json:"tier"`
	PointsRequired    int  `json:"points_required"`
	EventsRequired    int  `json:"events_required"`
	// EventPercentage expresses the event requirement as a percentage of the
	// member's eligible official events; used when EventsRequired is 0.
	EventPercentage        int  `json:"event_percentage"`
	VolunteeringRequired   int  `json:"volunteering_required"`
	MinimumTenureDays      int  `json:"minimum_tenure_days"`
	LastYearPointsRequired int  `json:"last_year_points_required"`
	CleanRecordRequired    bool `json:"clean_record_required"`
	// LeapYearTenure switches the tenure check to the join-year leap-aware
	// day count (Friend→Rider only).
	LeapYearTenure bool                 `json:"leap_year_tenure"`
	Special        *SpecialRequirements `json:"special,omitempty"`
}

// RequirementStatus is one row of an evaluation report.
type RequirementStatus struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Satisfied bool    `json:"satisfied"`
	Progress  float64 `json:"progress"`
	Detail    string  `json:"detail,omitempty"`
}

type RequirementReport struct {
	TargetTier   Tier                `json:"target_tier"`
	Requirements []RequirementStatus `json:"requirements"`
}

func (r *RequirementReport) AllSatisfied() bool {
	for _, req := range r.Requirements {
		if !req.Satisfied {
			return false
		}
	}
	return true
}

func (r *RequirementReport) Missing() []RequirementStatus {
	var missing []RequirementStatus
	for _, req := range r.Requirements {
		if !req.Satisfied {
			missing = append(missing, req)
		}
	}
	return missing
}
