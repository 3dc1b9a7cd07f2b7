package services

import (
	"context"
	"fmt"
	"sort"

	"bskmt/internal/models"
	"bskmt/internal/pkg"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// defaultTierRules is the declarative rule table. Thresholds are inclusive;
// config rows override the percentage, tenure and rolling-year knobs at
// evaluation time.
var defaultTierRules = map[models.Tier]models.RequirementSet{
	models.TierRider: {
		Tier:                models.TierRider,
		PointsRequired:      1000,
		MinimumTenureDays:   UPGRADE_MINIMUM_DAYS_DEFAULT,
		CleanRecordRequired: true,
		LeapYearTenure:      true,
	},
	models.TierPro: {
		Tier:                   models.TierPro,
		PointsRequired:         3000,
		EventPercentage:        UPGRADE_EVENT_PERCENTAGE_DEFAULT,
		VolunteeringRequired:   1,
		MinimumTenureDays:      730,
		LastYearPointsRequired: LAST_YEAR_POINTS_DEFAULT,
		CleanRecordRequired:    true,
	},
	models.TierLegend: {
		Tier:                   models.TierLegend,
		PointsRequired:         9000,
		EventPercentage:        UPGRADE_EVENT_PERCENTAGE_DEFAULT,
		VolunteeringRequired:   5,
		MinimumTenureDays:      1095,
		LastYearPointsRequired: LAST_YEAR_POINTS_DEFAULT,
		CleanRecordRequired:    true,
		Special: &models.SpecialRequirements{
			EventTypeDistribution: map[string]int{
				"community":   20,
				"educational": 20,
			},
		},
	},
	models.TierMaster: {
		Tier:                   models.TierMaster,
		PointsRequired:         18000,
		EventPercentage:        UPGRADE_EVENT_PERCENTAGE_DEFAULT,
		VolunteeringRequired:   15,
		MinimumTenureDays:      1460,
		LastYearPointsRequired: LAST_YEAR_POINTS_DEFAULT,
		CleanRecordRequired:    true,
		Special: &models.SpecialRequirements{
			EventTypeDistribution: map[string]int{
				"community":   20,
				"educational": 20,
				"organized":   10,
			},
		},
	},
	models.TierLeader: {
		Tier:                 models.TierLeader,
		PointsRequired:       30000,
		EventPercentage:      80,
		VolunteeringRequired: 30,
		MinimumTenureDays:    1825,
		CleanRecordRequired:  true,
		Special: &models.SpecialRequirements{
			MustBeMaster:                   true,
			MustBeActiveVolunteer:          true,
			PointsAtApplication:            40000,
			HighImpactVolunteeringRequired: 30,
			EndorsementsRequired: models.EndorsementQuota{
				Leaders: LEADER_ENDORSE_LEADERS_DEFAULT,
				Masters: LEADER_ENDORSE_MASTERS_DEFAULT,
			},
			CommitteeEvaluation: true,
			VacancyRequired:     true,
		},
	},
}

type ServiceRequirements struct {
	container     *do.Injector
	serviceConfig *ServiceConfig
	serviceMember *ServiceMember
}

func NewServiceRequirements(container *do.Injector) (*ServiceRequirements, error) {
	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceMember, err := do.Invoke[*ServiceMember](container)
	if err != nil {
		return nil, err
	}

	return &ServiceRequirements{container, serviceConfig, serviceMember}, nil
}

// RequirementsFor returns the rule block for a target tier with config
// overrides applied.
func (service *ServiceRequirements) RequirementsFor(ctx context.Context, target models.Tier) (*models.RequirementSet, error) {
	rules, ok := defaultTierRules[target]
	if !ok {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}

	if rules.EventPercentage > 0 {
		pct, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_UPGRADE_EVENT_PERCENTAGE, rules.EventPercentage)
		if err == nil && target != models.TierLeader {
			rules.EventPercentage = pct
		}
	}

	if target == models.TierRider {
		days, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_UPGRADE_MINIMUM_DAYS, rules.MinimumTenureDays)
		if err == nil {
			rules.MinimumTenureDays = days
		}
	}

	if rules.LastYearPointsRequired > 0 {
		points, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LAST_YEAR_POINTS, rules.LastYearPointsRequired)
		if err == nil {
			rules.LastYearPointsRequired = points
		}
	}

	if rules.Special != nil {
		// copy before overriding, the table entry is shared
		special := *rules.Special
		rules.Special = &special

		if special.EndorsementsRequired.Leaders > 0 {
			leaders, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADER_ENDORSE_LEADERS, special.EndorsementsRequired.Leaders)
			if err == nil {
				special.EndorsementsRequired.Leaders = leaders
			}
		}
		if special.EndorsementsRequired.Masters > 0 {
			masters, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADER_ENDORSE_MASTERS, special.EndorsementsRequired.Masters)
			if err == nil {
				special.EndorsementsRequired.Masters = masters
			}
		}
	}

	return &rules, nil
}

// EvaluateMember reports a member's standing against the next tier up, or an
// explicit target.
func (service *ServiceRequirements) EvaluateMember(ctx context.Context, memberID string, target models.Tier) (*models.RequirementReport, error) {
	facts, err := service.serviceMember.MemberFacts(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if target == "" {
		target = facts.Tier.Next()
		if target == "" {
			return nil, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
		}
	}

	rules, err := service.RequirementsFor(ctx, target)
	if err != nil {
		return nil, err
	}

	return Evaluate(facts, rules), nil
}

// Evaluate is the pure rule check. Same facts, same rules, same report;
// it never touches storage or the clock.
func Evaluate(facts *models.MemberFacts, rules *models.RequirementSet) *models.RequirementReport {
	report := &models.RequirementReport{TargetTier: rules.Tier}

	if rules.Special == nil || !rules.Special.MustBeMaster {
		sequential := rules.Tier.Order() == facts.Tier.Order()+1
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "sequential",
			Label:     "Tiers are climbed one step at a time",
			Satisfied: sequential,
			Progress:  boolProgress(sequential),
			Detail:    fmt.Sprintf("current tier %s", facts.Tier),
		})
	}

	report.Requirements = append(report.Requirements, models.RequirementStatus{
		ID:        "points",
		Label:     fmt.Sprintf("%d accumulated points", rules.PointsRequired),
		Satisfied: facts.LifetimePoints >= rules.PointsRequired,
		Progress:  pkg.Progress(facts.LifetimePoints, rules.PointsRequired),
		Detail:    fmt.Sprintf("%d of %d", facts.LifetimePoints, rules.PointsRequired),
	})

	tenure := pkg.DaysSince(facts.JoinedAt, facts.Now)
	needDays := rules.MinimumTenureDays
	if rules.LeapYearTenure {
		// a configured minimum above the join-year day count still applies
		needDays = max(needDays, pkg.MinimumDaysForUpgrade(facts.JoinedAt))
	}
	report.Requirements = append(report.Requirements, models.RequirementStatus{
		ID:        "tenure",
		Label:     fmt.Sprintf("%d days of membership", needDays),
		Satisfied: tenure >= needDays,
		Progress:  pkg.Progress(tenure, needDays),
		Detail:    fmt.Sprintf("%d of %d days", tenure, needDays),
	})

	if rules.EventPercentage > 0 {
		needEvents := pkg.PercentOf(facts.EligibleEvents, rules.EventPercentage)
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "events",
			Label:     fmt.Sprintf("attendance at %d%% of official events", rules.EventPercentage),
			Satisfied: facts.EventsAttended >= needEvents,
			Progress:  pkg.Progress(facts.EventsAttended, needEvents),
			Detail:    fmt.Sprintf("%d of %d events", facts.EventsAttended, needEvents),
		})
	} else if rules.EventsRequired > 0 {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "events",
			Label:     fmt.Sprintf("%d official events attended", rules.EventsRequired),
			Satisfied: facts.EventsAttended >= rules.EventsRequired,
			Progress:  pkg.Progress(facts.EventsAttended, rules.EventsRequired),
			Detail:    fmt.Sprintf("%d of %d events", facts.EventsAttended, rules.EventsRequired),
		})
	}

	if rules.VolunteeringRequired > 0 {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "volunteering",
			Label:     fmt.Sprintf("%d volunteering activities", rules.VolunteeringRequired),
			Satisfied: facts.Volunteering.Total >= rules.VolunteeringRequired,
			Progress:  pkg.Progress(facts.Volunteering.Total, rules.VolunteeringRequired),
			Detail:    fmt.Sprintf("%d of %d", facts.Volunteering.Total, rules.VolunteeringRequired),
		})
	}

	if rules.LastYearPointsRequired > 0 {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "last_year_points",
			Label:     fmt.Sprintf("%d points in the last year", rules.LastYearPointsRequired),
			Satisfied: facts.LastYearPoints >= rules.LastYearPointsRequired,
			Progress:  pkg.Progress(facts.LastYearPoints, rules.LastYearPointsRequired),
			Detail:    fmt.Sprintf("%d of %d", facts.LastYearPoints, rules.LastYearPointsRequired),
		})
	}

	if rules.CleanRecordRequired {
		clean := len(facts.DisciplinaryFlags) == 0
		status := models.RequirementStatus{
			ID:        "clean_record",
			Label:     "No disciplinary flags",
			Satisfied: clean,
			Progress:  1,
		}
		if !clean {
			status.Progress = 0
			status.Detail = fmt.Sprintf("%d active flags", len(facts.DisciplinaryFlags))
		}
		report.Requirements = append(report.Requirements, status)
	}

	if rules.Special != nil {
		evaluateSpecial(facts, rules.Special, report)
	}

	return report
}

func evaluateSpecial(facts *models.MemberFacts, special *models.SpecialRequirements, report *models.RequirementReport) {
	if special.MustBeMaster {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "master_tier",
			Label:     "Current tier is Master",
			Satisfied: facts.Tier == models.TierMaster,
			Progress:  boolProgress(facts.Tier == models.TierMaster),
			Detail:    fmt.Sprintf("current tier %s", facts.Tier),
		})
	}

	if special.MustBeActiveVolunteer {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "active_volunteer",
			Label:     "Registered active volunteer",
			Satisfied: facts.Volunteer,
			Progress:  boolProgress(facts.Volunteer),
		})
	}

	if special.PointsAtApplication > 0 {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "points_at_application",
			Label:     fmt.Sprintf("%d accumulated points at application", special.PointsAtApplication),
			Satisfied: facts.LifetimePoints >= special.PointsAtApplication,
			Progress:  pkg.Progress(facts.LifetimePoints, special.PointsAtApplication),
			Detail:    fmt.Sprintf("%d of %d", facts.LifetimePoints, special.PointsAtApplication),
		})
	}

	if special.HighImpactVolunteeringRequired > 0 {
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "high_impact_volunteering",
			Label:     fmt.Sprintf("%d high-impact volunteering activities", special.HighImpactVolunteeringRequired),
			Satisfied: facts.Volunteering.HighImpact >= special.HighImpactVolunteeringRequired,
			Progress:  pkg.Progress(facts.Volunteering.HighImpact, special.HighImpactVolunteeringRequired),
			Detail:    fmt.Sprintf("%d of %d", facts.Volunteering.HighImpact, special.HighImpactVolunteeringRequired),
		})
	}

	categories := make([]string, 0, len(special.EventTypeDistribution))
	for category := range special.EventTypeDistribution {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		pct := special.EventTypeDistribution[category]
		need := pkg.PercentOf(facts.EventsAttended, pct)
		got := facts.EventBreakdown[category]
		report.Requirements = append(report.Requirements, models.RequirementStatus{
			ID:        "event_mix_" + category,
			Label:     fmt.Sprintf("%d%% of attendance in %s events", pct, category),
			Satisfied: got >= need,
			Progress:  pkg.Progress(got, need),
			Detail:    fmt.Sprintf("%d of %d", got, need),
		})
	}
}

func boolProgress(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
