package services

import (
	"reflect"
	"testing"
	"time"

	"bskmt/internal/models"
)

func proFacts() *models.MemberFacts {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &models.MemberFacts{
		MemberID:       "m-1",
		Tier:           models.TierRider,
		TierSince:      now.AddDate(-1, 0, 0),
		JoinedAt:       now.AddDate(-3, 0, 0),
		LifetimePoints: 3500,
		LastYearPoints: 1200,
		EventsAttended: 10,
		EligibleEvents: 18,
		Volunteering:   models.VolunteerHours{Total: 2},
		Now:            now,
	}
}

func findStatus(t *testing.T, report *models.RequirementReport, id string) models.RequirementStatus {
	t.Helper()
	for _, status := range report.Requirements {
		if status.ID == id {
			return status
		}
	}
	t.Fatalf("requirement %q not in report", id)
	return models.RequirementStatus{}
}

func TestEvaluateProAllSatisfied(t *testing.T) {
	rules := defaultTierRules[models.TierPro]
	report := Evaluate(proFacts(), &rules)

	if !report.AllSatisfied() {
		t.Fatalf("expected satisfied report, missing: %+v", report.Missing())
	}
	if report.TargetTier != models.TierPro {
		t.Errorf("target tier = %s, want Pro", report.TargetTier)
	}
}

func TestEvaluateProShortfalls(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*models.MemberFacts)
		missing string
	}{
		{"points short", func(f *models.MemberFacts) { f.LifetimePoints = 2999 }, "points"},
		{"tenure short", func(f *models.MemberFacts) { f.JoinedAt = f.Now.AddDate(0, -6, 0) }, "tenure"},
		{"events short", func(f *models.MemberFacts) { f.EventsAttended = 8 }, "events"},
		{"volunteering short", func(f *models.MemberFacts) { f.Volunteering.Total = 0 }, "volunteering"},
		{"rolling year short", func(f *models.MemberFacts) { f.LastYearPoints = 900 }, "last_year_points"},
		{"flagged", func(f *models.MemberFacts) { f.DisciplinaryFlags = []string{"conduct"} }, "clean_record"},
		{"skipped a tier", func(f *models.MemberFacts) { f.Tier = models.TierFriend }, "sequential"},
	}

	rules := defaultTierRules[models.TierPro]
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			facts := proFacts()
			c.mutate(facts)

			report := Evaluate(facts, &rules)
			if report.AllSatisfied() {
				t.Fatal("expected a failing report")
			}

			status := findStatus(t, report, c.missing)
			if status.Satisfied {
				t.Errorf("requirement %q should have failed", c.missing)
			}
		})
	}
}

func TestEvaluateEventPercentageRoundsUp(t *testing.T) {
	facts := proFacts()
	facts.EligibleEvents = 7 // 50% of 7 rounds up to 4
	facts.EventsAttended = 3

	rules := defaultTierRules[models.TierPro]
	report := Evaluate(facts, &rules)

	status := findStatus(t, report, "events")
	if status.Satisfied {
		t.Error("3 of 4 required events should fail")
	}

	facts.EventsAttended = 4
	report = Evaluate(facts, &rules)
	if !findStatus(t, report, "events").Satisfied {
		t.Error("4 of 4 required events should pass")
	}
}

func TestEvaluateLeapYearTenure(t *testing.T) {
	rules := defaultTierRules[models.TierRider]
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	facts := &models.MemberFacts{
		Tier:           models.TierFriend,
		JoinedAt:       time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), // leap join year, 365 days elapsed
		LifetimePoints: 1500,
		Now:            now,
	}

	report := Evaluate(facts, &rules)
	if findStatus(t, report, "tenure").Satisfied {
		t.Error("365 days should not satisfy the 366-day leap-year tenure")
	}

	facts.JoinedAt = facts.JoinedAt.AddDate(0, 0, -1)
	report = Evaluate(facts, &rules)
	if !findStatus(t, report, "tenure").Satisfied {
		t.Error("366 days should satisfy the leap-year tenure")
	}
}

func TestEvaluateTenureHonoursConfiguredMinimum(t *testing.T) {
	rules := defaultTierRules[models.TierRider]
	rules.MinimumTenureDays = 400

	facts := &models.MemberFacts{
		Tier:           models.TierFriend,
		JoinedAt:       time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), // non-leap join year
		LifetimePoints: 1500,
		Now:            time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), // 370 days
	}

	report := Evaluate(facts, &rules)
	if findStatus(t, report, "tenure").Satisfied {
		t.Error("370 days should not satisfy a configured 400-day minimum")
	}

	facts.Now = facts.JoinedAt.AddDate(0, 0, 400)
	report = Evaluate(facts, &rules)
	if !findStatus(t, report, "tenure").Satisfied {
		t.Error("400 days should satisfy the configured minimum")
	}
}

func TestEvaluateLeaderSpecials(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	facts := &models.MemberFacts{
		Tier:           models.TierMaster,
		JoinedAt:       now.AddDate(-8, 0, 0),
		LifetimePoints: 45000,
		LastYearPoints: 5000,
		EventsAttended: 40,
		EligibleEvents: 50,
		Volunteering:   models.VolunteerHours{Total: 40, HighImpact: 32},
		Volunteer:      true,
		Now:            now,
	}

	rules := defaultTierRules[models.TierLeader]
	report := Evaluate(facts, &rules)
	if !report.AllSatisfied() {
		t.Fatalf("expected satisfied report, missing: %+v", report.Missing())
	}

	facts.Volunteer = false
	report = Evaluate(facts, &rules)
	if findStatus(t, report, "active_volunteer").Satisfied {
		t.Error("non-volunteer should fail the active volunteer gate")
	}

	facts.Volunteer = true
	facts.Tier = models.TierLegend
	report = Evaluate(facts, &rules)
	if findStatus(t, report, "master_tier").Satisfied {
		t.Error("Legend should fail the Master prerequisite")
	}

	facts.Tier = models.TierMaster
	facts.Volunteering.HighImpact = 20
	report = Evaluate(facts, &rules)
	if findStatus(t, report, "high_impact_volunteering").Satisfied {
		t.Error("20 high-impact activities should fail a quota of 30")
	}

	facts.Volunteering.HighImpact = 32
	facts.LifetimePoints = 35000
	report = Evaluate(facts, &rules)
	if findStatus(t, report, "points_at_application").Satisfied {
		t.Error("35000 points should fail the 40000 application threshold")
	}
}

func TestEvaluateLegendEventMix(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	facts := &models.MemberFacts{
		Tier:           models.TierPro,
		JoinedAt:       now.AddDate(-5, 0, 0),
		LifetimePoints: 12000,
		LastYearPoints: 2000,
		EventsAttended: 40,
		EligibleEvents: 60,
		EventBreakdown: map[string]int{"community": 10, "educational": 5},
		Volunteering:   models.VolunteerHours{Total: 8},
		Now:            now,
	}

	rules := defaultTierRules[models.TierLegend]
	report := Evaluate(facts, &rules)

	// 20% of 40 attended events is 8 per category
	if !findStatus(t, report, "event_mix_community").Satisfied {
		t.Error("10 community events should cover an 8-event quota")
	}
	if findStatus(t, report, "event_mix_educational").Satisfied {
		t.Error("5 educational events should fail an 8-event quota")
	}

	facts.EventBreakdown["educational"] = 8
	report = Evaluate(facts, &rules)
	if !report.AllSatisfied() {
		t.Fatalf("expected satisfied report, missing: %+v", report.Missing())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	facts := proFacts()
	rules := defaultTierRules[models.TierPro]

	first := Evaluate(facts, &rules)
	second := Evaluate(facts, &rules)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical facts and rules should produce identical reports")
	}
}

func TestEvaluateProgressClamped(t *testing.T) {
	facts := proFacts()
	facts.LifetimePoints = 1500

	rules := defaultTierRules[models.TierPro]
	report := Evaluate(facts, &rules)

	status := findStatus(t, report, "points")
	if status.Progress != 0.5 {
		t.Errorf("points progress = %v, want 0.5", status.Progress)
	}

	facts.LifetimePoints = 99999
	report = Evaluate(facts, &rules)
	if findStatus(t, report, "points").Progress != 1 {
		t.Error("overshoot should clamp progress to 1")
	}
}
