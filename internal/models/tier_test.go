package models

import "testing"

func TestTierNext(t *testing.T) {
	cases := []struct {
		tier Tier
		want Tier
	}{
		{TierFriend, TierRider},
		{TierRider, TierPro},
		{TierPro, TierLegend},
		{TierLegend, TierMaster},
		{TierMaster, TierLeader},
		{TierLeader, ""},
	}

	for _, c := range cases {
		if got := c.tier.Next(); got != c.want {
			t.Errorf("%s.Next() = %q, want %q", c.tier, got, c.want)
		}
	}
}

func TestTierAtLeast(t *testing.T) {
	if !TierMaster.AtLeast(TierPro) {
		t.Error("Master should satisfy a Pro gate")
	}
	if TierRider.AtLeast(TierLegend) {
		t.Error("Rider should not satisfy a Legend gate")
	}
	if !TierFriend.AtLeast(TierFriend) {
		t.Error("gate at own tier should pass")
	}
}

func TestTierValid(t *testing.T) {
	for _, tier := range []Tier{TierFriend, TierRider, TierPro, TierLegend, TierMaster, TierLeader} {
		if !tier.Valid() {
			t.Errorf("%s should be valid", tier)
		}
	}
	if Tier("Prospect").Valid() {
		t.Error("unknown tier should be invalid")
	}
}

func TestRequirementReport(t *testing.T) {
	report := RequirementReport{
		TargetTier: TierPro,
		Requirements: []RequirementStatus{
			{ID: "points", Satisfied: true},
			{ID: "tenure", Satisfied: false},
			{ID: "events", Satisfied: false},
		},
	}

	if report.AllSatisfied() {
		t.Error("report with failures should not be satisfied")
	}

	missing := report.Missing()
	if len(missing) != 2 {
		t.Fatalf("Missing() returned %d entries, want 2", len(missing))
	}
	if missing[0].ID != "tenure" || missing[1].ID != "events" {
		t.Errorf("Missing() order wrong: %v", missing)
	}

	for i := range report.Requirements {
		report.Requirements[i].Satisfied = true
	}
	if !report.AllSatisfied() {
		t.Error("report with no failures should be satisfied")
	}
	if report.Missing() != nil {
		t.Error("Missing() should be nil when everything passes")
	}
}
