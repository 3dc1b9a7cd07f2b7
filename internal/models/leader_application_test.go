package models

import (
	"testing"
	"time"
)

func endorsedApplication(leaders, masters int) *LeaderApplication {
	app := &LeaderApplication{ID: "app-1", MemberID: "m-1", Status: ApplicationPending}
	for i := 0; i < leaders; i++ {
		app.Endorsements = append(app.Endorsements, Endorsement{
			EndorserID: "leader-" + string(rune('a'+i)),
			Role:       TierLeader,
			EndorsedAt: time.Now(),
		})
	}
	for i := 0; i < masters; i++ {
		app.Endorsements = append(app.Endorsements, Endorsement{
			EndorserID: "master-" + string(rune('a'+i)),
			Role:       TierMaster,
			EndorsedAt: time.Now(),
		})
	}
	return app
}

func TestCountEndorsements(t *testing.T) {
	app := endorsedApplication(2, 3)
	got := app.CountEndorsements()
	if got.Leaders != 2 || got.Masters != 3 {
		t.Errorf("CountEndorsements = %+v, want {2 3}", got)
	}
}

func TestQuotaMet(t *testing.T) {
	quota := EndorsementQuota{Leaders: 3, Masters: 5}

	cases := []struct {
		name             string
		leaders, masters int
		want             bool
	}{
		{"exact", 3, 5, true},
		{"above", 4, 6, true},
		{"leaders short", 2, 5, false},
		{"masters short", 3, 4, false},
		{"empty", 0, 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			app := endorsedApplication(c.leaders, c.masters)
			if got := app.QuotaMet(quota); got != c.want {
				t.Errorf("QuotaMet = %v, want %v", got, c.want)
			}
		})
	}
}

func TestHasEndorser(t *testing.T) {
	app := endorsedApplication(1, 0)
	if !app.HasEndorser("leader-a") {
		t.Error("existing endorser not found")
	}
	if app.HasEndorser("leader-z") {
		t.Error("unknown endorser reported as present")
	}
}
