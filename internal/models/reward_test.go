package models

import (
	"testing"
	"time"
)

func TestRewardRedeemableAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)
	zero := 0
	one := 1

	cases := []struct {
		name   string
		reward Reward
		want   bool
	}{
		{"active unlimited", Reward{Active: true, ValidFrom: past}, true},
		{"inactive", Reward{Active: false, ValidFrom: past}, false},
		{"not started", Reward{Active: true, ValidFrom: future}, false},
		{"expired", Reward{Active: true, ValidFrom: past, ValidUntil: &past}, false},
		{"still valid window", Reward{Active: true, ValidFrom: past, ValidUntil: &future}, true},
		{"out of stock", Reward{Active: true, ValidFrom: past, Stock: &zero}, false},
		{"in stock", Reward{Active: true, ValidFrom: past, Stock: &one}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.reward.RedeemableAt(now); got != c.want {
				t.Errorf("RedeemableAt = %v, want %v", got, c.want)
			}
		})
	}
}

func TestRewardUnlimited(t *testing.T) {
	ten := 10
	if (&Reward{Stock: &ten}).Unlimited() {
		t.Error("stocked reward should not be unlimited")
	}
	if !(&Reward{}).Unlimited() {
		t.Error("nil stock should be unlimited")
	}
}
