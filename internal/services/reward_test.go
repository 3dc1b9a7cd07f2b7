package services

import (
	"testing"

	"bskmt/internal/models"
)

func TestRedemptionTransitions(t *testing.T) {
	cases := []struct {
		from, to models.RedemptionState
		want     bool
	}{
		{models.RedemptionPending, models.RedemptionProcessing, true},
		{models.RedemptionPending, models.RedemptionCancelled, true},
		{models.RedemptionPending, models.RedemptionCompleted, false},
		{models.RedemptionProcessing, models.RedemptionCompleted, true},
		{models.RedemptionProcessing, models.RedemptionCancelled, true},
		{models.RedemptionProcessing, models.RedemptionPending, false},
		{models.RedemptionCompleted, models.RedemptionCancelled, false},
		{models.RedemptionCompleted, models.RedemptionProcessing, false},
		{models.RedemptionCancelled, models.RedemptionProcessing, false},
		{models.RedemptionCancelled, models.RedemptionCompleted, false},
	}

	for _, c := range cases {
		if got := redemptionTransitions[c.from][c.to]; got != c.want {
			t.Errorf("transition %s -> %s = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
