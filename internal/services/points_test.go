package services

import (
	"errors"
	"testing"

	"bskmt/internal/models"
)

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		name    string
		kind    models.TransactionKind
		amount  int
		wantErr bool
	}{
		{"earn positive", models.TransactionEarn, 100, false},
		{"earn zero", models.TransactionEarn, 0, false},
		{"earn negative", models.TransactionEarn, -100, true},
		{"bonus positive", models.TransactionBonus, 50, false},
		{"bonus negative", models.TransactionBonus, -50, true},
		{"redeem negative", models.TransactionRedeem, -200, false},
		{"redeem positive", models.TransactionRedeem, 200, true},
		{"penalty negative", models.TransactionPenalty, -10, false},
		{"penalty positive", models.TransactionPenalty, 10, true},
		{"unknown kind", models.TransactionKind("transfer"), 10, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateAmount(c.kind, c.amount)
			if (err != nil) != c.wantErr {
				t.Errorf("ValidateAmount(%s, %d) error = %v, wantErr %v", c.kind, c.amount, err, c.wantErr)
			}
		})
	}
}

func TestGuardRejection(t *testing.T) {
	if err := guardRejection(false); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown member error = %v, want %v", err, ErrNotFound)
	}
	if err := guardRejection(true); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("known member error = %v, want %v", err, ErrInsufficientBalance)
	}
}
