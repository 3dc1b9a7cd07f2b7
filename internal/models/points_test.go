package models

import (
	"testing"
	"time"
)

func TestTransactionKindValid(t *testing.T) {
	for _, kind := range []TransactionKind{TransactionEarn, TransactionRedeem, TransactionBonus, TransactionPenalty} {
		if !kind.Valid() {
			t.Errorf("%s should be valid", kind)
		}
	}
	if TransactionKind("transfer").Valid() {
		t.Error("unknown kind should be invalid")
	}
}

func TestTransactionKindCredits(t *testing.T) {
	cases := []struct {
		kind TransactionKind
		want bool
	}{
		{TransactionEarn, true},
		{TransactionBonus, true},
		{TransactionRedeem, false},
		{TransactionPenalty, false},
	}

	for _, c := range cases {
		if got := c.kind.Credits(); got != c.want {
			t.Errorf("%s.Credits() = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestHistoryCursorIsZero(t *testing.T) {
	var zero HistoryCursor
	if !zero.IsZero() {
		t.Error("zero cursor should report IsZero")
	}

	cursor := HistoryCursor{CreatedAt: time.Now(), ID: "abc"}
	if cursor.IsZero() {
		t.Error("populated cursor should not report IsZero")
	}
}
