package workflow

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

func gateAccounts() []TenantAccount {
	return []TenantAccount{
		{
			UnitId: "u1", UnitLabel: "A1", LeaseId: "l1", HasReading: true,
			Charges: map[string]decimal.Decimal{
				models.ChargeCodeRent:  d("50000"),
				models.ChargeCodeWater: d("310"),
			},
		},
		{
			UnitId: "u2", UnitLabel: "A2", LeaseId: "l2", HasReading: false,
			Charges: map[string]decimal.Decimal{
				models.ChargeCodeRent:  d("30000"),
				models.ChargeCodeWater: d("0"),
			},
		},
	}
}

func TestGateSkippedWithoutWater(t *testing.T) {
	accounts := gateAccounts()
	if flagged := MissingReadingAccounts(accounts, []string{models.ChargeCodeRent}); len(flagged) != 0 {
		t.Fatalf("gate must not trigger without water, flagged %d", len(flagged))
	}

	kept, err := ApplyGate(accounts, []string{models.ChargeCodeRent}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("got %d accounts, want all 2", len(kept))
	}
}

func TestGateFlagsMissingReadings(t *testing.T) {
	flagged := MissingReadingAccounts(gateAccounts(), []string{models.ChargeCodeRent, models.ChargeCodeWater})
	if len(flagged) != 1 || flagged[0].UnitId != "u2" {
		t.Fatalf("got flagged %v, want only u2", flagged)
	}
}

func TestGateExclude(t *testing.T) {
	kept, err := ApplyGate(gateAccounts(), []string{models.ChargeCodeWater}, GateResolutionExclude)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 || kept[0].UnitId != "u1" {
		t.Fatalf("exclude must keep only u1, got %v", kept)
	}
}

func TestGateRedirectDiscardsBatch(t *testing.T) {
	kept, err := ApplyGate(gateAccounts(), []string{models.ChargeCodeWater}, GateResolutionRedirect)
	if !errors.Is(err, ErrBatchRedirected) {
		t.Fatalf("got err %v, want ErrBatchRedirected", err)
	}
	if kept != nil {
		t.Fatal("redirect must discard the staged accounts")
	}
}

func TestGateProceedAnywayZeroesWater(t *testing.T) {
	accounts := gateAccounts()
	kept, err := ApplyGate(accounts, []string{models.ChargeCodeWater}, GateResolutionProceedAnyway)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("proceed anyway must keep all accounts, got %d", len(kept))
	}
	for _, account := range kept {
		if account.UnitId == "u2" && !account.Charges[models.ChargeCodeWater].IsZero() {
			t.Fatalf("flagged account water = %s, want 0", account.Charges[models.ChargeCodeWater])
		}
		if account.UnitId == "u1" && !account.Charges[models.ChargeCodeWater].Equal(d("310")) {
			t.Fatalf("matched account water = %s, want 310", account.Charges[models.ChargeCodeWater])
		}
	}
}

func TestGateRequiresResolutionWhenFlagged(t *testing.T) {
	if _, err := ApplyGate(gateAccounts(), []string{models.ChargeCodeWater}, ""); err == nil {
		t.Fatal("flagged batch without a resolution must error")
	}
}
