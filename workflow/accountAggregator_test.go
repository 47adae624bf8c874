package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
)

func scenarioSnapshot() *BillingSnapshot {
	return &BillingSnapshot{
		Property: &models.Property{Id: "p1", Name: "Riverside Court"},
		Units: []*models.Unit{
			{Id: "u1", PropertyId: "p1", Label: "A1", Status: models.UnitStatusOccupied},
			{Id: "u2", PropertyId: "p1", Label: "A2", Status: models.UnitStatusVacant},
			{Id: "u3", PropertyId: "p1", Label: "A3", Status: models.UnitStatusOccupied},
		},
		Leases: []*models.Lease{
			{Id: "l1", PropertyId: "p1", UnitId: "u1", TenantId: "t1", Status: models.LeaseStatusActive,
				RentAmount: d("50000"), WaterRatePerUnit: d("15.5")},
			{Id: "l3", PropertyId: "p1", UnitId: "u3", TenantId: "t-missing", Status: models.LeaseStatusActive,
				RentAmount: d("30000")},
		},
		Tenants: []*models.Tenant{
			{Id: "t1", PropertyId: "p1", Name: "Grace Wanjiru"},
		},
		Readings: []*models.MeterReading{
			{Id: "r1", PropertyId: "p1", UnitId: "u1", ReadingDate: tm("2024-02-20"),
				CurrentReading: dp("120"), PreviousReading: dp("100")},
		},
	}
}

func TestAggregateSkipsVacantAndUnresolvable(t *testing.T) {
	snapshot := scenarioSnapshot()
	accounts := AggregateAccounts(snapshot, []string{models.ChargeCodeRent, models.ChargeCodeWater}, tm("2024-03-01"))

	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1 (vacant unit and missing tenant skipped)", len(accounts))
	}
	if accounts[0].UnitId != "u1" {
		t.Fatalf("got account for %s, want u1", accounts[0].UnitId)
	}
}

// Scenario: rent 50000, water rate 15.5, February consumption 20,
// issued in March. Water bills 310 and the account totals 50310.
func TestAggregateResolvedAccount(t *testing.T) {
	snapshot := scenarioSnapshot()
	accounts := AggregateAccounts(snapshot, []string{models.ChargeCodeRent, models.ChargeCodeWater}, tm("2024-03-01"))

	account := accounts[0]
	if !account.Charges[models.ChargeCodeRent].Equal(d("50000")) {
		t.Fatalf("rent = %s, want 50000", account.Charges[models.ChargeCodeRent])
	}
	if !account.Charges[models.ChargeCodeWater].Equal(d("310")) {
		t.Fatalf("water = %s, want 310", account.Charges[models.ChargeCodeWater])
	}
	if !account.Total().Equal(d("50310")) {
		t.Fatalf("total = %s, want 50310", account.Total())
	}
	if !account.HasReading {
		t.Fatal("account must carry the matched reading")
	}
	if account.TenantName != "Grace Wanjiru" {
		t.Fatalf("tenant name = %q", account.TenantName)
	}
}

func TestAggregateStableOrderAndUniqueUnits(t *testing.T) {
	snapshot := scenarioSnapshot()
	snapshot.Tenants = append(snapshot.Tenants, &models.Tenant{Id: "t-missing", PropertyId: "p1", Name: "John Otieno"})
	snapshot.Units = append(snapshot.Units,
		&models.Unit{Id: "u0", PropertyId: "p1", Label: "A0", Status: models.UnitStatusOccupied})
	snapshot.Leases = append(snapshot.Leases,
		&models.Lease{Id: "l0", PropertyId: "p1", UnitId: "u0", TenantId: "t1", Status: models.LeaseStatusActive})

	accounts := AggregateAccounts(snapshot, []string{models.ChargeCodeRent}, tm("2024-03-01"))

	seen := make(map[string]bool)
	var labels []string
	for _, account := range accounts {
		if seen[account.UnitId] {
			t.Fatalf("duplicate account for unit %s", account.UnitId)
		}
		seen[account.UnitId] = true
		labels = append(labels, account.UnitLabel)
	}
	want := []string{"A0", "A1", "A3"}
	if len(labels) != len(want) {
		t.Fatalf("got labels %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("order differs at %d: got %v, want %v", i, labels, want)
		}
	}
}

func TestAggregateIgnoresTerminatedLeases(t *testing.T) {
	snapshot := scenarioSnapshot()
	snapshot.Leases[0].Status = models.LeaseStatusTerminated

	accounts := AggregateAccounts(snapshot, []string{models.ChargeCodeRent}, tm("2024-03-01"))
	for _, account := range accounts {
		if account.UnitId == "u1" {
			t.Fatal("terminated lease must not produce an account")
		}
	}
}
