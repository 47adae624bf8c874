package workflow

import (
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
)

// AggregateAccounts builds one TenantAccount per occupied unit.
// Units without an active lease or a resolvable tenant are skipped,
// not errored. Output order follows unit label and is stable across
// runs with unchanged input.
func AggregateAccounts(snapshot *BillingSnapshot, selectedCodes []string, issueDate time.Time) []TenantAccount {

	leaseByUnit := make(map[string]*models.Lease, len(snapshot.Leases))
	for _, lease := range snapshot.Leases {
		if lease.Status != models.LeaseStatusActive {
			continue
		}
		leaseByUnit[lease.UnitId] = lease
	}
	tenantById := make(map[string]*models.Tenant, len(snapshot.Tenants))
	for _, tenant := range snapshot.Tenants {
		tenantById[tenant.Id] = tenant
	}
	matchedReadings := MatchReadings(snapshot.Readings, issueDate)

	units := make([]*models.Unit, len(snapshot.Units))
	copy(units, snapshot.Units)
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].Label < units[j].Label
	})

	accounts := make([]TenantAccount, 0, len(units))
	for _, unit := range units {
		lease, ok := leaseByUnit[unit.Id]
		if !ok {
			continue
		}
		tenant, ok := tenantById[lease.TenantId]
		if !ok {
			continue
		}

		reading := matchedReadings[unit.Id]
		consumption := ConsumptionOf(reading)
		account := TenantAccount{
			UnitId:      unit.Id,
			UnitLabel:   unit.Label,
			LeaseId:     lease.Id,
			TenantId:    tenant.Id,
			TenantName:  tenant.Name,
			Charges:     ResolveCharges(unit, lease, selectedCodes, consumption),
			Consumption: consumption,
			WaterRate:   lease.WaterRatePerUnit,
			HasReading:  reading != nil,
		}
		if reading != nil {
			readingDate := reading.ReadingDate
			account.ReadingDate = &readingDate
		}
		accounts = append(accounts, account)
	}
	return accounts
}
