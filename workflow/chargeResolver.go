package workflow

import (
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// ResolveCharges computes the amount per selected charge code.
// rent comes from the lease, water from consumption * lease rate, and
// any other code from the unit's override map, defaulting to zero.
func ResolveCharges(unit *models.Unit, lease *models.Lease, selectedCodes []string, consumption decimal.Decimal) map[string]decimal.Decimal {

	charges := make(map[string]decimal.Decimal, len(selectedCodes))
	for _, code := range selectedCodes {
		switch code {
		case models.ChargeCodeRent:
			if lease != nil {
				charges[code] = lease.RentAmount
			} else {
				charges[code] = decimal.Zero
			}
		case models.ChargeCodeWater:
			if lease != nil {
				charges[code] = consumption.Mul(lease.WaterRatePerUnit)
			} else {
				charges[code] = decimal.Zero
			}
		default:
			amount, ok := unit.ChargeAmounts[code]
			if !ok {
				amount = decimal.Zero
			}
			charges[code] = amount
		}
	}
	return charges
}

// ApplyOverrides merges per-batch manual adjustments into a fresh
// account list. The input accounts are never mutated; an override for
// a code outside the account's charge map is ignored.
func ApplyOverrides(accounts []TenantAccount, overrides map[ChargeOverrideKey]decimal.Decimal) []TenantAccount {

	if len(overrides) == 0 {
		return accounts
	}

	merged := make([]TenantAccount, 0, len(accounts))
	for _, account := range accounts {
		charges := make(map[string]decimal.Decimal, len(account.Charges))
		for code, amount := range account.Charges {
			if override, ok := overrides[ChargeOverrideKey{UnitId: account.UnitId, ChargeCode: code}]; ok {
				amount = override
			}
			charges[code] = amount
		}
		account.Charges = charges
		merged = append(merged, account)
	}
	return merged
}
