package workflow

import (
	"encoding/json"
	"errors"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// ErrBatchRedirected signals that the operator chose to abandon the
// batch and enter the missing readings first. Nothing has been
// persisted when this is returned.
var ErrBatchRedirected = errors.New("batch redirected to meter reading entry")

type GateResolution string

const (
	GateResolutionExclude       GateResolution = "Exclude"
	GateResolutionRedirect      GateResolution = "Redirect"
	GateResolutionProceedAnyway GateResolution = "ProceedAnyway"
)

func (t *GateResolution) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("gate resolution must be string")
	}
	gateResolutions := map[string]GateResolution{
		"Exclude":       GateResolutionExclude,
		"Redirect":      GateResolutionRedirect,
		"ProceedAnyway": GateResolutionProceedAnyway,
	}
	var ok bool
	*t, ok = gateResolutions[str]
	if !ok {
		return errors.New("invalid gate resolution")
	}
	return nil
}

func selectedCodesIncludeWater(selectedCodes []string) bool {
	for _, code := range selectedCodes {
		if code == models.ChargeCodeWater {
			return true
		}
	}
	return false
}

// MissingReadingAccounts returns the accounts that would bill water
// without a matched reading for the target month. Empty unless water
// is among the selected codes.
func MissingReadingAccounts(accounts []TenantAccount, selectedCodes []string) []TenantAccount {

	if !selectedCodesIncludeWater(selectedCodes) {
		return nil
	}
	var flagged []TenantAccount
	for _, account := range accounts {
		if !account.HasReading {
			flagged = append(flagged, account)
		}
	}
	return flagged
}

// ApplyGate resolves the missing-data decision for a batch. Exactly one
// resolution applies per generation attempt; a fresh aggregation is
// needed to try again.
func ApplyGate(accounts []TenantAccount, selectedCodes []string, resolution GateResolution) ([]TenantAccount, error) {

	flagged := MissingReadingAccounts(accounts, selectedCodes)
	if len(flagged) == 0 {
		return accounts, nil
	}

	switch resolution {
	case GateResolutionExclude:
		kept := make([]TenantAccount, 0, len(accounts))
		for _, account := range accounts {
			if account.HasReading {
				kept = append(kept, account)
			}
		}
		return kept, nil
	case GateResolutionRedirect:
		return nil, ErrBatchRedirected
	case GateResolutionProceedAnyway:
		// water bills zero for flagged accounts; no stale reading is
		// ever substituted
		kept := make([]TenantAccount, 0, len(accounts))
		for _, account := range accounts {
			if !account.HasReading {
				charges := make(map[string]decimal.Decimal, len(account.Charges))
				for code, amount := range account.Charges {
					charges[code] = amount
				}
				charges[models.ChargeCodeWater] = decimal.Zero
				account.Charges = charges
			}
			kept = append(kept, account)
		}
		return kept, nil
	default:
		return nil, errors.New("missing readings require a gate resolution")
	}
}
