package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceBatch materializes one draft invoice per account.
// Each account is an independent unit of work; a failure is recorded
// and the rest of the batch continues.
func GenerateInvoiceBatch(ctx context.Context, writer InvoiceWriter, propertyId string, accounts []TenantAccount, issueDate time.Time, dueDate *time.Time) BatchResult {

	logger := config.GetLogger()
	result := BatchResult{
		Invoices: make([]*models.Invoice, 0, len(accounts)),
		Failures: make([]AccountFailure, 0),
	}

	for _, account := range accounts {
		input := buildInvoiceInput(propertyId, account, issueDate, dueDate)
		if len(input.Items) == 0 {
			result.Failures = append(result.Failures, AccountFailure{
				UnitId:    account.UnitId,
				UnitLabel: account.UnitLabel,
				LeaseId:   account.LeaseId,
				Reason:    "no positive charges to invoice",
			})
			continue
		}
		invoice, err := writer.CreateInvoice(ctx, input)
		if err != nil {
			config.LogError(logger, "invoiceBatch.go", "GenerateInvoiceBatch", "CreateInvoice", account.LeaseId, err)
			result.Failures = append(result.Failures, AccountFailure{
				UnitId:    account.UnitId,
				UnitLabel: account.UnitLabel,
				LeaseId:   account.LeaseId,
				Reason:    err.Error(),
			})
			continue
		}
		result.Invoices = append(result.Invoices, invoice)
	}
	return result
}

// one line item per strictly positive charge code
func buildInvoiceInput(propertyId string, account TenantAccount, issueDate time.Time, dueDate *time.Time) *models.NewInvoice {

	items := make([]models.NewInvoiceItem, 0, len(account.Charges))
	for code, amount := range account.Charges {
		if !amount.IsPositive() {
			continue
		}
		item := models.NewInvoiceItem{
			ChargeCode: code,
			Quantity:   decimal.NewFromInt(1),
			UnitPrice:  amount,
		}
		if code == models.ChargeCodeWater {
			item.Description = "Water " + account.Consumption.String() + " units @ " + account.WaterRate.String()
		}
		items = append(items, item)
	}

	return &models.NewInvoice{
		PropertyId:  propertyId,
		LeaseId:     account.LeaseId,
		Description: "Monthly charges " + account.UnitLabel,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Items:       items,
	}
}

type BatchRequest struct {
	PropertyId    string                     `json:"property_id" binding:"required"`
	ChargeCodes   []string                   `json:"charge_codes" binding:"required"`
	IssueDate     time.Time                  `json:"issue_date" binding:"required"`
	DueDate       *time.Time                 `json:"due_date"`
	Resolution    GateResolution             `json:"resolution"`
	Overrides     map[string]decimal.Decimal `json:"overrides"`
}

// overrides arrive keyed "unitId:chargeCode" on the wire
func parseOverrides(raw map[string]decimal.Decimal) map[ChargeOverrideKey]decimal.Decimal {
	if len(raw) == 0 {
		return nil
	}
	overrides := make(map[ChargeOverrideKey]decimal.Decimal, len(raw))
	for key, amount := range raw {
		for i := 0; i < len(key); i++ {
			if key[i] == ':' {
				overrides[ChargeOverrideKey{UnitId: key[:i], ChargeCode: key[i+1:]}] = amount
				break
			}
		}
	}
	return overrides
}

// RunInvoiceBatch is the full pipeline: snapshot, aggregate, apply
// overrides, gate, generate. Serialized per property so two operators
// cannot double-bill the same month concurrently.
func RunInvoiceBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {

	if req.PropertyId == "" || len(req.ChargeCodes) == 0 || req.IssueDate.IsZero() {
		return nil, errors.New("property, charge codes and issue date are required")
	}

	release, err := utils.PropertyLock(ctx, req.PropertyId, "InvoiceBatch", "invoiceBatch.go", "RunInvoiceBatch")
	if err != nil {
		return nil, err
	}
	defer release()

	snapshot, err := LoadBillingSnapshot(ctx, req.PropertyId)
	if err != nil {
		return nil, err
	}

	accounts := AggregateAccounts(snapshot, req.ChargeCodes, req.IssueDate)
	accounts = ApplyOverrides(accounts, parseOverrides(req.Overrides))
	accounts, err = ApplyGate(accounts, req.ChargeCodes, req.Resolution)
	if err != nil {
		return nil, err
	}

	result := GenerateInvoiceBatch(ctx, dbInvoiceWriter{}, req.PropertyId, accounts, req.IssueDate, req.DueDate)
	return &result, nil
}

// BatchPreview is the staged account list before generation, with the
// accounts the gate would flag.
type BatchPreview struct {
	Accounts []TenantAccount `json:"accounts"`
	Flagged  []TenantAccount `json:"flagged"`
}

func PreviewInvoiceBatch(ctx context.Context, propertyId string, chargeCodes []string, issueDate time.Time) (*BatchPreview, error) {

	if propertyId == "" || len(chargeCodes) == 0 || issueDate.IsZero() {
		return nil, errors.New("property, charge codes and issue date are required")
	}

	snapshot, err := LoadBillingSnapshot(ctx, propertyId)
	if err != nil {
		return nil, err
	}
	accounts := AggregateAccounts(snapshot, chargeCodes, issueDate)
	return &BatchPreview{
		Accounts: accounts,
		Flagged:  MissingReadingAccounts(accounts, chargeCodes),
	}, nil
}

type SingleInvoiceRequest struct {
	PropertyId  string                     `json:"property_id" binding:"required"`
	UnitId      string                     `json:"unit_id" binding:"required"`
	ChargeCodes []string                   `json:"charge_codes" binding:"required"`
	IssueDate   time.Time                  `json:"issue_date" binding:"required"`
	DueDate     *time.Time                 `json:"due_date"`
	Overrides   map[string]decimal.Decimal `json:"overrides"`
}

// GenerateSingleInvoice runs the same resolution pipeline for exactly
// one unit and creates its draft invoice synchronously.
func GenerateSingleInvoice(ctx context.Context, req SingleInvoiceRequest) (*models.Invoice, error) {

	if req.PropertyId == "" || req.UnitId == "" || len(req.ChargeCodes) == 0 || req.IssueDate.IsZero() {
		return nil, errors.New("property, unit, charge codes and issue date are required")
	}

	snapshot, err := LoadBillingSnapshot(ctx, req.PropertyId)
	if err != nil {
		return nil, err
	}
	accounts := AggregateAccounts(snapshot, req.ChargeCodes, req.IssueDate)
	accounts = ApplyOverrides(accounts, parseOverrides(req.Overrides))

	for _, account := range accounts {
		if account.UnitId != req.UnitId {
			continue
		}
		input := buildInvoiceInput(req.PropertyId, account, req.IssueDate, req.DueDate)
		if len(input.Items) == 0 {
			return nil, errors.New("no positive charges to invoice")
		}
		return models.CreateInvoice(ctx, input)
	}
	return nil, errors.New("unit has no active lease and tenant")
}
