package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// BillingSnapshot is the fixed input data for one aggregation run,
// fetched once at call start. The engine never mutates it.
type BillingSnapshot struct {
	Property *models.Property
	Units    []*models.Unit
	Leases   []*models.Lease
	Tenants  []*models.Tenant
	Readings []*models.MeterReading
}

// TenantAccount is the ephemeral per-unit bundle staged for a batch
// run. It is recomputed fresh on every aggregation and discarded after
// submission or cancellation.
type TenantAccount struct {
	UnitId      string                     `json:"unit_id"`
	UnitLabel   string                     `json:"unit_label"`
	LeaseId     string                     `json:"lease_id"`
	TenantId    string                     `json:"tenant_id"`
	TenantName  string                     `json:"tenant_name"`
	Charges     map[string]decimal.Decimal `json:"charges"`
	Consumption decimal.Decimal            `json:"consumption"`
	WaterRate   decimal.Decimal            `json:"water_rate"`
	ReadingDate *time.Time                 `json:"reading_date"`
	HasReading  bool                       `json:"has_reading"`
}

func (a TenantAccount) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range a.Charges {
		total = total.Add(amount)
	}
	return total
}

// ChargeOverrideKey addresses one manual adjustment within a batch.
type ChargeOverrideKey struct {
	UnitId     string
	ChargeCode string
}

type AccountFailure struct {
	UnitId    string `json:"unit_id"`
	UnitLabel string `json:"unit_label"`
	LeaseId   string `json:"lease_id"`
	Reason    string `json:"reason"`
}

// BatchResult reports partial success explicitly; a missing invoice
// for an account always has a matching failure entry.
type BatchResult struct {
	Invoices []*models.Invoice `json:"invoices"`
	Failures []AccountFailure  `json:"failures"`
}

// InvoiceWriter is the persistence seam for batch generation.
type InvoiceWriter interface {
	CreateInvoice(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error)
}

type dbInvoiceWriter struct{}

func (dbInvoiceWriter) CreateInvoice(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	return models.CreateInvoice(ctx, input)
}

// LoadBillingSnapshot fetches all engine inputs for a property.
func LoadBillingSnapshot(ctx context.Context, propertyId string) (*BillingSnapshot, error) {

	property, err := models.GetPropertyById(ctx, propertyId)
	if err != nil {
		return nil, err
	}
	units, err := models.GetUnits(ctx, propertyId, "")
	if err != nil {
		return nil, err
	}
	leases, err := models.GetLeases(ctx, propertyId, models.LeaseStatusActive)
	if err != nil {
		return nil, err
	}
	tenants, err := models.GetTenants(ctx, propertyId)
	if err != nil {
		return nil, err
	}
	readings, err := models.GetMeterReadings(ctx, propertyId, "", nil, nil)
	if err != nil {
		return nil, err
	}

	return &BillingSnapshot{
		Property: property,
		Units:    units,
		Leases:   leases,
		Tenants:  tenants,
		Readings: readings,
	}, nil
}
