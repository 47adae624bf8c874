package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// fakeInvoiceWriter mirrors the persistence contract without a
// database: it materializes the invoice the way CreateInvoice would
// and can be told to fail for specific leases.
type fakeInvoiceWriter struct {
	mu        sync.Mutex
	created   []*models.Invoice
	failLease map[string]error
}

func (w *fakeInvoiceWriter) CreateInvoice(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err, ok := w.failLease[input.LeaseId]; ok {
		return nil, err
	}

	amount := decimal.Zero
	items := make([]models.InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		qty := item.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		amount = amount.Add(qty.Mul(item.UnitPrice))
		items = append(items, models.InvoiceItem{
			ChargeCode: item.ChargeCode,
			Quantity:   qty,
			UnitPrice:  item.UnitPrice,
		})
	}
	invoice := &models.Invoice{
		Id:         "inv-" + input.LeaseId,
		PropertyId: input.PropertyId,
		LeaseId:    input.LeaseId,
		Amount:     amount,
		IssueDate:  input.IssueDate,
		Status:     models.InvoiceStatusDraft,
		Items:      items,
	}
	w.created = append(w.created, invoice)
	return invoice, nil
}

func batchAccounts() []TenantAccount {
	return []TenantAccount{
		{UnitId: "u1", UnitLabel: "A1", LeaseId: "l1", Charges: map[string]decimal.Decimal{
			models.ChargeCodeRent:  d("50000"),
			models.ChargeCodeWater: d("310"),
		}},
		{UnitId: "u2", UnitLabel: "A2", LeaseId: "l2", Charges: map[string]decimal.Decimal{
			models.ChargeCodeRent: d("30000"),
		}},
		{UnitId: "u3", UnitLabel: "A3", LeaseId: "l3", Charges: map[string]decimal.Decimal{
			models.ChargeCodeRent: d("45000"),
		}},
	}
}

func TestBatchInvoiceAmountEqualsItemSum(t *testing.T) {
	writer := &fakeInvoiceWriter{}
	result := GenerateInvoiceBatch(context.Background(), writer, "p1", batchAccounts(), tm("2024-03-01"), nil)

	if len(result.Invoices) != 3 || len(result.Failures) != 0 {
		t.Fatalf("got %d invoices %d failures, want 3 and 0", len(result.Invoices), len(result.Failures))
	}
	for _, invoice := range result.Invoices {
		sum := decimal.Zero
		for _, item := range invoice.Items {
			sum = sum.Add(item.Quantity.Mul(item.UnitPrice))
		}
		if !invoice.Amount.Equal(sum) {
			t.Fatalf("invoice %s amount %s != item sum %s", invoice.Id, invoice.Amount, sum)
		}
	}
	if !result.Invoices[0].Amount.Equal(d("50310")) {
		t.Fatalf("first invoice amount = %s, want 50310", result.Invoices[0].Amount)
	}
}

// Batch of 3 where the middle account fails: the other two are
// persisted and the failure is reported with its reason.
func TestBatchIsolatesPerAccountFailure(t *testing.T) {
	writer := &fakeInvoiceWriter{
		failLease: map[string]error{"l2": errors.New("transient write error")},
	}
	result := GenerateInvoiceBatch(context.Background(), writer, "p1", batchAccounts(), tm("2024-03-01"), nil)

	if len(result.Invoices) != 2 {
		t.Fatalf("got %d invoices, want 2", len(result.Invoices))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	failure := result.Failures[0]
	if failure.LeaseId != "l2" || failure.Reason != "transient write error" {
		t.Fatalf("unexpected failure record %+v", failure)
	}
	for _, invoice := range result.Invoices {
		if invoice.LeaseId == "l2" {
			t.Fatal("failed account must not produce an invoice")
		}
	}
}

// Proceed-anyway batch: a zeroed water charge is omitted from the
// items, leaving a rent-only invoice.
func TestBatchOmitsNonPositiveItems(t *testing.T) {
	accounts := []TenantAccount{
		{UnitId: "u2", UnitLabel: "A2", LeaseId: "l2", Charges: map[string]decimal.Decimal{
			models.ChargeCodeRent:  d("50000"),
			models.ChargeCodeWater: decimal.Zero,
		}},
	}
	writer := &fakeInvoiceWriter{}
	result := GenerateInvoiceBatch(context.Background(), writer, "p1", accounts, tm("2024-03-01"), nil)

	if len(result.Invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(result.Invoices))
	}
	invoice := result.Invoices[0]
	if len(invoice.Items) != 1 || invoice.Items[0].ChargeCode != models.ChargeCodeRent {
		t.Fatalf("got items %+v, want a single rent item", invoice.Items)
	}
	if !invoice.Amount.Equal(d("50000")) {
		t.Fatalf("amount = %s, want rent-only 50000", invoice.Amount)
	}
}

func TestBatchAllZeroChargesReportedAsFailure(t *testing.T) {
	accounts := []TenantAccount{
		{UnitId: "u9", UnitLabel: "A9", LeaseId: "l9", Charges: map[string]decimal.Decimal{
			models.ChargeCodeRent: decimal.Zero,
		}},
	}
	writer := &fakeInvoiceWriter{}
	result := GenerateInvoiceBatch(context.Background(), writer, "p1", accounts, tm("2024-03-01"), nil)

	if len(result.Invoices) != 0 || len(result.Failures) != 1 {
		t.Fatalf("got %d invoices %d failures, want 0 and 1", len(result.Invoices), len(result.Failures))
	}
}

func TestParseOverrides(t *testing.T) {
	overrides := parseOverrides(map[string]decimal.Decimal{
		"u1:security": d("2500"),
		"malformed":   d("1"),
	})
	if len(overrides) != 1 {
		t.Fatalf("got %d overrides, want 1 (malformed key dropped)", len(overrides))
	}
	amount, ok := overrides[ChargeOverrideKey{UnitId: "u1", ChargeCode: "security"}]
	if !ok || !amount.Equal(d("2500")) {
		t.Fatalf("override missing or wrong: %v", overrides)
	}
}
