package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCalculateDueDateDefaultsToMonthEnd(t *testing.T) {
	issue := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	due := calculateDueDate(issue, 0)
	if due.Format("2006-01-02") != "2024-03-31" {
		t.Fatalf("due = %s, want 2024-03-31", due.Format("2006-01-02"))
	}

	// February, leap year
	issue = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	due = calculateDueDate(issue, 0)
	if due.Format("2006-01-02") != "2024-02-29" {
		t.Fatalf("due = %s, want 2024-02-29", due.Format("2006-01-02"))
	}
}

func TestCalculateDueDateWithDueDays(t *testing.T) {
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	due := calculateDueDate(issue, 14)
	if due.Format("2006-01-02") != "2024-03-15" {
		t.Fatalf("due = %s, want 2024-03-15", due.Format("2006-01-02"))
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	if got := formatInvoiceNumber(2024, 17, "A1"); got != "INV-2024-000017-A1" {
		t.Fatalf("got %q, want INV-2024-000017-A1", got)
	}
	// label is uppercased and spaces are stripped
	if got := formatInvoiceNumber(2024, 17, " b 12 "); got != "INV-2024-000017-B12" {
		t.Fatalf("got %q, want INV-2024-000017-B12", got)
	}
	// long labels are cut to eight characters
	if got := formatInvoiceNumber(2024, 17, "PENTHOUSE-WEST"); got != "INV-2024-000017-PENTHOUS" {
		t.Fatalf("got %q", got)
	}
	if got := formatInvoiceNumber(2025, 3, ""); got != "INV-2025-000003" {
		t.Fatalf("got %q, want no suffix for empty label", got)
	}
}

func TestApplyHouseTypeDefaults(t *testing.T) {
	houseType := &HouseType{
		DefaultRentAmount: decimal.NewFromInt(50000),
		WaterRatePerUnit:  decimal.NewFromInt(155),
	}

	rent, water := applyHouseTypeDefaults(decimal.Zero, decimal.Zero, houseType)
	if !rent.Equal(decimal.NewFromInt(50000)) || !water.Equal(decimal.NewFromInt(155)) {
		t.Fatalf("defaults not applied: rent %s water %s", rent, water)
	}

	// explicit amounts win over the template
	rent, water = applyHouseTypeDefaults(decimal.NewFromInt(60000), decimal.Zero, houseType)
	if !rent.Equal(decimal.NewFromInt(60000)) || !water.Equal(decimal.NewFromInt(155)) {
		t.Fatalf("explicit rent overridden: rent %s water %s", rent, water)
	}

	rent, water = applyHouseTypeDefaults(decimal.NewFromInt(60000), decimal.NewFromInt(200), nil)
	if !rent.Equal(decimal.NewFromInt(60000)) || !water.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("nil template must change nothing: rent %s water %s", rent, water)
	}
}

func TestTemplateChargeAmountsCopies(t *testing.T) {
	template := ChargeAmountMap{"garbage": decimal.NewFromInt(500)}
	copied := templateChargeAmounts(template)
	copied["garbage"] = decimal.NewFromInt(999)
	if !template["garbage"].Equal(decimal.NewFromInt(500)) {
		t.Fatal("template map must not be shared with the unit")
	}
}

func TestReservedChargeCodes(t *testing.T) {
	if !IsReservedChargeCode("rent") || !IsReservedChargeCode("water") {
		t.Fatal("rent and water must be reserved")
	}
	if IsReservedChargeCode("garbage") {
		t.Fatal("garbage is not reserved")
	}
}

func TestChargeAmountMapRoundTrip(t *testing.T) {
	m := ChargeAmountMap{
		"garbage":  decimal.NewFromInt(500),
		"security": decimal.NewFromInt(1000),
	}

	value, err := m.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var got ChargeAmountMap
	if err := got.Scan(value); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || !got["garbage"].Equal(decimal.NewFromInt(500)) {
		t.Fatalf("round trip = %v", got)
	}
}

func TestChargeAmountMapScanNil(t *testing.T) {
	var got ChargeAmountMap
	if err := got.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestEnumUnmarshalRejectsUnknown(t *testing.T) {
	var status InvoiceStatus
	if err := json.Unmarshal([]byte(`"Draft"`), &status); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
	if status != InvoiceStatusDraft {
		t.Fatalf("status = %q", status)
	}
	if err := json.Unmarshal([]byte(`"Nonsense"`), &status); err == nil {
		t.Fatal("unknown status must be rejected")
	}

	var method PaymentMethod
	if err := json.Unmarshal([]byte(`"MobileMoney"`), &method); err != nil {
		t.Fatalf("valid method rejected: %v", err)
	}
	if err := json.Unmarshal([]byte(`"Barter"`), &method); err == nil {
		t.Fatal("unknown method must be rejected")
	}
}
