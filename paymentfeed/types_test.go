package paymentfeed

import (
	"encoding/json"
	"testing"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
)

func TestRecordNormalizesSnakeCase(t *testing.T) {
	raw := []byte(`{
		"id": "txn-001",
		"amount": "50310.00",
		"payment_method": "MPESA",
		"paid_at": "2024-03-02T10:15:00Z",
		"lease_id": "l1",
		"reference_number": "SBC4X1",
		"payer_name": "Grace Wanjiru",
		"payer_phone": "+254712345678"
	}`)

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.ExternalId != "txn-001" {
		t.Fatalf("external id = %q", record.ExternalId)
	}
	if record.Amount.String() != "50310.00" {
		t.Fatalf("amount = %q", record.Amount)
	}
	if record.LeaseRef != "l1" || record.Reference != "SBC4X1" {
		t.Fatalf("lease=%q reference=%q", record.LeaseRef, record.Reference)
	}
}

func TestRecordNormalizesCamelCase(t *testing.T) {
	raw := []byte(`{
		"externalId": "txn-002",
		"paidAmount": 30000,
		"paymentMethod": "bank_transfer",
		"paymentDate": "2024-03-05",
		"leaseId": "l2",
		"payerName": "John Otieno"
	}`)

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.ExternalId != "txn-002" {
		t.Fatalf("external id = %q", record.ExternalId)
	}
	if record.Amount.String() != "30000" {
		t.Fatalf("amount = %q", record.Amount)
	}
	if record.LeaseRef != "l2" || record.PayerName != "John Otieno" {
		t.Fatalf("lease=%q payer=%q", record.LeaseRef, record.PayerName)
	}
}

func TestBuildPaymentInput(t *testing.T) {
	record := Record{
		ExternalId: "txn-003",
		Amount:     json.Number("50310"),
		Method:     "MPESA",
		PaidAt:     "2024-03-02T10:15:00Z",
		LeaseRef:   "l1",
	}

	input, err := buildPaymentInput("p1", record)
	if err != nil {
		t.Fatalf("buildPaymentInput: %v", err)
	}
	if input.PropertyId != "p1" || input.ExternalId != "txn-003" {
		t.Fatalf("input = %+v", input)
	}
	if input.Method != models.PaymentMethodMobileMoney {
		t.Fatalf("method = %q, want MobileMoney", input.Method)
	}
	if input.LeaseId == nil || *input.LeaseId != "l1" {
		t.Fatal("lease ref not carried")
	}
	if input.PaymentDate.Format("2006-01-02") != "2024-03-02" {
		t.Fatalf("payment date = %s", input.PaymentDate)
	}
}

func TestBuildPaymentInputRejectsBadAmounts(t *testing.T) {
	for _, amount := range []string{"", "0", "-100", "abc"} {
		record := Record{ExternalId: "txn-x", Amount: json.Number(amount)}
		if _, err := buildPaymentInput("p1", record); err == nil {
			t.Fatalf("amount %q must be rejected", amount)
		}
	}
}

func TestMapMethod(t *testing.T) {
	cases := map[string]models.PaymentMethod{
		"mpesa":         models.PaymentMethodMobileMoney,
		"BANK_TRANSFER": models.PaymentMethodBankTransfer,
		"cheque":        models.PaymentMethodCheque,
		"visa":          models.PaymentMethodCard,
		"":              models.PaymentMethodCash,
		"unknown":       models.PaymentMethodCash,
	}
	for in, want := range cases {
		if got := mapMethod(in); got != want {
			t.Fatalf("mapMethod(%q) = %q, want %q", in, got, want)
		}
	}
}
