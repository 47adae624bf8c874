package paymentfeed

import (
	"encoding/json"
	"strings"
	"time"
)

// Record is the canonical shape of one feed payment. Upstream gateways
// are inconsistent between snake_case and camelCase field names, so all
// normalization happens here; nothing downstream branches on variants.
type Record struct {
	ExternalId string
	Amount     json.Number
	Method     string
	PaidAt     string
	LeaseRef   string
	InvoiceRef string
	Reference  string
	PayerName  string
	PayerPhone string
	Notes      string
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	r.ExternalId = pickString(fields, "id", "external_id", "externalId", "transaction_id", "transactionId")
	r.Amount = pickNumber(fields, "amount", "paid_amount", "paidAmount")
	r.Method = pickString(fields, "method", "payment_method", "paymentMethod", "channel")
	r.PaidAt = pickString(fields, "paid_at", "paidAt", "payment_date", "paymentDate", "date")
	r.LeaseRef = pickString(fields, "lease_id", "leaseId", "lease_ref", "leaseRef")
	r.InvoiceRef = pickString(fields, "invoice_id", "invoiceId", "invoice_ref", "invoiceRef")
	r.Reference = pickString(fields, "reference", "reference_number", "referenceNumber", "receipt_ref")
	r.PayerName = pickString(fields, "payer_name", "payerName", "name", "sender_name")
	r.PayerPhone = pickString(fields, "payer_phone", "payerPhone", "phone", "msisdn")
	r.Notes = pickString(fields, "notes", "narration", "description")
	return nil
}

func pickString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		// some gateways send numbers where strings are expected
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}

func pickNumber(fields map[string]json.RawMessage, keys ...string) json.Number {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return json.Number(strings.TrimSpace(s))
		}
	}
	return ""
}

func (r Record) PaidAtTime() time.Time {
	value := strings.TrimSpace(r.PaidAt)
	if value == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}
