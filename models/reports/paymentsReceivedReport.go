package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"github.com/shopspring/decimal"
)

type PaymentReceived struct {
	ReceiptNumber   string          `json:"receiptNumber"`
	PaymentDate     time.Time       `json:"paymentDate"`
	ReferenceNumber *string         `json:"referenceNumber,omitempty"`
	Method          string          `json:"method"`
	Status          string          `json:"status"`
	TenantName      *string         `json:"tenantName,omitempty"`
	UnitLabel       *string         `json:"unitLabel,omitempty"`
	InvoiceNumber   *string         `json:"invoiceNumber,omitempty"`
	PayerName       string          `json:"payerName"`
	Amount          decimal.Decimal `json:"amount"`
}

func GetPaymentsReceivedReport(ctx context.Context, propertyId string, fromDate time.Time, toDate time.Time) ([]*PaymentReceived, error) {

	sql := `
SELECT
    p.receipt_number,
    p.payment_date,
    p.reference_number,
    p.method,
    p.status,
    p.payer_name,
    p.amount,
    tenants.name AS tenant_name,
    units.label AS unit_label,
    invoices.invoice_number
FROM
    payments p
    LEFT JOIN leases ON leases.id = p.lease_id
    LEFT JOIN tenants ON tenants.id = leases.tenant_id
    LEFT JOIN units ON units.id = leases.unit_id
    LEFT JOIN invoices ON invoices.id = p.invoice_id
WHERE
    p.property_id = @propertyId
    AND p.payment_date BETWEEN @fromDate AND @toDate
ORDER BY
    p.payment_date;
	`

	db := config.GetDB()
	var results []*PaymentReceived
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"propertyId": propertyId,
		"fromDate":   fromDate,
		"toDate":     toDate,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
