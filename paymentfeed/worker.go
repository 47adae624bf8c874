package paymentfeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"bitbucket.org/mmdatafocus/rentals_backend/workflow"
)

type RecordError struct {
	ExternalId string `json:"external_id"`
	Message    string `json:"message"`
}

type PullResult struct {
	Ingested int           `json:"ingested"`
	Skipped  int           `json:"skipped"`
	Errors   []RecordError `json:"errors"`
}

// PullPayments drains the external feed for one property. Each record
// is ingested independently: a bad record is captured and skipped, the
// pull continues. Replays are safe because ingestion dedups on the
// record's external id.
func PullPayments(ctx context.Context, propertyId string) (*PullResult, error) {

	if propertyId == "" {
		return nil, errors.New("property id is required")
	}

	client, err := newFeedClient(strings.TrimSpace(os.Getenv("PAYMENT_FEED_API_KEY")))
	if err != nil {
		return nil, err
	}

	cursorKey := "paymentFeedCursor:" + propertyId
	nextCursor, _, err := config.GetRedisValue(cursorKey)
	if err != nil {
		return nil, err
	}

	path := strings.TrimSpace(os.Getenv("PAYMENT_FEED_PAYMENTS_PATH"))
	if path == "" {
		path = "/v1/payments"
	}

	logger := config.GetLogger()
	result := &PullResult{Errors: make([]RecordError, 0)}

	for {
		params := url.Values{}
		params.Set("property_id", propertyId)
		params.Set("limit", "200")
		if nextCursor != "" {
			params.Set("cursor", nextCursor)
		}

		resp, err := client.getList(ctx, path, params)
		if err != nil {
			return result, err
		}

		items := resp.Data
		if len(items) == 0 {
			items = resp.Items
		}

		for _, raw := range items {
			var record Record
			if err := json.Unmarshal(raw, &record); err != nil {
				result.Errors = append(result.Errors, RecordError{Message: err.Error()})
				continue
			}
			if record.ExternalId == "" {
				result.Errors = append(result.Errors, RecordError{Message: "payment id missing"})
				continue
			}

			input, err := buildPaymentInput(propertyId, record)
			if err != nil {
				result.Errors = append(result.Errors, RecordError{ExternalId: record.ExternalId, Message: err.Error()})
				continue
			}

			_, created, err := workflow.IngestPayment(ctx, input)
			if err != nil {
				config.LogError(logger, "worker.go", "PullPayments", "IngestPayment", record.ExternalId, err)
				result.Errors = append(result.Errors, RecordError{ExternalId: record.ExternalId, Message: err.Error()})
				continue
			}
			if created {
				result.Ingested++
			} else {
				result.Skipped++
			}
		}

		if resp.NextCursor == "" || (resp.HasMore != nil && !*resp.HasMore) {
			if resp.NextCursor != "" {
				if err := config.SetRedisValue(cursorKey, resp.NextCursor, 0); err != nil {
					return result, err
				}
			}
			return result, nil
		}
		nextCursor = resp.NextCursor
		if err := config.SetRedisValue(cursorKey, nextCursor, 0); err != nil {
			return result, err
		}
	}
}

func buildPaymentInput(propertyId string, record Record) (*models.NewPayment, error) {

	if record.Amount.String() == "" {
		return nil, errors.New("payment amount missing")
	}
	amount, err := utils.ParseDecimal(record.Amount.String())
	if err != nil {
		return nil, errors.New("invalid payment amount")
	}
	if !amount.IsPositive() {
		return nil, errors.New("payment amount must be positive")
	}

	input := &models.NewPayment{
		PropertyId:      propertyId,
		Amount:          amount,
		Method:          mapMethod(record.Method),
		PaymentDate:     record.PaidAtTime(),
		ReferenceNumber: record.Reference,
		PayerName:       record.PayerName,
		PayerPhone:      record.PayerPhone,
		ExternalId:      record.ExternalId,
		Notes:           record.Notes,
	}
	if record.LeaseRef != "" {
		leaseRef := record.LeaseRef
		input.LeaseId = &leaseRef
	}
	if record.InvoiceRef != "" {
		invoiceRef := record.InvoiceRef
		input.InvoiceId = &invoiceRef
	}
	return input, nil
}

func mapMethod(method string) models.PaymentMethod {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "MPESA", "MOBILE_MONEY", "MOBILEMONEY", "MOBILE":
		return models.PaymentMethodMobileMoney
	case "BANK", "BANK_TRANSFER", "BANKTRANSFER", "EFT", "RTGS":
		return models.PaymentMethodBankTransfer
	case "CHEQUE", "CHECK":
		return models.PaymentMethodCheque
	case "CARD", "VISA", "MASTERCARD":
		return models.PaymentMethodCard
	default:
		return models.PaymentMethodCash
	}
}
