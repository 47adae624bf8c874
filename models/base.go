package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"github.com/google/uuid"
)

func ensureId(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func calculateDueDate(issueDate time.Time, dueDays int) time.Time {
	if dueDays <= 0 {
		// end of issue month by default
		year, month, _ := issueDate.Date()
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, issueDate.Location())
		return firstOfMonth.AddDate(0, 1, -1)
	}
	return issueDate.AddDate(0, 0, dueDays)
}

// nextDocumentSeq issues the next number from a per-property counter.
// When redis is unavailable it falls back to a unix timestamp so a
// counter reset can never re-issue a number already handed out.
func nextDocumentSeq(ctx context.Context, prefix string, propertyId string) int64 {
	key := fmt.Sprintf("docNo:%s:%s", prefix, propertyId)
	n, err := config.GetRedisCounter(ctx, key)
	if err == nil && n > 0 {
		return n
	}
	return time.Now().Unix()
}

// NextReceiptNumber issues the next RCT document number for a property.
func NextReceiptNumber(ctx context.Context, propertyId string) (string, error) {
	return fmt.Sprintf("RCT-%06d", nextDocumentSeq(ctx, "RCT", propertyId)), nil
}

// invoice numbers carry the issue year and a unit hint, e.g. INV-2024-000017-A1
func formatInvoiceNumber(year int, seq int64, unitLabel string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(unitLabel), " ", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	if suffix == "" {
		return fmt.Sprintf("INV-%d-%06d", year, seq)
	}
	return fmt.Sprintf("INV-%d-%06d-%s", year, seq, suffix)
}
