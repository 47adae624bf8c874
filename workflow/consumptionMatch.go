package workflow

import (
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// ConsumptionMonthKey returns the month billed by an invoice issued on
// the given date. Readings are taken in arrears, so an issue date in
// March bills February's consumption.
func ConsumptionMonthKey(issueDate time.Time) string {
	firstOfMonth := time.Date(issueDate.Year(), issueDate.Month(), 1, 0, 0, 0, 0, issueDate.Location())
	return firstOfMonth.AddDate(0, -1, 0).Format("2006-01")
}

func readingMonthKey(readingDate time.Time) string {
	return readingDate.Format("2006-01")
}

// MatchReadings picks the authoritative reading per unit for the
// consumption month of the given issue date. A reading outside the
// exact target month is never selected; among competitors the one with
// the latest tie-break timestamp wins.
func MatchReadings(readings []*models.MeterReading, issueDate time.Time) map[string]*models.MeterReading {

	monthKey := ConsumptionMonthKey(issueDate)
	winners := make(map[string]*models.MeterReading)
	for _, reading := range readings {
		if reading == nil || reading.ReadingDate.IsZero() {
			continue
		}
		if readingMonthKey(reading.ReadingDate) != monthKey {
			continue
		}
		current, ok := winners[reading.UnitId]
		if !ok || reading.TieBreakAt().After(current.TieBreakAt()) {
			winners[reading.UnitId] = reading
		}
	}
	return winners
}

// ConsumptionOf derives usage from a matched reading:
// max(0, current - previous) when both readings are present, else the
// stored consumption value, else zero.
func ConsumptionOf(reading *models.MeterReading) decimal.Decimal {
	if reading == nil {
		return decimal.Zero
	}
	if reading.CurrentReading != nil && reading.PreviousReading != nil {
		consumption := reading.CurrentReading.Sub(*reading.PreviousReading)
		if consumption.IsNegative() {
			return decimal.Zero
		}
		return consumption
	}
	if reading.Consumption.IsNegative() {
		return decimal.Zero
	}
	return reading.Consumption
}
