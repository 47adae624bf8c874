package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func dp(value string) *decimal.Decimal {
	dec := decimal.RequireFromString(value)
	return &dec
}

func tm(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestConsumptionMonthKey(t *testing.T) {
	cases := map[string]string{
		"2024-03-15": "2024-02",
		"2024-03-31": "2024-02",
		"2024-01-01": "2023-12",
		"2024-12-05": "2024-11",
	}
	for issue, want := range cases {
		if got := ConsumptionMonthKey(tm(issue)); got != want {
			t.Fatalf("issue %s: got month %s, want %s", issue, got, want)
		}
	}
}

func TestMatchReadingsExactMonthOnly(t *testing.T) {
	readings := []*models.MeterReading{
		{Id: "r-jan", UnitId: "u1", ReadingDate: tm("2024-01-20")},
		{Id: "r-feb", UnitId: "u1", ReadingDate: tm("2024-02-10")},
		{Id: "r-mar", UnitId: "u1", ReadingDate: tm("2024-03-05")},
	}

	winners := MatchReadings(readings, tm("2024-03-15"))
	winner, ok := winners["u1"]
	if !ok {
		t.Fatal("expected a winner for u1")
	}
	if winner.Id != "r-feb" {
		t.Fatalf("got winner %s, want r-feb", winner.Id)
	}
}

func TestMatchReadingsNoWinnerOutsideMonth(t *testing.T) {
	readings := []*models.MeterReading{
		{Id: "r-jan", UnitId: "u1", ReadingDate: tm("2024-01-20")},
		{Id: "r-mar", UnitId: "u1", ReadingDate: tm("2024-03-05")},
	}

	winners := MatchReadings(readings, tm("2024-03-15"))
	if _, ok := winners["u1"]; ok {
		t.Fatal("no reading in February; winner must be absent")
	}
}

func TestMatchReadingsTieBreak(t *testing.T) {
	older := tm("2024-02-11")
	newer := tm("2024-02-28")
	readings := []*models.MeterReading{
		{Id: "r-first", UnitId: "u1", ReadingDate: tm("2024-02-10"), LastModifiedAt: &older},
		{Id: "r-second", UnitId: "u1", ReadingDate: tm("2024-02-12"), LastModifiedAt: &newer},
	}

	winners := MatchReadings(readings, tm("2024-03-01"))
	if winners["u1"].Id != "r-second" {
		t.Fatalf("got winner %s, want the later-modified r-second", winners["u1"].Id)
	}

	// order of input must not matter
	winners = MatchReadings([]*models.MeterReading{readings[1], readings[0]}, tm("2024-03-01"))
	if winners["u1"].Id != "r-second" {
		t.Fatalf("winner changed with input order: got %s", winners["u1"].Id)
	}
}

func TestMatchReadingsTieBreakFallsBackToCreatedAt(t *testing.T) {
	readings := []*models.MeterReading{
		{Id: "r-a", UnitId: "u1", ReadingDate: tm("2024-02-10"), CreatedAt: tm("2024-02-10")},
		{Id: "r-b", UnitId: "u1", ReadingDate: tm("2024-02-10"), CreatedAt: tm("2024-02-20")},
	}

	winners := MatchReadings(readings, tm("2024-03-01"))
	if winners["u1"].Id != "r-b" {
		t.Fatalf("got winner %s, want r-b by created_at", winners["u1"].Id)
	}
}

func TestConsumptionNeverNegative(t *testing.T) {
	reading := &models.MeterReading{
		CurrentReading:  dp("80"),
		PreviousReading: dp("100"),
	}
	if got := ConsumptionOf(reading); !got.IsZero() {
		t.Fatalf("meter reset must floor at zero, got %s", got)
	}
}

func TestConsumptionFromReadings(t *testing.T) {
	reading := &models.MeterReading{
		CurrentReading:  dp("120"),
		PreviousReading: dp("100"),
	}
	if got := ConsumptionOf(reading); !got.Equal(d("20")) {
		t.Fatalf("got consumption %s, want 20", got)
	}
}

func TestConsumptionFallsBackToStoredValue(t *testing.T) {
	reading := &models.MeterReading{Consumption: d("12.5")}
	if got := ConsumptionOf(reading); !got.Equal(d("12.5")) {
		t.Fatalf("got consumption %s, want 12.5", got)
	}
	if got := ConsumptionOf(nil); !got.IsZero() {
		t.Fatalf("nil reading must yield zero, got %s", got)
	}
}
