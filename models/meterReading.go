package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MeterReading struct {
	Id              string           `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId      string           `gorm:"index;not null" json:"property_id" binding:"required"`
	UnitId          string           `gorm:"index;not null" json:"unit_id" binding:"required"`
	ReadingDate     time.Time        `gorm:"not null" json:"reading_date" binding:"required"`
	CurrentReading  *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"current_reading"`
	PreviousReading *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"previous_reading"`
	Consumption     decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"consumption"`
	LastModifiedAt  *time.Time       `gorm:"default:null" json:"last_modified_at"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *MeterReading) BeforeCreate(tx *gorm.DB) error {
	ensureId(&m.Id)
	return nil
}

type NewMeterReading struct {
	PropertyId      string           `json:"property_id" binding:"required"`
	UnitId          string           `json:"unit_id" binding:"required"`
	ReadingDate     time.Time        `json:"reading_date" binding:"required"`
	CurrentReading  *decimal.Decimal `json:"current_reading"`
	PreviousReading *decimal.Decimal `json:"previous_reading"`
	Consumption     *decimal.Decimal `json:"consumption"`
}

func (input NewMeterReading) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if err := utils.ValidateResourceId[Unit](ctx, input.PropertyId, input.UnitId); err != nil {
		return errors.New("unit not found")
	}
	if input.CurrentReading == nil && input.Consumption == nil {
		return errors.New("current reading or consumption is required")
	}

	return nil
}

// CreateMeterReading stores a reading with its derived consumption.
// Consumption is max(0, current - previous); a smaller current reading
// means a meter reset, not negative usage.
func CreateMeterReading(ctx context.Context, input *NewMeterReading) (*MeterReading, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	consumption := decimal.Zero
	if input.CurrentReading != nil && input.PreviousReading != nil {
		consumption = input.CurrentReading.Sub(*input.PreviousReading)
		if consumption.IsNegative() {
			consumption = decimal.Zero
		}
	} else if input.Consumption != nil {
		consumption = *input.Consumption
		if consumption.IsNegative() {
			consumption = decimal.Zero
		}
	}

	reading := MeterReading{
		PropertyId:      input.PropertyId,
		UnitId:          input.UnitId,
		ReadingDate:     input.ReadingDate,
		CurrentReading:  input.CurrentReading,
		PreviousReading: input.PreviousReading,
		Consumption:     consumption,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&reading).Error; err != nil {
		return nil, err
	}

	return &reading, nil
}

func GetMeterReadings(ctx context.Context, propertyId string, unitId string, from *time.Time, to *time.Time) ([]*MeterReading, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if unitId != "" {
		dbCtx = dbCtx.Where("unit_id = ?", unitId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("reading_date >= ?", *from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("reading_date < ?", *to)
	}
	var readings []*MeterReading
	if err := dbCtx.Order("reading_date").Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

// TieBreakAt is the timestamp used to pick between competing readings
// for the same unit and month.
func (m MeterReading) TieBreakAt() time.Time {
	if m.LastModifiedAt != nil {
		return *m.LastModifiedAt
	}
	if !m.CreatedAt.IsZero() {
		return m.CreatedAt
	}
	return m.ReadingDate
}
