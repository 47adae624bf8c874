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

// HouseType is a unit template: new units and leases inherit its
// amounts unless given their own.
type HouseType struct {
	Id                string          `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId        string          `gorm:"index;not null" json:"property_id" binding:"required"`
	Name              string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Description       string          `gorm:"type:text" json:"description"`
	DefaultRentAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"default_rent_amount"`
	DepositAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"deposit_amount"`
	WaterRatePerUnit  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"water_rate_per_unit"`
	ChargeAmounts     ChargeAmountMap `gorm:"type:json" json:"charge_amounts"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (h *HouseType) BeforeCreate(tx *gorm.DB) error {
	ensureId(&h.Id)
	return nil
}

type NewHouseType struct {
	PropertyId        string          `json:"property_id" binding:"required"`
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	DefaultRentAmount decimal.Decimal `json:"default_rent_amount"`
	DepositAmount     decimal.Decimal `json:"deposit_amount"`
	WaterRatePerUnit  decimal.Decimal `json:"water_rate_per_unit"`
	ChargeAmounts     ChargeAmountMap `json:"charge_amounts"`
}

func (input NewHouseType) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if err := utils.ValidateUnique[HouseType](ctx, input.PropertyId, "name", input.Name, ""); err != nil {
		return err
	}
	for code := range input.ChargeAmounts {
		if IsReservedChargeCode(code) {
			return errors.New("charge amount overrides cannot target rent or water")
		}
	}

	return nil
}

func CreateHouseType(ctx context.Context, input *NewHouseType) (*HouseType, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	houseType := HouseType{
		PropertyId:        input.PropertyId,
		Name:              input.Name,
		Description:       input.Description,
		DefaultRentAmount: input.DefaultRentAmount,
		DepositAmount:     input.DepositAmount,
		WaterRatePerUnit:  input.WaterRatePerUnit,
		ChargeAmounts:     input.ChargeAmounts,
	}
	if houseType.ChargeAmounts == nil {
		houseType.ChargeAmounts = ChargeAmountMap{}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&houseType).Error; err != nil {
		return nil, err
	}

	return &houseType, nil
}

func GetHouseTypes(ctx context.Context, propertyId string) ([]*HouseType, error) {
	return utils.FetchAllModels[HouseType](ctx, propertyId)
}
