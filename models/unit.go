package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChargeAmountMap is a sparse chargeCode -> override amount mapping stored as JSON.
type ChargeAmountMap map[string]decimal.Decimal

func (m ChargeAmountMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *ChargeAmountMap) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*m = ChargeAmountMap{}
		return nil
	default:
		return errors.New("unsupported type for charge amount map")
	}
	if len(b) == 0 {
		*m = ChargeAmountMap{}
		return nil
	}
	return json.Unmarshal(b, m)
}

type Unit struct {
	Id            string          `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId    string          `gorm:"index;not null" json:"property_id" binding:"required"`
	HouseTypeId   string          `gorm:"index;default:null" json:"house_type_id"`
	Label         string          `gorm:"size:64;not null" json:"label" binding:"required"`
	Status        UnitStatus      `gorm:"size:20;not null;default:'Vacant'" json:"status"`
	MeterNumber   string          `gorm:"size:64" json:"meter_number"`
	ChargeAmounts ChargeAmountMap `gorm:"type:json" json:"charge_amounts"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	ensureId(&u.Id)
	return nil
}

type NewUnit struct {
	PropertyId    string          `json:"property_id" binding:"required"`
	HouseTypeId   string          `json:"house_type_id"`
	Label         string          `json:"label" binding:"required"`
	MeterNumber   string          `json:"meter_number"`
	ChargeAmounts ChargeAmountMap `json:"charge_amounts"`
}

func (input NewUnit) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if input.HouseTypeId != "" {
		if err := utils.ValidateResourceId[HouseType](ctx, input.PropertyId, input.HouseTypeId); err != nil {
			return errors.New("house type not found")
		}
	}
	if err := utils.ValidateUnique[Unit](ctx, input.PropertyId, "label", input.Label, ""); err != nil {
		return err
	}
	for code := range input.ChargeAmounts {
		if IsReservedChargeCode(code) {
			return errors.New("charge amount overrides cannot target rent or water")
		}
	}

	return nil
}

func CreateUnit(ctx context.Context, input *NewUnit) (*Unit, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	chargeAmounts := input.ChargeAmounts
	if len(chargeAmounts) == 0 && input.HouseTypeId != "" {
		houseType, err := utils.FetchModel[HouseType](ctx, input.PropertyId, input.HouseTypeId)
		if err != nil {
			return nil, err
		}
		chargeAmounts = templateChargeAmounts(houseType.ChargeAmounts)
	}
	if chargeAmounts == nil {
		chargeAmounts = ChargeAmountMap{}
	}

	unit := Unit{
		PropertyId:    input.PropertyId,
		HouseTypeId:   input.HouseTypeId,
		Label:         input.Label,
		Status:        UnitStatusVacant,
		MeterNumber:   input.MeterNumber,
		ChargeAmounts: chargeAmounts,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}

	return &unit, nil
}

// templateChargeAmounts copies a template's override map so units
// never share the template's backing map.
func templateChargeAmounts(template ChargeAmountMap) ChargeAmountMap {
	copied := make(ChargeAmountMap, len(template))
	for code, amount := range template {
		copied[code] = amount
	}
	return copied
}

func GetUnitById(ctx context.Context, id string) (*Unit, error) {
	return utils.FetchSingleModel[Unit](ctx, id)
}

func GetUnits(ctx context.Context, propertyId string, status UnitStatus) ([]*Unit, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	var units []*Unit
	if err := dbCtx.Order("label").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// UpdateUnitCharges replaces the unit's charge override map.
func UpdateUnitCharges(ctx context.Context, unitId string, chargeAmounts ChargeAmountMap) (*Unit, error) {

	unit, err := utils.FetchSingleModel[Unit](ctx, unitId)
	if err != nil {
		return nil, err
	}
	for code := range chargeAmounts {
		if IsReservedChargeCode(code) {
			return nil, errors.New("charge amount overrides cannot target rent or water")
		}
	}
	if chargeAmounts == nil {
		chargeAmounts = ChargeAmountMap{}
	}
	unit.ChargeAmounts = chargeAmounts

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}
