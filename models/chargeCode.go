package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// rent and water are reserved codes, always billable and never stored per property.
const (
	ChargeCodeRent  = "rent"
	ChargeCodeWater = "water"
)

func IsReservedChargeCode(code string) bool {
	return code == ChargeCodeRent || code == ChargeCodeWater
}

type ChargeCode struct {
	Id         string    `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId string    `gorm:"index;not null" json:"property_id" binding:"required"`
	Code       string    `gorm:"size:64;not null" json:"code" binding:"required"`
	Label      string    `gorm:"size:255" json:"label"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *ChargeCode) BeforeCreate(tx *gorm.DB) error {
	ensureId(&c.Id)
	return nil
}

type NewChargeCode struct {
	PropertyId string `json:"property_id" binding:"required"`
	Code       string `json:"code" binding:"required"`
	Label      string `json:"label"`
}

func (input NewChargeCode) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if IsReservedChargeCode(input.Code) {
		return errors.New("charge code is reserved")
	}
	if err := utils.ValidateUnique[ChargeCode](ctx, input.PropertyId, "code", input.Code, ""); err != nil {
		return err
	}

	return nil
}

func chargeCodeCacheKey(propertyId string) string {
	return "ChargeCodes:" + propertyId
}

func CreateChargeCode(ctx context.Context, input *NewChargeCode) (*ChargeCode, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	chargeCode := ChargeCode{
		PropertyId: input.PropertyId,
		Code:       input.Code,
		Label:      input.Label,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&chargeCode).Error; err != nil {
		return nil, err
	}

	// Cached list is stale now; drop it so the next read repopulates.
	if err := config.RemoveRedisKey(chargeCodeCacheKey(input.PropertyId)); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "chargeCode.go", "CreateChargeCode", "RemoveRedisKey", input.PropertyId, err)
	}

	return &chargeCode, nil
}

// GetChargeCodes returns the property-defined codes plus the reserved rent/water codes.
func GetChargeCodes(ctx context.Context, propertyId string) ([]*ChargeCode, error) {

	codes := []*ChargeCode{
		{Id: ChargeCodeRent, PropertyId: propertyId, Code: ChargeCodeRent, Label: "Rent"},
		{Id: ChargeCodeWater, PropertyId: propertyId, Code: ChargeCodeWater, Label: "Water"},
	}

	var cached []*ChargeCode
	if found, err := config.GetRedisObject(chargeCodeCacheKey(propertyId), &cached); err == nil && found {
		return append(codes, cached...), nil
	}

	stored, err := utils.FetchAllModels[ChargeCode](ctx, propertyId)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(chargeCodeCacheKey(propertyId), stored, time.Hour); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "chargeCode.go", "GetChargeCodes", "SetRedisObject", propertyId, err)
	}
	codes = append(codes, stored...)
	return codes, nil
}
