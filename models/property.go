package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

type Property struct {
	Id         string         `gorm:"type:char(36);primary_key" json:"id"`
	LandlordId string         `gorm:"index;not null" json:"landlord_id" binding:"required"`
	Name       string         `gorm:"size:255;not null" json:"name" binding:"required"`
	Address    string         `gorm:"type:text" json:"address"`
	Status     PropertyStatus `gorm:"size:20;not null;default:'Active'" json:"status"`
	Timezone   string         `gorm:"size:64" json:"timezone"`
	DueDays    int            `gorm:"default:0" json:"due_days"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	ensureId(&p.Id)
	return nil
}

type NewProperty struct {
	LandlordId string `json:"landlord_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Address    string `json:"address"`
	Timezone   string `json:"timezone"`
	DueDays    int    `json:"due_days"`
}

func (input NewProperty) validate(ctx context.Context) error {

	var count int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Property{}).
		Where("landlord_id = ? AND name = ?", input.LandlordId, input.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate property name")
	}

	return nil
}

func CreateProperty(ctx context.Context, input *NewProperty) (*Property, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	property := Property{
		LandlordId: input.LandlordId,
		Name:       input.Name,
		Address:    input.Address,
		Status:     PropertyStatusActive,
		Timezone:   input.Timezone,
		DueDays:    input.DueDays,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&property).Error; err != nil {
		return nil, err
	}

	return &property, nil
}

func GetPropertyById(ctx context.Context, id string) (*Property, error) {
	return utils.FetchSingleModel[Property](ctx, id)
}

func GetProperties(ctx context.Context, landlordId string) ([]*Property, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if landlordId != "" {
		dbCtx = dbCtx.Where("landlord_id = ?", landlordId)
	}
	var properties []*Property
	if err := dbCtx.Order("name").Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}
