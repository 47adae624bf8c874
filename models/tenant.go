package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

type Tenant struct {
	Id         string    `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId string    `gorm:"index;not null" json:"property_id" binding:"required"`
	Name       string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Phone      string    `gorm:"size:32" json:"phone"`
	Email      string    `gorm:"size:255" json:"email"`
	IdNumber   string    `gorm:"size:64" json:"id_number"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	ensureId(&t.Id)
	return nil
}

type NewTenant struct {
	PropertyId string `json:"property_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	IdNumber   string `json:"id_number"`
}

func (input NewTenant) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}

	return nil
}

func CreateTenant(ctx context.Context, input *NewTenant) (*Tenant, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	tenant := Tenant{
		PropertyId: input.PropertyId,
		Name:       input.Name,
		Phone:      input.Phone,
		Email:      input.Email,
		IdNumber:   input.IdNumber,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&tenant).Error; err != nil {
		return nil, err
	}

	return &tenant, nil
}

func GetTenantById(ctx context.Context, id string) (*Tenant, error) {
	return utils.FetchSingleModel[Tenant](ctx, id)
}

func GetTenants(ctx context.Context, propertyId string) ([]*Tenant, error) {
	return utils.FetchAllModels[Tenant](ctx, propertyId)
}
