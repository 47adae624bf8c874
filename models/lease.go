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

type Lease struct {
	Id               string          `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId       string          `gorm:"index;not null" json:"property_id" binding:"required"`
	UnitId           string          `gorm:"index;not null" json:"unit_id" binding:"required"`
	TenantId         string          `gorm:"index;not null" json:"tenant_id" binding:"required"`
	Status           LeaseStatus     `gorm:"size:20;not null;default:'Active'" json:"status"`
	RentAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rent_amount"`
	WaterRatePerUnit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"water_rate_per_unit"`
	StartDate        time.Time       `gorm:"not null" json:"start_date" binding:"required"`
	EndDate          *time.Time      `gorm:"default:null" json:"end_date"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Lease) BeforeCreate(tx *gorm.DB) error {
	ensureId(&l.Id)
	return nil
}

type NewLease struct {
	PropertyId       string          `json:"property_id" binding:"required"`
	UnitId           string          `json:"unit_id" binding:"required"`
	TenantId         string          `json:"tenant_id" binding:"required"`
	RentAmount       decimal.Decimal `json:"rent_amount"`
	WaterRatePerUnit decimal.Decimal `json:"water_rate_per_unit"`
	StartDate        time.Time       `json:"start_date" binding:"required"`
}

func (input NewLease) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if err := utils.ValidateResourceId[Unit](ctx, input.PropertyId, input.UnitId); err != nil {
		return errors.New("unit not found")
	}
	if err := utils.ValidateResourceId[Tenant](ctx, input.PropertyId, input.TenantId); err != nil {
		return errors.New("tenant not found")
	}
	if input.RentAmount.IsNegative() || input.WaterRatePerUnit.IsNegative() {
		return errors.New("rent amount and water rate cannot be negative")
	}

	return nil
}

// CreateLease creates an active lease and marks the unit occupied.
// At most one active lease per unit; the per-property lock keeps
// concurrent requests from racing past the count check.
func CreateLease(ctx context.Context, input *NewLease) (*Lease, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	release, err := utils.PropertyLock(ctx, input.PropertyId, "LeaseChange", "models", "CreateLease")
	if err != nil {
		return nil, err
	}
	defer release()

	count, err := utils.ResourceCountWhere[Lease](ctx, input.PropertyId, "unit_id = ? AND status = ?", input.UnitId, LeaseStatusActive)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("unit already has an active lease")
	}

	rentAmount := input.RentAmount
	waterRate := input.WaterRatePerUnit
	if rentAmount.IsZero() || waterRate.IsZero() {
		unit, err := utils.FetchModel[Unit](ctx, input.PropertyId, input.UnitId)
		if err != nil {
			return nil, err
		}
		if unit.HouseTypeId != "" {
			houseType, err := utils.FetchModel[HouseType](ctx, input.PropertyId, unit.HouseTypeId)
			if err != nil {
				return nil, err
			}
			rentAmount, waterRate = applyHouseTypeDefaults(rentAmount, waterRate, houseType)
		}
	}

	lease := Lease{
		PropertyId:       input.PropertyId,
		UnitId:           input.UnitId,
		TenantId:         input.TenantId,
		Status:           LeaseStatusActive,
		RentAmount:       rentAmount,
		WaterRatePerUnit: waterRate,
		StartDate:        input.StartDate,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&lease).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&Unit{}).Where("id = ?", input.UnitId).
		Update("status", UnitStatusOccupied).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &lease, nil
}

// TerminateLease ends an active lease and frees the unit.
func TerminateLease(ctx context.Context, leaseId string, endDate time.Time) (*Lease, error) {

	lease, err := utils.FetchSingleModel[Lease](ctx, leaseId)
	if err != nil {
		return nil, err
	}
	if lease.Status != LeaseStatusActive {
		return nil, errors.New("lease is not active")
	}

	lease.Status = LeaseStatusTerminated
	lease.EndDate = &endDate

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Save(lease).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&Unit{}).Where("id = ?", lease.UnitId).
		Update("status", UnitStatusVacant).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return lease, nil
}

func GetLeaseById(ctx context.Context, id string) (*Lease, error) {
	return utils.FetchSingleModel[Lease](ctx, id)
}

func GetLeases(ctx context.Context, propertyId string, status LeaseStatus) ([]*Lease, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if propertyId != "" {
		dbCtx = dbCtx.Where("property_id = ?", propertyId)
	}
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	var leases []*Lease
	if err := dbCtx.Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// GetActiveLeaseForUnit returns the unit's single active lease, or RecordNotFound.
func GetActiveLeaseForUnit(ctx context.Context, unitId string) (*Lease, error) {

	db := config.GetDB()
	var lease Lease
	err := db.WithContext(ctx).
		Where("unit_id = ? AND status = ?", unitId, LeaseStatusActive).
		First(&lease).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &lease, nil
}

type LeaseSearchResult struct {
	LeaseId    string          `json:"lease_id"`
	UnitId     string          `json:"unit_id"`
	UnitLabel  string          `json:"unit_label"`
	TenantId   string          `json:"tenant_id"`
	TenantName string          `json:"tenant_name"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Status     LeaseStatus     `json:"status"`
}

// applyHouseTypeDefaults fills a zero rent or water rate from the
// unit's house type template. Explicit amounts always win.
func applyHouseTypeDefaults(rentAmount, waterRate decimal.Decimal, houseType *HouseType) (decimal.Decimal, decimal.Decimal) {
	if houseType == nil {
		return rentAmount, waterRate
	}
	if rentAmount.IsZero() {
		rentAmount = houseType.DefaultRentAmount
	}
	if waterRate.IsZero() {
		waterRate = houseType.WaterRatePerUnit
	}
	return rentAmount, waterRate
}
