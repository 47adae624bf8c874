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

type Payment struct {
	Id              string          `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId      string          `gorm:"index;not null" json:"property_id" binding:"required"`
	LeaseId         *string         `gorm:"index;default:null" json:"lease_id"`
	InvoiceId       *string         `gorm:"index;default:null" json:"invoice_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	Method          PaymentMethod   `gorm:"size:20;not null" json:"method"`
	Status          PaymentStatus   `gorm:"size:20;not null;default:'Unallocated'" json:"status"`
	PaymentDate     time.Time       `gorm:"index;not null" json:"payment_date" binding:"required"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	ReceiptNumber   string          `gorm:"size:64" json:"receipt_number"`
	PayerName       string          `gorm:"size:255" json:"payer_name"`
	PayerPhone      string          `gorm:"size:32" json:"payer_phone"`
	ExternalId      string          `gorm:"size:128;uniqueIndex;default:null" json:"external_id"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureId(&p.Id)
	return nil
}

type NewPayment struct {
	PropertyId      string          `json:"property_id" binding:"required"`
	LeaseId         *string         `json:"lease_id"`
	InvoiceId       *string         `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Method          PaymentMethod   `json:"method"`
	PaymentDate     time.Time       `json:"payment_date" binding:"required"`
	ReferenceNumber string          `json:"reference_number"`
	PayerName       string          `json:"payer_name"`
	PayerPhone      string          `json:"payer_phone"`
	ExternalId      string          `json:"external_id"`
	Notes           string          `json:"notes"`
}

func (input NewPayment) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Property](ctx, "", input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return errors.New("payment amount must be positive")
	}
	if input.LeaseId != nil {
		if err := utils.ValidateResourceId[Lease](ctx, input.PropertyId, *input.LeaseId); err != nil {
			return errors.New("lease not found")
		}
	}
	if input.InvoiceId != nil {
		if input.LeaseId == nil {
			return errors.New("invoice reference requires a lease reference")
		}
		count, err := utils.ResourceCountWhere[Invoice](ctx, input.PropertyId, "id = ? AND lease_id = ?", *input.InvoiceId, *input.LeaseId)
		if err != nil {
			return err
		}
		if count <= 0 {
			return errors.New("invoice does not belong to the lease")
		}
	}

	return nil
}

// CreatePayment records an incoming payment. A payment arriving with a
// lease reference is allocated immediately and receives a receipt number.
func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	if input.ExternalId != "" {
		count, err := utils.ResourceCountWhere[Payment](ctx, input.PropertyId, "external_id = ?", input.ExternalId)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("duplicate external payment id")
		}
	}

	payment := Payment{
		PropertyId:      input.PropertyId,
		LeaseId:         input.LeaseId,
		InvoiceId:       input.InvoiceId,
		Amount:          input.Amount,
		Method:          input.Method,
		Status:          PaymentStatusUnallocated,
		PaymentDate:     input.PaymentDate,
		ReferenceNumber: input.ReferenceNumber,
		PayerName:       input.PayerName,
		PayerPhone:      input.PayerPhone,
		ExternalId:      input.ExternalId,
		Notes:           input.Notes,
	}
	if payment.Method == "" {
		payment.Method = PaymentMethodCash
	}
	if input.LeaseId != nil {
		receiptNumber, err := NextReceiptNumber(ctx, input.PropertyId)
		if err != nil {
			return nil, err
		}
		payment.Status = PaymentStatusAllocated
		payment.ReceiptNumber = receiptNumber
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// SavePaymentAllocation persists an allocation decision in one
// transaction. Callers hand in a payment already carrying its lease,
// invoice, status and receipt number.
func SavePaymentAllocation(ctx context.Context, payment *Payment) error {

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&Payment{}).Where("id = ?", payment.Id).
		Updates(map[string]interface{}{
			"lease_id":       payment.LeaseId,
			"invoice_id":     payment.InvoiceId,
			"status":         payment.Status,
			"receipt_number": payment.ReceiptNumber,
		}).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func GetPaymentById(ctx context.Context, id string) (*Payment, error) {
	return utils.FetchSingleModel[Payment](ctx, id)
}

func GetPaymentByExternalId(ctx context.Context, externalId string) (*Payment, error) {

	db := config.GetDB()
	var payment Payment
	err := db.WithContext(ctx).Where("external_id = ?", externalId).First(&payment).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &payment, nil
}

func GetPayments(ctx context.Context, propertyId string, leaseId string, status PaymentStatus) ([]*Payment, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if propertyId != "" {
		dbCtx = dbCtx.Where("property_id = ?", propertyId)
	}
	if leaseId != "" {
		dbCtx = dbCtx.Where("lease_id = ?", leaseId)
	}
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	var payments []*Payment
	if err := dbCtx.Order("payment_date DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
