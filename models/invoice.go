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

var ErrDuplicateInvoice = errors.New("an invoice already exists for this lease and issue date")

type Invoice struct {
	Id            string          `gorm:"type:char(36);primary_key" json:"id"`
	PropertyId    string          `gorm:"index;not null" json:"property_id" binding:"required"`
	LeaseId       string          `gorm:"index;not null" json:"lease_id" binding:"required"`
	InvoiceNumber string          `gorm:"size:64;uniqueIndex;not null" json:"invoice_number"`
	Description   string          `gorm:"type:text" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	IssueDate     time.Time       `gorm:"index;not null" json:"issue_date" binding:"required"`
	DueDate       time.Time       `gorm:"not null" json:"due_date"`
	Status        InvoiceStatus   `gorm:"size:20;not null;default:'Draft'" json:"status"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceId" json:"items"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	ensureId(&i.Id)
	return nil
}

type InvoiceItem struct {
	Id          string          `gorm:"type:char(36);primary_key" json:"id"`
	InvoiceId   string          `gorm:"index;not null" json:"invoice_id"`
	ChargeCode  string          `gorm:"size:64;not null" json:"charge_code" binding:"required"`
	Description string          `gorm:"size:255" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	ensureId(&i.Id)
	return nil
}

type NewInvoice struct {
	PropertyId  string           `json:"property_id" binding:"required"`
	LeaseId     string           `json:"lease_id" binding:"required"`
	Description string           `json:"description"`
	IssueDate   time.Time        `json:"issue_date" binding:"required"`
	DueDate     *time.Time       `json:"due_date"`
	Items       []NewInvoiceItem `json:"items" binding:"required"`
}

type NewInvoiceItem struct {
	ChargeCode  string          `json:"charge_code" binding:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (input NewInvoice) validate(ctx context.Context) error {

	if err := utils.ValidateResourceId[Lease](ctx, input.PropertyId, input.LeaseId); err != nil {
		return errors.New("lease not found")
	}
	if len(input.Items) == 0 {
		return errors.New("invoice requires at least one item")
	}
	for _, item := range input.Items {
		if item.UnitPrice.IsNegative() {
			return errors.New("item unit price cannot be negative")
		}
	}

	return nil
}

// CreateInvoice creates a draft invoice with its items in one transaction.
// Amount is always the sum of quantity * unitPrice over the items.
// A non-void invoice for the same lease and issue date blocks the create.
func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	issueDate, err := utils.ConvertToDate(input.IssueDate, "")
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Invoice](ctx, input.PropertyId,
		"lease_id = ? AND issue_date = ? AND status <> ?", input.LeaseId, issueDate, InvoiceStatusVoid)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateInvoice
	}

	amount := decimal.Zero
	items := make([]InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		qty := item.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		amount = amount.Add(qty.Mul(item.UnitPrice))
		items = append(items, InvoiceItem{
			ChargeCode:  item.ChargeCode,
			Description: item.Description,
			Quantity:    qty,
			UnitPrice:   item.UnitPrice,
		})
	}

	dueDate := issueDate
	if input.DueDate != nil {
		dueDate = *input.DueDate
	} else {
		property, err := GetPropertyById(ctx, input.PropertyId)
		if err != nil {
			return nil, err
		}
		dueDate = calculateDueDate(issueDate, property.DueDays)
	}

	lease, err := utils.FetchModel[Lease](ctx, input.PropertyId, input.LeaseId)
	if err != nil {
		return nil, err
	}
	unit, err := utils.FetchSingleModel[Unit](ctx, lease.UnitId)
	if err != nil {
		return nil, err
	}
	invoiceNumber := formatInvoiceNumber(issueDate.Year(), nextDocumentSeq(ctx, "INV", input.PropertyId), unit.Label)

	invoice := Invoice{
		PropertyId:    input.PropertyId,
		LeaseId:       input.LeaseId,
		InvoiceNumber: invoiceNumber,
		Description:   input.Description,
		Amount:        amount,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        InvoiceStatusDraft,
		Items:         items,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &invoice, nil
}

// CreateInvoiceItem appends a line item to an existing draft invoice
// and bumps the invoice amount to match.
func CreateInvoiceItem(ctx context.Context, invoiceId string, input *NewInvoiceItem) (*InvoiceItem, error) {

	invoice, err := utils.FetchSingleModel[Invoice](ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.Status != InvoiceStatusDraft {
		return nil, errors.New("only draft invoices can be modified")
	}
	if input.UnitPrice.IsNegative() {
		return nil, errors.New("item unit price cannot be negative")
	}

	qty := input.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	item := InvoiceItem{
		InvoiceId:   invoiceId,
		ChargeCode:  input.ChargeCode,
		Description: input.Description,
		Quantity:    qty,
		UnitPrice:   input.UnitPrice,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	newAmount := invoice.Amount.Add(qty.Mul(input.UnitPrice))
	if err := tx.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoiceId).
		Update("amount", newAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &item, nil
}

func GetInvoiceById(ctx context.Context, id string) (*Invoice, error) {
	return utils.FetchSingleModel[Invoice](ctx, id, "Items")
}

func GetInvoices(ctx context.Context, propertyId string, leaseId string, status InvoiceStatus) ([]*Invoice, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items")
	if propertyId != "" {
		dbCtx = dbCtx.Where("property_id = ?", propertyId)
	}
	if leaseId != "" {
		dbCtx = dbCtx.Where("lease_id = ?", leaseId)
	}
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	var invoices []*Invoice
	if err := dbCtx.Order("issue_date DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
