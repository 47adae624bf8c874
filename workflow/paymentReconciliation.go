package workflow

import (
	"context"
	"errors"
	"sort"
	"strings"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

type AllocationRequest struct {
	PaymentId string  `json:"payment_id" binding:"required"`
	LeaseId   string  `json:"lease_id" binding:"required"`
	InvoiceId *string `json:"invoice_id"`
}

// AllocationStore is the persistence seam for payment allocation.
type AllocationStore interface {
	PaymentById(ctx context.Context, id string) (*models.Payment, error)
	LeaseForProperty(ctx context.Context, propertyId string, leaseId string) (*models.Lease, error)
	InvoiceBelongsToLease(ctx context.Context, propertyId string, invoiceId string, leaseId string) (bool, error)
	NextReceiptNumber(ctx context.Context, propertyId string) (string, error)
	SaveAllocation(ctx context.Context, payment *models.Payment) error
}

type dbAllocationStore struct{}

func (dbAllocationStore) PaymentById(ctx context.Context, id string) (*models.Payment, error) {
	return models.GetPaymentById(ctx, id)
}

func (dbAllocationStore) LeaseForProperty(ctx context.Context, propertyId string, leaseId string) (*models.Lease, error) {
	return utils.FetchModel[models.Lease](ctx, propertyId, leaseId)
}

func (dbAllocationStore) InvoiceBelongsToLease(ctx context.Context, propertyId string, invoiceId string, leaseId string) (bool, error) {
	count, err := utils.ResourceCountWhere[models.Invoice](ctx, propertyId, "id = ? AND lease_id = ?", invoiceId, leaseId)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (dbAllocationStore) NextReceiptNumber(ctx context.Context, propertyId string) (string, error) {
	return models.NextReceiptNumber(ctx, propertyId)
}

func (dbAllocationStore) SaveAllocation(ctx context.Context, payment *models.Payment) error {
	return models.SavePaymentAllocation(ctx, payment)
}

// AllocatePayment binds an unallocated payment to a lease, optionally
// to one of the lease's invoices. On failure the payment keeps its
// unallocated state and the caller gets the reason.
func AllocatePayment(ctx context.Context, req AllocationRequest) (*models.Payment, error) {

	payment, err := allocatePayment(ctx, dbAllocationStore{}, req)
	if err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "paymentReconciliation.go", "AllocatePayment", "Allocate", req, err)
		return nil, err
	}
	return payment, nil
}

// allocatePayment enforces the one-way unallocated -> allocated
// transition. Nothing is written until every check passes.
func allocatePayment(ctx context.Context, store AllocationStore, req AllocationRequest) (*models.Payment, error) {

	if req.PaymentId == "" || req.LeaseId == "" {
		return nil, errors.New("payment id and lease id are required")
	}

	payment, err := store.PaymentById(ctx, req.PaymentId)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusAllocated {
		return nil, errors.New("payment is already allocated")
	}

	lease, err := store.LeaseForProperty(ctx, payment.PropertyId, req.LeaseId)
	if err != nil {
		return nil, errors.New("lease not found")
	}
	if req.InvoiceId != nil {
		ok, err := store.InvoiceBelongsToLease(ctx, payment.PropertyId, *req.InvoiceId, req.LeaseId)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("invoice does not belong to the lease")
		}
	}

	receiptNumber, err := store.NextReceiptNumber(ctx, payment.PropertyId)
	if err != nil {
		return nil, err
	}

	allocated := *payment
	allocated.LeaseId = &lease.Id
	allocated.InvoiceId = req.InvoiceId
	allocated.Status = models.PaymentStatusAllocated
	allocated.ReceiptNumber = receiptNumber

	if err := store.SaveAllocation(ctx, &allocated); err != nil {
		return nil, err
	}
	return &allocated, nil
}

// IngestPayment records a payment coming off the external feed.
// Records already seen (by external id) are skipped, not errored, so
// the feed can replay safely.
func IngestPayment(ctx context.Context, input *models.NewPayment) (*models.Payment, bool, error) {

	if input.ExternalId != "" {
		existing, err := models.GetPaymentByExternalId(ctx, input.ExternalId)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, false, err
		}
	}

	payment, err := models.CreatePayment(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return payment, true, nil
}

// SearchLeaseCandidates matches leases by case-insensitive substring
// over tenant name or unit label; a match on either field qualifies.
// Results come back in unit label order, capped at limit.
func SearchLeaseCandidates(leases []*models.Lease, units []*models.Unit, tenants []*models.Tenant, query string, limit int) []*models.LeaseSearchResult {

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	unitById := make(map[string]*models.Unit, len(units))
	for _, unit := range units {
		unitById[unit.Id] = unit
	}
	tenantById := make(map[string]*models.Tenant, len(tenants))
	for _, tenant := range tenants {
		tenantById[tenant.Id] = tenant
	}

	results := make([]*models.LeaseSearchResult, 0)
	for _, lease := range leases {
		unit := unitById[lease.UnitId]
		tenant := tenantById[lease.TenantId]
		if unit == nil || tenant == nil {
			continue
		}
		if !strings.Contains(strings.ToLower(tenant.Name), q) &&
			!strings.Contains(strings.ToLower(unit.Label), q) {
			continue
		}
		results = append(results, &models.LeaseSearchResult{
			LeaseId:    lease.Id,
			UnitId:     unit.Id,
			UnitLabel:  unit.Label,
			TenantId:   tenant.Id,
			TenantName: tenant.Name,
			RentAmount: lease.RentAmount,
			Status:     lease.Status,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UnitLabel < results[j].UnitLabel
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// FindLeaseCandidates backs the allocation UI search box.
func FindLeaseCandidates(ctx context.Context, propertyId string, query string) ([]*models.LeaseSearchResult, error) {

	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is required")
	}
	leases, err := models.GetLeases(ctx, propertyId, "")
	if err != nil {
		return nil, err
	}
	units, err := models.GetUnits(ctx, propertyId, "")
	if err != nil {
		return nil, err
	}
	tenants, err := models.GetTenants(ctx, propertyId)
	if err != nil {
		return nil, err
	}
	return SearchLeaseCandidates(leases, units, tenants, query, config.SearchLimit), nil
}

// InvoicesForLease narrows candidate invoices once a lease is chosen.
func InvoicesForLease(ctx context.Context, propertyId string, leaseId string) ([]*models.Invoice, error) {
	if leaseId == "" {
		return nil, errors.New("lease id is required")
	}
	return models.GetInvoices(ctx, propertyId, leaseId, "")
}
