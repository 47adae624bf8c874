package workflow

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

// fakeAllocationStore serves allocation checks from in-memory maps and
// records what would have been written.
type fakeAllocationStore struct {
	payments     map[string]*models.Payment
	leases       map[string]*models.Lease
	invoiceLease map[string]string
	saved        *models.Payment
	saveCalls    int
}

func (s *fakeAllocationStore) PaymentById(ctx context.Context, id string) (*models.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return payment, nil
}

func (s *fakeAllocationStore) LeaseForProperty(ctx context.Context, propertyId string, leaseId string) (*models.Lease, error) {
	lease, ok := s.leases[leaseId]
	if !ok || lease.PropertyId != propertyId {
		return nil, utils.ErrorRecordNotFound
	}
	return lease, nil
}

func (s *fakeAllocationStore) InvoiceBelongsToLease(ctx context.Context, propertyId string, invoiceId string, leaseId string) (bool, error) {
	return s.invoiceLease[invoiceId] == leaseId, nil
}

func (s *fakeAllocationStore) NextReceiptNumber(ctx context.Context, propertyId string) (string, error) {
	return "RCT-000001", nil
}

func (s *fakeAllocationStore) SaveAllocation(ctx context.Context, payment *models.Payment) error {
	s.saved = payment
	s.saveCalls++
	return nil
}

func allocationFixture() *fakeAllocationStore {
	return &fakeAllocationStore{
		payments: map[string]*models.Payment{
			"pay1": {Id: "pay1", PropertyId: "p1", Amount: d("50000"), Status: models.PaymentStatusUnallocated},
			"pay2": {Id: "pay2", PropertyId: "p1", Amount: d("30000"), Status: models.PaymentStatusAllocated},
		},
		leases: map[string]*models.Lease{
			"l1": {Id: "l1", PropertyId: "p1", UnitId: "u1", TenantId: "t1"},
			"l2": {Id: "l2", PropertyId: "p1", UnitId: "u2", TenantId: "t2"},
		},
		invoiceLease: map[string]string{
			"inv1": "l1",
			"inv2": "l2",
		},
	}
}

func TestAllocateStampsLeaseAndReceipt(t *testing.T) {
	store := allocationFixture()
	invoiceId := "inv1"
	payment, err := allocatePayment(context.Background(), store, AllocationRequest{
		PaymentId: "pay1", LeaseId: "l1", InvoiceId: &invoiceId,
	})
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if payment.Status != models.PaymentStatusAllocated {
		t.Fatalf("status = %s, want Allocated", payment.Status)
	}
	if payment.LeaseId == nil || *payment.LeaseId != "l1" {
		t.Fatalf("lease id not stamped: %+v", payment)
	}
	if payment.InvoiceId == nil || *payment.InvoiceId != "inv1" {
		t.Fatalf("invoice id not stamped: %+v", payment)
	}
	if payment.ReceiptNumber != "RCT-000001" {
		t.Fatalf("receipt number = %q", payment.ReceiptNumber)
	}
	if store.saveCalls != 1 {
		t.Fatalf("save called %d times, want 1", store.saveCalls)
	}
}

// Allocation is one-way: a payment that already carries a lease cannot
// be moved to another one.
func TestAllocateRejectsAlreadyAllocated(t *testing.T) {
	store := allocationFixture()
	_, err := allocatePayment(context.Background(), store, AllocationRequest{PaymentId: "pay2", LeaseId: "l1"})
	if err == nil || err.Error() != "payment is already allocated" {
		t.Fatalf("got %v, want already-allocated rejection", err)
	}
	if store.saveCalls != 0 {
		t.Fatal("rejected allocation must not write")
	}
}

func TestAllocateUnknownLeaseLeavesPaymentUntouched(t *testing.T) {
	store := allocationFixture()
	_, err := allocatePayment(context.Background(), store, AllocationRequest{PaymentId: "pay1", LeaseId: "l404"})
	if err == nil || err.Error() != "lease not found" {
		t.Fatalf("got %v, want lease not found", err)
	}
	if store.saveCalls != 0 {
		t.Fatal("failed allocation must not write")
	}
	if store.payments["pay1"].Status != models.PaymentStatusUnallocated {
		t.Fatal("payment must keep its unallocated state")
	}
}

func TestAllocateRejectsInvoiceOfAnotherLease(t *testing.T) {
	store := allocationFixture()
	invoiceId := "inv2"
	_, err := allocatePayment(context.Background(), store, AllocationRequest{
		PaymentId: "pay1", LeaseId: "l1", InvoiceId: &invoiceId,
	})
	if err == nil || err.Error() != "invoice does not belong to the lease" {
		t.Fatalf("got %v, want invoice-lease mismatch", err)
	}
	if store.saveCalls != 0 {
		t.Fatal("rejected allocation must not write")
	}
}

func TestAllocateRequiresIds(t *testing.T) {
	store := allocationFixture()
	if _, err := allocatePayment(context.Background(), store, AllocationRequest{LeaseId: "l1"}); err == nil {
		t.Fatal("missing payment id must be rejected")
	}
	if _, err := allocatePayment(context.Background(), store, AllocationRequest{PaymentId: "pay1"}); err == nil {
		t.Fatal("missing lease id must be rejected")
	}
}

func TestAllocateSaveFailureSurfaces(t *testing.T) {
	store := allocationFixture()
	saveErr := errors.New("write timeout")
	failing := &failingAllocationStore{fakeAllocationStore: store, err: saveErr}
	if _, err := allocatePayment(context.Background(), failing, AllocationRequest{PaymentId: "pay1", LeaseId: "l1"}); !errors.Is(err, saveErr) {
		t.Fatalf("got %v, want save error surfaced", err)
	}
}

type failingAllocationStore struct {
	*fakeAllocationStore
	err error
}

func (s *failingAllocationStore) SaveAllocation(ctx context.Context, payment *models.Payment) error {
	return s.err
}

func searchFixture() ([]*models.Lease, []*models.Unit, []*models.Tenant) {
	leases := []*models.Lease{
		{Id: "l1", PropertyId: "p1", UnitId: "u1", TenantId: "t1", RentAmount: d("50000")},
		{Id: "l2", PropertyId: "p1", UnitId: "u2", TenantId: "t2", RentAmount: d("30000")},
		{Id: "l3", PropertyId: "p1", UnitId: "u404", TenantId: "t1", RentAmount: d("10000")},
	}
	units := []*models.Unit{
		{Id: "u1", Label: "A1"},
		{Id: "u2", Label: "B2"},
	}
	tenants := []*models.Tenant{
		{Id: "t1", Name: "Amina Odhiambo"},
		{Id: "t2", Name: "Brian Mutua"},
	}
	return leases, units, tenants
}

// A query matching a tenant name in one lease and a unit label in
// another returns both; either field qualifies.
func TestSearchMatchesTenantNameOrUnitLabel(t *testing.T) {
	leases, units, tenants := searchFixture()
	results := SearchLeaseCandidates(leases, units, tenants, "b", 10)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].UnitLabel != "A1" || results[1].UnitLabel != "B2" {
		t.Fatalf("results out of unit label order: %+v", results)
	}
	if results[0].TenantName != "Amina Odhiambo" {
		t.Fatalf("tenant name match missing: %+v", results[0])
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	leases, units, tenants := searchFixture()
	results := SearchLeaseCandidates(leases, units, tenants, "  AMINA ", 10)
	if len(results) != 1 || results[0].LeaseId != "l1" {
		t.Fatalf("got %+v, want lease l1 only", results)
	}
}

func TestSearchSkipsUnresolvableLease(t *testing.T) {
	leases, units, tenants := searchFixture()
	for _, result := range SearchLeaseCandidates(leases, units, tenants, "amina", 10) {
		if result.LeaseId == "l3" {
			t.Fatal("lease without a resolvable unit must not surface")
		}
	}
}

func TestSearchCapsResults(t *testing.T) {
	leases, units, tenants := searchFixture()
	results := SearchLeaseCandidates(leases, units, tenants, "b", 1)
	if len(results) != 1 {
		t.Fatalf("got %d results, want limit of 1", len(results))
	}
}

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	leases, units, tenants := searchFixture()
	if results := SearchLeaseCandidates(leases, units, tenants, "   ", 10); len(results) != 0 {
		t.Fatalf("blank query returned %d results", len(results))
	}
}
