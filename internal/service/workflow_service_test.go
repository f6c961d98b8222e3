package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/internal/repository"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

var (
	fixedNow  = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	admin     = models.Actor{UserID: "u-admin", Role: models.RoleAdmin}
	manager   = models.Actor{UserID: "u-manager", Role: models.RoleManager}
	collector = models.Actor{UserID: "u-collector", Role: models.RoleCollector}
	tenant    = models.Actor{UserID: "u-tenant", Role: models.RoleTenant}
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.WorkflowEvent
	err    error
}

func (r *recordingSink) Dispatch(_ context.Context, events ...models.WorkflowEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.err
}

func (r *recordingSink) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type failingSaveStore struct {
	*repository.MemorySnapshotStore
	err error
}

func (f *failingSaveStore) Save(context.Context, *models.Snapshot) error { return f.err }

// seedSnapshot: location l1 with vacant h1 and h2 occupied by t1.
func seedSnapshot() *models.Snapshot {
	s := models.NewSnapshot()
	s.Locations = []models.Location{{ID: "l1", Name: "North"}}
	s.Houses = []models.House{
		{ID: "h1", LocationID: "l1", Name: "H1", RentAmount: 500, Status: models.HouseStatusVacant},
		{ID: "h2", LocationID: "l1", Name: "H2", RentAmount: 650, Status: models.HouseStatusOccupied, TenantID: "t1"},
	}
	s.Tenants = []models.Tenant{{ID: "t1", HouseID: "h2", Name: "Tina", LeaseStartDate: fixedNow.AddDate(-1, 0, 0)}}
	return s
}

func newWorkflowFixture(t *testing.T) (*WorkflowService, *repository.MemorySnapshotStore, *recordingSink) {
	t.Helper()
	store := repository.NewMemorySnapshotStore(seedSnapshot())
	sink := &recordingSink{}
	svc := NewWorkflowService(store, nil, sink, NewMetricsService(), nil, nil)
	svc.now = func() time.Time { return fixedNow }
	var n int
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	require.NoError(t, svc.Init(context.Background()))
	return svc, store, sink
}

func loadState(t *testing.T, store *repository.MemorySnapshotStore) *models.Snapshot {
	t.Helper()
	s, err := store.Load(context.Background())
	require.NoError(t, err)
	return s
}

func findHouse(t *testing.T, houses []models.House, id string) models.House {
	t.Helper()
	for _, h := range houses {
		if h.ID == id {
			return h
		}
	}
	t.Fatalf("house %s not found", id)
	return models.House{}
}

func findTenant(t *testing.T, tenants []models.Tenant, id string) models.Tenant {
	t.Helper()
	for _, tn := range tenants {
		if tn.ID == id {
			return tn
		}
	}
	t.Fatalf("tenant %s not found", id)
	return models.Tenant{}
}

func TestLeaseScenarioOccupiesVacantHouse(t *testing.T) {
	svc, store, sink := newWorkflowFixture(t)
	ctx := context.Background()

	r1, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "A"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, r1.Status)
	assert.Equal(t, "u-tenant", r1.SubmittedBy)

	result, err := svc.ApproveLeaseRequest(ctx, manager, r1.ID, dto.ReviewRequest{Note: "welcome"})
	require.NoError(t, err)

	h1 := findHouse(t, result.Houses, "h1")
	assert.Equal(t, models.HouseStatusOccupied, h1.Status)
	require.Len(t, result.Tenants, 2)
	created := result.Tenants[1]
	assert.Equal(t, "A", created.Name)
	assert.Equal(t, "h1", created.HouseID)
	assert.Equal(t, created.ID, h1.TenantID)
	assert.Equal(t, r1.ID, created.LeaseRequestID)

	require.Len(t, result.LeaseRequests, 1)
	approved := result.LeaseRequests[0]
	assert.Equal(t, models.RequestStatusApproved, approved.Status)
	assert.Equal(t, created.ID, approved.TenantID)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "u-manager", *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewNote)
	assert.Equal(t, "welcome", *approved.ReviewNote)

	stored := loadState(t, store)
	assert.NoError(t, stored.CheckInvariants())
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, []models.EventType{models.EventLeaseRequested, models.EventLeaseApproved}, sink.types())
	assert.Equal(t, int64(2), sink.events[1].Version)
	assert.Equal(t, "u-manager", sink.events[1].ActorID)
}

func TestSubmitLeaseRequestUnknownHouse(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	_, err := svc.SubmitLeaseRequest(context.Background(), tenant, dto.SubmitLeaseRequest{HouseID: "nope", ApplicantName: "A"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)
	assert.Equal(t, int64(0), loadState(t, store).Version)
}

func TestSubmitLeaseRequestValidation(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	_, err := svc.SubmitLeaseRequest(context.Background(), tenant, dto.SubmitLeaseRequest{HouseID: "h1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCompetingLeaseRequestsFirstApprovalWins(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	r1, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "A"})
	require.NoError(t, err)
	r2, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "B"})
	require.NoError(t, err)

	_, err = svc.ApproveLeaseRequest(ctx, admin, r1.ID, dto.ReviewRequest{})
	require.NoError(t, err)
	before := loadState(t, store)

	_, err = svc.ApproveLeaseRequest(ctx, admin, r2.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrHouseNotVacant)

	after := loadState(t, store)
	assert.Equal(t, before, after)
	assert.Equal(t, models.RequestStatusPending, after.LeaseRequests[after.LeaseRequestIndex(r2.ID)].Status)

	_, err = svc.RejectLeaseRequest(ctx, manager, r2.ID, dto.ReviewRequest{Note: "house taken"})
	require.NoError(t, err)
}

func TestApproveLeaseRequestGuards(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.ApproveLeaseRequest(ctx, manager, "missing", dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	r1, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "A"})
	require.NoError(t, err)

	_, err = svc.ApproveLeaseRequest(ctx, collector, r1.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ApproveLeaseRequest(ctx, models.Actor{}, r1.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.RejectLeaseRequest(ctx, manager, r1.ID, dto.ReviewRequest{})
	require.NoError(t, err)

	_, err = svc.ApproveLeaseRequest(ctx, manager, r1.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)
	_, err = svc.RejectLeaseRequest(ctx, manager, r1.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)
}

func TestRejectLeaseRequestChangesOnlyTheRequest(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	r1, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "A"})
	require.NoError(t, err)
	before := loadState(t, store)

	requests, err := svc.RejectLeaseRequest(ctx, manager, r1.ID, dto.ReviewRequest{})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, models.RequestStatusRejected, requests[0].Status)

	after := loadState(t, store)
	assert.Equal(t, before.Houses, after.Houses)
	assert.Equal(t, before.Tenants, after.Tenants)
	assert.Equal(t, before.Payments, after.Payments)
	assert.Equal(t, before.Locations, after.Locations)
	assert.Nil(t, after.LeaseRequests[0].ReviewNote)
}

func TestVacateScenarioThenPaymentFails(t *testing.T) {
	svc, store, sink := newWorkflowFixture(t)
	ctx := context.Background()

	v1, err := svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "h2", TenantID: "t1", Reason: "moving"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, v1.Status)

	result, err := svc.ApproveVacateRequest(ctx, admin, v1.ID, dto.ReviewRequest{})
	require.NoError(t, err)

	h2 := findHouse(t, result.Houses, "h2")
	assert.Equal(t, models.HouseStatusVacant, h2.Status)
	assert.Empty(t, h2.TenantID)
	t1 := findTenant(t, result.Tenants, "t1")
	assert.Empty(t, t1.HouseID)
	assert.Equal(t, "h2", t1.LastHouseID)
	require.NotNil(t, t1.VacatedAt)
	assert.Equal(t, fixedNow, *t1.VacatedAt)
	assert.Equal(t, models.RequestStatusApproved, result.VacateRequests[0].Status)

	before := loadState(t, store)
	_, err = svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 650})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)
	assert.Equal(t, before, loadState(t, store))
	assert.Contains(t, sink.types(), models.EventVacateApproved)
}

func TestSubmitVacateRequestRequiresCurrentOccupant(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "h1", TenantID: "t1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)

	_, err = svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "h2", TenantID: "someone-else"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)

	_, err = svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "missing", TenantID: "t1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)
}

func TestApproveVacateRequestAfterHouseChanged(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	v1, err := svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "h2", TenantID: "t1"})
	require.NoError(t, err)
	v2, err := svc.SubmitVacateRequest(ctx, manager, dto.SubmitVacateRequest{HouseID: "h2", TenantID: "t1"})
	require.NoError(t, err)

	_, err = svc.ApproveVacateRequest(ctx, manager, v1.ID, dto.ReviewRequest{})
	require.NoError(t, err)

	_, err = svc.ApproveVacateRequest(ctx, manager, v2.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrHouseNotOccupied)

	vacates, err := svc.RejectVacateRequest(ctx, manager, v2.ID, dto.ReviewRequest{Note: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, vacates[1].Status)

	_, err = svc.RejectVacateRequest(ctx, manager, v2.ID, dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)
	_, err = svc.ApproveVacateRequest(ctx, manager, "missing", dto.ReviewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, loadState(t, store).CheckInvariants())
}

func TestAddPaymentLeavesHousesAndTenantsUntouched(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()
	before := loadState(t, store)

	receipt, err := svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 650, Method: models.PaymentMethodTransfer})
	require.NoError(t, err)
	assert.Equal(t, 650.0, receipt.Payment.Amount)
	assert.Equal(t, fixedNow, receipt.Payment.Date)
	assert.Equal(t, "u-collector", receipt.Payment.RecordedBy)
	assert.Equal(t, before.Houses, receipt.Houses)

	after := loadState(t, store)
	assert.Equal(t, before.Houses, after.Houses)
	assert.Equal(t, before.Tenants, after.Tenants)
	require.Len(t, after.Payments, 1)
	assert.Equal(t, models.PaymentMethodTransfer, after.Payments[0].Method)
}

func TestAddPaymentGuards(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 0})
	assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)

	_, err = svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h1", TenantID: "t1", Amount: 10})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)

	_, err = svc.AddPayment(ctx, tenant, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 10})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 10, Method: "CHEQUE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Equal(t, int64(0), loadState(t, store).Version)
}

func TestAddCashHandover(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.AddCashHandover(ctx, collector, dto.AddCashHandoverRequest{Amount: -5})
	assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)
	assert.Equal(t, int64(0), loadState(t, store).Version)
	assert.Empty(t, loadState(t, store).Handovers)

	handover, err := svc.AddCashHandover(ctx, collector, dto.AddCashHandoverRequest{Amount: 1200, ReceivedBy: "u-manager"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, handover.Timestamp)
	assert.Equal(t, "u-collector", handover.HandedOverBy)

	handovers, err := svc.ListHandovers(ctx)
	require.NoError(t, err)
	require.Len(t, handovers, 1)
	assert.Equal(t, handover.ID, handovers[0].ID)
}

func TestListPaymentsFilters(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 100})
	require.NoError(t, err)
	r1, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "A"})
	require.NoError(t, err)
	approval, err := svc.ApproveLeaseRequest(ctx, manager, r1.ID, dto.ReviewRequest{})
	require.NoError(t, err)
	newTenant := findHouse(t, approval.Houses, "h1").TenantID
	_, err = svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h1", TenantID: newTenant, Amount: 200})
	require.NoError(t, err)

	all, err := svc.ListPayments(ctx, models.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	h1, err := svc.ListPayments(ctx, models.PaymentFilter{HouseID: "h1"})
	require.NoError(t, err)
	require.Len(t, h1, 1)
	assert.Equal(t, 200.0, h1[0].Amount)

	none, err := svc.ListPayments(ctx, models.PaymentFilter{HouseID: "h1", TenantID: "t1"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocationAdministration(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.DeleteLocation(ctx, admin, "l1")
	assert.ErrorIs(t, err, appErrors.ErrHasDependents)

	locations, err := svc.AddLocation(ctx, admin, dto.LocationRequest{Name: " South "})
	require.NoError(t, err)
	require.Len(t, locations, 2)
	south := locations[1]
	assert.Equal(t, "South", south.Name)

	locations, err = svc.UpdateLocation(ctx, admin, south.ID, dto.LocationRequest{Name: "South Side"})
	require.NoError(t, err)
	assert.Equal(t, "South Side", locations[1].Name)

	locations, err = svc.DeleteLocation(ctx, admin, south.ID)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "l1", locations[0].ID)

	_, err = svc.DeleteLocation(ctx, admin, south.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.UpdateLocation(ctx, admin, "missing", dto.LocationRequest{Name: "x"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.AddLocation(ctx, manager, dto.LocationRequest{Name: "East"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	assert.Len(t, loadState(t, store).Locations, 1)
}

func TestHouseAdministration(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.AddHouse(ctx, admin, dto.AddHouseRequest{LocationID: "missing", Name: "H3", RentAmount: 400})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)
	_, err = svc.AddHouse(ctx, admin, dto.AddHouseRequest{LocationID: "l1", Name: "H3", RentAmount: 0})
	assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)

	houses, err := svc.AddHouse(ctx, admin, dto.AddHouseRequest{LocationID: "l1", Name: "H3", RentAmount: 400})
	require.NoError(t, err)
	h3 := houses[2]
	assert.Equal(t, models.HouseStatusVacant, h3.Status)

	houses, err = svc.UpdateHouse(ctx, admin, "h2", dto.UpdateHouseRequest{LocationID: "l1", Name: "H2 renamed", RentAmount: 700})
	require.NoError(t, err)
	h2 := findHouse(t, houses, "h2")
	assert.Equal(t, "H2 renamed", h2.Name)
	assert.Equal(t, 700.0, h2.RentAmount)
	assert.Equal(t, models.HouseStatusOccupied, h2.Status)
	assert.Equal(t, "t1", h2.TenantID)

	_, err = svc.DeleteHouse(ctx, admin, "h2")
	assert.ErrorIs(t, err, appErrors.ErrHasDependents)

	_, err = svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: "A"})
	require.NoError(t, err)
	_, err = svc.DeleteHouse(ctx, admin, "h1")
	assert.ErrorIs(t, err, appErrors.ErrHasDependents)

	houses, err = svc.DeleteHouse(ctx, admin, h3.ID)
	require.NoError(t, err)
	assert.Len(t, houses, 2)

	_, err = svc.DeleteHouse(ctx, admin, h3.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDeleteHouseWithPaymentHistory(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := svc.AddPayment(ctx, collector, dto.AddPaymentRequest{HouseID: "h2", TenantID: "t1", Amount: 650})
	require.NoError(t, err)
	v1, err := svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "h2", TenantID: "t1"})
	require.NoError(t, err)
	_, err = svc.ApproveVacateRequest(ctx, manager, v1.ID, dto.ReviewRequest{})
	require.NoError(t, err)

	_, err = svc.DeleteHouse(ctx, admin, "h2")
	assert.ErrorIs(t, err, appErrors.ErrHasDependents)
}

func TestStaleSaveReturnsConflict(t *testing.T) {
	store := &failingSaveStore{MemorySnapshotStore: repository.NewMemorySnapshotStore(seedSnapshot()), err: repository.ErrStaleSnapshot}
	sink := &recordingSink{}
	svc := NewWorkflowService(store, nil, sink, nil, nil, nil)

	_, err := svc.AddCashHandover(context.Background(), collector, dto.AddCashHandoverRequest{Amount: 10})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, sink.types())
}

func TestSaveFailureLeavesStoreUnchanged(t *testing.T) {
	store := &failingSaveStore{MemorySnapshotStore: repository.NewMemorySnapshotStore(seedSnapshot()), err: errors.New("disk full")}
	svc := NewWorkflowService(store, nil, nil, nil, nil, nil)

	_, err := svc.AddLocation(context.Background(), admin, dto.LocationRequest{Name: "East"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	s, loadErr := store.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Len(t, s.Locations, 1)
}

func TestInitRejectsInconsistentStore(t *testing.T) {
	broken := seedSnapshot()
	broken.Houses[0].Status = models.HouseStatusOccupied
	svc := NewWorkflowService(repository.NewMemorySnapshotStore(broken), nil, nil, nil, nil, nil)
	assert.ErrorIs(t, svc.Init(context.Background()), appErrors.ErrInternal)
}

func TestEventDispatchFailureDoesNotFailCommit(t *testing.T) {
	svc, store, sink := newWorkflowFixture(t)
	sink.err = errors.New("queue full")

	_, err := svc.AddCashHandover(context.Background(), collector, dto.AddCashHandoverRequest{Amount: 10})
	require.NoError(t, err)
	assert.Len(t, loadState(t, store).Handovers, 1)
}

type memoryCache struct {
	mu       sync.Mutex
	snapshot *models.Snapshot
	gets     int
}

func (m *memoryCache) Get(context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.snapshot == nil {
		return nil, appErrors.ErrCacheMiss
	}
	return m.snapshot.Clone(), nil
}

func (m *memoryCache) Put(_ context.Context, snapshot *models.Snapshot, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot.Clone()
	return nil
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}

func (m *memoryCache) cached() *models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func TestGetSnapshotCachesUntilCommit(t *testing.T) {
	backend := &memoryCache{}
	metrics := NewMetricsService()
	cache := NewCacheService(backend, metrics, time.Minute, nil)
	svc := NewWorkflowService(repository.NewMemorySnapshotStore(seedSnapshot()), cache, nil, metrics, nil, nil)
	ctx := context.Background()

	first, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Houses, 2)
	require.NotNil(t, backend.cached())

	cached, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Houses[1].TenantID, cached.Houses[1].TenantID)
	assert.Equal(t, 2, backend.gets)

	_, err = svc.AddLocation(ctx, admin, dto.LocationRequest{Name: "East"})
	require.NoError(t, err)
	assert.Nil(t, backend.cached())

	fresh, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh.Locations, 2)
	assert.Equal(t, int64(1), fresh.Version)
}

func TestNilCacheServiceIsDisabled(t *testing.T) {
	var cache *CacheService
	snapshot, hit := cache.Lookup(context.Background())
	assert.False(t, hit)
	assert.Nil(t, snapshot)
	cache.Store(context.Background(), models.NewSnapshot())
	assert.NoError(t, cache.Invalidate(context.Background()))
}

func TestOccupancyInvariantAcrossWorkflow(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := svc.SubmitLeaseRequest(ctx, tenant, dto.SubmitLeaseRequest{HouseID: "h1", ApplicantName: fmt.Sprintf("A%d", i)})
		require.NoError(t, err)
		approval, err := svc.ApproveLeaseRequest(ctx, manager, r.ID, dto.ReviewRequest{})
		require.NoError(t, err)
		occupant := findHouse(t, approval.Houses, "h1").TenantID

		v, err := svc.SubmitVacateRequest(ctx, tenant, dto.SubmitVacateRequest{HouseID: "h1", TenantID: occupant})
		require.NoError(t, err)
		_, err = svc.ApproveVacateRequest(ctx, manager, v.ID, dto.ReviewRequest{})
		require.NoError(t, err)
		require.NoError(t, loadState(t, store).CheckInvariants())
	}

	state := loadState(t, store)
	active := 0
	for _, tn := range state.Tenants {
		if tn.HouseID == "h1" {
			active++
		}
	}
	assert.Equal(t, 0, active)
	assert.Equal(t, models.HouseStatusVacant, findHouse(t, state.Houses, "h1").Status)
	assert.Len(t, state.Tenants, 4)
}
