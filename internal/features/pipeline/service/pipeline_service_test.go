package service

import (
	"context"
	"errors"
	"testing"

	bookingdomain "scan-station/internal/features/booking/domain"
	bookingservice "scan-station/internal/features/booking/service"
	ordersdomain "scan-station/internal/features/orders/domain"
	ordersports "scan-station/internal/features/orders/ports"
	"scan-station/internal/features/pipeline/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPlanStore is an in-memory PlanStore for tests.
type memPlanStore struct {
	plans   map[string]*domain.PackPlan
	saveErr error
}

func newMemPlanStore() *memPlanStore {
	return &memPlanStore{plans: make(map[string]*domain.PackPlan)}
}

func (m *memPlanStore) Load(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	plan, ok := m.plans[orderName]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (m *memPlanStore) Save(ctx context.Context, plan *domain.PackPlan) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.plans[plan.OrderName] = plan
	return nil
}

func (m *memPlanStore) Delete(ctx context.Context, orderName string) error {
	delete(m.plans, orderName)
	return nil
}

func (m *memPlanStore) List(ctx context.Context) ([]*domain.PackPlan, error) {
	var out []*domain.PackPlan
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

// memLedger is an in-memory CompletedLedger.
type memLedger struct {
	entries []domain.CompletedEntry
	pushErr error
}

func (m *memLedger) Push(ctx context.Context, entry domain.CompletedEntry) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.entries = append([]domain.CompletedEntry{entry}, m.entries...)
	return nil
}

func (m *memLedger) List(ctx context.Context) ([]domain.CompletedEntry, error) {
	return m.entries, nil
}

// memNotes is an in-memory NoteStore.
type memNotes struct {
	notes map[string]string
}

func (m *memNotes) Get(ctx context.Context, orderName string) (string, error) {
	return m.notes[orderName], nil
}

func (m *memNotes) Set(ctx context.Context, orderName, text string) error {
	if m.notes == nil {
		m.notes = make(map[string]string)
	}
	m.notes[orderName] = text
	return nil
}

// mockPrinter records print jobs.
type mockPrinter struct {
	jobs []string
	err  error
}

func (m *mockPrinter) Print(ctx context.Context, base64PDF, title string) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, title)
	return nil
}

// mockBooker counts carrier invocations.
type mockBooker struct {
	result *bookingdomain.BookingResult
	err    error
	calls  int
}

func (m *mockBooker) BookShipment(ctx context.Context, req bookingservice.BookingRequest) (*bookingdomain.BookingResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockSink records fulfillment calls.
type mockSink struct {
	result      *ordersports.FulfillmentResult
	createErr   error
	notifyErr   error
	created     [][]ordersports.Shipment
	notifiedIDs []string
}

func (m *mockSink) CreateFulfillment(ctx context.Context, orderGID string, shipments []ordersports.Shipment, tracking ordersports.Tracking) (*ordersports.FulfillmentResult, error) {
	m.created = append(m.created, shipments)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.result, nil
}

func (m *mockSink) NotifyCustomer(ctx context.Context, fulfillmentID string) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notifiedIDs = append(m.notifiedIDs, fulfillmentID)
	return nil
}

// mockSource serves order snapshots for EnsurePlanByName.
type mockSource struct {
	order *ordersdomain.Order
}

func (m *mockSource) FetchOrder(ctx context.Context, name string) (*ordersdomain.Order, error) {
	if m.order == nil {
		return nil, ordersdomain.ErrOrderNotFound
	}
	return m.order, nil
}

func (m *mockSource) FetchOpenOrders(ctx context.Context) ([]ordersdomain.Summary, error) {
	return nil, nil
}

type fixture struct {
	svc     *PipelineService
	plans   *memPlanStore
	ledger  *memLedger
	printer *mockPrinter
	booker  *mockBooker
	sink    *mockSink
}

func newFixture() *fixture {
	f := &fixture{
		plans:   newMemPlanStore(),
		ledger:  &memLedger{},
		printer: &mockPrinter{},
		booker: &mockBooker{
			result: &bookingdomain.BookingResult{
				Waybill:     "SWE100",
				Service:     "RFX",
				ParcelCount: 2,
				Cost:        150,
				LabelPDF:    "JVBERi0=",
			},
		},
		sink: &mockSink{
			result: &ordersports.FulfillmentResult{FulfillmentIDs: []string{"gid://shopify/Fulfillment/1"}},
		},
	}
	f.svc = NewPipelineService(f.plans, f.ledger, &memNotes{}, f.printer, f.booker, f.sink, &mockSource{})
	return f
}

func testOrder() *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:   1,
		GID:  "gid://shopify/Order/1",
		Name: "1013",
		ShipTo: ordersdomain.Address{
			Name:     "Piet Botha",
			Address1: "12 Loop St",
			City:     "Cape Town",
			Province: "Western Cape",
			Postal:   "8001",
		},
		LineItems: []ordersdomain.LineItem{
			{ID: 901, Title: "Widget", Quantity: 2, FulfillableQuantity: 2},
		},
	}
}

// TestCommit_HappyPath verifies the full milestone pass through archive.
func TestCommit_HappyPath(t *testing.T) {
	f := newFixture()

	plan, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 2})

	require.NoError(t, err)
	for _, stage := range []string{
		domain.StagePacked, domain.StageBooked, domain.StagePrinted,
		domain.StageFulfilled, domain.StageNotified, domain.StageArchived,
	} {
		assert.True(t, plan.StageOK(stage), "stage %s should be ok", stage)
	}

	assert.Equal(t, 1, f.booker.calls)
	assert.Equal(t, []string{"Labels SWE100"}, f.printer.jobs)
	assert.Equal(t, []string{"gid://shopify/Fulfillment/1"}, f.sink.notifiedIDs)

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, "1013", entry.Order)
	assert.Equal(t, "SWE100", entry.Waybill)
	assert.Equal(t, "Piet Botha", entry.Customer)
	assert.Equal(t, 2, entry.ParcelCount)

	// Unpacked plan ships full fulfillable quantities as one shipment.
	require.Len(t, f.sink.created, 1)
	require.Len(t, f.sink.created[0], 1)
	assert.Equal(t, int64(901), f.sink.created[0][0].Items[0].LineItemID)
	assert.Equal(t, 2, f.sink.created[0][0].Items[0].Quantity)
}

// TestCommit_BookingFailureReturnsError verifies the booked error propagates
// and later stages never run.
func TestCommit_BookingFailureReturnsError(t *testing.T) {
	f := newFixture()
	f.booker.err = bookingdomain.ErrQuoteFailed

	plan, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, bookingdomain.ErrQuoteFailed)
	assert.Equal(t, domain.StatusErr, plan.Stage(domain.StageBooked).Status)
	assert.Empty(t, plan.Stage(domain.StagePrinted).Status, "print never attempted")
	assert.Empty(t, f.printer.jobs)
	assert.Empty(t, f.sink.created)
}

// TestCommit_BookedGate verifies a booked plan never re-invokes the carrier.
func TestCommit_BookedGate(t *testing.T) {
	f := newFixture()
	order := testOrder()

	plan := domain.NewPackPlan(order)
	plan.BookingData = &bookingdomain.BookingResult{Waybill: "SWE-OLD", Service: "ECO", ParcelCount: 1}
	plan.SetMilestone(domain.StageBooked, domain.StatusOK, "waybill SWE-OLD")
	require.NoError(t, f.plans.Save(context.Background(), plan))

	result, err := f.svc.Commit(context.Background(), order, CommitRequest{ParcelCount: 1})

	require.NoError(t, err)
	assert.Zero(t, f.booker.calls, "carrier must not be re-invoked")
	assert.Equal(t, "SWE-OLD", result.BookingData.Waybill)
	assert.True(t, result.StageOK(domain.StageNotified), "pipeline continues past the gate")
}

// TestCommit_PrintFailureStopsPipeline verifies stop-at-first-error.
func TestCommit_PrintFailureStopsPipeline(t *testing.T) {
	f := newFixture()
	f.printer.err = errors.New("printer offline")

	plan, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})

	require.NoError(t, err, "post-booking stage errors stay in the milestones")
	assert.True(t, plan.StageOK(domain.StageBooked))
	assert.Equal(t, domain.StatusErr, plan.Stage(domain.StagePrinted).Status)
	assert.Empty(t, f.sink.created, "fulfillment never attempted")
	assert.False(t, plan.Archived())
}

// TestCommit_NoCarrierLabelFallsBackToLocal verifies the print stage passes
// without a carrier document.
func TestCommit_NoCarrierLabelFallsBackToLocal(t *testing.T) {
	f := newFixture()
	f.booker.result.LabelPDF = ""

	plan, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})

	require.NoError(t, err)
	assert.True(t, plan.StageOK(domain.StagePrinted))
	assert.Contains(t, plan.Stage(domain.StagePrinted).Message, "local labels")
	assert.Empty(t, f.printer.jobs)
	assert.True(t, plan.Archived())
}

// TestCommit_FulfillmentUserErrors verifies platform rejections stop the pass.
func TestCommit_FulfillmentUserErrors(t *testing.T) {
	f := newFixture()
	f.sink.result = &ordersports.FulfillmentResult{Errors: []string{"box 1: Order is archived"}}

	plan, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusErr, plan.Stage(domain.StageFulfilled).Status)
	assert.Contains(t, plan.Stage(domain.StageFulfilled).Message, "archived")
	assert.Empty(t, plan.Stage(domain.StageNotified).Status)
	assert.False(t, plan.Archived())
}

// TestCommit_NotifyFailureDefersArchive verifies the order stays active until
// notification succeeds.
func TestCommit_NotifyFailureDefersArchive(t *testing.T) {
	f := newFixture()
	f.sink.notifyErr = errors.New("throttled")

	plan, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusErr, plan.Stage(domain.StageNotified).Status)
	assert.False(t, plan.Archived())
	assert.Empty(t, f.ledger.entries)
}

// TestCommit_PackedPlanShipsByBox verifies box allocations become shipments.
func TestCommit_PackedPlanShipsByBox(t *testing.T) {
	f := newFixture()
	order := testOrder()

	plan := domain.NewPackPlan(order)
	plan.Allocate(0, 901, 1)
	plan.Allocate(1, 901, 1)
	require.NoError(t, f.plans.Save(context.Background(), plan))

	result, err := f.svc.Commit(context.Background(), order, CommitRequest{ParcelCount: 2})

	require.NoError(t, err)
	assert.Contains(t, result.Stage(domain.StagePacked).Message, "2 boxes")

	require.Len(t, f.sink.created, 1)
	require.Len(t, f.sink.created[0], 2)
	assert.Equal(t, 1, f.sink.created[0][0].BoxIndex)
	assert.Equal(t, 2, f.sink.created[0][1].BoxIndex)
}

// TestRetryPrint verifies the single-stage retry and its prerequisite.
func TestRetryPrint(t *testing.T) {
	t.Run("succeeds off stored booking data", func(t *testing.T) {
		f := newFixture()
		f.printer.err = errors.New("printer offline")

		_, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})
		require.NoError(t, err)

		f.printer.err = nil
		plan, err := f.svc.RetryPrint(context.Background(), "1013")

		require.NoError(t, err)
		assert.True(t, plan.StageOK(domain.StagePrinted))
		assert.Equal(t, []string{"Labels SWE100"}, f.printer.jobs)
		assert.Equal(t, 1, f.booker.calls, "retry never re-books")
	})

	t.Run("prerequisite missing", func(t *testing.T) {
		f := newFixture()
		plan := domain.NewPackPlan(testOrder())
		require.NoError(t, f.plans.Save(context.Background(), plan))

		_, err := f.svc.RetryPrint(context.Background(), "1013")
		assert.ErrorIs(t, err, domain.ErrPrerequisiteMissing)
	})

	t.Run("unknown plan", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.RetryPrint(context.Background(), "9999")
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})
}

// TestRetryFulfill verifies the fulfillment retry path.
func TestRetryFulfill(t *testing.T) {
	f := newFixture()
	f.sink.createErr = errors.New("platform down")

	_, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})
	require.NoError(t, err)

	f.sink.createErr = nil
	plan, err := f.svc.RetryFulfill(context.Background(), "1013")

	require.NoError(t, err)
	assert.True(t, plan.StageOK(domain.StageFulfilled))
	assert.Equal(t, []string{"gid://shopify/Fulfillment/1"}, plan.FulfillmentIDs)
	assert.Equal(t, 1, f.booker.calls)
}

// TestRetryNotify verifies the notify retry archives on success.
func TestRetryNotify(t *testing.T) {
	t.Run("archives on success", func(t *testing.T) {
		f := newFixture()
		f.sink.notifyErr = errors.New("throttled")

		_, err := f.svc.Commit(context.Background(), testOrder(), CommitRequest{ParcelCount: 1})
		require.NoError(t, err)
		require.Empty(t, f.ledger.entries)

		f.sink.notifyErr = nil
		plan, err := f.svc.RetryNotify(context.Background(), "1013")

		require.NoError(t, err)
		assert.True(t, plan.StageOK(domain.StageNotified))
		assert.True(t, plan.Archived())
		require.Len(t, f.ledger.entries, 1)
	})

	t.Run("prerequisite missing", func(t *testing.T) {
		f := newFixture()
		plan := domain.NewPackPlan(testOrder())
		plan.SetMilestone(domain.StageBooked, domain.StatusOK, "booked")
		require.NoError(t, f.plans.Save(context.Background(), plan))

		_, err := f.svc.RetryNotify(context.Background(), "1013")
		assert.ErrorIs(t, err, domain.ErrPrerequisiteMissing)
	})
}

// TestAllocate verifies allocation persistence and the packed milestone.
func TestAllocate(t *testing.T) {
	f := newFixture()
	plan := domain.NewPackPlan(testOrder())
	require.NoError(t, f.plans.Save(context.Background(), plan))

	updated, err := f.svc.Allocate(context.Background(), "1013", 0, 901, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, updated.Allocated(901))
	assert.True(t, updated.StageOK(domain.StagePacked))

	stored, err := f.plans.Load(context.Background(), "1013")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Allocated(901))
}

// TestActivePlans verifies archived plans drop off the worklist.
func TestActivePlans(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	active := domain.NewPackPlan(testOrder())
	require.NoError(t, f.plans.Save(ctx, active))

	archivedOrder := testOrder()
	archivedOrder.Name = "1014"
	archived := domain.NewPackPlan(archivedOrder)
	archived.SetMilestone(domain.StageArchived, domain.StatusOK, "done")
	require.NoError(t, f.plans.Save(ctx, archived))

	plans, err := f.svc.ActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "1013", plans[0].OrderName)
}

// TestEnsurePlanByName verifies the platform fetch on a plan miss.
func TestEnsurePlanByName(t *testing.T) {
	f := newFixture()
	f.svc.orders = &mockSource{order: testOrder()}

	plan, err := f.svc.EnsurePlanByName(context.Background(), "1013")

	require.NoError(t, err)
	assert.Equal(t, "1013", plan.OrderName)

	_, err = f.plans.Load(context.Background(), "1013")
	assert.NoError(t, err, "plan persisted on creation")
}
