package service

import (
	"context"
	"sync"
	"time"

	"scan-station/internal/core/config"
	"scan-station/internal/core/logger"
	ordersdomain "scan-station/internal/features/orders/domain"
	ordersports "scan-station/internal/features/orders/ports"
	pipelinedomain "scan-station/internal/features/pipeline/domain"
	pipelineservice "scan-station/internal/features/pipeline/service"
	"scan-station/internal/features/session/domain"
	"scan-station/internal/features/session/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bookingTimeout bounds an idle-triggered booking pass, which runs without a
// request context.
const bookingTimeout = time.Minute

// Pipeline is the slice of the milestone pipeline the session drives.
type Pipeline interface {
	// EnsurePlan makes sure a pack plan exists for the order.
	EnsurePlan(ctx context.Context, order *ordersdomain.Order) (*pipelinedomain.PackPlan, error)

	// Commit runs the forward milestone sequence. Only a booking failure is
	// returned as an error.
	Commit(ctx context.Context, order *ordersdomain.Order, req pipelineservice.CommitRequest) (*pipelinedomain.PackPlan, error)
}

// SessionService owns the station's single scan session. All state mutation
// funnels through its methods under one mutex; scan events, timer firings and
// manual triggers never run concurrently.
type SessionService struct {
	mu sync.Mutex

	session  domain.Session
	timer    *time.Timer
	timerGen string

	ledger   ports.BookedLedger
	orders   ordersports.OrderSource
	pipeline Pipeline
	idle     time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	ledger ports.BookedLedger,
	orders ordersports.OrderSource,
	pipeline Pipeline,
	booking config.BookingConfig,
) *SessionService {
	return &SessionService{
		ledger:   ledger,
		orders:   orders,
		pipeline: pipeline,
		idle:     time.Duration(booking.IdleMillis) * time.Millisecond,
	}
}

// ScanResult reports the session state after an accepted event, plus the
// booking outcome when the event triggered one.
type ScanResult struct {
	// Session is a snapshot of the session after the event.
	Session domain.Session `json:"session"`
	// Booked is true when this event completed a carrier booking.
	Booked bool `json:"booked"`
	// Order is the booked order reference, set when Booked.
	Order string `json:"order,omitempty"`
	// Waybill is the carrier waybill, set when Booked.
	Waybill string `json:"waybill,omitempty"`
}

// HandleScan consumes one raw scan event. Malformed codes, already-booked
// orders and cross-order scans are rejected with the session unchanged except
// that a cross-order scan cancels the pending idle timer.
func (s *SessionService) HandleScan(ctx context.Context, code string) (*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Armed {
		return nil, domain.ErrBookingInFlight
	}

	parsed, err := domain.ParseScan(code)
	if err != nil {
		return nil, err
	}

	booked, err := s.ledger.Contains(ctx, parsed.OrderRef)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, domain.ErrAlreadyBooked
	}

	if s.session.Active() && s.session.ActiveOrder != parsed.OrderRef {
		// The operator must explicitly reset before switching orders. The
		// pending idle commit is cancelled so the active order cannot book
		// underneath the warning.
		s.cancelTimer()
		return nil, domain.ErrDifferentOrder
	}

	if !s.session.Active() {
		if err := s.startSession(ctx, parsed.OrderRef); err != nil {
			return nil, err
		}
	}

	s.session.AddParcel(parsed.ParcelSeq)

	if n, ok := s.session.Order.ParcelCountFromTag(); ok {
		// Tag-declared count: fill the full range and book without waiting
		// for further scans.
		for seq := 1; seq <= n; seq++ {
			s.session.AddParcel(seq)
		}
		return s.bookLocked(ctx)
	}

	s.armIdleTimer()
	return &ScanResult{Session: s.snapshotLocked()}, nil
}

// BookNow is the explicit operator booking trigger. When no expected count is
// declared, the accumulated scan count becomes the manual count; the scanned
// count must then exactly match the expected count.
func (s *SessionService) BookNow(ctx context.Context) (*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Armed {
		return nil, domain.ErrBookingInFlight
	}
	if !s.session.Active() {
		return nil, domain.ErrNoActiveSession
	}

	s.cancelTimer()

	if _, ok := s.session.ExpectedCount(); !ok {
		s.session.ManualCount = s.session.ScannedCount()
	}

	expected, _ := s.session.ExpectedCount()
	if s.session.ScannedCount() != expected {
		// Session stays open so the operator can keep scanning.
		return nil, domain.ErrCountMismatch
	}

	return s.bookLocked(ctx)
}

// Reset is the emergency reset: cancels timers and discards all session
// state. The booked ledger and persisted pack plans are untouched.
func (s *SessionService) Reset() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimer()
	s.session = domain.Session{}
	return s.snapshotLocked()
}

// ResetLedger wipes the booked-order ledger. Operator action only.
func (s *SessionService) ResetLedger(ctx context.Context) error {
	return s.ledger.Reset(ctx)
}

// Session returns a snapshot of the current session.
func (s *SessionService) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetOverrides pins the carrier place code and service for the active
// session's booking.
func (s *SessionService) SetOverrides(placeCode *int, service string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Active() {
		return domain.Session{}, domain.ErrNoActiveSession
	}

	s.session.PlaceCodeOverride = placeCode
	s.session.ServiceOverride = service
	return s.snapshotLocked(), nil
}

// SetParcelCount declares the operator's manual parcel count for the active
// session. A tag-declared count still takes priority.
func (s *SessionService) SetParcelCount(count int) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Active() {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	if count < 1 {
		return domain.Session{}, domain.ErrCountMismatch
	}

	s.session.ManualCount = count
	return s.snapshotLocked(), nil
}

// startSession fetches the order snapshot and transitions to scanning. The
// pack plan is ensured up front so the dispatch board shows the order as soon
// as scanning starts.
func (s *SessionService) startSession(ctx context.Context, orderRef string) error {
	order, err := s.orders.FetchOrder(ctx, orderRef)
	if err != nil {
		return err
	}

	s.session = domain.Session{
		ActiveOrder: orderRef,
		Order:       order,
		Parcels:     make(map[int]bool),
		Generation:  uuid.NewString(),
	}

	if _, err := s.pipeline.EnsurePlan(ctx, order); err != nil {
		logger.Get().Warn("Failed to ensure pack plan at session start",
			zap.String("order", orderRef),
			zap.Error(err),
		)
	}

	logger.Get().Info("Scan session started",
		zap.String("order", orderRef),
	)
	return nil
}

// bookLocked runs the booking pass under the held mutex. On success the order
// lands in the booked ledger and the session resets to idle; on failure the
// armed guard is released and the session stays intact for a retry.
func (s *SessionService) bookLocked(ctx context.Context) (*ScanResult, error) {
	s.cancelTimer()
	s.session.Armed = true

	count, ok := s.session.ExpectedCount()
	if !ok {
		count = s.session.ScannedCount()
	}

	plan, err := s.pipeline.Commit(ctx, s.session.Order, pipelineservice.CommitRequest{
		ParcelCount:       count,
		PlaceCodeOverride: s.session.PlaceCodeOverride,
		ServiceOverride:   s.session.ServiceOverride,
	})
	if err != nil {
		s.session.Armed = false
		return nil, err
	}

	orderRef := s.session.ActiveOrder
	if err := s.ledger.Add(ctx, orderRef); err != nil {
		// The carrier accepted the booking but the ledger write failed. The
		// plan's booked milestone remains the second line of defense against
		// a duplicate booking.
		logger.Get().Error("Failed to record booked order in ledger",
			zap.String("order", orderRef),
			zap.Error(err),
		)
	}

	waybill := ""
	if plan.BookingData != nil {
		waybill = plan.BookingData.Waybill
	}

	logger.Get().Info("Booking completed",
		zap.String("order", orderRef),
		zap.String("waybill", waybill),
		zap.Int("parcels", count),
	)

	s.session = domain.Session{}
	return &ScanResult{
		Session: s.snapshotLocked(),
		Booked:  true,
		Order:   orderRef,
		Waybill: waybill,
	}, nil
}

// armIdleTimer schedules the idle auto-commit, replacing any pending one. The
// scheduled task is keyed by generation; a firing whose generation no longer
// matches is stale and must not touch the session.
func (s *SessionService) armIdleTimer() {
	s.cancelTimer()

	gen := uuid.NewString()
	s.timerGen = gen
	s.session.IdleDeadline = time.Now().Add(s.idle)
	s.timer = time.AfterFunc(s.idle, func() {
		s.idleCommit(gen)
	})
}

// idleCommit is the scheduled auto-commit. The accumulated scan count becomes
// the manual parcel count and booking fires as if the operator had pressed
// book.
func (s *SessionService) idleCommit(gen string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.timerGen || !s.session.Active() || s.session.Armed {
		return
	}

	// The accumulator is the source of truth on an idle fire: whatever count
	// was declared earlier, only the parcels actually scanned get booked.
	s.session.ManualCount = s.session.ScannedCount()

	ctx, cancel := context.WithTimeout(context.Background(), bookingTimeout)
	defer cancel()

	if _, err := s.bookLocked(ctx); err != nil {
		logger.Get().Warn("Idle auto-commit booking failed",
			zap.String("order", s.session.ActiveOrder),
			zap.Error(err),
		)
	}
}

// cancelTimer stops any pending idle commit and invalidates its generation.
func (s *SessionService) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen = ""
	s.session.IdleDeadline = time.Time{}
}

// snapshotLocked copies the session so callers never share the parcel set.
func (s *SessionService) snapshotLocked() domain.Session {
	snap := s.session
	if s.session.Parcels != nil {
		snap.Parcels = make(map[int]bool, len(s.session.Parcels))
		for seq := range s.session.Parcels {
			snap.Parcels[seq] = true
		}
	}
	return snap
}
