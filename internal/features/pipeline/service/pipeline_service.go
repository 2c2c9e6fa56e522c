package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scan-station/internal/core/logger"
	bookingdomain "scan-station/internal/features/booking/domain"
	bookingservice "scan-station/internal/features/booking/service"
	ordersdomain "scan-station/internal/features/orders/domain"
	ordersports "scan-station/internal/features/orders/ports"
	"scan-station/internal/features/pipeline/domain"
	"scan-station/internal/features/pipeline/ports"

	"go.uber.org/zap"
)

// trackingCompany is the carrier name shown on platform tracking info.
const trackingCompany = "SWE / ParcelPerfect"

// Booker runs the carrier booking workflow.
type Booker interface {
	BookShipment(ctx context.Context, req bookingservice.BookingRequest) (*bookingdomain.BookingResult, error)
}

// PipelineService drives pack plans through the milestone sequence and owns
// their persistence.
type PipelineService struct {
	plans     ports.PlanStore
	completed ports.CompletedLedger
	notes     ports.NoteStore
	printer   ports.DocumentPrinter
	booker    Booker
	sink      ordersports.FulfillmentSink
	orders    ordersports.OrderSource
}

// NewPipelineService creates a new instance of PipelineService.
func NewPipelineService(
	plans ports.PlanStore,
	completed ports.CompletedLedger,
	notes ports.NoteStore,
	printer ports.DocumentPrinter,
	booker Booker,
	sink ordersports.FulfillmentSink,
	orders ordersports.OrderSource,
) *PipelineService {
	return &PipelineService{
		plans:     plans,
		completed: completed,
		notes:     notes,
		printer:   printer,
		booker:    booker,
		sink:      sink,
		orders:    orders,
	}
}

// CommitRequest carries the booking inputs for a pipeline commit.
type CommitRequest struct {
	// ParcelCount is the number of boxes to book.
	ParcelCount int
	// PlaceCodeOverride pins the carrier routing code.
	PlaceCodeOverride *int
	// ServiceOverride pins the carrier service code.
	ServiceOverride string
}

// EnsurePlan loads the plan for an order, creating and persisting one from
// the snapshot when none exists.
func (s *PipelineService) EnsurePlan(ctx context.Context, order *ordersdomain.Order) (*domain.PackPlan, error) {
	plan, err := s.plans.Load(ctx, order.Name)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, domain.ErrPlanNotFound) {
		return nil, err
	}

	plan = domain.NewPackPlan(order)
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// EnsurePlanByName is EnsurePlan with a platform fetch when the plan does not
// exist yet.
func (s *PipelineService) EnsurePlanByName(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	plan, err := s.plans.Load(ctx, orderName)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, domain.ErrPlanNotFound) {
		return nil, err
	}

	order, err := s.orders.FetchOrder(ctx, orderName)
	if err != nil {
		return nil, err
	}
	return s.EnsurePlan(ctx, order)
}

// Commit advances a plan through booked, printed, fulfilled and notified in
// one pass, stopping at the first stage that errors. Only a booking failure
// is returned to the caller; later stage errors live in the milestones and
// surface through per-stage retries. A plan whose booked milestone is ok
// never re-invokes the carrier.
func (s *PipelineService) Commit(ctx context.Context, order *ordersdomain.Order, req CommitRequest) (*domain.PackPlan, error) {
	plan, err := s.EnsurePlan(ctx, order)
	if err != nil {
		return nil, err
	}

	if plan.Packed() {
		plan.SetMilestone(domain.StagePacked, domain.StatusOK,
			fmt.Sprintf("%d boxes packed", plan.BoxCount()))
	} else {
		plan.SetMilestone(domain.StagePacked, domain.StatusOK,
			"no box plan, shipping full quantities")
	}

	if !plan.StageOK(domain.StageBooked) {
		if err := s.runBooking(ctx, order, plan, req); err != nil {
			return plan, err
		}
	}

	if !s.runPrint(ctx, plan) {
		return plan, nil
	}
	if !s.runFulfill(ctx, plan) {
		return plan, nil
	}
	if !s.runNotify(ctx, plan) {
		return plan, nil
	}

	s.archive(ctx, plan)
	return plan, nil
}

// runBooking executes the carrier workflow and records the booked milestone.
// The plan is saved before and after the carrier call so a crash mid-booking
// leaves a visible pending record.
func (s *PipelineService) runBooking(ctx context.Context, order *ordersdomain.Order, plan *domain.PackPlan, req CommitRequest) error {
	plan.SetMilestone(domain.StageBooked, domain.StatusPending, "requesting carrier booking")
	if err := s.plans.Save(ctx, plan); err != nil {
		return err
	}

	result, err := s.booker.BookShipment(ctx, bookingservice.BookingRequest{
		OrderName: order.Name,
		Destination: bookingdomain.Destination{
			Name:          order.ShipTo.Name,
			Address1:      order.ShipTo.Address1,
			Address2:      order.ShipTo.Address2,
			City:          order.ShipTo.City,
			Province:      order.ShipTo.Province,
			Postal:        order.ShipTo.Postal,
			Phone:         order.ShipTo.Phone,
			Email:         order.ShipTo.Email,
			PlaceCode:     order.PlaceCode,
			TotalWeightKg: order.TotalWeightKg(),
		},
		ParcelCount:       req.ParcelCount,
		PlaceCodeOverride: req.PlaceCodeOverride,
		ServiceOverride:   req.ServiceOverride,
	})
	if err != nil {
		plan.SetMilestone(domain.StageBooked, domain.StatusErr, err.Error())
		s.saveOrWarn(ctx, plan)
		return err
	}

	plan.BookingData = result

	msg := fmt.Sprintf("waybill %s via %s, %d parcels, R%.2f",
		result.Waybill, result.Service, result.ParcelCount, result.Cost)
	if result.WaybillSynthesized {
		msg += " (waybill synthesized, verify with carrier)"
	}
	plan.SetMilestone(domain.StageBooked, domain.StatusOK, msg)
	return s.plans.Save(ctx, plan)
}

// runPrint executes the label print stage. Returns false when the stage
// recorded an error.
func (s *PipelineService) runPrint(ctx context.Context, plan *domain.PackPlan) bool {
	plan.SetMilestone(domain.StagePrinted, domain.StatusPending, "printing labels")
	s.saveOrWarn(ctx, plan)

	data := plan.BookingData
	if data == nil {
		plan.SetMilestone(domain.StagePrinted, domain.StatusErr, "no booking data")
		s.saveOrWarn(ctx, plan)
		return false
	}

	if data.LabelPDF == "" {
		// The carrier returned no document. Locally rendered barcode labels
		// remain available through the labels endpoint.
		plan.SetMilestone(domain.StagePrinted, domain.StatusOK,
			"no carrier label document, local labels available")
		s.saveOrWarn(ctx, plan)
		return true
	}

	if err := s.printer.Print(ctx, data.LabelPDF, "Labels "+data.Waybill); err != nil {
		plan.SetMilestone(domain.StagePrinted, domain.StatusErr, err.Error())
		s.saveOrWarn(ctx, plan)
		return false
	}

	if data.WaybillPDF != "" {
		// The waybill document is a nice-to-have; its failure never blocks
		// the pipeline.
		if err := s.printer.Print(ctx, data.WaybillPDF, "Waybill "+data.Waybill); err != nil {
			logger.Get().Warn("Waybill document print failed",
				zap.String("order", plan.OrderName),
				zap.Error(err),
			)
		}
	}

	plan.SetMilestone(domain.StagePrinted, domain.StatusOK, "labels sent to printer")
	s.saveOrWarn(ctx, plan)
	return true
}

// runFulfill executes the platform fulfillment stage.
func (s *PipelineService) runFulfill(ctx context.Context, plan *domain.PackPlan) bool {
	plan.SetMilestone(domain.StageFulfilled, domain.StatusPending, "creating fulfillment")
	s.saveOrWarn(ctx, plan)

	data := plan.BookingData
	if data == nil {
		plan.SetMilestone(domain.StageFulfilled, domain.StatusErr, "no booking data")
		s.saveOrWarn(ctx, plan)
		return false
	}

	result, err := s.sink.CreateFulfillment(ctx, plan.OrderGID, shipmentsFromPlan(plan), ordersports.Tracking{
		Number:  data.Waybill,
		Company: trackingCompany,
	})
	if err != nil {
		plan.SetMilestone(domain.StageFulfilled, domain.StatusErr, err.Error())
		s.saveOrWarn(ctx, plan)
		return false
	}
	if len(result.Errors) > 0 {
		plan.SetMilestone(domain.StageFulfilled, domain.StatusErr, strings.Join(result.Errors, "; "))
		s.saveOrWarn(ctx, plan)
		return false
	}

	plan.FulfillmentIDs = result.FulfillmentIDs
	plan.SetMilestone(domain.StageFulfilled, domain.StatusOK,
		fmt.Sprintf("%d fulfillment(s) created", len(result.FulfillmentIDs)))
	s.saveOrWarn(ctx, plan)
	return true
}

// runNotify executes the customer notification stage.
func (s *PipelineService) runNotify(ctx context.Context, plan *domain.PackPlan) bool {
	plan.SetMilestone(domain.StageNotified, domain.StatusPending, "notifying customer")
	s.saveOrWarn(ctx, plan)

	if len(plan.FulfillmentIDs) == 0 {
		plan.SetMilestone(domain.StageNotified, domain.StatusErr, "no fulfillment references")
		s.saveOrWarn(ctx, plan)
		return false
	}

	var failures []string
	for _, id := range plan.FulfillmentIDs {
		if err := s.sink.NotifyCustomer(ctx, id); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		plan.SetMilestone(domain.StageNotified, domain.StatusErr, strings.Join(failures, "; "))
		s.saveOrWarn(ctx, plan)
		return false
	}

	plan.SetMilestone(domain.StageNotified, domain.StatusOK, "customer notified")
	s.saveOrWarn(ctx, plan)
	return true
}

// archive moves a finished plan into the completed ledger.
func (s *PipelineService) archive(ctx context.Context, plan *domain.PackPlan) {
	entry := domain.CompletedEntry{
		Date:     plan.Stage(domain.StageNotified).Timestamp,
		Order:    plan.OrderName,
		Customer: plan.Customer,
		ShipTo:   plan.ShipToSummary,
	}
	if data := plan.BookingData; data != nil {
		entry.Waybill = data.Waybill
		entry.Service = data.Service
		entry.ParcelCount = data.ParcelCount
	}

	if err := s.completed.Push(ctx, entry); err != nil {
		plan.SetMilestone(domain.StageArchived, domain.StatusErr, err.Error())
		s.saveOrWarn(ctx, plan)
		return
	}

	plan.SetMilestone(domain.StageArchived, domain.StatusOK, "moved to completed ledger")
	s.saveOrWarn(ctx, plan)

	logger.Get().Info("Order archived",
		zap.String("order", plan.OrderName),
		zap.String("waybill", entry.Waybill),
	)
}

// RetryPrint re-attempts the print stage off stored booking data.
func (s *PipelineService) RetryPrint(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	plan, err := s.plans.Load(ctx, orderName)
	if err != nil {
		return nil, err
	}
	if !plan.StageOK(domain.StageBooked) {
		return nil, fmt.Errorf("%w: print retry requires a successful booking", domain.ErrPrerequisiteMissing)
	}

	s.runPrint(ctx, plan)
	return plan, nil
}

// RetryFulfill re-attempts the fulfillment stage off stored booking data.
func (s *PipelineService) RetryFulfill(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	plan, err := s.plans.Load(ctx, orderName)
	if err != nil {
		return nil, err
	}
	if !plan.StageOK(domain.StageBooked) {
		return nil, fmt.Errorf("%w: fulfillment retry requires a successful booking", domain.ErrPrerequisiteMissing)
	}

	s.runFulfill(ctx, plan)
	return plan, nil
}

// RetryNotify re-attempts the notification stage off stored fulfillment
// references, archiving on success.
func (s *PipelineService) RetryNotify(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	plan, err := s.plans.Load(ctx, orderName)
	if err != nil {
		return nil, err
	}
	if !plan.StageOK(domain.StageFulfilled) {
		return nil, fmt.Errorf("%w: notify retry requires a successful fulfillment", domain.ErrPrerequisiteMissing)
	}

	if s.runNotify(ctx, plan) && !plan.Archived() {
		s.archive(ctx, plan)
	}
	return plan, nil
}

// Allocate adjusts a box allocation on a plan and persists the result.
func (s *PipelineService) Allocate(ctx context.Context, orderName string, boxIndex int, lineItemID int64, delta int) (*domain.PackPlan, error) {
	plan, err := s.EnsurePlanByName(ctx, orderName)
	if err != nil {
		return nil, err
	}

	plan.Allocate(boxIndex, lineItemID, delta)
	if plan.Packed() && !plan.StageOK(domain.StagePacked) {
		plan.SetMilestone(domain.StagePacked, domain.StatusOK,
			fmt.Sprintf("%d boxes packed", plan.BoxCount()))
	}

	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ActivePlans returns all plans that have not been archived.
func (s *PipelineService) ActivePlans(ctx context.Context) ([]*domain.PackPlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*domain.PackPlan, 0, len(plans))
	for _, p := range plans {
		if !p.Archived() {
			active = append(active, p)
		}
	}
	return active, nil
}

// Plan returns one plan by order number.
func (s *PipelineService) Plan(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	return s.plans.Load(ctx, orderName)
}

// Completed returns the archive ledger, newest first.
func (s *PipelineService) Completed(ctx context.Context) ([]domain.CompletedEntry, error) {
	return s.completed.List(ctx)
}

// Note returns the dispatch note for an order.
func (s *PipelineService) Note(ctx context.Context, orderName string) (string, error) {
	return s.notes.Get(ctx, orderName)
}

// SetNote writes the dispatch note for an order.
func (s *PipelineService) SetNote(ctx context.Context, orderName, text string) error {
	return s.notes.Set(ctx, orderName, text)
}

// shipmentsFromPlan converts box allocations to fulfillment shipments. Plans
// without a box plan ship every line item's full fulfillable quantity as one
// shipment.
func shipmentsFromPlan(plan *domain.PackPlan) []ordersports.Shipment {
	if plan.BoxCount() > 0 {
		var shipments []ordersports.Shipment
		for i, box := range plan.Boxes {
			if len(box.Allocations) == 0 {
				continue
			}
			shipment := ordersports.Shipment{BoxIndex: i + 1}
			for lineItemID, qty := range box.Allocations {
				shipment.Items = append(shipment.Items, ordersports.ShipmentItem{
					LineItemID: lineItemID,
					Quantity:   qty,
				})
			}
			shipments = append(shipments, shipment)
		}
		return shipments
	}

	shipment := ordersports.Shipment{BoxIndex: 1}
	for _, li := range plan.LineItems {
		if li.Fulfillable <= 0 {
			continue
		}
		shipment.Items = append(shipment.Items, ordersports.ShipmentItem{
			LineItemID: li.ID,
			Quantity:   li.Fulfillable,
		})
	}
	return []ordersports.Shipment{shipment}
}

// saveOrWarn persists the plan, logging instead of failing when the store is
// unavailable. Milestone state must never be silently lost, but a store
// outage cannot be allowed to wedge an in-flight pipeline pass.
func (s *PipelineService) saveOrWarn(ctx context.Context, plan *domain.PackPlan) {
	if err := s.plans.Save(ctx, plan); err != nil {
		logger.Get().Warn("Failed to persist pack plan",
			zap.String("order", plan.OrderName),
			zap.Error(err),
		)
	}
}
