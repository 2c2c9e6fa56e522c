package domain

import (
	"errors"
	"fmt"
	"time"

	bookingdomain "scan-station/internal/features/booking/domain"
	ordersdomain "scan-station/internal/features/orders/domain"
)

// ErrPlanNotFound is returned when no pack plan exists for an order.
var ErrPlanNotFound = errors.New("pack plan not found")

// ErrPrerequisiteMissing is returned when a stage retry is requested before
// its prerequisite stage succeeded. This is a contract violation, not a
// transient failure.
var ErrPrerequisiteMissing = errors.New("stage prerequisite not met")

// Milestone stage keys, in pipeline order.
const (
	StagePacked    = "packed"
	StageBooked    = "booked"
	StagePrinted   = "printed"
	StageFulfilled = "fulfilled"
	StageNotified  = "notified"
	StageArchived  = "archived"
)

// Milestone statuses.
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusErr     = "err"
)

// maxLogEntries bounds the per-plan history ring.
const maxLogEntries = 50

// Milestone records one stage's state on a pack plan.
type Milestone struct {
	// Status is pending, ok or err.
	Status string `json:"status"`
	// Message is the human-readable stage outcome.
	Message string `json:"message,omitempty"`
	// Timestamp is when the stage last transitioned.
	Timestamp time.Time `json:"timestamp"`
}

// LogEntry is one line in a plan's bounded history.
type LogEntry struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Box groups line item allocations packed into one physical parcel.
type Box struct {
	// Allocations maps line item id to the quantity packed in this box.
	Allocations map[int64]int `json:"allocations"`
}

// PlanLineItem is the order line snapshot a plan carries so stage retries
// never need a platform round trip.
type PlanLineItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Fulfillable int    `json:"fulfillable"`
}

// PackPlan is the persisted per-order pipeline record. It survives station
// restarts and owns the milestone history for one order.
type PackPlan struct {
	// OrderName is the order display number this plan belongs to.
	OrderName string `json:"order_name"`
	// OrderGID is the platform global id used by the fulfillment sink.
	OrderGID string `json:"order_gid"`
	// Customer is the display name for the archive ledger.
	Customer string `json:"customer"`
	// ShipToSummary is a short destination description for the archive.
	ShipToSummary string `json:"ship_to_summary"`
	// LineItems is the order line snapshot at plan creation.
	LineItems []PlanLineItem `json:"line_items"`
	// Boxes are the operator's parcel allocations, possibly empty.
	Boxes []Box `json:"boxes"`
	// Milestones track per-stage state.
	Milestones map[string]Milestone `json:"milestones"`
	// Log is the bounded history ring, newest first.
	Log []LogEntry `json:"log"`
	// BookingData is the carrier outcome once booked.
	BookingData *bookingdomain.BookingResult `json:"booking_data,omitempty"`
	// FulfillmentIDs are the platform fulfillment references once fulfilled.
	FulfillmentIDs []string `json:"fulfillment_ids,omitempty"`
	// Expanded is a UI hint, not a correctness field.
	Expanded bool `json:"expanded"`
	// CreatedAt is when the plan was first persisted.
	CreatedAt time.Time `json:"created_at"`
}

// NewPackPlan builds a plan from an order snapshot.
func NewPackPlan(order *ordersdomain.Order) *PackPlan {
	items := make([]PlanLineItem, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, PlanLineItem{
			ID:          li.ID,
			Title:       li.Title,
			Fulfillable: li.FulfillableQuantity,
		})
	}

	shipTo := order.ShipTo.City
	if order.ShipTo.Postal != "" {
		shipTo = fmt.Sprintf("%s %s", order.ShipTo.City, order.ShipTo.Postal)
	}

	return &PackPlan{
		OrderName:     order.Name,
		OrderGID:      order.GID,
		Customer:      order.ShipTo.Name,
		ShipToSummary: shipTo,
		LineItems:     items,
		Milestones:    make(map[string]Milestone),
		CreatedAt:     time.Now(),
	}
}

// Stage returns the milestone for a stage key, zero-valued when untouched.
func (p *PackPlan) Stage(key string) Milestone {
	return p.Milestones[key]
}

// StageOK reports whether a stage has completed successfully.
func (p *PackPlan) StageOK(key string) bool {
	return p.Milestones[key].Status == StatusOK
}

// SetMilestone transitions a stage and appends a log entry.
func (p *PackPlan) SetMilestone(stage, status, message string) {
	if p.Milestones == nil {
		p.Milestones = make(map[string]Milestone)
	}
	now := time.Now()
	p.Milestones[stage] = Milestone{
		Status:    status,
		Message:   message,
		Timestamp: now,
	}
	p.appendLog(LogEntry{
		Status:    status,
		Message:   fmt.Sprintf("%s: %s", stage, message),
		Timestamp: now,
	})
}

// appendLog prepends an entry, keeping the ring bounded.
func (p *PackPlan) appendLog(entry LogEntry) {
	p.Log = append([]LogEntry{entry}, p.Log...)
	if len(p.Log) > maxLogEntries {
		p.Log = p.Log[:maxLogEntries]
	}
}

// fulfillable returns the snapshot fulfillable quantity for a line item.
func (p *PackPlan) fulfillable(lineItemID int64) (int, bool) {
	for _, li := range p.LineItems {
		if li.ID == lineItemID {
			return li.Fulfillable, true
		}
	}
	return 0, false
}

// Allocated sums a line item's allocation across all boxes.
func (p *PackPlan) Allocated(lineItemID int64) int {
	total := 0
	for _, box := range p.Boxes {
		total += box.Allocations[lineItemID]
	}
	return total
}

// Remaining returns how many units of a line item are still unallocated.
func (p *PackPlan) Remaining(lineItemID int64) int {
	fulfillable, ok := p.fulfillable(lineItemID)
	if !ok {
		return 0
	}
	return fulfillable - p.Allocated(lineItemID)
}

// Allocate adjusts a line item's quantity in a box by delta. Increments are
// clamped to the remaining fulfillable quantity; decrements clamp at zero.
// Boxes are created on demand up to boxIndex. Returns the applied delta.
func (p *PackPlan) Allocate(boxIndex int, lineItemID int64, delta int) int {
	if boxIndex < 0 {
		return 0
	}
	if _, known := p.fulfillable(lineItemID); !known {
		return 0
	}

	for len(p.Boxes) <= boxIndex {
		p.Boxes = append(p.Boxes, Box{Allocations: make(map[int64]int)})
	}
	box := &p.Boxes[boxIndex]
	if box.Allocations == nil {
		box.Allocations = make(map[int64]int)
	}

	if delta > 0 {
		if remaining := p.Remaining(lineItemID); delta > remaining {
			delta = remaining
		}
	} else if delta < 0 {
		if current := box.Allocations[lineItemID]; -delta > current {
			delta = -current
		}
	}

	box.Allocations[lineItemID] += delta
	if box.Allocations[lineItemID] == 0 {
		delete(box.Allocations, lineItemID)
	}
	return delta
}

// Packed reports whether every line item is fully allocated and the plan has
// at least one line item.
func (p *PackPlan) Packed() bool {
	if len(p.LineItems) == 0 {
		return false
	}
	for _, li := range p.LineItems {
		if p.Allocated(li.ID) != li.Fulfillable {
			return false
		}
	}
	return true
}

// BoxCount returns the number of boxes carrying at least one allocation.
func (p *PackPlan) BoxCount() int {
	count := 0
	for _, box := range p.Boxes {
		if len(box.Allocations) > 0 {
			count++
		}
	}
	return count
}

// Archived reports whether the plan has left the active worklist.
func (p *PackPlan) Archived() bool {
	return p.StageOK(StageArchived)
}

// CompletedEntry is one row in the station's completed-order ledger.
type CompletedEntry struct {
	// Date is when the order finished the pipeline.
	Date time.Time `json:"date"`
	// Order is the order display number.
	Order string `json:"order"`
	// Waybill is the carrier tracking number.
	Waybill string `json:"waybill"`
	// Customer is the recipient display name.
	Customer string `json:"customer"`
	// ShipTo is the short destination summary.
	ShipTo string `json:"ship_to"`
	// Service is the carrier service code used.
	Service string `json:"service"`
	// ParcelCount is the number of boxes shipped.
	ParcelCount int `json:"parcel_count"`
}
