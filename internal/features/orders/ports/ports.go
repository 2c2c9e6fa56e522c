package ports

import (
	"context"

	"scan-station/internal/features/orders/domain"
)

// OrderSource defines read access to the order platform.
// This is a Secondary Port (Driven Port).
type OrderSource interface {
	// FetchOrder retrieves a full order snapshot by display number.
	// Returns domain.ErrOrderNotFound when the platform has no match.
	FetchOrder(ctx context.Context, name string) (*domain.Order, error)

	// FetchOpenOrders retrieves summaries of orders awaiting fulfillment.
	FetchOpenOrders(ctx context.Context) ([]domain.Summary, error)
}

// Shipment groups the line item quantities packed into one physical box.
type Shipment struct {
	// BoxIndex is the 1-based parcel number within the order.
	BoxIndex int
	// Items are the line item quantities in this box.
	Items []ShipmentItem
}

// ShipmentItem is one line item allocation inside a shipment.
type ShipmentItem struct {
	LineItemID int64
	Quantity   int
}

// Tracking is the carrier tracking info attached to a fulfillment.
type Tracking struct {
	Number  string
	URL     string
	Company string
}

// FulfillmentResult reports the outcome of a fulfillment creation.
type FulfillmentResult struct {
	// FulfillmentIDs are the platform ids of created fulfillments.
	FulfillmentIDs []string
	// Errors carries per-shipment user errors returned by the platform.
	Errors []string
}

// FulfillmentSink defines write access to the order platform's fulfillment
// surface. This is a Secondary Port (Driven Port).
type FulfillmentSink interface {
	// CreateFulfillment marks order line items fulfilled with tracking info,
	// one platform fulfillment per shipment group.
	CreateFulfillment(ctx context.Context, orderGID string, shipments []Shipment, tracking Tracking) (*FulfillmentResult, error)

	// NotifyCustomer sends the platform shipping notification for a
	// previously created fulfillment.
	NotifyCustomer(ctx context.Context, fulfillmentID string) error
}
