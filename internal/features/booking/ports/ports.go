package ports

import (
	"context"

	"scan-station/internal/features/booking/domain"
)

// QuoteRequest carries everything the carrier needs to price a collection.
type QuoteRequest struct {
	// Origin is the station shipping profile.
	Origin domain.Origin
	// Destination is the resolved ship-to side.
	Destination domain.Destination
	// PlaceCode is the resolved destination routing code.
	PlaceCode int
	// Parcels are the boxes to collect.
	Parcels []domain.Parcel
	// Reference is the order reference printed on the waybill.
	Reference string
}

// CollectionOptions controls how a quote is committed to collection.
type CollectionOptions struct {
	// StartTime and EndTime bound the collection window, e.g. "12:00".
	StartTime string
	EndTime   string
	// PrintLabels asks the carrier to return label documents.
	PrintLabels bool
	// PrintWaybill asks the carrier to return the waybill document.
	PrintWaybill bool
}

// CarrierGateway defines the carrier quoting and booking surface.
// This is a Secondary Port (Driven Port).
type CarrierGateway interface {
	// SearchPlaces queries the carrier place directory.
	SearchPlaces(ctx context.Context, query string) ([]domain.Place, error)

	// RequestQuote prices a collection and returns the quote reference with
	// its service options.
	RequestQuote(ctx context.Context, req QuoteRequest) (*domain.Quote, error)

	// SetService pins the chosen service code on an open quote.
	SetService(ctx context.Context, quoteNo, service, reference string) error

	// CommitCollection converts a quote into a booked collection.
	CommitCollection(ctx context.Context, quoteNo string, opts CollectionOptions) (*domain.Collection, error)
}
