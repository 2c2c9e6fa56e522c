package service

import (
	"context"
	"fmt"
	"strings"

	"scan-station/internal/core/config"
	"scan-station/internal/core/logger"
	"scan-station/internal/features/booking/domain"
	"scan-station/internal/features/booking/ports"

	"go.uber.org/zap"
)

// Collection window offered to the carrier on every booking.
const (
	collectionStart = "12:00"
	collectionEnd   = "15:00"
)

// BookingService drives the carrier workflow: place resolution, quote,
// service selection and collection commit.
type BookingService struct {
	// gateway is the carrier quoting/booking surface.
	gateway ports.CarrierGateway
	// booking holds the station booking knobs.
	booking config.BookingConfig
	// origin is the fixed station shipping profile.
	origin domain.Origin
}

// NewBookingService creates a new instance of BookingService.
func NewBookingService(gateway ports.CarrierGateway, booking config.BookingConfig, origin config.OriginConfig) *BookingService {
	return &BookingService{
		gateway: gateway,
		booking: booking,
		origin: domain.Origin{
			Name:      origin.Name,
			Address1:  origin.Address1,
			Address2:  origin.Address2,
			Address3:  origin.Address3,
			Town:      origin.Town,
			Postal:    origin.Postal,
			PlaceCode: origin.PlaceCode,
			Contact:   origin.Contact,
			Phone:     origin.Phone,
			Email:     origin.Email,
			Notes:     origin.Notes,
		},
	}
}

// BookingRequest is one order's booking input.
type BookingRequest struct {
	// OrderName is the order display number, used as the carrier reference.
	OrderName string
	// Destination is the ship-to side from the order snapshot.
	Destination domain.Destination
	// ParcelCount is the number of boxes to book.
	ParcelCount int
	// PlaceCodeOverride pins the routing code, skipping resolution.
	PlaceCodeOverride *int
	// ServiceOverride pins the service code, skipping the preference ladder.
	ServiceOverride string
}

// ResolvePlaceCode walks the resolution ladder: explicit override, the code
// on the order, the static table, then the carrier place directory.
func (s *BookingService) ResolvePlaceCode(ctx context.Context, dest domain.Destination, override *int) (int, string, error) {
	if override != nil && *override > 0 {
		return *override, "override", nil
	}
	if dest.PlaceCode != nil && *dest.PlaceCode > 0 {
		return *dest.PlaceCode, "order", nil
	}
	if code, ok := domain.StaticPlaceCode(dest.City, dest.Postal); ok {
		return code, "static", nil
	}

	suburb := dest.Suburb()
	town := strings.TrimSpace(dest.City)

	var queries []string
	if suburb != "" {
		queries = append(queries, suburb)
	}
	if town != "" && !strings.EqualFold(town, suburb) {
		queries = append(queries, town)
		if suburb != "" {
			queries = append(queries, suburb+" "+town)
		}
	}

	for _, q := range queries {
		places, err := s.gateway.SearchPlaces(ctx, q)
		if err != nil {
			logger.Get().Warn("Carrier place search failed",
				zap.String("query", q),
				zap.Error(err),
			)
			continue
		}
		if best := domain.BestPlace(places, suburb, town); best != nil {
			return best.Code, best.Label(), nil
		}
	}

	return 0, "", domain.ErrMissingPlaceCode
}

// BookShipment runs the full carrier workflow for one order and returns the
// booking outcome. Nothing is persisted here; callers own idempotency.
func (s *BookingService) BookShipment(ctx context.Context, req BookingRequest) (*domain.BookingResult, error) {
	if req.ParcelCount < 1 {
		return nil, fmt.Errorf("parcel count must be at least 1")
	}
	if missing := req.Destination.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrMissingAddress, strings.Join(missing, ", "))
	}

	placeCode, placeLabel, err := s.ResolvePlaceCode(ctx, req.Destination, req.PlaceCodeOverride)
	if err != nil {
		return nil, err
	}

	parcels := domain.BuildParcels(
		req.ParcelCount,
		s.booking.BoxDim1, s.booking.BoxDim2, s.booking.BoxDim3,
		req.Destination.TotalWeightKg, s.booking.BoxMassKg,
	)

	quote, err := s.gateway.RequestQuote(ctx, ports.QuoteRequest{
		Origin:      s.origin,
		Destination: req.Destination,
		PlaceCode:   placeCode,
		Parcels:     parcels,
		Reference:   "Order " + req.OrderName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteFailed, err)
	}
	if quote.QuoteNo == "" {
		return nil, fmt.Errorf("%w: no quote number in response", domain.ErrQuoteFailed)
	}

	service := s.pickService(quote, req.ServiceOverride)

	cost := 0.0
	if rate := quote.RateFor(service); rate != nil {
		cost = rate.Total
	} else if len(quote.Rates) > 0 {
		cost = quote.Rates[0].Total
	}

	// A failed service update leaves the quote on its default service. The
	// collection still books, so warn and continue.
	if err := s.gateway.SetService(ctx, quote.QuoteNo, service, req.OrderName); err != nil {
		logger.Get().Warn("Failed to pin quote service",
			zap.String("quoteno", quote.QuoteNo),
			zap.String("service", service),
			zap.Error(err),
		)
	}

	coll, err := s.gateway.CommitCollection(ctx, quote.QuoteNo, ports.CollectionOptions{
		StartTime:   collectionStart,
		EndTime:     collectionEnd,
		PrintLabels: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBookingFailed, err)
	}

	result := &domain.BookingResult{
		Waybill:            coll.Waybill,
		WaybillSynthesized: coll.WaybillSynthesized,
		Service:            service,
		ParcelCount:        req.ParcelCount,
		Cost:               cost,
		CostAlert:          cost > s.booking.CostAlertThreshold,
		PlaceCode:          placeCode,
		PlaceLabel:         placeLabel,
		QuoteNo:            quote.QuoteNo,
		Rates:              quote.Rates,
		LabelPDF:           coll.LabelPDF,
		WaybillPDF:         coll.WaybillPDF,
	}

	logger.Get().Info("Shipment booked",
		zap.String("order", req.OrderName),
		zap.String("waybill", result.Waybill),
		zap.String("service", result.Service),
		zap.Int("parcels", result.ParcelCount),
		zap.Float64("cost", result.Cost),
		zap.Bool("synthesized", result.WaybillSynthesized),
	)
	return result, nil
}

// pickService applies the override or the configured preference ladder.
func (s *BookingService) pickService(quote *domain.Quote, override string) string {
	preference := s.booking.ServicePreferenceList()
	if override != "" && !strings.EqualFold(override, "AUTO") {
		preference = []string{override}
	}
	return domain.PickService(quote.Rates, preference)
}
