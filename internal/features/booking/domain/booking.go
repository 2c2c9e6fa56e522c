package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMissingPlaceCode is returned when no carrier routing code can be
// resolved for the destination.
var ErrMissingPlaceCode = errors.New("no carrier place code for destination")

// ErrMissingAddress is returned when the destination lacks required fields.
var ErrMissingAddress = errors.New("destination address incomplete")

// ErrQuoteFailed is returned when the carrier does not produce a usable quote.
var ErrQuoteFailed = errors.New("carrier quote failed")

// ErrBookingFailed is returned when the carrier rejects the collection.
var ErrBookingFailed = errors.New("carrier booking failed")

// Origin is the fixed shipping profile of the station warehouse.
type Origin struct {
	Name      string
	Address1  string
	Address2  string
	Address3  string
	Town      string
	Postal    string
	PlaceCode int
	Contact   string
	Phone     string
	Email     string
	Notes     string
}

// Destination is the ship-to side of a booking.
type Destination struct {
	// Name is the recipient or company name.
	Name string
	// Address1 is the street address.
	Address1 string
	// Address2 is the suburb line used for place resolution.
	Address2 string
	// City is the destination town.
	City string
	// Province is the destination province.
	Province string
	// Postal is the destination postal code.
	Postal string
	// Phone is the recipient contact number.
	Phone string
	// Email is the recipient contact email.
	Email string
	// PlaceCode is a pre-resolved carrier routing code, when known.
	PlaceCode *int
	// TotalWeightKg is the order weight, zero when the platform has none.
	TotalWeightKg float64
}

// Suburb returns the suburb line for place resolution.
func (d Destination) Suburb() string {
	return strings.TrimSpace(d.Address2)
}

// MissingFields lists required destination fields that are empty.
func (d Destination) MissingFields() []string {
	var missing []string
	checks := []struct {
		name  string
		value string
	}{
		{"name", d.Name},
		{"address1", d.Address1},
		{"city", d.City},
		{"province", d.Province},
		{"postal", d.Postal},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// Parcel is one physical box in a collection request.
type Parcel struct {
	// Item is the 1-based parcel number.
	Item int
	// Pieces is always one box per parcel.
	Pieces int
	// Dim1, Dim2 and Dim3 are the box dimensions in cm.
	Dim1 int
	Dim2 int
	Dim3 int
	// MassKg is the declared parcel mass.
	MassKg float64
}

// BuildParcels creates the parcel list for a booking. Order weight is split
// evenly across parcels, rounded to two decimals; the default mass covers
// orders with no weight data.
func BuildParcels(count, dim1, dim2, dim3 int, totalWeightKg, defaultMassKg float64) []Parcel {
	mass := defaultMassKg
	if totalWeightKg > 0 && count > 0 {
		mass = math.Round(totalWeightKg/float64(count)*100) / 100
		if mass <= 0 {
			mass = defaultMassKg
		}
	}

	parcels := make([]Parcel, count)
	for i := range parcels {
		parcels[i] = Parcel{
			Item:   i + 1,
			Pieces: 1,
			Dim1:   dim1,
			Dim2:   dim2,
			Dim3:   dim3,
			MassKg: mass,
		}
	}
	return parcels
}

// Rate is one service option on a carrier quote.
type Rate struct {
	// Service is the carrier service code, e.g. "RFX".
	Service string `json:"service"`
	// Name is the human service description.
	Name string `json:"name"`
	// Total is the quoted cost for this service.
	Total float64 `json:"total"`
}

// Quote is the carrier response to a quote request.
type Quote struct {
	// QuoteNo is the carrier quote reference.
	QuoteNo string `json:"quoteno"`
	// Rates are the offered service options.
	Rates []Rate `json:"rates"`
}

// PickService selects the service code for a quote: the first preferred code
// present among the rates, then the first offered rate, then the final
// preference as a blind fallback.
func PickService(rates []Rate, preference []string) string {
	offered := make(map[string]bool, len(rates))
	for _, r := range rates {
		offered[r.Service] = true
	}
	for _, want := range preference {
		if offered[want] {
			return want
		}
	}
	if len(rates) > 0 {
		return rates[0].Service
	}
	if len(preference) > 0 {
		return preference[len(preference)-1]
	}
	return ""
}

// RateFor returns the rate for a service code, or nil.
func (q *Quote) RateFor(service string) *Rate {
	for i := range q.Rates {
		if q.Rates[i].Service == service {
			return &q.Rates[i]
		}
	}
	return nil
}

// Place is one hit from the carrier place search.
type Place struct {
	// Code is the carrier routing code.
	Code int `json:"place"`
	// Name is the suburb name.
	Name string `json:"name"`
	// Town is the containing town.
	Town string `json:"town"`
	// Ring is the carrier delivery ring; zero means a direct route.
	Ring int `json:"ring"`
}

// Label returns the display form "Suburb – Town" for operator confirmation.
func (p Place) Label() string {
	name := strings.TrimSpace(p.Name)
	town := strings.TrimSpace(p.Town)
	if town == "" {
		return name
	}
	return fmt.Sprintf("%s - %s", name, town)
}

// BestPlace picks the most specific hit for a destination: suburb matches on
// ring zero first, then any suburb match, then exact town on ring zero, then
// any exact town, then any ring zero hit, then the first result.
func BestPlace(places []Place, suburb, town string) *Place {
	if len(places) == 0 {
		return nil
	}

	suburb = strings.ToLower(strings.TrimSpace(suburb))
	town = strings.ToLower(strings.TrimSpace(town))

	matchesSuburb := func(p Place) bool {
		if suburb == "" {
			return false
		}
		return strings.Contains(strings.ToLower(p.Name), suburb) ||
			strings.Contains(strings.ToLower(p.Town), suburb)
	}
	matchesTown := func(p Place) bool {
		if town == "" {
			return false
		}
		return strings.ToLower(strings.TrimSpace(p.Town)) == town
	}

	passes := []func(Place) bool{
		func(p Place) bool { return matchesSuburb(p) && p.Ring == 0 },
		matchesSuburb,
		func(p Place) bool { return matchesTown(p) && p.Ring == 0 },
		matchesTown,
		func(p Place) bool { return p.Ring == 0 },
	}

	for _, pass := range passes {
		for i := range places {
			if pass(places[i]) {
				return &places[i]
			}
		}
	}
	return &places[0]
}

// staticPlaces covers destinations the station ships to daily, avoiding a
// remote search round trip.
var staticPlaces = map[string]int{
	"cape town|7530":   4001,
	"bellville|7530":   4001,
	"durbanville|7550": 4020,
	"cape town|8001":   3001,
}

// StaticPlaceCode resolves well-known city and postal pairs locally.
func StaticPlaceCode(city, postal string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(city)) + "|" + strings.TrimSpace(postal)
	code, ok := staticPlaces[key]
	return code, ok
}

// Collection is the carrier response to committing a quote to collection.
type Collection struct {
	// Waybill is the carrier tracking number.
	Waybill string
	// WaybillSynthesized marks a placeholder waybill used when the carrier
	// response carried no recognizable tracking number.
	WaybillSynthesized bool
	// LabelPDF is the base64 label document, when the carrier returns one.
	LabelPDF string
	// WaybillPDF is the base64 waybill document, when returned.
	WaybillPDF string
}

// BookingResult is the outcome of a completed carrier booking.
type BookingResult struct {
	// Waybill is the carrier tracking number for the whole order.
	Waybill string `json:"waybill"`
	// WaybillSynthesized marks a placeholder waybill; downstream stages must
	// surface it to the operator.
	WaybillSynthesized bool `json:"waybill_synthesized,omitempty"`
	// Service is the carrier service code used.
	Service string `json:"service"`
	// ParcelCount is the number of boxes booked.
	ParcelCount int `json:"parcel_count"`
	// Cost is the quoted cost for the chosen service.
	Cost float64 `json:"cost"`
	// CostAlert marks quotes above the station alert threshold.
	CostAlert bool `json:"cost_alert,omitempty"`
	// PlaceCode is the resolved destination routing code.
	PlaceCode int `json:"place_code"`
	// PlaceLabel describes how the place code was resolved.
	PlaceLabel string `json:"place_label,omitempty"`
	// QuoteNo is the carrier quote reference behind the booking.
	QuoteNo string `json:"quoteno"`
	// Rates are the service options that were quoted.
	Rates []Rate `json:"rates,omitempty"`
	// LabelPDF is the base64 carrier label document, when returned.
	LabelPDF string `json:"label_pdf,omitempty"`
	// WaybillPDF is the base64 carrier waybill document, when returned.
	WaybillPDF string `json:"waybill_pdf,omitempty"`
}
