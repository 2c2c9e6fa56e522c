package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrOrderNotFound is returned when the order platform has no matching order.
var ErrOrderNotFound = errors.New("order not found")

// parcelCountTag matches the operator convention for pre-declared parcel
// counts, e.g. "parcel_count_3".
var parcelCountTag = regexp.MustCompile(`^parcel_count_(\d+)$`)

// Address holds the ship-to destination and contact for an order.
type Address struct {
	// Name is the recipient or company name.
	Name string `json:"name"`
	// Phone is the recipient contact number.
	Phone string `json:"phone"`
	// Email is the recipient contact email.
	Email string `json:"email"`
	// Address1 is the primary address line.
	Address1 string `json:"address1"`
	// Address2 is the secondary address line, treated as the suburb for
	// carrier place resolution.
	Address2 string `json:"address2"`
	// City is the destination town.
	City string `json:"city"`
	// Province is the destination state or province.
	Province string `json:"province"`
	// Postal is the destination postal code.
	Postal string `json:"postal"`
	// Country is the destination country code.
	Country string `json:"country"`
}

// Suburb returns the best suburb guess for place resolution.
func (a Address) Suburb() string {
	return strings.TrimSpace(a.Address2)
}

// LineItem is a single purchasable line on an order.
type LineItem struct {
	// ID is the platform line item id.
	ID int64 `json:"id"`
	// Title is the product display name.
	Title string `json:"title"`
	// Quantity is the ordered unit count.
	Quantity int `json:"quantity"`
	// FulfillableQuantity is how many units remain fulfillable.
	FulfillableQuantity int `json:"fulfillable_quantity"`
	// Grams is the per-unit weight in grams.
	Grams int `json:"grams"`
}

// Order is a read-only snapshot of an order fetched from the platform.
type Order struct {
	// ID is the platform numeric order id.
	ID int64 `json:"id"`
	// GID is the platform GraphQL global id, used by the fulfillment sink.
	GID string `json:"gid"`
	// Name is the display number, e.g. "#1013".
	Name string `json:"name"`
	// Email is the order contact email.
	Email string `json:"email"`
	// ShipTo is the shipping destination.
	ShipTo Address `json:"ship_to"`
	// Tags is the raw comma-separated tag string.
	Tags string `json:"tags"`
	// FulfillmentStatus is the platform fulfillment state (empty, unfulfilled,
	// in_progress, fulfilled).
	FulfillmentStatus string `json:"fulfillment_status"`
	// LineItems are the purchasable lines on the order.
	LineItems []LineItem `json:"line_items"`
	// CreatedAt is the platform order timestamp.
	CreatedAt time.Time `json:"created_at"`
	// PlaceCode is the carrier routing code from a customer metafield, if set.
	PlaceCode *int `json:"place_code,omitempty"`
}

// ParcelCountFromTag parses the declared parcel count from the order tags.
// Returns (0, false) when no valid parcel_count_<N> tag is present.
func (o *Order) ParcelCountFromTag() (int, bool) {
	if strings.TrimSpace(o.Tags) == "" {
		return 0, false
	}
	for _, raw := range strings.Split(o.Tags, ",") {
		tag := strings.ToLower(strings.TrimSpace(raw))
		m := parcelCountTag.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

// TotalWeightKg sums line item weights. Returns 0 when the platform carries
// no weight data.
func (o *Order) TotalWeightKg() float64 {
	grams := 0
	for _, li := range o.LineItems {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		grams += li.Grams * qty
	}
	return float64(grams) / 1000.0
}

// Summary is the condensed open-order view for the dispatch worklist.
type Summary struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	GID               string     `json:"gid"`
	CustomerName      string     `json:"customer_name"`
	Email             string     `json:"email"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	ShipTo            Address    `json:"ship_to"`
	ParcelCount       *int       `json:"parcel_count,omitempty"`
	LineItems         []LineItem `json:"line_items"`
	CreatedAt         time.Time  `json:"created_at"`
}
