package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scan-station/internal/core/config"
	"scan-station/internal/core/httpclient"
	"scan-station/internal/core/logger"
	"scan-station/internal/features/orders/domain"

	"go.uber.org/zap"
)

// placeCodeNamespace/placeCodeKey locate the carrier routing code customers
// can carry as a platform metafield.
const (
	placeCodeNamespace = "custom"
	placeCodeKey       = "carrier_place_code"
)

// ShopifyAdapter implements the OrderSource interface using the Shopify
// admin REST API.
type ShopifyAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the platform connection details.
	config config.ShopifyConfig
}

// NewShopifyAdapter creates a new instance of ShopifyAdapter.
func NewShopifyAdapter(cfg config.ShopifyConfig) *ShopifyAdapter {
	return &ShopifyAdapter{
		client: httpclient.NewClient(15 * time.Second),
		config: cfg,
	}
}

// apiBase returns the versioned admin API prefix.
func (a *ShopifyAdapter) apiBase() string {
	return fmt.Sprintf("%s/admin/api/%s", strings.TrimRight(a.config.BaseURL, "/"), a.config.APIVersion)
}

// get performs an authenticated GET and decodes the JSON body into out.
func (a *ShopifyAdapter) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify API returned status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FetchOrder retrieves a full order snapshot by display number.
func (a *ShopifyAdapter) FetchOrder(ctx context.Context, name string) (*domain.Order, error) {
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}

	rawURL := fmt.Sprintf("%s/orders.json?status=any&name=%s", a.apiBase(), url.QueryEscape(name))

	var payload struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := a.get(ctx, rawURL, &payload); err != nil {
		return nil, err
	}
	if len(payload.Orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	order := a.mapToDomain(payload.Orders[0])

	// A missing metafield never blocks the fetch; the booking workflow has
	// its own place resolution ladder.
	if code, ok := a.customerPlaceCode(ctx, payload.Orders[0].Customer.ID); ok {
		order.PlaceCode = &code
	}

	return order, nil
}

// FetchOpenOrders retrieves summaries of orders awaiting fulfillment.
func (a *ShopifyAdapter) FetchOpenOrders(ctx context.Context) ([]domain.Summary, error) {
	rawURL := fmt.Sprintf(
		"%s/orders.json?status=any&fulfillment_status=unfulfilled,in_progress&limit=50&order=%s",
		a.apiBase(), url.QueryEscape("created_at desc"))

	var payload struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := a.get(ctx, rawURL, &payload); err != nil {
		return nil, err
	}

	summaries := make([]domain.Summary, 0, len(payload.Orders))
	for _, o := range payload.Orders {
		summaries = append(summaries, a.mapToSummary(o))
	}
	return summaries, nil
}

// customerPlaceCode looks up the carrier routing metafield on the customer.
func (a *ShopifyAdapter) customerPlaceCode(ctx context.Context, customerID int64) (int, bool) {
	if customerID == 0 {
		return 0, false
	}

	rawURL := fmt.Sprintf("%s/customers/%d/metafields.json", a.apiBase(), customerID)

	var payload struct {
		Metafields []shopifyMetafield `json:"metafields"`
	}
	if err := a.get(ctx, rawURL, &payload); err != nil {
		logger.Get().Warn("Customer metafield lookup failed",
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		return 0, false
	}

	for _, mf := range payload.Metafields {
		if mf.Namespace != placeCodeNamespace || mf.Key != placeCodeKey {
			continue
		}
		if code, err := strconv.Atoi(strings.TrimSpace(mf.Value)); err == nil && code > 0 {
			return code, true
		}
	}
	return 0, false
}

// mapToDomain converts a raw platform order into a domain Order snapshot.
func (a *ShopifyAdapter) mapToDomain(o shopifyOrder) *domain.Order {
	return &domain.Order{
		ID:                o.ID,
		GID:               o.AdminGraphqlAPIID,
		Name:              strings.TrimPrefix(o.Name, "#"),
		Email:             o.Email,
		ShipTo:            mapAddress(o),
		Tags:              o.Tags,
		FulfillmentStatus: o.FulfillmentStatus,
		LineItems:         mapLineItems(o.LineItems),
		CreatedAt:         o.bestTimestamp(),
	}
}

// mapToSummary converts a raw platform order into a worklist summary.
func (a *ShopifyAdapter) mapToSummary(o shopifyOrder) domain.Summary {
	var parcelCount *int
	probe := domain.Order{Tags: o.Tags}
	if n, ok := probe.ParcelCountFromTag(); ok {
		parcelCount = &n
	}

	return domain.Summary{
		ID:                o.ID,
		Name:              strings.TrimPrefix(o.Name, "#"),
		GID:               o.AdminGraphqlAPIID,
		CustomerName:      customerName(o),
		Email:             o.Email,
		FulfillmentStatus: o.FulfillmentStatus,
		ShipTo:            mapAddress(o),
		ParcelCount:       parcelCount,
		LineItems:         mapLineItems(o.LineItems),
		CreatedAt:         o.bestTimestamp(),
	}
}

// customerName picks the best display name: company, then ship-to name,
// then the customer's full name, then the bare order number.
func customerName(o shopifyOrder) string {
	if c := strings.TrimSpace(o.ShippingAddress.Company); c != "" {
		return c
	}
	if c := strings.TrimSpace(o.Customer.DefaultAddress.Company); c != "" {
		return c
	}
	if n := strings.TrimSpace(o.ShippingAddress.Name); n != "" {
		return n
	}
	full := strings.TrimSpace(strings.TrimSpace(o.Customer.FirstName) + " " + strings.TrimSpace(o.Customer.LastName))
	if full != "" {
		return full
	}
	return strings.TrimPrefix(o.Name, "#")
}

// mapAddress builds the domain ship-to address with contact fallbacks.
func mapAddress(o shopifyOrder) domain.Address {
	s := o.ShippingAddress

	name := s.Name
	if name == "" {
		name = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	}
	phone := s.Phone
	if phone == "" {
		phone = o.Customer.Phone
	}

	return domain.Address{
		Name:     name,
		Phone:    phone,
		Email:    o.Email,
		Address1: s.Address1,
		Address2: s.Address2,
		City:     s.City,
		Province: s.Province,
		Postal:   s.Zip,
		Country:  s.CountryCode,
	}
}

// mapLineItems converts platform line items to domain line items.
func mapLineItems(items []shopifyLineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, li := range items {
		out = append(out, domain.LineItem{
			ID:                  li.ID,
			Title:               li.Title,
			Quantity:            li.Quantity,
			FulfillableQuantity: li.FulfillableQuantity,
			Grams:               li.Grams,
		})
	}
	return out
}

// internal structs for mapping

// shopifyOrder represents the JSON structure of an order from the admin API.
type shopifyOrder struct {
	ID                int64             `json:"id"`
	AdminGraphqlAPIID string            `json:"admin_graphql_api_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Tags              string            `json:"tags"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	CreatedAt         time.Time         `json:"created_at"`
	ProcessedAt       *time.Time        `json:"processed_at"`
	Customer          shopifyCustomer   `json:"customer"`
	ShippingAddress   shopifyAddress    `json:"shipping_address"`
	LineItems         []shopifyLineItem `json:"line_items"`
}

// bestTimestamp prefers the processing time over the creation time, matching
// how the dispatch board orders its lanes.
func (o shopifyOrder) bestTimestamp() time.Time {
	if o.ProcessedAt != nil && !o.ProcessedAt.IsZero() {
		return *o.ProcessedAt
	}
	return o.CreatedAt
}

// shopifyCustomer holds the customer contact fields used for fallbacks.
type shopifyCustomer struct {
	ID             int64          `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Phone          string         `json:"phone"`
	DefaultAddress shopifyAddress `json:"default_address"`
}

// shopifyAddress holds a platform address block.
type shopifyAddress struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
}

// shopifyLineItem represents a product line on the platform order.
type shopifyLineItem struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	Quantity            int    `json:"quantity"`
	FulfillableQuantity int    `json:"fulfillable_quantity"`
	Grams               int    `json:"grams"`
}

// shopifyMetafield is a namespaced key/value record on a platform resource.
type shopifyMetafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}
