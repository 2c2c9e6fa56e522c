package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scan-station/internal/core/config"
	"scan-station/internal/core/httpclient"
	"scan-station/internal/core/logger"
	"scan-station/internal/features/orders/ports"

	"go.uber.org/zap"
)

const fulfillmentOrdersQuery = `query FulfillmentOrders($orderId: ID!) {
  order(id: $orderId) {
    fulfillmentOrders(first: 50) {
      edges {
        node {
          id
          status
          lineItems(first: 100) {
            edges {
              node {
                id
                remainingQuantity
                lineItem { id }
              }
            }
          }
        }
      }
    }
  }
}`

const fulfillmentCreateMutation = `mutation FulfillmentCreate($fulfillment: FulfillmentV2Input!) {
  fulfillmentCreate(fulfillment: $fulfillment) {
    fulfillment { id status }
    userErrors { field message }
  }
}`

const fulfillmentNotifyMutation = `mutation FulfillmentNotify($id: ID!) {
  fulfillmentNotify(fulfillmentId: $id, notifyCustomer: true) {
    fulfillment { id status }
    userErrors { field message }
  }
}`

// ShopifyFulfillmentAdapter implements the FulfillmentSink interface using the
// Shopify admin GraphQL API.
type ShopifyFulfillmentAdapter struct {
	client *http.Client
	config config.ShopifyConfig
}

// NewShopifyFulfillmentAdapter creates a new instance of
// ShopifyFulfillmentAdapter.
func NewShopifyFulfillmentAdapter(cfg config.ShopifyConfig) *ShopifyFulfillmentAdapter {
	return &ShopifyFulfillmentAdapter{
		client: httpclient.NewClient(30 * time.Second),
		config: cfg,
	}
}

// graphql posts a query and decodes the data envelope into out. Top-level
// GraphQL errors become a single wrapped error.
func (a *ShopifyFulfillmentAdapter) graphql(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	rawURL := fmt.Sprintf("%s/admin/api/%s/graphql.json",
		strings.TrimRight(a.config.BaseURL, "/"), a.config.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify graphql returned status: %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("shopify graphql error: %s", envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

// foLineItem locates a fulfillment order line item for one platform line item.
type foLineItem struct {
	foLineItemGID      string
	fulfillmentOrderID string
	remainingQuantity  int
}

// CreateFulfillment marks order line items fulfilled with tracking info, one
// platform fulfillment per shipment group.
func (a *ShopifyFulfillmentAdapter) CreateFulfillment(ctx context.Context, orderGID string, shipments []ports.Shipment, tracking ports.Tracking) (*ports.FulfillmentResult, error) {
	lineItemMap, err := a.fetchFulfillmentOrderLineItems(ctx, orderGID)
	if err != nil {
		return nil, err
	}

	result := &ports.FulfillmentResult{}

	for _, shipment := range shipments {
		input, userErrs := buildFulfillmentInput(shipment, tracking, lineItemMap)
		if len(userErrs) > 0 {
			result.Errors = append(result.Errors, userErrs...)
			continue
		}
		if input == nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("box %d: no line items to fulfill", shipment.BoxIndex))
			continue
		}

		var payload struct {
			FulfillmentCreate struct {
				Fulfillment struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"fulfillment"`
				UserErrors []struct {
					Message string `json:"message"`
				} `json:"userErrors"`
			} `json:"fulfillmentCreate"`
		}
		if err := a.graphql(ctx, fulfillmentCreateMutation, map[string]interface{}{"fulfillment": input}, &payload); err != nil {
			return nil, fmt.Errorf("fulfillment create failed: %w", err)
		}

		if len(payload.FulfillmentCreate.UserErrors) > 0 {
			for _, ue := range payload.FulfillmentCreate.UserErrors {
				result.Errors = append(result.Errors,
					fmt.Sprintf("box %d: %s", shipment.BoxIndex, ue.Message))
			}
			continue
		}

		result.FulfillmentIDs = append(result.FulfillmentIDs, payload.FulfillmentCreate.Fulfillment.ID)
		logger.Get().Info("Fulfillment created",
			zap.String("order_gid", orderGID),
			zap.Int("box", shipment.BoxIndex),
			zap.String("fulfillment_id", payload.FulfillmentCreate.Fulfillment.ID),
		)
	}

	return result, nil
}

// NotifyCustomer sends the platform shipping notification for a previously
// created fulfillment.
func (a *ShopifyFulfillmentAdapter) NotifyCustomer(ctx context.Context, fulfillmentID string) error {
	var payload struct {
		FulfillmentNotify struct {
			UserErrors []struct {
				Message string `json:"message"`
			} `json:"userErrors"`
		} `json:"fulfillmentNotify"`
	}
	if err := a.graphql(ctx, fulfillmentNotifyMutation, map[string]interface{}{"id": fulfillmentID}, &payload); err != nil {
		return fmt.Errorf("fulfillment notify failed: %w", err)
	}
	if len(payload.FulfillmentNotify.UserErrors) > 0 {
		return fmt.Errorf("fulfillment notify rejected: %s", payload.FulfillmentNotify.UserErrors[0].Message)
	}
	return nil
}

// fetchFulfillmentOrderLineItems builds the numeric line item id to
// fulfillment order line item index for an order.
func (a *ShopifyFulfillmentAdapter) fetchFulfillmentOrderLineItems(ctx context.Context, orderGID string) (map[int64]foLineItem, error) {
	var payload struct {
		Order struct {
			FulfillmentOrders struct {
				Edges []struct {
					Node struct {
						ID        string `json:"id"`
						Status    string `json:"status"`
						LineItems struct {
							Edges []struct {
								Node struct {
									ID                string `json:"id"`
									RemainingQuantity int    `json:"remainingQuantity"`
									LineItem          struct {
										ID string `json:"id"`
									} `json:"lineItem"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"lineItems"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"fulfillmentOrders"`
		} `json:"order"`
	}
	if err := a.graphql(ctx, fulfillmentOrdersQuery, map[string]interface{}{"orderId": orderGID}, &payload); err != nil {
		return nil, fmt.Errorf("fulfillment orders query failed: %w", err)
	}

	lineItemMap := make(map[int64]foLineItem)
	for _, foEdge := range payload.Order.FulfillmentOrders.Edges {
		fo := foEdge.Node
		if fo.Status == "CLOSED" || fo.Status == "CANCELLED" {
			continue
		}
		for _, liEdge := range fo.LineItems.Edges {
			node := liEdge.Node
			numericID, ok := numericGIDSuffix(node.LineItem.ID)
			if !ok {
				continue
			}
			lineItemMap[numericID] = foLineItem{
				foLineItemGID:      node.ID,
				fulfillmentOrderID: fo.ID,
				remainingQuantity:  node.RemainingQuantity,
			}
		}
	}
	return lineItemMap, nil
}

// buildFulfillmentInput groups a shipment's line items per fulfillment order
// and returns the mutation input. A nil input with no errors means the
// shipment had nothing fulfillable.
func buildFulfillmentInput(shipment ports.Shipment, tracking ports.Tracking, lineItemMap map[int64]foLineItem) (map[string]interface{}, []string) {
	type foLine struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}

	grouped := make(map[string][]foLine)
	var userErrs []string

	for _, item := range shipment.Items {
		if item.Quantity <= 0 {
			continue
		}
		entry, ok := lineItemMap[item.LineItemID]
		if !ok {
			userErrs = append(userErrs,
				fmt.Sprintf("box %d: unknown line item %d", shipment.BoxIndex, item.LineItemID))
			continue
		}
		if item.Quantity > entry.remainingQuantity {
			userErrs = append(userErrs,
				fmt.Sprintf("box %d: quantity %d exceeds remaining %d for line item %d",
					shipment.BoxIndex, item.Quantity, entry.remainingQuantity, item.LineItemID))
			continue
		}
		grouped[entry.fulfillmentOrderID] = append(grouped[entry.fulfillmentOrderID], foLine{
			ID:       entry.foLineItemGID,
			Quantity: item.Quantity,
		})
	}

	if len(userErrs) > 0 || len(grouped) == 0 {
		return nil, userErrs
	}

	var byFO []map[string]interface{}
	for foID, lines := range grouped {
		byFO = append(byFO, map[string]interface{}{
			"fulfillmentOrderId":        foID,
			"fulfillmentOrderLineItems": lines,
		})
	}

	trackingInfo := map[string]interface{}{
		"number":  tracking.Number,
		"company": tracking.Company,
	}
	if tracking.URL != "" {
		trackingInfo["url"] = tracking.URL
	}

	return map[string]interface{}{
		"lineItemsByFulfillmentOrder": byFO,
		"trackingInfo":                trackingInfo,
		"notifyCustomer":              false,
	}, nil
}

// numericGIDSuffix extracts the trailing numeric id from a platform global id
// such as "gid://shopify/LineItem/901".
func numericGIDSuffix(gid string) (int64, bool) {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 || idx == len(gid)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(gid[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
