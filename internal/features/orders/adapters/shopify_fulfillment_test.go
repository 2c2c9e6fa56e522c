package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scan-station/internal/features/orders/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foQueryResponse = `{
	"data": {
		"order": {
			"fulfillmentOrders": {
				"edges": [
					{
						"node": {
							"id": "gid://shopify/FulfillmentOrder/70",
							"status": "OPEN",
							"lineItems": {
								"edges": [
									{
										"node": {
											"id": "gid://shopify/FulfillmentOrderLineItem/501",
											"remainingQuantity": 2,
											"lineItem": {"id": "gid://shopify/LineItem/901"}
										}
									},
									{
										"node": {
											"id": "gid://shopify/FulfillmentOrderLineItem/502",
											"remainingQuantity": 1,
											"lineItem": {"id": "gid://shopify/LineItem/902"}
										}
									}
								]
							}
						}
					},
					{
						"node": {
							"id": "gid://shopify/FulfillmentOrder/71",
							"status": "CLOSED",
							"lineItems": {
								"edges": [
									{
										"node": {
											"id": "gid://shopify/FulfillmentOrderLineItem/503",
											"remainingQuantity": 5,
											"lineItem": {"id": "gid://shopify/LineItem/903"}
										}
									}
								]
							}
						}
					}
				]
			}
		}
	}
}`

// graphqlRequest captures the query and variables posted to the mock server.
type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// TestShopifyFulfillmentAdapter_CreateFulfillment_Success verifies line item
// mapping, grouping and mutation dispatch.
func TestShopifyFulfillmentAdapter_CreateFulfillment_Success(t *testing.T) {
	var mutations []graphqlRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))

		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.WriteHeader(http.StatusOK)
		if strings.Contains(req.Query, "FulfillmentOrders(") || strings.Contains(req.Query, "fulfillmentOrders(") {
			w.Write([]byte(foQueryResponse))
			return
		}

		mutations = append(mutations, req)
		w.Write([]byte(`{
			"data": {
				"fulfillmentCreate": {
					"fulfillment": {"id": "gid://shopify/Fulfillment/9001", "status": "SUCCESS"},
					"userErrors": []
				}
			}
		}`))
	}))
	defer server.Close()

	adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))

	shipments := []ports.Shipment{
		{BoxIndex: 1, Items: []ports.ShipmentItem{
			{LineItemID: 901, Quantity: 2},
			{LineItemID: 902, Quantity: 1},
		}},
	}
	tracking := ports.Tracking{Number: "SWE123456", Company: "SWE / ParcelPerfect"}

	result, err := adapter.CreateFulfillment(context.Background(), "gid://shopify/Order/1", shipments, tracking)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Errors)
	require.Len(t, result.FulfillmentIDs, 1)
	assert.Equal(t, "gid://shopify/Fulfillment/9001", result.FulfillmentIDs[0])

	require.Len(t, mutations, 1)
	fulfillment := mutations[0].Variables["fulfillment"].(map[string]interface{})
	assert.Equal(t, false, fulfillment["notifyCustomer"])

	trackingInfo := fulfillment["trackingInfo"].(map[string]interface{})
	assert.Equal(t, "SWE123456", trackingInfo["number"])

	byFO := fulfillment["lineItemsByFulfillmentOrder"].([]interface{})
	require.Len(t, byFO, 1)
	group := byFO[0].(map[string]interface{})
	assert.Equal(t, "gid://shopify/FulfillmentOrder/70", group["fulfillmentOrderId"])
	assert.Len(t, group["fulfillmentOrderLineItems"].([]interface{}), 2)
}

// TestShopifyFulfillmentAdapter_CreateFulfillment_QuantityExceedsRemaining
// verifies over-allocation is rejected without calling the mutation.
func TestShopifyFulfillmentAdapter_CreateFulfillment_QuantityExceedsRemaining(t *testing.T) {
	mutationCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.WriteHeader(http.StatusOK)
		if strings.Contains(req.Query, "fulfillmentOrders(") {
			w.Write([]byte(foQueryResponse))
			return
		}
		mutationCalls++
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))

	shipments := []ports.Shipment{
		{BoxIndex: 1, Items: []ports.ShipmentItem{{LineItemID: 902, Quantity: 3}}},
	}

	result, err := adapter.CreateFulfillment(context.Background(), "gid://shopify/Order/1", shipments, ports.Tracking{Number: "X"})

	require.NoError(t, err)
	assert.Zero(t, mutationCalls)
	assert.Empty(t, result.FulfillmentIDs)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "exceeds remaining")
}

// TestShopifyFulfillmentAdapter_CreateFulfillment_UnknownLineItem verifies
// unmatched line items surface as user errors.
func TestShopifyFulfillmentAdapter_CreateFulfillment_UnknownLineItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(foQueryResponse))
	}))
	defer server.Close()

	adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))

	// Line item 903 sits on a CLOSED fulfillment order and is excluded.
	shipments := []ports.Shipment{
		{BoxIndex: 2, Items: []ports.ShipmentItem{{LineItemID: 903, Quantity: 1}}},
	}

	result, err := adapter.CreateFulfillment(context.Background(), "gid://shopify/Order/1", shipments, ports.Tracking{Number: "X"})

	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unknown line item 903")
}

// TestShopifyFulfillmentAdapter_CreateFulfillment_PlatformUserErrors verifies
// mutation userErrors are collected per box.
func TestShopifyFulfillmentAdapter_CreateFulfillment_PlatformUserErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.WriteHeader(http.StatusOK)
		if strings.Contains(req.Query, "fulfillmentOrders(") {
			w.Write([]byte(foQueryResponse))
			return
		}
		w.Write([]byte(`{
			"data": {
				"fulfillmentCreate": {
					"fulfillment": null,
					"userErrors": [{"field": null, "message": "Order is archived"}]
				}
			}
		}`))
	}))
	defer server.Close()

	adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))

	shipments := []ports.Shipment{
		{BoxIndex: 1, Items: []ports.ShipmentItem{{LineItemID: 901, Quantity: 1}}},
	}

	result, err := adapter.CreateFulfillment(context.Background(), "gid://shopify/Order/1", shipments, ports.Tracking{Number: "X"})

	require.NoError(t, err)
	assert.Empty(t, result.FulfillmentIDs)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Order is archived")
}

// TestShopifyFulfillmentAdapter_NotifyCustomer verifies the notify mutation.
func TestShopifyFulfillmentAdapter_NotifyCustomer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req graphqlRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Contains(t, req.Query, "fulfillmentNotify")
			assert.Equal(t, "gid://shopify/Fulfillment/9001", req.Variables["id"])

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": {"fulfillmentNotify": {"fulfillment": {"id": "gid://shopify/Fulfillment/9001"}, "userErrors": []}}}`))
		}))
		defer server.Close()

		adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))
		err := adapter.NotifyCustomer(context.Background(), "gid://shopify/Fulfillment/9001")
		assert.NoError(t, err)
	})

	t.Run("UserError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": {"fulfillmentNotify": {"userErrors": [{"message": "already notified"}]}}}`))
		}))
		defer server.Close()

		adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))
		err := adapter.NotifyCustomer(context.Background(), "gid://shopify/Fulfillment/9001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already notified")
	})

	t.Run("GraphQLError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": null, "errors": [{"message": "throttled"}]}`))
		}))
		defer server.Close()

		adapter := NewShopifyFulfillmentAdapter(shopifyTestConfig(server.URL))
		err := adapter.NotifyCustomer(context.Background(), "gid://shopify/Fulfillment/9001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
	})
}

// TestNumericGIDSuffix verifies global id parsing.
func TestNumericGIDSuffix(t *testing.T) {
	tests := []struct {
		gid    string
		want   int64
		wantOK bool
	}{
		{"gid://shopify/LineItem/901", 901, true},
		{"gid://shopify/Order/5551013", 5551013, true},
		{"gid://shopify/LineItem/", 0, false},
		{"no-slashes", 0, false},
		{"gid://shopify/LineItem/abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.gid, func(t *testing.T) {
			n, ok := numericGIDSuffix(tt.gid)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}
