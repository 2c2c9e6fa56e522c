package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"scan-station/internal/core/store"
	"scan-station/internal/features/orders/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOrderSource implements ports.OrderSource for tests.
type mockOrderSource struct {
	order      *domain.Order
	orderErr   error
	summaries  []domain.Summary
	openErr    error
	fetchCalls int
}

func (m *mockOrderSource) FetchOrder(ctx context.Context, name string) (*domain.Order, error) {
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return m.order, nil
}

func (m *mockOrderSource) FetchOpenOrders(ctx context.Context) ([]domain.Summary, error) {
	m.fetchCalls++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.summaries, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := store.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	return st
}

func summaryAt(name string, age time.Duration, status string) domain.Summary {
	return domain.Summary{
		Name:              name,
		FulfillmentStatus: status,
		CreatedAt:         time.Now().Add(-age),
	}
}

// TestRefresh_FiltersAndCaches verifies board rules and snapshot caching.
func TestRefresh_FiltersAndCaches(t *testing.T) {
	source := &mockOrderSource{
		summaries: []domain.Summary{
			summaryAt("1001", 2*time.Hour, "unfulfilled"),
			summaryAt("1002", 1*time.Hour, "in_progress"),
			summaryAt("1003", 200*time.Hour, "unfulfilled"),
			summaryAt("1004", 3*time.Hour, "fulfilled"),
		},
	}
	st := newTestStore(t)
	svc := NewOrderService(source, st)

	list, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, "1002", list.Orders[0].Name)
	assert.Equal(t, "1001", list.Orders[1].Name)
	assert.WithinDuration(t, time.Now(), list.RefreshedAt, time.Second)

	cached, err := st.Get(context.Background(), "worklist:open")
	require.NoError(t, err)

	var snapshot Worklist
	require.NoError(t, json.Unmarshal([]byte(cached), &snapshot))
	assert.Len(t, snapshot.Orders, 2)
}

// TestRefresh_CapsListSize verifies the board size cap.
func TestRefresh_CapsListSize(t *testing.T) {
	source := &mockOrderSource{}
	for i := 0; i < 60; i++ {
		source.summaries = append(source.summaries,
			summaryAt("n", time.Duration(i)*time.Minute, "unfulfilled"))
	}
	svc := NewOrderService(source, newTestStore(t))

	list, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.Len(t, list.Orders, 40)
}

// TestOpenOrders_ServesCachedSnapshot verifies the cache is preferred over a
// live fetch.
func TestOpenOrders_ServesCachedSnapshot(t *testing.T) {
	source := &mockOrderSource{
		summaries: []domain.Summary{summaryAt("1001", time.Hour, "unfulfilled")},
	}
	st := newTestStore(t)
	svc := NewOrderService(source, st)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, source.fetchCalls)

	list, err := svc.OpenOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
	assert.Equal(t, 1, source.fetchCalls, "cached snapshot should not refetch")
}

// TestOpenOrders_RefreshesOnMiss verifies a live fetch when no snapshot exists.
func TestOpenOrders_RefreshesOnMiss(t *testing.T) {
	source := &mockOrderSource{
		summaries: []domain.Summary{summaryAt("1001", time.Hour, "unfulfilled")},
	}
	svc := NewOrderService(source, newTestStore(t))

	list, err := svc.OpenOrders(context.Background())

	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
	assert.Equal(t, 1, source.fetchCalls)
}

// TestOpenOrders_RefreshesOnCorruptSnapshot verifies fallback to a live fetch.
func TestOpenOrders_RefreshesOnCorruptSnapshot(t *testing.T) {
	source := &mockOrderSource{
		summaries: []domain.Summary{summaryAt("1001", time.Hour, "unfulfilled")},
	}
	st := newTestStore(t)
	require.NoError(t, st.Set(context.Background(), "worklist:open", []byte("{not json")))

	svc := NewOrderService(source, st)
	list, err := svc.OpenOrders(context.Background())

	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
}

// TestRefresh_SourceError verifies upstream errors propagate.
func TestRefresh_SourceError(t *testing.T) {
	source := &mockOrderSource{openErr: errors.New("platform down")}
	svc := NewOrderService(source, newTestStore(t))

	list, err := svc.Refresh(context.Background())

	require.Error(t, err)
	assert.Nil(t, list)
}

// TestGetOrder_PassThrough verifies lookup delegation.
func TestGetOrder_PassThrough(t *testing.T) {
	source := &mockOrderSource{order: &domain.Order{Name: "1013"}}
	svc := NewOrderService(source, newTestStore(t))

	order, err := svc.GetOrder(context.Background(), "1013")

	require.NoError(t, err)
	assert.Equal(t, "1013", order.Name)
}
