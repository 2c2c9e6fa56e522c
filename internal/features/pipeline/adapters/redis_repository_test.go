package adapter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scan-station/internal/core/store"
	ordersdomain "scan-station/internal/features/orders/domain"
	"scan-station/internal/features/pipeline/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := store.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	return st
}

func planFixture(orderName string) *domain.PackPlan {
	plan := domain.NewPackPlan(&ordersdomain.Order{
		Name: orderName,
		GID:  "gid://shopify/Order/1",
		ShipTo: ordersdomain.Address{
			Name: "Piet Botha",
			City: "Cape Town",
		},
		LineItems: []ordersdomain.LineItem{
			{ID: 901, Title: "Widget", FulfillableQuantity: 2},
		},
	})
	plan.SetMilestone(domain.StageBooked, domain.StatusOK, "waybill SWE1")
	return plan
}

// TestPlanRepository_RoundTrip verifies save and load with milestones intact.
func TestPlanRepository_RoundTrip(t *testing.T) {
	repo := NewPlanRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, planFixture("1013")))

	loaded, err := repo.Load(ctx, "1013")
	require.NoError(t, err)
	assert.Equal(t, "1013", loaded.OrderName)
	assert.True(t, loaded.StageOK(domain.StageBooked))
	require.Len(t, loaded.LineItems, 1)
	assert.Equal(t, 2, loaded.LineItems[0].Fulfillable)
	require.Len(t, loaded.Log, 1)
}

// TestPlanRepository_LoadMissing verifies the not-found sentinel.
func TestPlanRepository_LoadMissing(t *testing.T) {
	repo := NewPlanRepository(newTestStore(t))

	_, err := repo.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

// TestPlanRepository_Delete verifies removal.
func TestPlanRepository_Delete(t *testing.T) {
	repo := NewPlanRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, planFixture("1013")))
	require.NoError(t, repo.Delete(ctx, "1013"))

	_, err := repo.Load(ctx, "1013")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

// TestPlanRepository_List verifies listing all stored plans.
func TestPlanRepository_List(t *testing.T) {
	repo := NewPlanRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, planFixture("1013")))
	require.NoError(t, repo.Save(ctx, planFixture("1014")))

	plans, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	names := []string{plans[0].OrderName, plans[1].OrderName}
	assert.ElementsMatch(t, []string{"1013", "1014"}, names)
}

// TestCompletedLedgerRepository_PushAndCap verifies newest-first ordering and
// the 50-entry cap.
func TestCompletedLedgerRepository_PushAndCap(t *testing.T) {
	repo := NewCompletedLedgerRepository(newTestStore(t))
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		require.NoError(t, repo.Push(ctx, domain.CompletedEntry{
			Date:    time.Now(),
			Order:   fmt.Sprintf("%d", 1000+i),
			Waybill: fmt.Sprintf("SWE%d", i),
		}))
	}

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 50)
	assert.Equal(t, "1054", entries[0].Order, "newest first")
	assert.Equal(t, "1005", entries[49].Order, "oldest surviving")
}

// TestCompletedLedgerRepository_EmptyList verifies an empty ledger reads as nil.
func TestCompletedLedgerRepository_EmptyList(t *testing.T) {
	repo := NewCompletedLedgerRepository(newTestStore(t))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestNoteRepository verifies get, set and clear.
func TestNoteRepository(t *testing.T) {
	repo := NewNoteRepository(newTestStore(t))
	ctx := context.Background()

	note, err := repo.Get(ctx, "1013")
	require.NoError(t, err)
	assert.Empty(t, note)

	require.NoError(t, repo.Set(ctx, "1013", "fragile, call ahead"))

	note, err = repo.Get(ctx, "1013")
	require.NoError(t, err)
	assert.Equal(t, "fragile, call ahead", note)

	require.NoError(t, repo.Set(ctx, "1013", "  "))
	note, err = repo.Get(ctx, "1013")
	require.NoError(t, err)
	assert.Empty(t, note)
}
