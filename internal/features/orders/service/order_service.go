package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"scan-station/internal/core/logger"
	"scan-station/internal/core/store"
	"scan-station/internal/features/orders/domain"
	"scan-station/internal/features/orders/ports"

	"go.uber.org/zap"
)

const (
	// worklistKey holds the cached open-order snapshot in the station store.
	worklistKey = "worklist:open"
	// maxWorklistAge drops stale orders from the dispatch board.
	maxWorklistAge = 180 * time.Hour
	// maxWorklistSize caps the board at what fits on the station screen.
	maxWorklistSize = 40
)

// OrderService handles order lookup and the open-order worklist for the
// dispatch board.
type OrderService struct {
	// source is the interface for fetching order data from the platform.
	source ports.OrderSource
	// store caches the worklist snapshot so the board survives platform
	// outages between refreshes.
	store store.Store
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(source ports.OrderSource, st store.Store) *OrderService {
	return &OrderService{
		source: source,
		store:  st,
	}
}

// GetOrder retrieves a full order snapshot by display number.
func (s *OrderService) GetOrder(ctx context.Context, name string) (*domain.Order, error) {
	return s.source.FetchOrder(ctx, name)
}

// Worklist is the cached open-order snapshot served to the dispatch board.
type Worklist struct {
	// Orders are the open orders, newest first.
	Orders []domain.Summary `json:"orders"`
	// RefreshedAt is when the snapshot was fetched from the platform.
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Refresh fetches open orders from the platform, trims them to the board
// rules and caches the snapshot.
func (s *OrderService) Refresh(ctx context.Context) (*Worklist, error) {
	summaries, err := s.source.FetchOpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	list := &Worklist{
		Orders:      trimWorklist(summaries, time.Now()),
		RefreshedAt: time.Now(),
	}

	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, worklistKey, data); err != nil {
		// Stale cache is acceptable; the fresh snapshot still serves.
		logger.Get().Warn("Failed to cache worklist snapshot", zap.Error(err))
	}

	logger.Get().Info("Worklist refreshed", zap.Int("orders", len(list.Orders)))
	return list, nil
}

// OpenOrders returns the cached worklist, refreshing when no snapshot exists.
func (s *OrderService) OpenOrders(ctx context.Context) (*Worklist, error) {
	data, err := s.store.Get(ctx, worklistKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.Refresh(ctx)
		}
		return nil, err
	}

	var list Worklist
	if err := json.Unmarshal(data, &list); err != nil {
		// Corrupt snapshot, fall back to a live fetch.
		logger.Get().Warn("Discarding corrupt worklist snapshot", zap.Error(err))
		return s.Refresh(ctx)
	}
	return &list, nil
}

// trimWorklist applies the board rules: open statuses only, nothing older
// than the age cap, newest first, bounded size.
func trimWorklist(summaries []domain.Summary, now time.Time) []domain.Summary {
	cutoff := now.Add(-maxWorklistAge)

	kept := make([]domain.Summary, 0, len(summaries))
	for _, s := range summaries {
		switch s.FulfillmentStatus {
		case "", "unfulfilled", "in_progress", "partial":
		default:
			continue
		}
		if !s.CreatedAt.IsZero() && s.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, s)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})

	if len(kept) > maxWorklistSize {
		kept = kept[:maxWorklistSize]
	}
	return kept
}
