package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scan-station/internal/core/store"
	"scan-station/internal/features/pipeline/domain"
)

const (
	planKeyPrefix      = "plan:"
	completedLedgerKey = "completed:ledger"
	noteKeyPrefix      = "note:"

	// maxCompletedEntries caps the archive ledger.
	maxCompletedEntries = 50
)

// PlanRepository implements the PlanStore interface over the station
// key-value store.
type PlanRepository struct {
	store store.Store
}

// NewPlanRepository creates a new instance of PlanRepository.
func NewPlanRepository(st store.Store) *PlanRepository {
	return &PlanRepository{store: st}
}

func planKey(orderName string) string {
	return planKeyPrefix + orderName
}

// Load returns the plan for an order, or domain.ErrPlanNotFound.
func (r *PlanRepository) Load(ctx context.Context, orderName string) (*domain.PackPlan, error) {
	data, err := r.store.Get(ctx, planKey(orderName))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	var plan domain.PackPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode pack plan: %w", err)
	}
	return &plan, nil
}

// Save writes a plan durably before returning.
func (r *PlanRepository) Save(ctx context.Context, plan *domain.PackPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode pack plan: %w", err)
	}
	return r.store.Set(ctx, planKey(plan.OrderName), data)
}

// Delete removes a plan.
func (r *PlanRepository) Delete(ctx context.Context, orderName string) error {
	return r.store.Delete(ctx, planKey(orderName))
}

// List returns all stored plans.
func (r *PlanRepository) List(ctx context.Context) ([]*domain.PackPlan, error) {
	keys, err := r.store.Keys(ctx, planKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	plans := make([]*domain.PackPlan, 0, len(keys))
	for _, key := range keys {
		plan, err := r.Load(ctx, strings.TrimPrefix(key, planKeyPrefix))
		if err != nil {
			if errors.Is(err, domain.ErrPlanNotFound) {
				continue
			}
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// CompletedLedgerRepository implements the CompletedLedger interface as a
// single JSON list under one key, trimmed on every push.
type CompletedLedgerRepository struct {
	store store.Store
}

// NewCompletedLedgerRepository creates a new instance of
// CompletedLedgerRepository.
func NewCompletedLedgerRepository(st store.Store) *CompletedLedgerRepository {
	return &CompletedLedgerRepository{store: st}
}

// Push prepends an entry, trimming the ledger to its cap.
func (r *CompletedLedgerRepository) Push(ctx context.Context, entry domain.CompletedEntry) error {
	entries, err := r.List(ctx)
	if err != nil {
		return err
	}

	entries = append([]domain.CompletedEntry{entry}, entries...)
	if len(entries) > maxCompletedEntries {
		entries = entries[:maxCompletedEntries]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode completed ledger: %w", err)
	}
	return r.store.Set(ctx, completedLedgerKey, data)
}

// List returns the ledger, newest first.
func (r *CompletedLedgerRepository) List(ctx context.Context) ([]domain.CompletedEntry, error) {
	data, err := r.store.Get(ctx, completedLedgerKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.CompletedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode completed ledger: %w", err)
	}
	return entries, nil
}

// NoteRepository implements the NoteStore interface.
type NoteRepository struct {
	store store.Store
}

// NewNoteRepository creates a new instance of NoteRepository.
func NewNoteRepository(st store.Store) *NoteRepository {
	return &NoteRepository{store: st}
}

// Get returns the note for an order, empty when none exists.
func (r *NoteRepository) Get(ctx context.Context, orderName string) (string, error) {
	data, err := r.store.Get(ctx, noteKeyPrefix+orderName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Set writes the note for an order. Empty text clears it.
func (r *NoteRepository) Set(ctx context.Context, orderName, text string) error {
	key := noteKeyPrefix + orderName
	if strings.TrimSpace(text) == "" {
		return r.store.Delete(ctx, key)
	}
	return r.store.Set(ctx, key, []byte(text))
}
