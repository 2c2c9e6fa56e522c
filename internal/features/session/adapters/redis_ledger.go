package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"scan-station/internal/core/store"
)

// bookedLedgerKey is the single record holding the booked order set.
const bookedLedgerKey = "booked:ledger"

// BookedLedgerRepository persists the booked-order set in the station store.
// The set is small (one entry per booked order) so it is kept as one JSON
// record and rewritten on every insert; each Add lands durably before the
// call returns.
type BookedLedgerRepository struct {
	store store.Store
}

// NewBookedLedgerRepository creates a new BookedLedgerRepository.
func NewBookedLedgerRepository(s store.Store) *BookedLedgerRepository {
	return &BookedLedgerRepository{store: s}
}

// Contains implements ports.BookedLedger.
func (r *BookedLedgerRepository) Contains(ctx context.Context, orderRef string) (bool, error) {
	set, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	return set[orderRef], nil
}

// Add implements ports.BookedLedger.
func (r *BookedLedgerRepository) Add(ctx context.Context, orderRef string) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	if set[orderRef] {
		return nil
	}
	set[orderRef] = true

	refs := make([]string, 0, len(set))
	for ref := range set {
		refs = append(refs, ref)
	}

	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to marshal booked ledger: %w", err)
	}
	return r.store.Set(ctx, bookedLedgerKey, data)
}

// Reset implements ports.BookedLedger.
func (r *BookedLedgerRepository) Reset(ctx context.Context) error {
	return r.store.Delete(ctx, bookedLedgerKey)
}

func (r *BookedLedgerRepository) load(ctx context.Context) (map[string]bool, error) {
	data, err := r.store.Get(ctx, bookedLedgerKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[string]bool{}, nil
		}
		return nil, err
	}

	var refs []string
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booked ledger: %w", err)
	}

	set := make(map[string]bool, len(refs))
	for _, ref := range refs {
		set[ref] = true
	}
	return set, nil
}
