package ports

import (
	"context"

	"scan-station/internal/features/pipeline/domain"
)

// PlanStore persists pack plans keyed by order number.
// This is a Secondary Port (Driven Port).
type PlanStore interface {
	// Load returns the plan for an order, or domain.ErrPlanNotFound.
	Load(ctx context.Context, orderName string) (*domain.PackPlan, error)

	// Save writes a plan durably. The write must complete before the call
	// returns; milestone state may never lag the carrier's reality.
	Save(ctx context.Context, plan *domain.PackPlan) error

	// Delete removes a plan.
	Delete(ctx context.Context, orderName string) error

	// List returns all stored plans.
	List(ctx context.Context) ([]*domain.PackPlan, error)
}

// CompletedLedger is the capped most-recent-first archive of finished orders.
type CompletedLedger interface {
	// Push prepends an entry, trimming the ledger to its cap.
	Push(ctx context.Context, entry domain.CompletedEntry) error

	// List returns the ledger, newest first.
	List(ctx context.Context) ([]domain.CompletedEntry, error)
}

// NoteStore keeps free-text dispatch notes keyed by order number.
type NoteStore interface {
	// Get returns the note for an order, empty when none exists.
	Get(ctx context.Context, orderName string) (string, error)

	// Set writes the note for an order. Empty text clears it.
	Set(ctx context.Context, orderName, text string) error
}

// DocumentPrinter submits documents to the station label printer.
type DocumentPrinter interface {
	// Print submits one base64 PDF under a job title.
	Print(ctx context.Context, base64PDF, title string) error
}
