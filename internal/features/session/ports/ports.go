package ports

import "context"

// BookedLedger is the durable set of order references already booked with the
// carrier. It gates every booking attempt; on restart the ledger wins over
// any other local state. This is a Secondary Port (Driven Port).
type BookedLedger interface {
	// Contains reports whether an order was already booked.
	Contains(ctx context.Context, orderRef string) (bool, error)

	// Add records an order as booked. The write must complete before the
	// call returns.
	Add(ctx context.Context, orderRef string) error

	// Reset clears the whole ledger. Operator action only.
	Reset(ctx context.Context) error
}
