package shared

import "context"

// Sequencer hands out gap-free, strictly increasing numbers per scope.
// Next must be called inside the transaction that persists the numbered
// record so that a rollback also rolls the counter back.
type Sequencer interface {
	Next(ctx context.Context, scope string) (int64, error)

	// Seed raises the counter of scope to at least value
	Seed(ctx context.Context, scope string, value int64) error

	// Current returns the last issued number of scope, 0 if none
	Current(ctx context.Context, scope string) (int64, error)
}
