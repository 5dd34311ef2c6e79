package ordering

import (
	"context"
	"fmt"
)

// Operation is a two-phase board mutation: Apply changes local state,
// Persist writes the change to the store.
type Operation struct {
	Name    string
	Apply   func()
	Persist func(ctx context.Context) error
	// ResyncOnError reloads the board's tasks when Persist fails.
	ResyncOnError bool
}

// Run executes op on the engine's board.
func (e *Engine) Run(ctx context.Context, op Operation) error {
	return e.run(ctx, op)
}

func (e *Engine) run(ctx context.Context, op Operation) error {
	if op.Apply != nil {
		op.Apply()
	}
	if op.Persist == nil {
		return nil
	}
	err := op.Persist(ctx)
	if err == nil {
		return nil
	}
	entry := e.log.WithError(err).WithField("op", op.Name)
	if op.ResyncOnError {
		if rerr := e.Resync(ctx); rerr != nil {
			entry.WithField("resync_error", rerr.Error()).Error("ordering: persist failed and resync failed")
		} else {
			entry.Warn("ordering: persist failed, board resynced")
		}
	} else {
		entry.Warn("ordering: persist failed, keeping local state")
	}
	return fmt.Errorf("ordering: %s: %w", op.Name, err)
}

