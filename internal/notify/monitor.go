package notify

import (
	"context"
	"log"
	"time"

	"fellowship-backend/internal/store"
)

// Monitor removes dead tokens and ages out unused ones. Both operations are
// idempotent; re-running them over already-handled rows changes nothing.
type Monitor struct {
	store store.Store
}

// NewMonitor creates a monitor over the given store.
func NewMonitor(s store.Store) *Monitor {
	return &Monitor{store: s}
}

// PruneInvalid hard-deletes the rows for tokens the provider reported as
// permanently invalid, typically the InvalidTokens list of a dispatch Result.
func (m *Monitor) PruneInvalid(ctx context.Context, tokens []string) (int64, error) {
	removed, err := m.store.DeleteTokens(ctx, tokens)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("pruned %d invalid device tokens", removed)
	}
	return removed, nil
}

// AgeOut deactivates the user's tokens unused for longer than the retention
// window. Rows are kept, not deleted, so the registration history stays
// auditable; they just stop being fan-out targets.
func (m *Monitor) AgeOut(ctx context.Context, userID string, window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	return m.store.DeactivateUnused(ctx, userID, cutoff)
}
