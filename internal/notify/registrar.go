package notify

import (
	"context"
	"fmt"

	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

// Registration is the outcome of a device registration.
type Registration struct {
	TokenID string             `json:"token_id"`
	Action  store.UpsertAction `json:"action"`
}

// Registrar acquires a push token for the current device and records it.
type Registrar struct {
	store  store.Store
	source push.TokenSource
}

// NewRegistrar creates a registrar over the given store and token source.
func NewRegistrar(s store.Store, source push.TokenSource) *Registrar {
	return &Registrar{store: s, source: source}
}

// Register acquires a fresh token and upserts it for the user. Registering
// a token the store already knows refreshes its metadata and reactivates it
// instead of creating a second row.
func (r *Registrar) Register(ctx context.Context, userID string) (Registration, error) {
	acquired, err := r.source.Acquire(ctx)
	if err != nil {
		// ErrUnsupported and ErrPermissionDenied pass through for the UI layer.
		return Registration{}, fmt.Errorf("token acquisition failed: %w", err)
	}

	tokenID, action, err := r.store.UpsertDeviceToken(ctx, userID, acquired.Token, acquired.Device)
	if err != nil {
		return Registration{}, err
	}
	return Registration{TokenID: tokenID, Action: action}, nil
}
