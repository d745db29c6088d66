// Package push is the delivery boundary towards the external push provider.
// The lifecycle components only ever consume the Sender and TokenSource
// contracts defined here, so the provider can be swapped without touching
// registration, dispatch or pruning.
package push

import (
	"context"
	"errors"

	"fellowship-backend/internal/model"
)

// Failure classes reported across the bridge. Callers classify with
// errors.Is; concrete provider errors are wrapped, never returned bare.
var (
	// ErrUnsupported means the runtime cannot do push messaging at all.
	ErrUnsupported = errors.New("push: platform unsupported")
	// ErrPermissionDenied means the user has not granted notification permission.
	ErrPermissionDenied = errors.New("push: permission denied")
	// ErrInvalidToken means the provider will never again accept this token.
	ErrInvalidToken = errors.New("push: token permanently invalid")
	// ErrTransient covers network, quota and timeout failures. Safe to retry,
	// never a reason to prune the recipient.
	ErrTransient = errors.New("push: transient delivery failure")
)

// Sender delivers one message to one token.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// AcquiredToken is the result of a successful token acquisition.
type AcquiredToken struct {
	Token  string
	Device model.DeviceInfo
}

// TokenSource acquires a fresh push token for the current device.
type TokenSource interface {
	Acquire(ctx context.Context) (AcquiredToken, error)
}

// StaticTokenSource returns a TokenSource yielding a fixed, already-acquired
// token. The HTTP layer uses it to feed the registrar with the token the
// browser acquired on its side of the boundary.
func StaticTokenSource(token string, device model.DeviceInfo) TokenSource {
	return staticSource{token: token, device: device}
}

type staticSource struct {
	token  string
	device model.DeviceInfo
}

func (s staticSource) Acquire(ctx context.Context) (AcquiredToken, error) {
	if s.token == "" {
		return AcquiredToken{}, ErrUnsupported
	}
	return AcquiredToken{Token: s.token, Device: s.device}, nil
}
