package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

// WebPushSender delivers notifications over the Web Push protocol with VAPID
// authentication. The stored token is the marshalled browser subscription
// (endpoint plus keys), so it fits the same opaque-token contract as FCM.
type WebPushSender struct {
	options *webpush.Options
}

// NewWebPushSender returns a Sender using the given VAPID options.
func NewWebPushSender(options *webpush.Options) *WebPushSender {
	return &WebPushSender{options: options}
}

// webPushPayload is the JSON body handed to the service worker.
type webPushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Send delivers one message to one subscription token.
func (s *WebPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil {
		// A token that cannot even be decoded will never become deliverable.
		return fmt.Errorf("%w: malformed subscription: %v", ErrInvalidToken, err)
	}

	payload, err := json.Marshal(webPushPayload{Title: title, Body: body, Data: data})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub, s.options)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The push service reports the subscription as expired or revoked.
		return fmt.Errorf("%w: push service returned %d", ErrInvalidToken, resp.StatusCode)
	default:
		return fmt.Errorf("%w: push service returned %d", ErrTransient, resp.StatusCode)
	}
}
