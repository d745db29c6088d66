package push

import (
	"context"
	"log"
)

// DryRunSender logs instead of delivering. It backs local development when
// no provider credentials are configured.
type DryRunSender struct{}

// Send logs the would-be delivery and reports success.
func (DryRunSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	log.Printf("dry-run push to %s: %q / %q", Redact(token), title, body)
	return nil
}

// Redact shortens a token for log output. Tokens are credentials and must
// never be logged whole.
func Redact(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
