package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

// Result aggregates per-token outcomes of one fan-out. Failed counts every
// unsuccessful send; InvalidTokens additionally lists the subset whose
// tokens the provider reported as permanently dead.
type Result struct {
	Attempted     int      `json:"attempted"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	InvalidTokens []string `json:"invalid_tokens"`
}

// Dispatcher fans one message out to every active device of a user.
type Dispatcher struct {
	store       store.Store
	sender      push.Sender
	sendTimeout time.Duration
}

// NewDispatcher creates a dispatcher. sendTimeout bounds each individual
// provider call; zero falls back to 5 seconds.
func NewDispatcher(s store.Store, sender push.Sender, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Dispatcher{store: s, sender: sender, sendTimeout: sendTimeout}
}

// Dispatch sends the message to every active token of the user and collects
// per-token outcomes. A user with no active devices yields a zero Result and
// no error. Sends run concurrently and independently; one token failing
// never aborts the others, and no retry happens here.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, title, body string, data map[string]string) (Result, error) {
	tokens, err := d.store.ActiveTokens(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if len(tokens) == 0 {
		return Result{InvalidTokens: []string{}}, nil
	}

	result := Result{Attempted: len(tokens), InvalidTokens: []string{}}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()

			err := d.sender.Send(sendCtx, token, title, body, data)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Succeeded++
			case errors.Is(err, push.ErrInvalidToken):
				result.Failed++
				result.InvalidTokens = append(result.InvalidTokens, token)
			default:
				// Transient: logged, counted, never queued for pruning.
				result.Failed++
				log.Printf("push to %s failed: %v", push.Redact(token), err)
			}
		}(tok.Token)
	}
	wg.Wait()

	return result, nil
}
