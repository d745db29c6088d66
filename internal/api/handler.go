package api

import (
	"time"

	"github.com/patrickmn/go-cache"

	"fellowship-backend/internal/notify"
	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	sender      push.Sender
	dispatcher  *notify.Dispatcher
	monitor     *notify.Monitor
	pool        *notify.WorkerPool
	sendTimeout time.Duration
	cacheStore  *cache.Cache
}

// NewHandler creates a new API handler. cacheStore may be nil when response
// caching is disabled (tests).
func NewHandler(s store.Store, sender push.Sender, sendTimeout time.Duration, pool *notify.WorkerPool, cacheStore *cache.Cache) *Handler {
	return &Handler{
		store:       s,
		sender:      sender,
		dispatcher:  notify.NewDispatcher(s, sender, sendTimeout),
		monitor:     notify.NewMonitor(s),
		pool:        pool,
		sendTimeout: sendTimeout,
		cacheStore:  cacheStore,
	}
}
