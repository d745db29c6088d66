package notify

import (
	"context"
	"log"
	"time"

	"fellowship-backend/config"
	"fellowship-backend/internal/store"
)

// Sweeper periodically ages out tokens unused beyond the retention window.
type Sweeper struct {
	cfg     *config.RetentionConfig
	store   store.Store
	monitor *Monitor
}

// NewSweeper creates a sweeper from the retention configuration.
func NewSweeper(cfg *config.RetentionConfig, s store.Store, monitor *Monitor) *Sweeper {
	return &Sweeper{cfg: cfg, store: s, monitor: monitor}
}

// Run starts the sweep loop.
func (sw *Sweeper) Run(ctx context.Context) {
	if !sw.cfg.Enabled {
		log.Println("Retention sweep is disabled. Not starting.")
		return
	}
	log.Printf("Starting retention sweep (window %s, interval %s)", sw.cfg.Window, sw.cfg.SweepInterval)

	sw.SweepOnce(ctx)

	timer := time.NewTimer(sw.cfg.SweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention sweep shutting down.")
			return
		case <-timer.C:
			sw.SweepOnce(ctx)
			timer.Reset(sw.cfg.SweepInterval)
		}
	}
}

// SweepOnce runs the age-out pass for every account.
func (sw *Sweeper) SweepOnce(ctx context.Context) {
	ids, err := sw.store.ListAccountIDs(ctx)
	if err != nil {
		log.Printf("retention sweep: listing accounts failed: %v", err)
		return
	}

	var total int64
	for _, id := range ids {
		n, err := sw.monitor.AgeOut(ctx, id, sw.cfg.Window)
		if err != nil {
			log.Printf("retention sweep: age-out for account %s failed: %v", id, err)
			continue
		}
		total += n
	}
	if total > 0 {
		log.Printf("retention sweep deactivated %d stale tokens", total)
	}
}
