package cache

import (
	"context"
	"log/slog"
	"time"
)

// DefaultJanitorInterval is how often expired in-memory entries are purged.
const DefaultJanitorInterval = 5 * time.Minute

// StartJanitor runs a background goroutine that periodically purges expired
// entries from an in-memory store until ctx is cancelled.
func StartJanitor(ctx context.Context, store *MemoryStore, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Cache janitor started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				if n := store.Purge(); n > 0 {
					slog.Debug("Cache janitor purged expired entries", "count", n, "remaining", store.Len())
				}
			case <-ctx.Done():
				slog.Info("Cache janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
