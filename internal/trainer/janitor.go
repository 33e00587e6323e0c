package trainer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sparringbot/sparring/internal/store"
)

const janitorInterval = 5 * time.Minute

// StartJanitor runs a background goroutine that periodically finalizes
// durable sessions stuck in the active state past the TTL. Those are left
// behind by a server crash or a missed disconnect; a live connection always
// finalizes its own session well before the TTL elapses.
func StartJanitor(ctx context.Context, repo store.Repository, ttl time.Duration) {
	ticker := time.NewTicker(janitorInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session janitor started", "interval", janitorInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				finalized, err := repo.FinalizeAbandoned(ctx, ttl)
				if err != nil {
					slog.Error("Janitor failed to finalize abandoned sessions", "error", err)
					continue
				}
				if finalized > 0 {
					slog.Info("Janitor finalized abandoned sessions", "count", finalized)
				}
			case <-ctx.Done():
				slog.Info("Session janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
