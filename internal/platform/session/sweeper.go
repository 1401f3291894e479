package session

import (
	"context"
	"log/slog"
	"time"
)

// Expirer is implemented by session stores that need periodic pruning.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunSweeper calls store.DeleteExpired every interval until ctx is done.
// Failures are logged and the loop keeps going.
func RunSweeper(ctx context.Context, store Expirer, interval time.Duration) error {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := store.DeleteExpired(ctx)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
