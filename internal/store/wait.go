package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pinger is satisfied by anything that can report database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitFor polls p every interval until it answers or ctx is done.
// Each failed attempt is logged at Warn.
func WaitFor(ctx context.Context, p Pinger, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		if logger != nil {
			logger.Warn("database unavailable, waiting", "attempt", attempt, "error", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not available after %d attempts: %w", attempt, err)
		case <-ticker.C:
		}
	}
}
