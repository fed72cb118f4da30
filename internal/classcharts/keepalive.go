package classcharts

import (
	"context"
	"errors"
	"time"
)

// StartKeepAlive runs a background goroutine that re-checks session freshness
// on a fixed interval so the session survives idle stretches between user
// actions. It exits when ctx is cancelled; a logged-out client makes it a
// no-op, so it is safe to start once at boot and leave running.
func (c *Client) StartKeepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		c.logger.Info("session keep-alive started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				if err := c.ensureFresh(ctx); err != nil && !errors.Is(err, ErrNoSession) {
					c.logger.Warn("keep-alive heartbeat failed", "error", err)
				}
			case <-ctx.Done():
				c.logger.Info("session keep-alive shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
