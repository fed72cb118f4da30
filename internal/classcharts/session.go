package classcharts

import (
	"context"
	"time"

	"github.com/chartsbridge/internal/metrics"
)

// ensureFresh guarantees the session token is usable before an authenticated
// call: a no-op while the token is within the refresh interval, otherwise a
// heartbeat. Returns ErrNoSession when logged out.
func (c *Client) ensureFresh(ctx context.Context) error {
	c.mu.Lock()
	if !c.session.Active() {
		c.mu.Unlock()
		return ErrNoSession
	}
	if !c.session.Stale(c.refreshInterval, c.now()) {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.refresh(ctx)
}

// refresh forces a heartbeat regardless of staleness. Concurrent callers are
// coalesced into a single in-flight heartbeat; heartbeats are idempotent, so
// sharing one result is safe. The shared heartbeat runs on the first caller's
// context, so if that caller cancels mid-ping, coalesced peers see its context
// error for this tick even when their own contexts are live. The freshness
// stamp is left untouched on cancellation, so the peers' next call retries
// the heartbeat immediately.
func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	token := c.token()
	if token == "" {
		return ErrNoSession
	}

	profile, err := c.ping(ctx, token)
	if err != nil {
		// A cancelled call must not invalidate the freshness stamp; the
		// session itself is still fine.
		if ctx.Err() == nil {
			c.mu.Lock()
			c.session.LastRefreshedAt = time.Time{}
			c.mu.Unlock()
			c.logger.Warn("session heartbeat failed", "error", err)
		}
		return err
	}

	c.mu.Lock()
	// Logout may have raced the heartbeat; do not resurrect a dropped session.
	if c.session.Active() {
		c.session.Token = profile.Meta.SessionID
		c.session.LastRefreshedAt = c.now()
	}
	c.mu.Unlock()

	metrics.Heartbeats.Inc()
	c.publish(EventRefresh)
	return nil
}
