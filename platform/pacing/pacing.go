// Package pacing spaces outbound provider calls. Two independent mechanisms:
// a global minimum wall-clock interval between any two calls, and a per-key
// cooldown window armed by upstream rate-limit responses. The cooldown guards
// future calls under a key; the in-call retry backoff lives with the HTTP
// client helper, not here.
package pacing

import (
	"context"
	"sync"
	"time"

	"tripsearch_backend/platform/logger"

	"golang.org/x/time/rate"
)

// Controller enforces call pacing across all providers within a process.
// The minimum interval is deliberately global rather than per provider, so a
// burst against one category cannot exhaust an upstream limit shared by all.
type Controller struct {
	limiter *rate.Limiter
	window  time.Duration
	log     *logger.Logger

	mu        sync.Mutex
	cooldowns map[string]time.Time
	clock     func() time.Time
}

// New creates a Controller with the given global minimum interval between
// calls and cooldown window applied after a rate-limit signal.
func New(minInterval, cooldownWindow time.Duration, log *logger.Logger) *Controller {
	return &Controller{
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
		window:    cooldownWindow,
		log:       log,
		cooldowns: make(map[string]time.Time),
		clock:     time.Now,
	}
}

// Wait blocks until the global minimum interval since the previous call has
// elapsed, or the context is done.
func (c *Controller) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// TriggerCooldown arms the cooldown for key and returns its end time.
// Called on a 429-equivalent response.
func (c *Controller) TriggerCooldown(key string) time.Time {
	c.mu.Lock()
	until := c.clock().Add(c.window)
	c.cooldowns[key] = until
	c.mu.Unlock()

	if c.log != nil {
		c.log.RateLimitHit(key, until)
	}
	return until
}

// InCooldown reports whether calls under key must currently be skipped.
// Expired entries are removed on read; the check never mutates pacing state
// beyond that cleanup.
func (c *Controller) InCooldown(key string) bool {
	return c.CooldownRemaining(key) > 0
}

// CooldownRemaining returns how long key stays blocked, or zero.
func (c *Controller) CooldownRemaining(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	until, ok := c.cooldowns[key]
	if !ok {
		return 0
	}

	remaining := until.Sub(c.clock())
	if remaining <= 0 {
		delete(c.cooldowns, key)
		return 0
	}
	return remaining
}

// Window returns the configured cooldown window.
func (c *Controller) Window() time.Duration {
	return c.window
}

// SetClock replaces the cooldown time source. Test hook; does not affect the
// interval limiter.
func (c *Controller) SetClock(clock func() time.Time) {
	c.mu.Lock()
	c.clock = clock
	c.mu.Unlock()
}
