package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitrecon-cli/internal/logger"
)

const (
	// DefaultDelay is the fixed inter-request delay used before any
	// rate-limit headers have been observed.
	DefaultDelay = time.Second

	// CeilingDelay caps the adaptive delay between requests.
	CeilingDelay = 5 * time.Second

	// ResetBuffer is added to a full reset wait so the first request of
	// the new window does not race the platform clock.
	ResetBuffer = time.Second

	// lowRemainingWarn is the threshold below which a warning is logged.
	lowRemainingWarn = 10
)

// Ensure RateLimitTracker implements the observer port.
var _ driven.RateLimitObserver = (*RateLimitTracker)(nil)

// RateLimitTracker maintains the remaining/limit/reset snapshot per
// platform and paces requests so the remaining budget is spread evenly
// across the rest of the window instead of burst-then-starve.
type RateLimitTracker struct {
	mu     sync.Mutex
	base   time.Duration
	snaps  map[domain.Platform]domain.RateLimitSnapshot
	pacers map[domain.Platform]*rate.Limiter

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimitTracker creates a tracker with the given base delay.
// Zero or negative means DefaultDelay.
func NewRateLimitTracker(base time.Duration) *RateLimitTracker {
	if base <= 0 {
		base = DefaultDelay
	}
	return &RateLimitTracker{
		base:   base,
		snaps:  make(map[domain.Platform]domain.RateLimitSnapshot),
		pacers: make(map[domain.Platform]*rate.Limiter),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Observe replaces the platform's snapshot. A nil snap means the
// response carried no rate-limit headers and the previous snapshot
// stays untouched.
func (t *RateLimitTracker) Observe(platform domain.Platform, snap *domain.RateLimitSnapshot) {
	if snap == nil {
		return
	}

	t.mu.Lock()
	t.snaps[platform] = *snap
	t.mu.Unlock()

	logger.Debug("%s rate limit: %d/%d (resets %s)",
		platform, snap.Remaining, snap.Limit, snap.ResetAt.Format(time.Kitchen))
	if snap.Remaining < lowRemainingWarn {
		logger.Warn("%s API rate limit is getting low (%d remaining)", platform, snap.Remaining)
	}
}

// Snapshot returns the last observed snapshot, or nil if none was seen
// yet.
func (t *RateLimitTracker) Snapshot(platform domain.Platform) *domain.RateLimitSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.snaps[platform]
	if !ok {
		return nil
	}
	return &snap
}

// CanProceed reports whether another request fits in the current
// window. Unknown state (no snapshot yet) counts as proceedable.
func (t *RateLimitTracker) CanProceed(platform domain.Platform) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.snaps[platform]
	if !ok {
		return true
	}
	return snap.Remaining > 0
}

// NextDelay computes the delay to apply before the next request:
//
//   - no snapshot yet: the base delay
//   - budget exhausted: the full wait until reset, plus ResetBuffer
//   - otherwise: time-until-reset spread over the remaining budget,
//     floored at the base delay and capped at CeilingDelay
func (t *RateLimitTracker) NextDelay(platform domain.Platform) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextDelayLocked(platform)
}

func (t *RateLimitTracker) nextDelayLocked(platform domain.Platform) time.Duration {
	snap, ok := t.snaps[platform]
	if !ok {
		return t.base
	}

	untilReset := snap.ResetAt.Sub(t.now())
	if untilReset < 0 {
		untilReset = 0
	}

	if snap.Exhausted() {
		return untilReset + ResetBuffer
	}

	delay := untilReset / time.Duration(snap.Remaining)
	if delay < t.base {
		delay = t.base
	}
	if delay > CeilingDelay {
		delay = CeilingDelay
	}
	return delay
}

// Wait blocks until the next request may be issued. Exactly one
// effective delay is applied per request: either the paced
// inter-request gap or, when the budget is exhausted, the full wait
// for the reset.
func (t *RateLimitTracker) Wait(ctx context.Context, platform domain.Platform) error {
	t.mu.Lock()
	snap, known := t.snaps[platform]
	delay := t.nextDelayLocked(platform)
	pacer, ok := t.pacers[platform]
	if !ok {
		// Burst of one so the first request goes out immediately.
		pacer = rate.NewLimiter(rate.Every(t.base), 1)
		t.pacers[platform] = pacer
	}
	t.mu.Unlock()

	if known && snap.Exhausted() {
		logger.Warn("%s rate limit exceeded, waiting %s for reset", platform, delay.Round(time.Second))
		return t.sleep(ctx, delay)
	}

	pacer.SetLimit(rate.Every(delay))
	return pacer.Wait(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
