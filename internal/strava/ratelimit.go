package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"endurance/internal/logger"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day
const (
	DefaultShortLimit = 100
	DefaultDailyLimit = 1000
	shortWindow       = 15 * time.Minute
)

// window is one fixed rate limit window
type window struct {
	limit    int
	usage    int
	resetsAt time.Time
	next     func(now time.Time) time.Time
}

func (w *window) roll(now time.Time) {
	if now.After(w.resetsAt) {
		w.usage = 0
		w.resetsAt = w.next(now)
	}
}

func (w *window) exhausted() bool {
	return w.usage >= w.limit
}

func nextShort(now time.Time) time.Time { return now.Add(shortWindow) }
func nextDaily(now time.Time) time.Time { return now.Truncate(24 * time.Hour).Add(24 * time.Hour) }

// RateLimiter manages Strava API rate limits
type RateLimiter struct {
	mu sync.Mutex

	short window
	daily window

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a new rate limiter with Strava's limits
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(DefaultShortLimit, DefaultDailyLimit, 150*time.Millisecond)
}

// NewRateLimiterWithLimits creates a rate limiter with custom limits
func NewRateLimiterWithLimits(shortLimit, dailyLimit int, minInterval time.Duration) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		short:       window{limit: shortLimit, resetsAt: nextShort(now), next: nextShort},
		daily:       window{limit: dailyLimit, resetsAt: nextDaily(now), next: nextDaily},
		minInterval: minInterval,
	}
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range []*window{&r.short, &r.daily} {
		w.roll(time.Now())
		if !w.exhausted() {
			continue
		}
		logger.Named("strava").Warn(ctx, "rate limit reached, waiting",
			logger.Int("limit", w.limit),
			logger.Duration("wait", time.Until(w.resetsAt)))
		if err := r.sleep(ctx, time.Until(w.resetsAt)); err != nil {
			return err
		}
		w.usage = 0
		w.resetsAt = w.next(time.Now())
	}

	if elapsed := time.Since(r.lastRequest); elapsed < r.minInterval {
		if err := r.sleep(ctx, r.minInterval-elapsed); err != nil {
			return err
		}
	}

	r.short.usage++
	r.daily.usage++
	r.lastRequest = time.Now()
	return nil
}

// sleep waits for d with the lock released. Must be called with r.mu held.
func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	r.mu.Unlock()
	defer r.mu.Lock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders updates rate limit state from Strava response headers
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strava returns: X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512"
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.usage, r.daily.usage = short, daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit, r.daily.limit = short, daily
	}
}

func parsePair(v string) (int, int, bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Status returns current rate limit status
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.usage, r.daily.limit - r.daily.usage
}

// Usage returns current usage counts
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.usage, r.daily.usage
}
