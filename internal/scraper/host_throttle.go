package scraper

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostThrottle spaces out requests to the same host
type HostThrottle struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	delay    time.Duration
}

// NewHostThrottle creates a throttle allowing one request per delay per host.
// A zero delay disables throttling.
func NewHostThrottle(delay time.Duration) *HostThrottle {
	return &HostThrottle{
		limiters: make(map[string]*rate.Limiter),
		delay:    delay,
	}
}

// Wait blocks until a request to rawURL's host may proceed
func (t *HostThrottle) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return t.limiter(strings.ToLower(u.Host)).Wait(ctx)
}

// SlowDown raises the delay for host to at least delay (robots.txt Crawl-delay)
func (t *HostThrottle) SlowDown(host string, delay time.Duration) {
	host = strings.ToLower(host)

	t.mu.Lock()
	defer t.mu.Unlock()

	if delay <= t.delay {
		return
	}
	if l, ok := t.limiters[host]; ok && l.Limit() <= rate.Every(delay) {
		return
	}
	t.limiters[host] = rate.NewLimiter(rate.Every(delay), 1)
}

func (t *HostThrottle) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l, ok := t.limiters[host]; ok {
		return l
	}

	limit := rate.Inf
	if t.delay > 0 {
		limit = rate.Every(t.delay)
	}
	l := rate.NewLimiter(limit, 1)
	t.limiters[host] = l
	return l
}
