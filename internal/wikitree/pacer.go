package wikitree

import (
	"context"
	"sync"
	"time"
)

// pacer is a token bucket gating request issuance against the remote
// rate limiter. It is a deliberate backpressure valve, not a
// correctness requirement: requests refill at a steady rate with a
// burst allowance.
type pacer struct {
	mu         sync.Mutex
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newPacer(requestsPerSecond float64, burst int) *pacer {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &pacer{
		capacity:   burst,
		refillRate: requestsPerSecond,
		tokens:     float64(burst),
		lastRefill: time.Now(),
	}
}

func (p *pacer) allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.tokens += now.Sub(p.lastRefill).Seconds() * p.refillRate
	if p.tokens > float64(p.capacity) {
		p.tokens = float64(p.capacity)
	}
	p.lastRefill = now

	if p.tokens >= 1.0 {
		p.tokens -= 1.0
		return true
	}
	return false
}

// wait blocks until a token is available or ctx is done.
func (p *pacer) wait(ctx context.Context) error {
	for {
		if p.allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
