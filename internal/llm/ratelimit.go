package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// rateLimiter is a token bucket refilled continuously at requestsPerMinute.
type rateLimiter struct {
	last     time.Time
	now      func() time.Time
	tokens   float64
	capacity float64
	perSec   float64
	mu       sync.Mutex
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &rateLimiter{
		last:     time.Now(),
		now:      time.Now,
		tokens:   float64(requestsPerMinute),
		capacity: float64(requestsPerMinute),
		perSec:   float64(requestsPerMinute) / 60,
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until one is available.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.capacity, rl.tokens+now.Sub(rl.last).Seconds()*rl.perSec)
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}
	return time.Duration((1 - rl.tokens) / rl.perSec * float64(time.Second))
}

// limitedExtractor waits for the limiter before every provider call.
type limitedExtractor struct {
	next    Extractor
	limiter *rateLimiter
}

func newLimitedExtractor(next Extractor, requestsPerMinute int) *limitedExtractor {
	return &limitedExtractor{next: next, limiter: newRateLimiter(requestsPerMinute)}
}

func (l *limitedExtractor) ExtractTransactions(ctx context.Context, data []byte, mimeType string) ([]model.RawTransaction, error) {
	if err := l.limiter.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.ExtractTransactions(ctx, data, mimeType)
}
