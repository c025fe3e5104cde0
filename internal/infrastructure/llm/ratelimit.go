package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"Newsroom/internal/ports"
)

// RateLimited spaces out calls to a provider with a per-minute budget.
type RateLimited struct {
	next    ports.TextGenerator
	limiter *rate.Limiter
}

var _ ports.TextGenerator = (*RateLimited)(nil)

// NewRateLimited wraps next; perMinute <= 0 disables limiting.
func NewRateLimited(next ports.TextGenerator, perMinute int) ports.TextGenerator {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Generate waits for a token before delegating.
func (r *RateLimited) Generate(ctx context.Context, prompt ports.Prompt) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, prompt)
}
