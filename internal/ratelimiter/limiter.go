package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/coursehub/notify/internal/domain"
)

// GatewayLimiters holds one token bucket limiter per delivery channel.
// Each limiter enforces a steady-state rate (e.g. 100 tokens/sec).
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type GatewayLimiters struct {
	limiters map[domain.Channel]*rate.Limiter
}

// New creates a GatewayLimiters with ratePerSec tokens per second per channel.
func New(ratePerSec int) *GatewayLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec // burst == rate: prevents any "saved up" burst above the limit

	return &GatewayLimiters{
		limiters: map[domain.Channel]*rate.Limiter{
			domain.ChannelPush:  rate.NewLimiter(r, burst),
			domain.ChannelEmail: rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the channel's limiter grants a token.
// Called by the dispatcher immediately before each gateway call.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (gl *GatewayLimiters) Wait(ctx context.Context, ch domain.Channel) error {
	return gl.limiters[ch].Wait(ctx)
}
