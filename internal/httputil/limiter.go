// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket limiter for one upstream service. A nil
// *Limiter is valid and never blocks, which keeps the fixed inter-request
// delays of the run driver as the only pacing.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns a limiter allowing perSecond requests with a burst of
// one. It returns nil when perSecond <= 0.
func NewLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until a request is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}
