package harvest

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSearchInterval is the pause between discovery searches.
const DefaultSearchInterval = time.Second

// Pacer is waited on before every discovery search.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RatePacer spaces calls at a fixed interval with a token bucket of size one.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer returns a pacer that admits one call per interval. A
// non-positive interval yields an Unlimited pacer.
func NewRatePacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return Unlimited{}
	}
	return &RatePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Unlimited never waits. Only a cancelled context stops it.
type Unlimited struct{}

// Wait implements Pacer.
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
