package request

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Const here define individual functionality sub types for rate limiting
const (
	Unset EndpointLimit = iota
	Auth
	UnAuth
)

var (
	errLimiterSystemIsNil       = errors.New("limiter system is nil")
	errSpecificRateLimiterIsNil = errors.New("specific rate limiter is nil")
	errInvalidWeightCount       = errors.New("invalid weight count must equal or greater than 1")
	errWeightExceedsBurst       = errors.New("weight exceeds limiter burst")
)

// EndpointLimit defines individual endpoint rate limits that are set when
// New is called.
type EndpointLimit uint16

// RateLimitDefinitions is a map of endpoint limits to rate limiters
type RateLimitDefinitions map[EndpointLimit]*RateLimiterWithWeight

// RateLimiterWithWeight reserves weight tokens on a shared weighted limiter
// and a single token on each optional counter limiter
type RateLimiterWithWeight struct {
	weighted *rate.Limiter
	counters []*rate.Limiter
	weight   int
}

// NewRateLimit creates a limiter allowing actions per interval. The burst
// equals actions so a full interval's budget may be spent at once, matching
// venue window semantics.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		// Returns an un-restricted rate limiter
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), actions)
}

// GetRateLimiterWithWeight couples a shared weighted limiter with an
// endpoint weight and optional counter limiters
func GetRateLimiterWithWeight(weighted *rate.Limiter, weight int, counters ...*rate.Limiter) *RateLimiterWithWeight {
	return &RateLimiterWithWeight{
		weighted: weighted,
		counters: counters,
		weight:   weight,
	}
}

// newBasicRateLimit returns an object that implements the limiter interface
// for basic rate limit
func newBasicRateLimit(interval time.Duration, actions, weight int) RateLimitDefinitions {
	rl := GetRateLimiterWithWeight(NewRateLimit(interval, actions), weight)
	return RateLimitDefinitions{
		Unset:  rl,
		Auth:   rl,
		UnAuth: rl,
	}
}

// RateLimit reserves capacity on every limiter and waits for the longest
// delay, honouring context cancellation and deadline
func RateLimit(ctx context.Context, rl *RateLimiterWithWeight) error {
	if rl == nil || rl.weighted == nil {
		return errSpecificRateLimiterIsNil
	}
	if rl.weight <= 0 {
		return errInvalidWeightCount
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tn := time.Now()
	reservations := make([]*rate.Reservation, 0, len(rl.counters)+1)
	res := rl.weighted.ReserveN(tn, rl.weight)
	if !res.OK() {
		return fmt.Errorf("%w: weight %d burst %d", errWeightExceedsBurst, rl.weight, rl.weighted.Burst())
	}
	reservations = append(reservations, res)
	for _, c := range rl.counters {
		res = c.ReserveN(tn, 1)
		if !res.OK() {
			cancelAll(reservations, tn)
			return fmt.Errorf("%w: counter burst %d", errWeightExceedsBurst, c.Burst())
		}
		reservations = append(reservations, res)
	}

	var delay time.Duration
	for _, r := range reservations {
		if d := r.DelayFrom(tn); d > delay {
			delay = d
		}
	}
	if delay == 0 {
		return nil
	}
	if hasDelayNotAllowed(ctx) {
		cancelAll(reservations, tn)
		return fmt.Errorf("%w: rate limit requires %s", ErrDelayNotAllowed, delay)
	}
	if dl, ok := ctx.Deadline(); ok && dl.Before(tn.Add(delay)) {
		cancelAll(reservations, tn)
		return fmt.Errorf("rate limit delay of %s will exceed deadline: %w", delay, context.DeadlineExceeded)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		cancelAll(reservations, time.Now())
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cancelAll(reservations []*rate.Reservation, at time.Time) {
	for _, r := range reservations {
		r.CancelAt(at)
	}
}

// InitiateRateLimit sleeps for designated end point rate limits
func (r *Requester) InitiateRateLimit(ctx context.Context, e EndpointLimit) error {
	if r == nil {
		return ErrRequestSystemIsNil
	}
	if atomic.LoadInt32(&r.disableRateLimiter) == 1 {
		return nil
	}
	if r.limiter == nil {
		return errLimiterSystemIsNil
	}
	rl, ok := r.limiter[e]
	if !ok {
		return fmt.Errorf("%w: endpoint %d", errSpecificRateLimiterIsNil, e)
	}
	return RateLimit(ctx, rl)
}

// DisableRateLimiter disables the rate limiting system for the exchange
func (r *Requester) DisableRateLimiter() error {
	if r == nil {
		return ErrRequestSystemIsNil
	}
	if !atomic.CompareAndSwapInt32(&r.disableRateLimiter, 0, 1) {
		return ErrRateLimiterAlreadyDisabled
	}
	return nil
}
