package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewRateLimit(t *testing.T) {
	t.Parallel()

	require.Equal(t, rate.Inf, NewRateLimit(0, 0).Limit())
	require.Equal(t, 1, NewRateLimit(0, 0).Burst())
	require.Equal(t, 0.5, float64(NewRateLimit(time.Second*2, 1).Limit()))

	r := NewRateLimit(time.Minute, 6000)
	require.Equal(t, 100.0, float64(r.Limit()))
	require.Equal(t, 6000, r.Burst())
}

func TestGetRateLimiterWithWeight(t *testing.T) {
	t.Parallel()
	counter := NewRateLimit(time.Second*2, 1)
	r := GetRateLimiterWithWeight(rate.NewLimiter(rate.Inf, 1), 10, counter)
	require.Equal(t, rate.Inf, r.weighted.Limit())
	require.Equal(t, 10, r.weight)
	require.Len(t, r.counters, 1)
	require.Equal(t, 0.5, float64(r.counters[0].Limit()))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, RateLimit(t.Context(), nil), errSpecificRateLimiterIsNil)
	require.ErrorIs(t, RateLimit(t.Context(), &RateLimiterWithWeight{weighted: NewRateLimit(0, 0)}), errInvalidWeightCount)

	r := GetRateLimiterWithWeight(NewRateLimit(time.Second, 1), 2)
	require.ErrorIs(t, RateLimit(t.Context(), r), errWeightExceedsBurst)

	r = GetRateLimiterWithWeight(NewRateLimit(time.Second, 1), 1)
	require.NoError(t, RateLimit(t.Context(), r), "must not wait on first reservation")

	ctxWDL, cancelDL := context.WithDeadline(t.Context(), time.Now().Add(time.Millisecond*10))
	defer cancelDL()
	require.ErrorIs(t, RateLimit(ctxWDL, r), context.DeadlineExceeded)

	require.ErrorIs(t, RateLimit(WithDelayNotAllowed(t.Context()), r), ErrDelayNotAllowed)

	ctxWCancel, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, RateLimit(ctxWCancel, r), context.Canceled)

	r = GetRateLimiterWithWeight(rate.NewLimiter(rate.Inf, 1), 1)
	require.NoError(t, RateLimit(t.Context(), r), "must not error on fast path")
}

func TestRateLimitCounterDelay(t *testing.T) {
	t.Parallel()
	counter := NewRateLimit(time.Millisecond*50, 1)
	r := GetRateLimiterWithWeight(rate.NewLimiter(rate.Inf, 1), 5, counter)
	require.NoError(t, RateLimit(t.Context(), r))

	start := time.Now()
	require.NoError(t, RateLimit(t.Context(), r))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond*30, "second reservation must wait on the counter limiter")
}

func TestDisableRateLimiter(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, (*Requester)(nil).DisableRateLimiter(), ErrRequestSystemIsNil)
	require.ErrorIs(t, (&Requester{disableRateLimiter: 1}).DisableRateLimiter(), ErrRateLimiterAlreadyDisabled)
	require.NoError(t, (&Requester{}).DisableRateLimiter())
}

func TestInitiateRateLimit(t *testing.T) {
	t.Parallel()

	r := &Requester{disableRateLimiter: 1}
	require.NoError(t, r.InitiateRateLimit(t.Context(), Unset), "must not error when rate limiter is disabled")
	r.disableRateLimiter = 0
	require.ErrorIs(t, r.InitiateRateLimit(t.Context(), Unset), errLimiterSystemIsNil)
	r.limiter = newBasicRateLimit(time.Second, 1, 1)
	require.ErrorIs(t, r.InitiateRateLimit(t.Context(), 1337), errSpecificRateLimiterIsNil)
	require.NoError(t, r.InitiateRateLimit(t.Context(), UnAuth), "must not error on valid rate limit")
}
