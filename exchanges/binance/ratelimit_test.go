package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/binancemargin/exchanges/request"
)

func TestRateLimitsCoverOperations(t *testing.T) {
	t.Parallel()
	defs := GetRateLimits()
	r, err := request.New("Binance", request.WithLimiter(defs))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, op := range Operations() {
		assert.False(t, seen[op.Name], "operation %s must be listed once", op.Name)
		seen[op.Name] = true
		require.Contains(t, defs, op.Limit, "operation %s must have a rate limit", op.Name)
		assert.NoError(t, r.InitiateRateLimit(t.Context(), op.Limit), "a fresh limiter must admit %s without waiting", op.Name)
	}
	assert.Len(t, seen, 15)
}

func TestOperationsHaveDistinctRoutes(t *testing.T) {
	t.Parallel()
	routes := make(map[string]string)
	for _, op := range Operations() {
		key := op.Method + " " + op.Path
		prev, dup := routes[key]
		assert.False(t, dup, "%s and %s share route %s", prev, op.Name, key)
		routes[key] = op.Name
	}
}
