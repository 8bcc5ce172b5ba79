package binance

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/cassette"
	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/binancemargin/config"
	"github.com/thrasher-corp/binancemargin/exchanges/request"
)

// newRecordedMargin replays testdata/margin_session.yaml. Signed payloads
// change with every timestamp so interactions match on method and path.
func newRecordedMargin(t *testing.T) *Margin {
	t.Helper()
	r, err := recorder.NewAsMode(filepath.Join("testdata", "margin_session"), recorder.ModeReplaying, nil)
	require.NoError(t, err, "recorder.NewAsMode must not error")
	t.Cleanup(func() { _ = r.Stop() })
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		u, err := url.Parse(i.URL)
		return err == nil && req.Method == i.Method && req.URL.Path == u.Path
	})

	rq, err := request.New("recorded", request.WithLimiter(GetRateLimits()), request.WithTransport(r))
	require.NoError(t, err)
	cfg := testExchangeConfig(config.DefaultAPIURL)
	m, err := New(cfg, WithClock(testClock), WithRequester(rq))
	require.NoError(t, err)
	return m
}

func TestRecordedMarginSession(t *testing.T) {
	t.Parallel()
	m := newRecordedMargin(t)

	acc, err := m.GetAccount(t.Context())
	require.NoError(t, err)
	require.Len(t, acc.UserAssets, 2)
	assert.Equal(t, "201.66666672", acc.UserAssets[1].Borrowed.String())
	assert.Equal(t, "11.64405625", acc.MarginLevel.String())

	tx, err := m.Borrow(t.Context(), "USDT", "100.00000000")
	require.NoError(t, err)
	assert.Equal(t, MarginTransaction{TranID: 12345}, *tx)

	_, err = m.NewOrder(t.Context(), NewOrderRequest{
		Symbol:      "BTCUSDT",
		Side:        SideBuy,
		Type:        OrderTypeLimit,
		TimeInForce: GoodTillCancel,
		Quantity:    "100",
		Price:       "30000",
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeNewOrderRejected, apiErr.Code)
	assert.Equal(t, "Account has insufficient balance for requested action.", apiErr.Message)

	key, err := m.StartUserDataStream(t.Context())
	require.NoError(t, err)
	assert.Equal(t, ListenKey("T3ee22BIYuWqmvne0HNq2A2WsFlEtLhvWCtItw6ffhhdmjifQ2tRbuKkTHhr"), key)

	err = m.KeepAliveUserDataStream(t.Context(), "expired")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(-1125), apiErr.Code)
}
