package userstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/binancemargin/exchanges/binance"
)

const (
	newOrderReport    = `{"stream":"jTfvpakT2yT0hVIo5gYWVihZhdM2PrBgJUZ5PyfZ4EVpCkx4Uoxk5timcrQc","data":{"e":"executionReport","E":1616627567900,"s":"BTCUSDT","c":"c4wyKsIhoAaittTYlIVLqk","S":"BUY","o":"LIMIT","f":"GTC","q":"0.00028400","p":"52789.10000000","P":"0.00000000","F":"0.00000000","g":-1,"C":"","x":"NEW","X":"NEW","r":"NONE","i":5340845958,"l":"0.00000000","z":"0.00000000","L":"0.00000000","n":"0","N":"BTC","T":1616627567900,"t":-1,"I":11388173160,"w":true,"m":false,"M":false,"O":1616627567900,"Z":"0.00000000","Y":"0.00000000","Q":"0.00000000","W":1616627567900}}`
	filledOrderReport = `{"e":"executionReport","E":1616633041556,"s":"BTCUSDT","c":"YeULctvPAnHj5HXCQo9Mob","S":"BUY","o":"LIMIT","f":"GTC","q":"0.00028600","p":"52436.85000000","P":"0.00000000","F":"0.00000000","g":-1,"C":"","x":"TRADE","X":"FILLED","r":"NONE","i":5341783271,"l":"0.00028600","z":"0.00028600","L":"52436.85000000","n":"0.00000029","N":"BTC","T":1616633041555,"t":726946523,"I":11390206312,"w":false,"m":false,"M":true,"O":1616633041555,"Z":"14.99693910","Y":"14.99693910","Q":"0.00000000","W":1616633041555}`
	accountPosition   = `{"stream":"jTfvpakT2yT0hVIo5gYWVihZhdM2PrBgJUZ5PyfZ4EVpCkx4Uoxk5timcrQc","data":{"e":"outboundAccountPosition","E":1616628815745,"u":1616628815745,"B":[{"a":"BTC","f":"0.00225109","l":"0.00123000"},{"a":"BNB","f":"0.00000000","l":"0.00000000"},{"a":"USDT","f":"54.43390661","l":"0.00000000"}]}}`
	balanceUpdate     = `{"e":"balanceUpdate","E":1573200697110,"a":"BTC","d":"100.00000000","T":1573200697068}`
	listenKeyExpired  = `{"e":"listenKeyExpired","E":"1576653824250","listenKey":"OfYGbUzi3PEBbm8VRnWGoCq7SX6ubaV0HHgYzGnJLDpHqpQh0jqvnnCCeZEsjymX"}`
)

func TestParseExecutionReport(t *testing.T) {
	t.Parallel()
	ev, err := Parse([]byte(newOrderReport))
	require.NoError(t, err)
	r, ok := ev.(*ExecutionReport)
	require.True(t, ok, "must decode to *ExecutionReport")
	assert.Equal(t, EventExecutionReport, r.Kind())
	assert.Equal(t, int64(1616627567900), r.Time.UnixMilli())
	assert.Equal(t, "BTCUSDT", r.Symbol)
	assert.Equal(t, "c4wyKsIhoAaittTYlIVLqk", r.ClientOrderID)
	assert.Empty(t, r.OrigClientOrderID, "C must not collide with c")
	assert.Equal(t, binance.SideBuy, r.Side)
	assert.Equal(t, binance.OrderTypeLimit, r.Type)
	assert.Equal(t, binance.GoodTillCancel, r.TimeInForce)
	assert.Equal(t, binance.OrderStatusNew, r.Status)
	assert.Equal(t, "NEW", r.ExecutionType)
	assert.Equal(t, "0.000284", r.Quantity.String())
	assert.Equal(t, "52789.1", r.Price.String())
	assert.True(t, r.StopPrice.IsZero())
	assert.Equal(t, int64(-1), r.OrderListID)
	assert.Equal(t, int64(5340845958), r.OrderID)
	assert.Equal(t, int64(-1), r.TradeID)
	assert.True(t, r.IsWorking)
	assert.False(t, r.IsMaker)
	assert.Equal(t, "BTC", r.CommissionAsset)
	assert.Equal(t, int64(1616627567900), r.CreationTime.UnixMilli())

	ev, err = Parse([]byte(filledOrderReport))
	require.NoError(t, err)
	r, ok = ev.(*ExecutionReport)
	require.True(t, ok)
	assert.Equal(t, binance.OrderStatusFilled, r.Status)
	assert.Equal(t, "0.00000029", r.Commission.String())
	assert.Equal(t, "14.9969391", r.CumulativeQuoteQty.String())
	assert.Equal(t, "52436.85", r.LastExecutedPrice.String())
	assert.Equal(t, int64(726946523), r.TradeID)
	assert.False(t, r.IsWorking)
}

func TestParseAccountPosition(t *testing.T) {
	t.Parallel()
	ev, err := Parse([]byte(accountPosition))
	require.NoError(t, err)
	p, ok := ev.(*AccountPosition)
	require.True(t, ok)
	assert.Equal(t, int64(1616628815745), p.LastUpdate.UnixMilli())
	require.Len(t, p.Balances, 3)
	assert.Equal(t, "BTC", p.Balances[0].Asset)
	assert.Equal(t, "0.00225109", p.Balances[0].Free.String())
	assert.Equal(t, "0.00123", p.Balances[0].Locked.String())
	assert.Equal(t, "USDT", p.Balances[2].Asset)
	assert.Equal(t, "54.43390661", p.Balances[2].Free.String())
}

func TestParseBalanceUpdate(t *testing.T) {
	t.Parallel()
	ev, err := Parse([]byte(balanceUpdate))
	require.NoError(t, err)
	b, ok := ev.(*BalanceUpdate)
	require.True(t, ok)
	assert.Equal(t, "BTC", b.Asset)
	assert.Equal(t, "100", b.Delta.String())
	assert.Equal(t, int64(1573200697068), b.ClearTime.UnixMilli())
}

func TestParseListenKeyExpired(t *testing.T) {
	t.Parallel()
	ev, err := Parse([]byte(listenKeyExpired))
	require.NoError(t, err)
	l, ok := ev.(*ListenKeyExpired)
	require.True(t, ok)
	assert.Equal(t, binance.ListenKey("OfYGbUzi3PEBbm8VRnWGoCq7SX6ubaV0HHgYzGnJLDpHqpQh0jqvnnCCeZEsjymX"), l.ListenKey)
	assert.Equal(t, int64(1576653824250), l.Time.UnixMilli(), "string epoch must decode")
}

func TestParseUnknownEvent(t *testing.T) {
	t.Parallel()
	raw := `{"e":"listStatus","E":1564035303637,"s":"ETHBTC"}`
	ev, err := Parse([]byte(raw))
	require.NoError(t, err)
	u, ok := ev.(*UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, "listStatus", u.Kind())
	assert.JSONEq(t, raw, string(u.Raw))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name string
		msg  string
		err  error
	}{
		{"empty object", `{}`, errEventNameMissing},
		{"not json", `not json`, errEventNameMissing},
		{"empty data", `{"stream":"x","data":{}}`, errEventNameMissing},
		{"bad decimal", `{"e":"executionReport","q":"abc"}`, errFieldDecode},
		{"bad bool", `{"e":"executionReport","w":"yes"}`, errFieldDecode},
		{"bad time", `{"e":"balanceUpdate","E":"soon"}`, errFieldDecode},
		{"bad balance", `{"e":"outboundAccountPosition","B":[{"a":"BTC","f":true}]}`, errFieldDecode},
		{"balances not array", `{"e":"outboundAccountPosition","B":{}}`, errFieldDecode},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.msg))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestParseNullFieldsSkipped(t *testing.T) {
	t.Parallel()
	ev, err := Parse([]byte(`{"e":"executionReport","E":1,"s":"BNBBTC","N":null,"n":"0"}`))
	require.NoError(t, err)
	r, ok := ev.(*ExecutionReport)
	require.True(t, ok)
	assert.Empty(t, r.CommissionAsset)
	assert.Equal(t, "BNBBTC", r.Symbol)
}
