package binance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderJSON = `{
	"clientOrderId": "ZwfQzuDIGpceVhKW5DvCmO",
	"cummulativeQuoteQty": "0.00000000",
	"executedQty": "0.00000000",
	"icebergQty": "0.00000000",
	"isWorking": true,
	"orderId": 213205622,
	"origQty": "0.30000000",
	"price": "0.00493630",
	"side": "SELL",
	"status": "NEW",
	"stopPrice": "0.00000000",
	"symbol": "BNBBTC",
	"isIsolated": false,
	"time": 1562133008725,
	"timeInForce": "GTC",
	"type": "LIMIT",
	"updateTime": 1562133008725
}`

func TestMapOrder(t *testing.T) {
	t.Parallel()
	o, err := MapOrder([]byte(orderJSON))
	require.NoError(t, err)
	assert.Equal(t, "BNBBTC", o.Symbol)
	assert.Equal(t, int64(213205622), o.OrderID)
	assert.Equal(t, "ZwfQzuDIGpceVhKW5DvCmO", o.ClientOrderID)
	assert.Equal(t, SideSell, o.Side)
	assert.Equal(t, OrderTypeLimit, o.Type)
	assert.Equal(t, OrderStatusNew, o.Status)
	assert.Equal(t, GoodTillCancel, o.TimeInForce)
	assert.True(t, o.IsWorking)
	assert.Equal(t, "0.0049363", o.Price.String())
	assert.True(t, decimal.RequireFromString("0.00493630").Equal(o.Price))
	assert.True(t, decimal.RequireFromString("0.3").Equal(o.OrigQty))
	assert.Equal(t, time.UnixMilli(1562133008725).UTC(), o.Time.Time().UTC())
}

func TestMapOrderPrecision(t *testing.T) {
	t.Parallel()
	// a float64 round trip would corrupt both values
	raw := `{"symbol":"SHIBUSDT","orderId":1,"clientOrderId":"a","price":"0.00000001","origQty":"123456789012345678.12345678",
		"executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1555056425000}`
	o, err := MapOrder([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "0.00000001", o.Price.String())
	assert.Equal(t, "123456789012345678.12345678", o.OrigQty.String())
}

func TestMapOrderErrors(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name  string
		raw   string
		field string
		cause error
	}{
		{"missing price", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1555056425000}`, "price", ErrMissingField},
		{"null symbol", `{"symbol":null,"orderId":1}`, "symbol", ErrMissingField},
		{"bad decimal", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","price":"1.2.3","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1555056425000}`, "price", errInvalidDecimal},
		{"string order id", `{"symbol":"BNBBTC","orderId":"1"}`, "orderId", errUnexpectedJSONType},
		{"bad time", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","price":"1","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":"soon"}`, "time", errInvalidInteger},
		{"time too short", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","price":"1","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1}`, "time", errInvalidTime},
		{"time in nanoseconds", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","price":"1","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1555056425000000000}`, "time", errInvalidTime},
		{"bad optional time", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","price":"1","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1555056425000,"updateTime":"12"}`, "updateTime", errInvalidTime},
		{"bad optional decimal", `{"symbol":"BNBBTC","orderId":1,"clientOrderId":"a","price":"1","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1555056425000,"stopPrice":"x"}`, "stopPrice", errInvalidDecimal},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := MapOrder([]byte(tc.raw))
			var me *MappingError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, entityOrder, me.Entity)
			assert.Equal(t, tc.field, me.Field)
			assert.ErrorIs(t, err, tc.cause)
		})
	}

	_, err := MapOrder([]byte(`[]`))
	assert.ErrorIs(t, err, errUnexpectedJSONType)
	_, err = MapOrder([]byte(``))
	var me *MappingError
	assert.ErrorAs(t, err, &me)
}

func TestMapOrders(t *testing.T) {
	t.Parallel()
	second := `{"symbol":"BNBBTC","orderId":213205621,"clientOrderId":"b","price":"0.1","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1562133008000}`
	orders, err := MapOrders([]byte("[" + orderJSON + "," + second + "]"))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(213205622), orders[0].OrderID, "venue order must be preserved")
	assert.Equal(t, int64(213205621), orders[1].OrderID)

	orders, err = MapOrders([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	_, err = MapOrders([]byte("[" + orderJSON + `,{"symbol":"BNBBTC"}]`))
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "[1].orderId", me.Field)

	_, err = MapOrders([]byte(`[1]`))
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "[0]", me.Field)

	_, err = MapOrders([]byte(orderJSON))
	assert.ErrorIs(t, err, errUnexpectedJSONType)
}

func TestMapNewOrderResponse(t *testing.T) {
	t.Parallel()
	ack, err := MapNewOrderResponse([]byte(`{"symbol":"BTCUSDT","orderId":28,"clientOrderId":"6gCrw2kRUAF9CvJDGP16IP","isIsolated":true,"transactTime":1507725176595}`))
	require.NoError(t, err)
	assert.Equal(t, int64(28), ack.OrderID)
	assert.True(t, ack.IsIsolated)
	assert.Empty(t, ack.Fills)
	assert.True(t, ack.Price.IsZero())

	full := `{
		"symbol": "BTCUSDT",
		"orderId": 28,
		"clientOrderId": "6gCrw2kRUAF9CvJDGP16IP",
		"transactTime": 1507725176595,
		"price": "1.00000000",
		"origQty": "10.00000000",
		"executedQty": "10.00000000",
		"cummulativeQuoteQty": "10.00000000",
		"status": "FILLED",
		"timeInForce": "GTC",
		"type": "MARKET",
		"side": "SELL",
		"marginBuyBorrowAmount": 5,
		"marginBuyBorrowAsset": "BTC",
		"fills": [
			{"price": "4000.00000000", "qty": "1.00000000", "commission": "4.00000000", "commissionAsset": "USDT"},
			{"price": "3999.00000000", "qty": "5.00000000", "commission": "19.99500000", "commissionAsset": "USDT"}
		]
	}`
	res, err := MapNewOrderResponse([]byte(full))
	require.NoError(t, err)
	assert.Equal(t, OrderStatusFilled, res.Status)
	assert.Equal(t, "5", res.MarginBuyBorrowAmount.String())
	assert.Equal(t, "BTC", res.MarginBuyBorrowAsset)
	require.Len(t, res.Fills, 2)
	assert.Equal(t, "19.995", res.Fills[1].Commission.String())
	assert.Equal(t, int64(1507725176595), res.TransactTime.Time().UnixMilli())

	_, err = MapNewOrderResponse([]byte(`{"symbol":"BTCUSDT","orderId":28,"clientOrderId":"x","transactTime":1555056425000,"fills":[{"price":"1","qty":"1","commission":"bad","commissionAsset":"BNB"}]}`))
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "fills[0].commission", me.Field)
}

func TestMapCancelOrderResponse(t *testing.T) {
	t.Parallel()
	raw := `{"symbol":"LTCBTC","isIsolated":false,"orderId":28,"origClientOrderId":"myOrder1","clientOrderId":"cancelMyOrder1",
		"price":"1.00000000","origQty":"10.00000000","executedQty":"8.00000000","cummulativeQuoteQty":"8.00000000",
		"status":"CANCELED","timeInForce":"GTC","type":"LIMIT","side":"SELL"}`
	res, err := MapCancelOrderResponse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCanceled, res.Status)
	assert.Equal(t, "myOrder1", res.OrigClientOrderID)
	assert.Equal(t, "cancelMyOrder1", res.ClientOrderID)
	assert.Equal(t, "8", res.ExecutedQty.String())
}

func TestMapTrades(t *testing.T) {
	t.Parallel()
	raw := `[{"commission":"0.00006000","commissionAsset":"BTC","id":34,"isBestMatch":true,"isBuyer":false,"isMaker":false,
		"orderId":39324,"price":"0.02000000","qty":"3.00000000","symbol":"BNBBTC","isIsolated":false,"time":1561973357171}]`
	trades, err := MapTrades([]byte(raw))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, int64(34), tr.ID)
	assert.Equal(t, int64(39324), tr.OrderID)
	assert.Equal(t, "0.00006", tr.Commission.String())
	assert.True(t, decimal.RequireFromString("0.02").Equal(tr.Price))
	assert.True(t, tr.IsBestMatch)
	assert.False(t, tr.IsBuyer)

	single, err := MapTrade([]byte(raw[1 : len(raw)-1]))
	require.NoError(t, err)
	assert.Equal(t, tr, *single)

	_, err = MapTrades([]byte(`[{"id":34}]`))
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, entityTrade, me.Entity)
	assert.Equal(t, "[0].symbol", me.Field)
}

func TestMapMarginTransaction(t *testing.T) {
	t.Parallel()
	tx, err := MapMarginTransaction([]byte(`{"tranId":12345}`))
	require.NoError(t, err)
	assert.Equal(t, MarginTransaction{TranID: 12345}, *tx)

	_, err = MapMarginTransaction([]byte(`{}`))
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "tranId", me.Field)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = MapMarginTransaction([]byte(`{"tranId":1.5}`))
	assert.ErrorIs(t, err, errInvalidInteger)
}

func TestMapLoanAndRepayQueryResults(t *testing.T) {
	t.Parallel()
	loans, err := MapLoanQueryResult([]byte(`{"rows":[{"isolatedSymbol":"BNBUSDT","txId":12807067523,"asset":"BNB","principal":"0.84624403","timestamp":1555056425000,"status":"CONFIRMED"}],"total":1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), loans.Total)
	require.Len(t, loans.Rows, 1)
	assert.Equal(t, int64(12807067523), loans.Rows[0].TxID)
	assert.Equal(t, "0.84624403", loans.Rows[0].Principal.String())
	assert.Equal(t, TransactionConfirmed, loans.Rows[0].Status)

	repays, err := MapRepayQueryResult([]byte(`{"rows":[{"isolatedSymbol":"","amount":"14.00000000","asset":"BNB","interest":"0.01866667","principal":"13.98133333","status":"CONFIRMED","timestamp":1563438204000,"txId":2970933056}],"total":1}`))
	require.NoError(t, err)
	require.Len(t, repays.Rows, 1)
	r := repays.Rows[0]
	assert.Equal(t, "14", r.Amount.String())
	assert.Equal(t, "0.01866667", r.Interest.String())
	assert.Equal(t, "13.98133333", r.Principal.String())
	assert.True(t, r.Interest.Add(r.Principal).Equal(r.Amount), "exact decimals must add up")

	empty, err := MapLoanQueryResult([]byte(`{"rows":[],"total":0}`))
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)

	_, err = MapRepayQueryResult([]byte(`{"rows":[{"asset":"BNB"}],"total":1}`))
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, entityRepayQuery, me.Entity)
	assert.Equal(t, "rows[0].amount", me.Field)

	_, err = MapLoanQueryResult([]byte(`{"total":0}`))
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "rows", me.Field)
}

func TestMapMaxBorrowable(t *testing.T) {
	t.Parallel()
	res, err := MapMaxBorrowable([]byte(`{"amount":"1.69248805","borrowLimit":"60"}`))
	require.NoError(t, err)
	assert.Equal(t, "1.69248805", res.Amount.String())
	assert.Equal(t, "60", res.BorrowLimit.String())

	res, err = MapMaxBorrowable([]byte(`{"amount":"1.5"}`))
	require.NoError(t, err)
	assert.True(t, res.BorrowLimit.IsZero())
}

func TestMapMarginAccount(t *testing.T) {
	t.Parallel()
	raw := `{
		"borrowEnabled": true,
		"marginLevel": "11.64405625",
		"totalAssetOfBtc": "6.82728457",
		"totalLiabilityOfBtc": "0.58633215",
		"totalNetAssetOfBtc": "6.24095242",
		"tradeEnabled": true,
		"transferEnabled": true,
		"userAssets": [
			{"asset": "BTC", "borrowed": "0.00000000", "free": "0.00499500", "interest": "0.00000000", "locked": "0.00000000", "netAsset": "0.00499500"},
			{"asset": "BNB", "borrowed": "201.66666672", "free": "2346.50000000", "interest": "0.00000000", "locked": "0.00000000", "netAsset": "2144.83333328"}
		]
	}`
	acc, err := MapMarginAccount([]byte(raw))
	require.NoError(t, err)
	assert.True(t, acc.BorrowEnabled)
	assert.Equal(t, "11.64405625", acc.MarginLevel.String())
	assert.Equal(t, "6.24095242", acc.TotalNetAssetOfBTC.String())
	require.Len(t, acc.UserAssets, 2)
	assert.Equal(t, "BNB", acc.UserAssets[1].Asset)
	assert.Equal(t, "201.66666672", acc.UserAssets[1].Borrowed.String())

	_, err = MapMarginAccount([]byte(`{"borrowEnabled":"yes"}`))
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "borrowEnabled", me.Field)
	assert.ErrorIs(t, err, errUnexpectedJSONType)
}

func TestMapListenKey(t *testing.T) {
	t.Parallel()
	key, err := MapListenKey([]byte(`{"listenKey":"T3ee22BIYuWqmvne0HNq2A2WsFlEtLhvWCtItw6ffhhdmjifQ2tRbuKkTHhr"}`))
	require.NoError(t, err)
	assert.Equal(t, ListenKey("T3ee22BIYuWqmvne0HNq2A2WsFlEtLhvWCtItw6ffhhdmjifQ2tRbuKkTHhr"), key)

	_, err = MapListenKey([]byte(`{"listenKey":""}`))
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = MapListenKey([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingField)
}
