package binance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/kat-co/vala"
	"github.com/thrasher-corp/binancemargin/common/clock"
	"github.com/thrasher-corp/binancemargin/config"
	"github.com/thrasher-corp/binancemargin/exchanges/account"
	"github.com/thrasher-corp/binancemargin/exchanges/request"
	"github.com/thrasher-corp/binancemargin/log"
)

var errNilExchangeConfig = errors.New("nil exchange config")

// MarginClient is the cross margin capability set
type MarginClient interface {
	GetAccount(ctx context.Context) (*MarginAccount, error)
	GetOpenOrders(ctx context.Context, req OrderRequest) ([]Order, error)
	GetAllOrders(ctx context.Context, req AllOrdersRequest) ([]Order, error)
	NewOrder(ctx context.Context, req NewOrderRequest) (*NewOrderResponse, error)
	CancelOrder(ctx context.Context, req CancelOrderRequest) (*CancelOrderResponse, error)
	GetOrderStatus(ctx context.Context, req OrderStatusRequest) (*Order, error)
	GetMyTrades(ctx context.Context, req TradesRequest) ([]Trade, error)
	Transfer(ctx context.Context, asset, amount string, t TransferType) (*MarginTransaction, error)
	Borrow(ctx context.Context, asset, amount string) (*MarginTransaction, error)
	Repay(ctx context.Context, asset, amount string) (*MarginTransaction, error)
	QueryLoan(ctx context.Context, q LoanQuery) (*LoanQueryResult, error)
	QueryRepay(ctx context.Context, q RepayQuery) (*RepayQueryResult, error)
	QueryMaxBorrowable(ctx context.Context, asset string) (*MaxBorrowableQueryResult, error)
	StartUserDataStream(ctx context.Context) (ListenKey, error)
	KeepAliveUserDataStream(ctx context.Context, key ListenKey) error
}

var _ MarginClient = (*Margin)(nil)

// Margin is a stateless client for the Binance cross margin API. It holds
// only immutable configuration and is safe for concurrent use. Listen keys
// are returned to the caller and never retained.
type Margin struct {
	name                   string
	apiURL                 string
	creds                  account.Credentials
	clock                  clock.Clock
	requester              *request.Requester
	transport              http.RoundTripper
	recvWindow             time.Duration
	rules                  ValidationRules
	verbose                bool
	generateClientOrderIDs bool
}

// Option configures a Margin client
type Option func(*Margin)

// WithClock sets the time source used for request timestamps
func WithClock(c clock.Clock) Option {
	return func(m *Margin) {
		m.clock = c
	}
}

// WithRequester supplies a preconfigured requester
func WithRequester(r *request.Requester) Option {
	return func(m *Margin) {
		m.requester = r
	}
}

// WithTransport sets the HTTP transport of the internally built requester
func WithTransport(rt http.RoundTripper) Option {
	return func(m *Margin) {
		m.transport = rt
	}
}

// New returns a margin client for the supplied exchange config
func New(cfg *config.Exchange, opts ...Option) (*Margin, error) {
	if cfg == nil {
		return nil, errNilExchangeConfig
	}
	c := *cfg
	if err := c.CheckValues(); err != nil {
		return nil, err
	}

	m := &Margin{
		name:                   c.Name,
		apiURL:                 c.APIURL,
		creds:                  c.Credentials(),
		clock:                  clock.System,
		recvWindow:             c.RecvWindow,
		rules:                  c.Validation,
		verbose:                c.Verbose,
		generateClientOrderIDs: c.GenerateClientOrderIDs,
	}
	for _, o := range opts {
		o(m)
	}

	if m.requester == nil {
		r, err := request.New(c.Name,
			request.WithLimiter(GetRateLimits()),
			request.WithTimeout(c.HTTPTimeout),
			request.WithUserAgent(c.UserAgent),
			request.WithTransport(m.transport))
		if err != nil {
			return nil, err
		}
		if !c.RateLimit {
			if err := r.DisableRateLimiter(); err != nil {
				return nil, err
			}
		}
		m.requester = r
	}
	log.Debugf(log.ExchangeSys, "%s margin client ready, api %s, credentials %s", m.name, m.apiURL, m.creds)
	return m, nil
}

// GetAccount returns the margin account summary
func (m *Margin) GetAccount(ctx context.Context) (*MarginAccount, error) {
	raw, err := m.sendRequest(ctx, OpGetAccount, url.Values{})
	if err != nil {
		return nil, err
	}
	return MapMarginAccount(raw)
}

// GetOpenOrders returns open orders for a symbol in venue order
func (m *Margin) GetOpenOrders(ctx context.Context, req OrderRequest) ([]Order, error) {
	if err := validate(OpGetOpenOrders.Name,
		symbolRule(req.Symbol),
		recvWindowRule(req.RecvWindow)); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	setRecvWindow(params, req.RecvWindow)
	raw, err := m.sendRequest(ctx, OpGetOpenOrders, params)
	if err != nil {
		return nil, err
	}
	return MapOrders(raw)
}

// GetAllOrders returns all orders for a symbol, optionally from an order id
// or within a time range
func (m *Margin) GetAllOrders(ctx context.Context, req AllOrdersRequest) ([]Order, error) {
	if err := validate(OpGetAllOrders.Name,
		symbolRule(req.Symbol),
		limitRule(req.Limit, maxAllOrdersLimit),
		timeRangeRule(req.StartTime, req.EndTime),
		recvWindowRule(req.RecvWindow)); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	if req.OrderID != 0 {
		params.Set("orderId", strconv.FormatInt(req.OrderID, 10))
	}
	setTime(params, "startTime", req.StartTime)
	setTime(params, "endTime", req.EndTime)
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	setRecvWindow(params, req.RecvWindow)
	raw, err := m.sendRequest(ctx, OpGetAllOrders, params)
	if err != nil {
		return nil, err
	}
	return MapOrders(raw)
}

// NewOrder places a margin order
func (m *Margin) NewOrder(ctx context.Context, req NewOrderRequest) (*NewOrderResponse, error) {
	if err := validateNewOrder(&req); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", string(req.Type))
	setString(params, "timeInForce", string(req.TimeInForce))
	setString(params, "quantity", req.Quantity)
	setString(params, "quoteOrderQty", req.QuoteOrderQty)
	setString(params, "price", req.Price)
	setString(params, "stopPrice", req.StopPrice)
	setString(params, "icebergQty", req.IcebergQty)
	setString(params, "newOrderRespType", string(req.NewOrderRespType))
	setString(params, "sideEffectType", string(req.SideEffectType))
	clientOrderID := req.NewClientOrderID
	if clientOrderID == "" && m.generateClientOrderIDs {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		clientOrderID = id.String()
	}
	setString(params, "newClientOrderId", clientOrderID)
	setRecvWindow(params, req.RecvWindow)

	raw, err := m.sendRequest(ctx, OpNewOrder, params)
	if err != nil {
		return nil, err
	}
	return MapNewOrderResponse(raw)
}

func validateNewOrder(req *NewOrderRequest) error {
	hasQty, hasQuote := req.Quantity != "", req.QuoteOrderQty != ""
	rules := []rule{
		symbolRule(req.Symbol),
		condition("side", errSideRequired, req.Side == SideBuy || req.Side == SideSell, "side must be BUY or SELL"),
		condition("type", errOrderTypeRequired, validOrderType(req.Type), "unknown order type "+string(req.Type)),
		condition("quantity|quoteOrderQty", errQuantityRequired, hasQty != hasQuote, "exactly one of quantity or quoteOrderQty"),
		optionalAmountRule("quantity", req.Quantity),
		optionalAmountRule("quoteOrderQty", req.QuoteOrderQty),
		optionalAmountRule("price", req.Price),
		optionalAmountRule("stopPrice", req.StopPrice),
		optionalAmountRule("icebergQty", req.IcebergQty),
		condition("quoteOrderQty", errQuoteOrderQtyNotMarket, !hasQuote || req.Type == OrderTypeMarket, "quoteOrderQty requires MARKET"),
		recvWindowRule(req.RecvWindow),
	}
	switch req.Type {
	case OrderTypeLimit, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		rules = append(rules,
			condition("price", errPriceRequired, req.Price != "", string(req.Type)+" requires price"),
			condition("timeInForce", errTimeInForceRequired, validTimeInForce(req.TimeInForce), string(req.Type)+" requires GTC, IOC or FOK"))
	case OrderTypeLimitMaker:
		rules = append(rules, condition("price", errPriceRequired, req.Price != "", "LIMIT_MAKER requires price"))
	}
	switch req.Type {
	case OrderTypeStopLoss, OrderTypeStopLossLimit, OrderTypeTakeProfit, OrderTypeTakeProfitLimit:
		rules = append(rules, condition("stopPrice", errStopPriceRequired, req.StopPrice != "", string(req.Type)+" requires stopPrice"))
	}
	return validate(OpNewOrder.Name, rules...)
}

func validOrderType(t OrderType) bool {
	switch t {
	case OrderTypeLimit, OrderTypeMarket, OrderTypeStopLoss, OrderTypeStopLossLimit,
		OrderTypeTakeProfit, OrderTypeTakeProfitLimit, OrderTypeLimitMaker:
		return true
	}
	return false
}

func validTimeInForce(t TimeInForce) bool {
	return t == GoodTillCancel || t == ImmediateOrCancel || t == FillOrKill
}

// CancelOrder cancels an active order
func (m *Margin) CancelOrder(ctx context.Context, req CancelOrderRequest) (*CancelOrderResponse, error) {
	if err := m.validateOrderIdentifiers(OpCancelOrder.Name, req.Symbol, req.OrderID, req.OrigClientOrderID, req.RecvWindow); err != nil {
		return nil, err
	}
	params := orderIdentifierParams(req.Symbol, req.OrderID, req.OrigClientOrderID)
	setString(params, "newClientOrderId", req.NewClientOrderID)
	setRecvWindow(params, req.RecvWindow)
	raw, err := m.sendRequest(ctx, OpCancelOrder, params)
	if err != nil {
		return nil, err
	}
	return MapCancelOrderResponse(raw)
}

// GetOrderStatus returns a single order
func (m *Margin) GetOrderStatus(ctx context.Context, req OrderStatusRequest) (*Order, error) {
	if err := m.validateOrderIdentifiers(OpGetOrderStatus.Name, req.Symbol, req.OrderID, req.OrigClientOrderID, req.RecvWindow); err != nil {
		return nil, err
	}
	params := orderIdentifierParams(req.Symbol, req.OrderID, req.OrigClientOrderID)
	setRecvWindow(params, req.RecvWindow)
	raw, err := m.sendRequest(ctx, OpGetOrderStatus, params)
	if err != nil {
		return nil, err
	}
	return MapOrder(raw)
}

func (m *Margin) validateOrderIdentifiers(op, symbol string, orderID int64, origClientOrderID string, rw time.Duration) error {
	hasID, hasClientID := orderID != 0, origClientOrderID != ""
	return validate(op,
		symbolRule(symbol),
		condition("orderId|origClientOrderId", errOrderIdentifierRequired, hasID || hasClientID, "no order identifier"),
		condition("orderId|origClientOrderId", ErrRedundantOrderIdentifiers,
			!(hasID && hasClientID) || m.rules.AllowRedundantOrderIdentifiers, "both order identifiers supplied"),
		recvWindowRule(rw))
}

func orderIdentifierParams(symbol string, orderID int64, origClientOrderID string) url.Values {
	params := url.Values{}
	params.Set("symbol", symbol)
	if orderID != 0 {
		params.Set("orderId", strconv.FormatInt(orderID, 10))
	}
	setString(params, "origClientOrderId", origClientOrderID)
	return params
}

// GetMyTrades returns account trades for a symbol. Optional filters left at
// their zero value are not sent.
func (m *Margin) GetMyTrades(ctx context.Context, req TradesRequest) ([]Trade, error) {
	hasRange := !req.StartTime.IsZero() || !req.EndTime.IsZero()
	if err := validate(OpGetMyTrades.Name,
		symbolRule(req.Symbol),
		limitRule(req.Limit, maxTradesLimit),
		condition("fromId", ErrFromIDWithTimeRange,
			req.FromID == nil || !hasRange || m.rules.AllowFromIDWithTimeRange, "fromId with time range"),
		timeRangeRule(req.StartTime, req.EndTime),
		recvWindowRule(req.RecvWindow)); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.FromID != nil {
		params.Set("fromId", strconv.FormatInt(*req.FromID, 10))
	}
	setTime(params, "startTime", req.StartTime)
	setTime(params, "endTime", req.EndTime)
	setRecvWindow(params, req.RecvWindow)
	raw, err := m.sendRequest(ctx, OpGetMyTrades, params)
	if err != nil {
		return nil, err
	}
	return MapTrades(raw)
}

// Transfer moves an asset between the spot and margin accounts
func (m *Margin) Transfer(ctx context.Context, asset, amount string, t TransferType) (*MarginTransaction, error) {
	if err := validate(OpTransfer.Name,
		assetRule(asset),
		amountRule("amount", amount),
		condition("type", errInvalidTransferType, t == SpotToMargin || t == MarginToSpot, "transfer type must be 1 or 2")); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("amount", amount)
	params.Set("type", string(t))
	return m.transaction(ctx, OpTransfer, params)
}

// Borrow applies for a margin loan
func (m *Margin) Borrow(ctx context.Context, asset, amount string) (*MarginTransaction, error) {
	return m.loanAction(ctx, OpBorrow, asset, amount)
}

// Repay repays a margin loan
func (m *Margin) Repay(ctx context.Context, asset, amount string) (*MarginTransaction, error) {
	return m.loanAction(ctx, OpRepay, asset, amount)
}

func (m *Margin) loanAction(ctx context.Context, op Operation, asset, amount string) (*MarginTransaction, error) {
	if err := validate(op.Name, assetRule(asset), amountRule("amount", amount)); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("amount", amount)
	return m.transaction(ctx, op, params)
}

func (m *Margin) transaction(ctx context.Context, op Operation, params url.Values) (*MarginTransaction, error) {
	raw, err := m.sendRequest(ctx, op, params)
	if err != nil {
		return nil, err
	}
	return MapMarginTransaction(raw)
}

// QueryLoan returns loan records by transaction id or from a start time
func (m *Margin) QueryLoan(ctx context.Context, q LoanQuery) (*LoanQueryResult, error) {
	params, err := recordQueryParams(OpQueryLoan.Name, q.Asset, q.TxID, q.StartTime, q.EndTime, q.Current, q.Size, q.RecvWindow)
	if err != nil {
		return nil, err
	}
	raw, err := m.sendRequest(ctx, OpQueryLoan, params)
	if err != nil {
		return nil, err
	}
	return MapLoanQueryResult(raw)
}

// QueryRepay returns repayment records by transaction id or from a start
// time
func (m *Margin) QueryRepay(ctx context.Context, q RepayQuery) (*RepayQueryResult, error) {
	params, err := recordQueryParams(OpQueryRepay.Name, q.Asset, q.TxID, q.StartTime, q.EndTime, q.Current, q.Size, q.RecvWindow)
	if err != nil {
		return nil, err
	}
	raw, err := m.sendRequest(ctx, OpQueryRepay, params)
	if err != nil {
		return nil, err
	}
	return MapRepayQueryResult(raw)
}

func recordQueryParams(op, asset string, txID int64, start, end time.Time, current, size int, rw time.Duration) (url.Values, error) {
	byTx, byTime := txID != 0, !start.IsZero()
	if err := validate(op,
		assetRule(asset),
		condition("txId|startTime", errLoanQueryShape, byTx != byTime, "query by txId or by startTime"),
		condition("endTime", errLoanQueryShape, end.IsZero() || byTime, "endTime requires startTime"),
		timeRangeRule(start, end),
		pagingRule(current, size),
		recvWindowRule(rw)); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("asset", asset)
	if byTx {
		params.Set("txId", strconv.FormatInt(txID, 10))
	}
	setTime(params, "startTime", start)
	setTime(params, "endTime", end)
	if current > 0 {
		params.Set("current", strconv.Itoa(current))
	}
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}
	setRecvWindow(params, rw)
	return params, nil
}

// QueryMaxBorrowable returns the maximum borrowable amount for an asset
func (m *Margin) QueryMaxBorrowable(ctx context.Context, asset string) (*MaxBorrowableQueryResult, error) {
	if err := validate(OpQueryMaxBorrowable.Name, assetRule(asset)); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("asset", asset)
	raw, err := m.sendRequest(ctx, OpQueryMaxBorrowable, params)
	if err != nil {
		return nil, err
	}
	return MapMaxBorrowable(raw)
}

// StartUserDataStream opens a user data stream and returns its new listen
// key. The key is not retained; the caller owns the keepalive schedule.
func (m *Margin) StartUserDataStream(ctx context.Context) (ListenKey, error) {
	raw, err := m.sendRequest(ctx, OpStartUserDataStream, url.Values{})
	if err != nil {
		return "", err
	}
	return MapListenKey(raw)
}

// KeepAliveUserDataStream extends the validity of a listen key. A venue
// rejection is returned as an *APIError and the stream is not restarted.
func (m *Margin) KeepAliveUserDataStream(ctx context.Context, key ListenKey) error {
	if err := validate(OpKeepAliveUserDataStream.Name,
		rule{field: "listenKey", cause: errListenKeyRequired, check: vala.StringNotEmpty(string(key), "listenKey")}); err != nil {
		return err
	}
	params := url.Values{}
	params.Set("listenKey", string(key))
	_, err := m.sendRequest(ctx, OpKeepAliveUserDataStream, params)
	return err
}

// sendRequest builds, sends and decodes a single round trip
func (m *Margin) sendRequest(ctx context.Context, op Operation, params url.Values) (json.RawMessage, error) {
	sr, err := Build(op.WithRules(m.rules), params, m.creds, m.clock, m.recvWindow)
	if err != nil {
		return nil, err
	}
	verbose := request.IsVerbose(ctx, m.verbose)
	if verbose {
		log.Debugf(log.ExchangeSys, "%s sending %s", m.name, sr)
	}
	resp, err := m.requester.SendPayload(ctx, op.Limit, &request.Item{
		Method:  sr.Method,
		Path:    m.apiURL + sr.Path,
		Query:   sr.Query,
		Body:    sr.Body,
		Headers: sr.Headers,
		Verbose: m.verbose,
		BeforeSend: func() error {
			if sr.Expired(m.clock.Now()) {
				return &APIError{
					Code:    CodeTimestampOutsideRecvWindow,
					Message: "request expired while waiting for rate limit, not sent",
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	raw, err := Decode(resp.StatusCode, resp.Body)
	if err != nil {
		if verbose {
			log.Warnf(log.ExchangeSys, "%s %s failed: %v", m.name, op.Name, err)
		}
		return nil, err
	}
	return raw, nil
}

func setString(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setTime(params url.Values, key string, t time.Time) {
	if !t.IsZero() {
		params.Set(key, strconv.FormatInt(t.UnixMilli(), 10))
	}
}

func setRecvWindow(params url.Values, rw time.Duration) {
	if rw > 0 {
		params.Set("recvWindow", strconv.FormatInt(rw.Milliseconds(), 10))
	}
}
