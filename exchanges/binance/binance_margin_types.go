package binance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/binancemargin/types"
)

// OrderSide is the side of an order
type OrderSide string

// Order sides
const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType is the venue order type
type OrderType string

// Order types
const (
	OrderTypeLimit           OrderType = "LIMIT"
	OrderTypeMarket          OrderType = "MARKET"
	OrderTypeStopLoss        OrderType = "STOP_LOSS"
	OrderTypeStopLossLimit   OrderType = "STOP_LOSS_LIMIT"
	OrderTypeTakeProfit      OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitLimit OrderType = "TAKE_PROFIT_LIMIT"
	OrderTypeLimitMaker      OrderType = "LIMIT_MAKER"
)

// TimeInForce is how long an order remains active
type TimeInForce string

// Time in force values
const (
	GoodTillCancel    TimeInForce = "GTC"
	ImmediateOrCancel TimeInForce = "IOC"
	FillOrKill        TimeInForce = "FOK"
)

// OrderStatus is the venue order state
type OrderStatus string

// Order statuses
const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusPendingCancel   OrderStatus = "PENDING_CANCEL"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// NewOrderRespType selects the detail of a new order response
type NewOrderRespType string

// New order response types
const (
	NewOrderRespAck    NewOrderRespType = "ACK"
	NewOrderRespResult NewOrderRespType = "RESULT"
	NewOrderRespFull   NewOrderRespType = "FULL"
)

// SideEffectType selects automatic borrowing or repayment around an order
type SideEffectType string

// Side effect types
const (
	NoSideEffect SideEffectType = "NO_SIDE_EFFECT"
	MarginBuy    SideEffectType = "MARGIN_BUY"
	AutoRepay    SideEffectType = "AUTO_REPAY"
)

// TransferType is the direction of a spot/margin transfer
type TransferType string

// Transfer types
const (
	SpotToMargin TransferType = "1"
	MarginToSpot TransferType = "2"
)

// TransactionStatus is the state of a loan or repayment
type TransactionStatus string

// Transaction statuses
const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionConfirmed TransactionStatus = "CONFIRMED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// ListenKey identifies a user data stream
type ListenKey string

// MarginAccount is the cross margin account summary
type MarginAccount struct {
	BorrowEnabled       bool                 `json:"borrowEnabled"`
	MarginLevel         decimal.Decimal      `json:"marginLevel"`
	TotalAssetOfBTC     decimal.Decimal      `json:"totalAssetOfBtc"`
	TotalLiabilityOfBTC decimal.Decimal      `json:"totalLiabilityOfBtc"`
	TotalNetAssetOfBTC  decimal.Decimal      `json:"totalNetAssetOfBtc"`
	TradeEnabled        bool                 `json:"tradeEnabled"`
	TransferEnabled     bool                 `json:"transferEnabled"`
	UserAssets          []MarginAssetBalance `json:"userAssets"`
}

// MarginAssetBalance is a single asset position in the margin account
type MarginAssetBalance struct {
	Asset    string          `json:"asset"`
	Borrowed decimal.Decimal `json:"borrowed"`
	Free     decimal.Decimal `json:"free"`
	Interest decimal.Decimal `json:"interest"`
	Locked   decimal.Decimal `json:"locked"`
	NetAsset decimal.Decimal `json:"netAsset"`
}

// Order is a margin order as reported by status and listing queries
type Order struct {
	Symbol              string          `json:"symbol"`
	OrderID             int64           `json:"orderId"`
	ClientOrderID       string          `json:"clientOrderId"`
	Price               decimal.Decimal `json:"price"`
	OrigQty             decimal.Decimal `json:"origQty"`
	ExecutedQty         decimal.Decimal `json:"executedQty"`
	CummulativeQuoteQty decimal.Decimal `json:"cummulativeQuoteQty"`
	Status              OrderStatus     `json:"status"`
	TimeInForce         TimeInForce     `json:"timeInForce"`
	Type                OrderType       `json:"type"`
	Side                OrderSide       `json:"side"`
	StopPrice           decimal.Decimal `json:"stopPrice"`
	IcebergQty          decimal.Decimal `json:"icebergQty"`
	Time                types.Time      `json:"time"`
	UpdateTime          types.Time      `json:"updateTime"`
	IsWorking           bool            `json:"isWorking"`
	IsIsolated          bool            `json:"isIsolated"`
}

// NewOrderResponse is returned by order placement. Fields beyond the
// identifiers are only populated for RESULT and FULL response types.
type NewOrderResponse struct {
	Symbol                string          `json:"symbol"`
	OrderID               int64           `json:"orderId"`
	ClientOrderID         string          `json:"clientOrderId"`
	TransactTime          types.Time      `json:"transactTime"`
	Price                 decimal.Decimal `json:"price"`
	OrigQty               decimal.Decimal `json:"origQty"`
	ExecutedQty           decimal.Decimal `json:"executedQty"`
	CummulativeQuoteQty   decimal.Decimal `json:"cummulativeQuoteQty"`
	Status                OrderStatus     `json:"status"`
	TimeInForce           TimeInForce     `json:"timeInForce"`
	Type                  OrderType       `json:"type"`
	Side                  OrderSide       `json:"side"`
	MarginBuyBorrowAmount decimal.Decimal `json:"marginBuyBorrowAmount"`
	MarginBuyBorrowAsset  string          `json:"marginBuyBorrowAsset"`
	IsIsolated            bool            `json:"isIsolated"`
	Fills                 []Fill          `json:"fills"`
}

// Fill is a partial execution reported with a FULL new order response
type Fill struct {
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
	TradeID         int64           `json:"tradeId"`
}

// CancelOrderResponse is returned by order cancellation
type CancelOrderResponse struct {
	Symbol              string          `json:"symbol"`
	OrderID             int64           `json:"orderId"`
	OrigClientOrderID   string          `json:"origClientOrderId"`
	ClientOrderID       string          `json:"clientOrderId"`
	Price               decimal.Decimal `json:"price"`
	OrigQty             decimal.Decimal `json:"origQty"`
	ExecutedQty         decimal.Decimal `json:"executedQty"`
	CummulativeQuoteQty decimal.Decimal `json:"cummulativeQuoteQty"`
	Status              OrderStatus     `json:"status"`
	TimeInForce         TimeInForce     `json:"timeInForce"`
	Type                OrderType       `json:"type"`
	Side                OrderSide       `json:"side"`
	IsIsolated          bool            `json:"isIsolated"`
}

// Trade is a single account trade
type Trade struct {
	Symbol          string          `json:"symbol"`
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
	Time            types.Time      `json:"time"`
	IsBuyer         bool            `json:"isBuyer"`
	IsMaker         bool            `json:"isMaker"`
	IsBestMatch     bool            `json:"isBestMatch"`
	IsIsolated      bool            `json:"isIsolated"`
}

// MarginTransaction is the receipt of a transfer, loan or repayment
type MarginTransaction struct {
	TranID int64 `json:"tranId"`
}

// LoanQueryResult is a page of loan records
type LoanQueryResult struct {
	Total int64  `json:"total"`
	Rows  []Loan `json:"rows"`
}

// Loan is a single loan record
type Loan struct {
	Asset     string            `json:"asset"`
	Principal decimal.Decimal   `json:"principal"`
	Timestamp types.Time        `json:"timestamp"`
	Status    TransactionStatus `json:"status"`
	TxID      int64             `json:"txId"`
}

// RepayQueryResult is a page of repayment records
type RepayQueryResult struct {
	Total int64   `json:"total"`
	Rows  []Repay `json:"rows"`
}

// Repay is a single repayment record
type Repay struct {
	Amount    decimal.Decimal   `json:"amount"`
	Asset     string            `json:"asset"`
	Interest  decimal.Decimal   `json:"interest"`
	Principal decimal.Decimal   `json:"principal"`
	Status    TransactionStatus `json:"status"`
	Timestamp types.Time        `json:"timestamp"`
	TxID      int64             `json:"txId"`
}

// MaxBorrowableQueryResult is the borrowing headroom for an asset
type MaxBorrowableQueryResult struct {
	Amount      decimal.Decimal `json:"amount"`
	BorrowLimit decimal.Decimal `json:"borrowLimit"`
}

// OrderRequest queries open orders for a symbol
type OrderRequest struct {
	Symbol     string
	RecvWindow time.Duration
}

// AllOrdersRequest queries order history for a symbol. Zero values are
// omitted; Limit of zero leaves the venue default.
type AllOrdersRequest struct {
	Symbol     string
	OrderID    int64
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	RecvWindow time.Duration
}

// OrderStatusRequest identifies an order by venue id or client id
type OrderStatusRequest struct {
	Symbol            string
	OrderID           int64
	OrigClientOrderID string
	RecvWindow        time.Duration
}

// CancelOrderRequest identifies the order to cancel. NewClientOrderID
// optionally tags the cancellation.
type CancelOrderRequest struct {
	Symbol            string
	OrderID           int64
	OrigClientOrderID string
	NewClientOrderID  string
	RecvWindow        time.Duration
}

// TradesRequest queries account trades. Unset optional fields are omitted,
// so a request with only Symbol and Limit matches the short form exactly.
type TradesRequest struct {
	Symbol     string
	Limit      int
	FromID     *int64
	StartTime  time.Time
	EndTime    time.Time
	RecvWindow time.Duration
}

// NewOrderRequest places a margin order. Quantities and prices are decimal
// strings sent verbatim.
type NewOrderRequest struct {
	Symbol           string
	Side             OrderSide
	Type             OrderType
	TimeInForce      TimeInForce
	Quantity         string
	QuoteOrderQty    string
	Price            string
	StopPrice        string
	IcebergQty       string
	NewClientOrderID string
	NewOrderRespType NewOrderRespType
	SideEffectType   SideEffectType
	RecvWindow       time.Duration
}

// LoanQuery looks up loan records either by TxID or from StartTime, never
// both
type LoanQuery struct {
	Asset      string
	TxID       int64
	StartTime  time.Time
	EndTime    time.Time
	Current    int
	Size       int
	RecvWindow time.Duration
}

// RepayQuery looks up repayment records either by TxID or from StartTime,
// never both
type RepayQuery struct {
	Asset      string
	TxID       int64
	StartTime  time.Time
	EndTime    time.Time
	Current    int
	Size       int
	RecvWindow time.Duration
}
