package binance

import (
	"net/http"

	"github.com/thrasher-corp/binancemargin/config"
	"github.com/thrasher-corp/binancemargin/exchanges/request"
)

// Margin REST paths
const (
	marginAccount       = "/sapi/v1/margin/account"
	marginOpenOrders    = "/sapi/v1/margin/openOrders"
	marginAllOrders     = "/sapi/v1/margin/allOrders"
	marginOrder         = "/sapi/v1/margin/order"
	marginMyTrades      = "/sapi/v1/margin/myTrades"
	marginTransfer      = "/sapi/v1/margin/transfer"
	marginLoan          = "/sapi/v1/margin/loan"
	marginRepay         = "/sapi/v1/margin/repay"
	marginMaxBorrowable = "/sapi/v1/margin/maxBorrowable"
	userDataStream      = "/sapi/v1/userDataStream"
)

// SecurityType selects how a request is authenticated
type SecurityType uint8

// Security types
const (
	// SecurityAPIKey sends the API key header only
	SecurityAPIKey SecurityType = iota + 1
	// SecuritySigned adds timestamp, recvWindow and an HMAC signature
	SecuritySigned
)

// ValidationRules toggles locally rejected parameter combinations
type ValidationRules = config.ValidationRules

// Waiver names the validation rule that lifts an exclusion
type Waiver uint8

// Waivers
const (
	WaiverNone Waiver = iota
	WaiverRedundantOrderIdentifiers
	WaiverFromIDWithTimeRange
)

// Exclusion forbids two parameters being sent together
type Exclusion struct {
	Params [2]string
	Waiver Waiver
}

// Operation describes a single venue endpoint and its parameter rules
type Operation struct {
	Name     string
	Method   string
	Path     string
	Security SecurityType
	Limit    request.EndpointLimit
	Required []string
	// OneOf lists groups where at least one parameter must be present
	OneOf     [][]string
	Exclusive []Exclusion
}

// WithRules returns a copy of the operation without the exclusions waived by
// r
func (o Operation) WithRules(r ValidationRules) Operation {
	if len(o.Exclusive) == 0 {
		return o
	}
	kept := make([]Exclusion, 0, len(o.Exclusive))
	for _, e := range o.Exclusive {
		switch {
		case e.Waiver == WaiverRedundantOrderIdentifiers && r.AllowRedundantOrderIdentifiers,
			e.Waiver == WaiverFromIDWithTimeRange && r.AllowFromIDWithTimeRange:
			continue
		}
		kept = append(kept, e)
	}
	o.Exclusive = kept
	return o
}

var orderIdentifierExclusion = Exclusion{
	Params: [2]string{"orderId", "origClientOrderId"},
	Waiver: WaiverRedundantOrderIdentifiers,
}

// Operation catalogue
var (
	OpGetAccount = Operation{
		Name:     "getAccount",
		Method:   http.MethodGet,
		Path:     marginAccount,
		Security: SecuritySigned,
		Limit:    marginAccountRate,
	}
	OpGetOpenOrders = Operation{
		Name:     "getOpenOrders",
		Method:   http.MethodGet,
		Path:     marginOpenOrders,
		Security: SecuritySigned,
		Limit:    marginOpenOrdersRate,
		Required: []string{"symbol"},
	}
	OpGetAllOrders = Operation{
		Name:     "getAllOrders",
		Method:   http.MethodGet,
		Path:     marginAllOrders,
		Security: SecuritySigned,
		Limit:    marginAllOrdersRate,
		Required: []string{"symbol"},
	}
	OpNewOrder = Operation{
		Name:      "newOrder",
		Method:    http.MethodPost,
		Path:      marginOrder,
		Security:  SecuritySigned,
		Limit:     marginNewOrderRate,
		Required:  []string{"symbol", "side", "type"},
		OneOf:     [][]string{{"quantity", "quoteOrderQty"}},
		Exclusive: []Exclusion{{Params: [2]string{"quantity", "quoteOrderQty"}}},
	}
	OpCancelOrder = Operation{
		Name:      "cancelOrder",
		Method:    http.MethodDelete,
		Path:      marginOrder,
		Security:  SecuritySigned,
		Limit:     marginCancelOrderRate,
		Required:  []string{"symbol"},
		OneOf:     [][]string{{"orderId", "origClientOrderId"}},
		Exclusive: []Exclusion{orderIdentifierExclusion},
	}
	OpGetOrderStatus = Operation{
		Name:      "getOrderStatus",
		Method:    http.MethodGet,
		Path:      marginOrder,
		Security:  SecuritySigned,
		Limit:     marginOrderStatusRate,
		Required:  []string{"symbol"},
		OneOf:     [][]string{{"orderId", "origClientOrderId"}},
		Exclusive: []Exclusion{orderIdentifierExclusion},
	}
	OpGetMyTrades = Operation{
		Name:     "getMyTrades",
		Method:   http.MethodGet,
		Path:     marginMyTrades,
		Security: SecuritySigned,
		Limit:    marginTradesRate,
		Required: []string{"symbol"},
		Exclusive: []Exclusion{
			{Params: [2]string{"fromId", "startTime"}, Waiver: WaiverFromIDWithTimeRange},
			{Params: [2]string{"fromId", "endTime"}, Waiver: WaiverFromIDWithTimeRange},
		},
	}
	OpTransfer = Operation{
		Name:     "transfer",
		Method:   http.MethodPost,
		Path:     marginTransfer,
		Security: SecuritySigned,
		Limit:    marginTransferRate,
		Required: []string{"asset", "amount", "type"},
	}
	OpBorrow = Operation{
		Name:     "borrow",
		Method:   http.MethodPost,
		Path:     marginLoan,
		Security: SecuritySigned,
		Limit:    marginBorrowRate,
		Required: []string{"asset", "amount"},
	}
	OpRepay = Operation{
		Name:     "repay",
		Method:   http.MethodPost,
		Path:     marginRepay,
		Security: SecuritySigned,
		Limit:    marginRepayRate,
		Required: []string{"asset", "amount"},
	}
	OpQueryLoan = Operation{
		Name:      "queryLoan",
		Method:    http.MethodGet,
		Path:      marginLoan,
		Security:  SecuritySigned,
		Limit:     marginQueryLoanRate,
		Required:  []string{"asset"},
		OneOf:     [][]string{{"txId", "startTime"}},
		Exclusive: []Exclusion{{Params: [2]string{"txId", "startTime"}}},
	}
	OpQueryRepay = Operation{
		Name:      "queryRepay",
		Method:    http.MethodGet,
		Path:      marginRepay,
		Security:  SecuritySigned,
		Limit:     marginQueryRepayRate,
		Required:  []string{"asset"},
		OneOf:     [][]string{{"txId", "startTime"}},
		Exclusive: []Exclusion{{Params: [2]string{"txId", "startTime"}}},
	}
	OpQueryMaxBorrowable = Operation{
		Name:     "queryMaxBorrowable",
		Method:   http.MethodGet,
		Path:     marginMaxBorrowable,
		Security: SecuritySigned,
		Limit:    marginMaxBorrowableRate,
		Required: []string{"asset"},
	}
	OpStartUserDataStream = Operation{
		Name:     "startUserDataStream",
		Method:   http.MethodPost,
		Path:     userDataStream,
		Security: SecurityAPIKey,
		Limit:    listenKeyRate,
	}
	OpKeepAliveUserDataStream = Operation{
		Name:     "keepAliveUserDataStream",
		Method:   http.MethodPut,
		Path:     userDataStream,
		Security: SecurityAPIKey,
		Limit:    listenKeyRate,
		Required: []string{"listenKey"},
	}
)

// Operations returns the full operation catalogue in declaration order
func Operations() []Operation {
	return []Operation{
		OpGetAccount,
		OpGetOpenOrders,
		OpGetAllOrders,
		OpNewOrder,
		OpCancelOrder,
		OpGetOrderStatus,
		OpGetMyTrades,
		OpTransfer,
		OpBorrow,
		OpRepay,
		OpQueryLoan,
		OpQueryRepay,
		OpQueryMaxBorrowable,
		OpStartUserDataStream,
		OpKeepAliveUserDataStream,
	}
}
