package binance

import (
	"time"

	"github.com/thrasher-corp/binancemargin/exchanges/request"
)

const (
	// Binance sapi limits are tracked separately per IP and per account UID,
	// both as request weight per minute
	sapiInterval       = time.Minute
	sapiIPRequestRate  = 12000
	sapiUIDRequestRate = 180000
	// Order placement is additionally capped by order count
	marginOrderInterval    = 10 * time.Second
	marginOrderRequestRate = 100
)

// Binance margin rate limits
const (
	marginAccountRate request.EndpointLimit = iota + 1
	marginOpenOrdersRate
	marginAllOrdersRate
	marginNewOrderRate
	marginCancelOrderRate
	marginOrderStatusRate
	marginTradesRate
	marginTransferRate
	marginBorrowRate
	marginRepayRate
	marginQueryLoanRate
	marginQueryRepayRate
	marginMaxBorrowableRate
	listenKeyRate
)

// GetRateLimits returns the rate limit definitions for the margin endpoints
func GetRateLimits() request.RateLimitDefinitions {
	ip := request.NewRateLimit(sapiInterval, sapiIPRequestRate)
	uid := request.NewRateLimit(sapiInterval, sapiUIDRequestRate)
	orders := request.NewRateLimit(marginOrderInterval, marginOrderRequestRate)
	return request.RateLimitDefinitions{
		marginAccountRate:       request.GetRateLimiterWithWeight(ip, 10),
		marginOpenOrdersRate:    request.GetRateLimiterWithWeight(ip, 10),
		marginAllOrdersRate:     request.GetRateLimiterWithWeight(ip, 200),
		marginNewOrderRate:      request.GetRateLimiterWithWeight(uid, 6, orders),
		marginCancelOrderRate:   request.GetRateLimiterWithWeight(ip, 10),
		marginOrderStatusRate:   request.GetRateLimiterWithWeight(ip, 10),
		marginTradesRate:        request.GetRateLimiterWithWeight(ip, 10),
		marginTransferRate:      request.GetRateLimiterWithWeight(uid, 600),
		marginBorrowRate:        request.GetRateLimiterWithWeight(uid, 3000),
		marginRepayRate:         request.GetRateLimiterWithWeight(uid, 3000),
		marginQueryLoanRate:     request.GetRateLimiterWithWeight(ip, 10),
		marginQueryRepayRate:    request.GetRateLimiterWithWeight(ip, 10),
		marginMaxBorrowableRate: request.GetRateLimiterWithWeight(ip, 50),
		listenKeyRate:           request.GetRateLimiterWithWeight(ip, 1),
	}
}
