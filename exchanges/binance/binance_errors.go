package binance

import (
	"errors"
	"fmt"

	"github.com/thrasher-corp/binancemargin/exchanges/request"
)

const (
	// UnknownErrorCode is the APIError code used when the venue response
	// carries no structured error code
	UnknownErrorCode int64 = 0
	// CodeTimestampOutsideRecvWindow is the venue code for a request whose
	// timestamp plus recvWindow has already passed
	CodeTimestampOutsideRecvWindow int64 = -1021
	// CodeNewOrderRejected is the venue code for a rejected order
	CodeNewOrderRejected int64 = -2010

	errorExcerptLimit = 256
)

// Sentinel causes carried by ValidationError and MappingError
var (
	ErrMissingParameter          = errors.New("missing required parameter")
	ErrExclusiveParameters       = errors.New("mutually exclusive parameters")
	ErrLimitOutOfRange           = errors.New("limit out of range")
	ErrRedundantOrderIdentifiers = errors.New("orderId and origClientOrderId supplied together")
	ErrFromIDWithTimeRange       = errors.New("fromId cannot be combined with startTime or endTime")
	ErrInvalidAmount             = errors.New("amount must be a positive decimal string")
	ErrMissingField              = errors.New("missing required field")

	errSymbolRequired          = errors.New("symbol required")
	errAssetRequired           = errors.New("asset required")
	errSideRequired            = errors.New("valid order side required")
	errOrderTypeRequired       = errors.New("valid order type required")
	errQuantityRequired        = errors.New("exactly one of quantity or quoteOrderQty required")
	errPriceRequired           = errors.New("price required")
	errStopPriceRequired       = errors.New("stopPrice required")
	errTimeInForceRequired     = errors.New("valid timeInForce required")
	errQuoteOrderQtyNotMarket  = errors.New("quoteOrderQty is only valid for MARKET orders")
	errOrderIdentifierRequired = errors.New("orderId or origClientOrderId required")
	errInvalidTransferType     = errors.New("invalid transfer type")
	errListenKeyRequired       = errors.New("listen key required")
	errLoanQueryShape          = errors.New("exactly one of txId or startTime required")
	errRecvWindowOutOfRange    = errors.New("recvWindow must be between 1ms and 60s")
	errInvalidTimeRange        = errors.New("startTime must not be after endTime")
	errInvalidPaging           = errors.New("invalid paging")
	errCredentials             = errors.New("invalid credentials")
	errUnexpectedJSONType      = errors.New("unexpected JSON type")
	errInvalidDecimal          = errors.New("invalid decimal")
	errInvalidInteger          = errors.New("invalid integer")
	errInvalidTime             = errors.New("invalid epoch time")
)

// TransportError reports a round trip that never produced a response
type TransportError = request.TransportError

// ValidationError is returned before any network use when request
// parameters are missing, malformed or conflicting
type ValidationError struct {
	Operation string
	Field     string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid parameter %s: %v", e.Operation, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// APIError is a venue reported error. Code is passed through verbatim;
// UnknownErrorCode marks a response without a structured code.
type APIError struct {
	Code       int64
	Message    string
	HTTPStatus int
}

func (e *APIError) Error() string {
	if e.HTTPStatus == 0 {
		return fmt.Sprintf("binance api error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("binance api error %d (http status %d): %s", e.Code, e.HTTPStatus, e.Message)
}

// MappingError is returned when a successful payload does not match the
// expected schema
type MappingError struct {
	Entity string
	Field  string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mapping %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("mapping %s field %s: %v", e.Entity, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}
