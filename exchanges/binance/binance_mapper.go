package binance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/binancemargin/types"
)

// Mapped entity names reported by MappingError
const (
	entityOrder            = "Order"
	entityNewOrderResponse = "NewOrderResponse"
	entityCancelOrder      = "CancelOrderResponse"
	entityTrade            = "Trade"
	entityTransaction      = "MarginTransaction"
	entityLoanQuery        = "LoanQueryResult"
	entityRepayQuery       = "RepayQueryResult"
	entityMaxBorrowable    = "MaxBorrowableQueryResult"
	entityMarginAccount    = "MarginAccount"
	entityListenKey        = "ListenKey"
)

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindInt
	kindDecimal
	kindBool
	kindTime
	kindArray
)

type field struct {
	name     string
	kind     fieldKind
	optional bool
}

func required(name string, kind fieldKind) field { return field{name: name, kind: kind} }
func optional(name string, kind fieldKind) field { return field{name: name, kind: kind, optional: true} }

var (
	orderFields = []field{
		required("symbol", kindString),
		required("orderId", kindInt),
		required("clientOrderId", kindString),
		required("price", kindDecimal),
		required("origQty", kindDecimal),
		required("executedQty", kindDecimal),
		required("cummulativeQuoteQty", kindDecimal),
		required("status", kindString),
		required("type", kindString),
		required("side", kindString),
		required("time", kindTime),
		optional("timeInForce", kindString),
		optional("stopPrice", kindDecimal),
		optional("icebergQty", kindDecimal),
		optional("updateTime", kindTime),
		optional("isWorking", kindBool),
		optional("isIsolated", kindBool),
	}
	newOrderFields = []field{
		required("symbol", kindString),
		required("orderId", kindInt),
		required("clientOrderId", kindString),
		required("transactTime", kindTime),
		optional("price", kindDecimal),
		optional("origQty", kindDecimal),
		optional("executedQty", kindDecimal),
		optional("cummulativeQuoteQty", kindDecimal),
		optional("status", kindString),
		optional("timeInForce", kindString),
		optional("type", kindString),
		optional("side", kindString),
		optional("marginBuyBorrowAmount", kindDecimal),
		optional("marginBuyBorrowAsset", kindString),
		optional("isIsolated", kindBool),
		optional("fills", kindArray),
	}
	fillFields = []field{
		required("price", kindDecimal),
		required("qty", kindDecimal),
		required("commission", kindDecimal),
		required("commissionAsset", kindString),
		optional("tradeId", kindInt),
	}
	cancelOrderFields = []field{
		required("symbol", kindString),
		required("orderId", kindInt),
		required("status", kindString),
		optional("origClientOrderId", kindString),
		optional("clientOrderId", kindString),
		optional("price", kindDecimal),
		optional("origQty", kindDecimal),
		optional("executedQty", kindDecimal),
		optional("cummulativeQuoteQty", kindDecimal),
		optional("timeInForce", kindString),
		optional("type", kindString),
		optional("side", kindString),
		optional("isIsolated", kindBool),
	}
	tradeFields = []field{
		required("symbol", kindString),
		required("id", kindInt),
		required("orderId", kindInt),
		required("price", kindDecimal),
		required("qty", kindDecimal),
		required("commission", kindDecimal),
		required("commissionAsset", kindString),
		required("time", kindTime),
		required("isBuyer", kindBool),
		required("isMaker", kindBool),
		optional("isBestMatch", kindBool),
		optional("isIsolated", kindBool),
	}
	transactionFields = []field{
		required("tranId", kindInt),
	}
	pageFields = []field{
		required("rows", kindArray),
		required("total", kindInt),
	}
	loanFields = []field{
		required("asset", kindString),
		required("principal", kindDecimal),
		required("timestamp", kindTime),
		required("status", kindString),
		required("txId", kindInt),
	}
	repayFields = []field{
		required("amount", kindDecimal),
		required("asset", kindString),
		required("interest", kindDecimal),
		required("principal", kindDecimal),
		required("status", kindString),
		required("timestamp", kindTime),
		required("txId", kindInt),
	}
	maxBorrowableFields = []field{
		required("amount", kindDecimal),
		optional("borrowLimit", kindDecimal),
	}
	marginAccountFields = []field{
		required("borrowEnabled", kindBool),
		required("marginLevel", kindDecimal),
		required("totalAssetOfBtc", kindDecimal),
		required("totalLiabilityOfBtc", kindDecimal),
		required("totalNetAssetOfBtc", kindDecimal),
		required("tradeEnabled", kindBool),
		required("transferEnabled", kindBool),
		required("userAssets", kindArray),
	}
	assetBalanceFields = []field{
		required("asset", kindString),
		required("borrowed", kindDecimal),
		required("free", kindDecimal),
		required("interest", kindDecimal),
		required("locked", kindDecimal),
		required("netAsset", kindDecimal),
	}
	listenKeyFields = []field{
		required("listenKey", kindString),
	}
)

// MapOrder maps a single order payload
func MapOrder(raw []byte) (*Order, error) {
	return mapObject[Order](entityOrder, raw, orderFields)
}

// MapOrders maps an order list, preserving venue order
func MapOrders(raw []byte) ([]Order, error) {
	return mapArray[Order](entityOrder, raw, orderFields)
}

// MapNewOrderResponse maps an ACK, RESULT or FULL order placement response
func MapNewOrderResponse(raw []byte) (*NewOrderResponse, error) {
	if err := checkObject(entityNewOrderResponse, raw, newOrderFields); err != nil {
		return nil, err
	}
	if err := checkNestedArray(entityNewOrderResponse, raw, "fills", fillFields); err != nil {
		return nil, err
	}
	return unmarshalEntity[NewOrderResponse](entityNewOrderResponse, raw)
}

// MapCancelOrderResponse maps an order cancellation response
func MapCancelOrderResponse(raw []byte) (*CancelOrderResponse, error) {
	return mapObject[CancelOrderResponse](entityCancelOrder, raw, cancelOrderFields)
}

// MapTrade maps a single trade payload
func MapTrade(raw []byte) (*Trade, error) {
	return mapObject[Trade](entityTrade, raw, tradeFields)
}

// MapTrades maps a trade list, preserving venue order
func MapTrades(raw []byte) ([]Trade, error) {
	return mapArray[Trade](entityTrade, raw, tradeFields)
}

// MapMarginTransaction maps a transfer, loan or repayment receipt
func MapMarginTransaction(raw []byte) (*MarginTransaction, error) {
	return mapObject[MarginTransaction](entityTransaction, raw, transactionFields)
}

// MapLoanQueryResult maps a page of loan records
func MapLoanQueryResult(raw []byte) (*LoanQueryResult, error) {
	if err := checkObject(entityLoanQuery, raw, pageFields); err != nil {
		return nil, err
	}
	if err := checkNestedArray(entityLoanQuery, raw, "rows", loanFields); err != nil {
		return nil, err
	}
	return unmarshalEntity[LoanQueryResult](entityLoanQuery, raw)
}

// MapRepayQueryResult maps a page of repayment records
func MapRepayQueryResult(raw []byte) (*RepayQueryResult, error) {
	if err := checkObject(entityRepayQuery, raw, pageFields); err != nil {
		return nil, err
	}
	if err := checkNestedArray(entityRepayQuery, raw, "rows", repayFields); err != nil {
		return nil, err
	}
	return unmarshalEntity[RepayQueryResult](entityRepayQuery, raw)
}

// MapMaxBorrowable maps a max borrowable query
func MapMaxBorrowable(raw []byte) (*MaxBorrowableQueryResult, error) {
	return mapObject[MaxBorrowableQueryResult](entityMaxBorrowable, raw, maxBorrowableFields)
}

// MapMarginAccount maps the margin account summary
func MapMarginAccount(raw []byte) (*MarginAccount, error) {
	if err := checkObject(entityMarginAccount, raw, marginAccountFields); err != nil {
		return nil, err
	}
	if err := checkNestedArray(entityMarginAccount, raw, "userAssets", assetBalanceFields); err != nil {
		return nil, err
	}
	return unmarshalEntity[MarginAccount](entityMarginAccount, raw)
}

// MapListenKey extracts the listen key from a stream start response
func MapListenKey(raw []byte) (ListenKey, error) {
	if err := checkObject(entityListenKey, raw, listenKeyFields); err != nil {
		return "", err
	}
	key, err := jsonparser.GetString(raw, "listenKey")
	if err != nil {
		return "", &MappingError{Entity: entityListenKey, Field: "listenKey", Err: err}
	}
	if key == "" {
		return "", &MappingError{Entity: entityListenKey, Field: "listenKey", Err: ErrMissingField}
	}
	return ListenKey(key), nil
}

func mapObject[T any](entity string, raw []byte, fields []field) (*T, error) {
	if err := checkObject(entity, raw, fields); err != nil {
		return nil, err
	}
	return unmarshalEntity[T](entity, raw)
}

func mapArray[T any](entity string, raw []byte, fields []field) ([]T, error) {
	if err := checkArray(entity, "", raw, fields); err != nil {
		return nil, err
	}
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, unmarshalError(entity, err)
	}
	return out, nil
}

func unmarshalEntity[T any](entity string, raw []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, unmarshalError(entity, err)
	}
	return v, nil
}

func unmarshalError(entity string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &MappingError{Entity: entity, Field: typeErr.Field, Err: err}
	}
	return &MappingError{Entity: entity, Err: err}
}

func checkObject(entity string, raw []byte, fields []field) error {
	_, dt, _, err := jsonparser.Get(raw)
	if err != nil {
		return &MappingError{Entity: entity, Err: err}
	}
	if dt != jsonparser.Object {
		return &MappingError{Entity: entity, Err: fmt.Errorf("%w: want object, got %s", errUnexpectedJSONType, dt)}
	}
	return checkFields(entity, "", raw, fields)
}

func checkArray(entity, prefix string, raw []byte, fields []field) error {
	_, dt, _, err := jsonparser.Get(raw)
	if err != nil {
		return &MappingError{Entity: entity, Field: prefix, Err: err}
	}
	if dt != jsonparser.Array {
		return &MappingError{Entity: entity, Field: prefix, Err: fmt.Errorf("%w: want array, got %s", errUnexpectedJSONType, dt)}
	}
	var (
		idx    int
		mapErr error
	)
	_, err = jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
		if mapErr != nil {
			return
		}
		path := prefix + "[" + strconv.Itoa(idx) + "]"
		idx++
		if dt != jsonparser.Object {
			mapErr = &MappingError{Entity: entity, Field: path, Err: fmt.Errorf("%w: want object, got %s", errUnexpectedJSONType, dt)}
			return
		}
		mapErr = checkFields(entity, path+".", value, fields)
	})
	if mapErr != nil {
		return mapErr
	}
	if err != nil {
		return &MappingError{Entity: entity, Field: prefix, Err: err}
	}
	return nil
}

// checkNestedArray validates each element of an optional nested array
func checkNestedArray(entity string, raw []byte, key string, fields []field) error {
	v, dt, _, err := jsonparser.Get(raw, key)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || dt == jsonparser.Null {
		return nil
	}
	if err != nil {
		return &MappingError{Entity: entity, Field: key, Err: err}
	}
	return checkArray(entity, key, v, fields)
}

func checkFields(entity, prefix string, raw []byte, fields []field) error {
	for _, f := range fields {
		v, dt, _, err := jsonparser.Get(raw, f.name)
		if errors.Is(err, jsonparser.KeyPathNotFoundError) || (err == nil && dt == jsonparser.Null) {
			if f.optional {
				continue
			}
			return &MappingError{Entity: entity, Field: prefix + f.name, Err: ErrMissingField}
		}
		if err != nil {
			return &MappingError{Entity: entity, Field: prefix + f.name, Err: err}
		}
		if err := f.kind.check(v, dt); err != nil {
			return &MappingError{Entity: entity, Field: prefix + f.name, Err: err}
		}
	}
	return nil
}

func (k fieldKind) check(v []byte, dt jsonparser.ValueType) error {
	switch k {
	case kindString:
		if dt != jsonparser.String {
			return fmt.Errorf("%w: want string, got %s", errUnexpectedJSONType, dt)
		}
	case kindInt:
		if dt != jsonparser.Number {
			return fmt.Errorf("%w: want number, got %s", errUnexpectedJSONType, dt)
		}
		if _, err := strconv.ParseInt(string(v), 10, 64); err != nil {
			return fmt.Errorf("%w: %w", errInvalidInteger, err)
		}
	case kindDecimal:
		if dt != jsonparser.String && dt != jsonparser.Number {
			return fmt.Errorf("%w: want decimal string, got %s", errUnexpectedJSONType, dt)
		}
		if _, err := decimal.NewFromString(string(v)); err != nil {
			return fmt.Errorf("%w: %w", errInvalidDecimal, err)
		}
	case kindBool:
		if dt != jsonparser.Boolean {
			return fmt.Errorf("%w: want boolean, got %s", errUnexpectedJSONType, dt)
		}
	case kindTime:
		if dt != jsonparser.Number && dt != jsonparser.String {
			return fmt.Errorf("%w: want epoch milliseconds, got %s", errUnexpectedJSONType, dt)
		}
		if _, err := strconv.ParseInt(string(v), 10, 64); err != nil {
			return fmt.Errorf("%w: %w", errInvalidInteger, err)
		}
		var ts types.Time
		if err := ts.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("%w: %w", errInvalidTime, err)
		}
	case kindArray:
		if dt != jsonparser.Array {
			return fmt.Errorf("%w: want array, got %s", errUnexpectedJSONType, dt)
		}
	}
	return nil
}
