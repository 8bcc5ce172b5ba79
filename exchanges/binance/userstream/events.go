package userstream

import (
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/binancemargin/exchanges/binance"
)

// User data stream event names
const (
	EventExecutionReport  = "executionReport"
	EventAccountPosition  = "outboundAccountPosition"
	EventBalanceUpdate    = "balanceUpdate"
	EventListenKeyExpired = "listenKeyExpired"
)

var (
	errEventNameMissing = errors.New("event name missing")
	errFieldDecode      = errors.New("cannot decode field")
)

// Event is implemented by every decoded user data stream message
type Event interface {
	Kind() string
}

// Header holds the fields common to all events
type Header struct {
	Name string
	Time time.Time
}

// Kind returns the venue event name
func (h Header) Kind() string { return h.Name }

// ExecutionReport is an order update
type ExecutionReport struct {
	Header
	Symbol              string
	ClientOrderID       string
	Side                binance.OrderSide
	Type                binance.OrderType
	TimeInForce         binance.TimeInForce
	Quantity            decimal.Decimal
	Price               decimal.Decimal
	StopPrice           decimal.Decimal
	IcebergQty          decimal.Decimal
	OrderListID         int64
	OrigClientOrderID   string
	ExecutionType       string
	Status              binance.OrderStatus
	RejectReason        string
	OrderID             int64
	LastExecutedQty     decimal.Decimal
	CumulativeFilledQty decimal.Decimal
	LastExecutedPrice   decimal.Decimal
	Commission          decimal.Decimal
	CommissionAsset     string
	TransactionTime     time.Time
	TradeID             int64
	IsWorking           bool
	IsMaker             bool
	CreationTime        time.Time
	CumulativeQuoteQty  decimal.Decimal
	LastQuoteQty        decimal.Decimal
	QuoteOrderQty       decimal.Decimal
}

// AccountPosition carries the balances changed by an account update
type AccountPosition struct {
	Header
	LastUpdate time.Time
	Balances   []PositionBalance
}

// PositionBalance is a single asset entry of an AccountPosition
type PositionBalance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// BalanceUpdate is a deposit, withdrawal or transfer delta
type BalanceUpdate struct {
	Header
	Asset     string
	Delta     decimal.Decimal
	ClearTime time.Time
}

// ListenKeyExpired signals that the stream's listen key is no longer valid.
// The stream ends shortly after; a new key must be started by the caller.
type ListenKeyExpired struct {
	Header
	ListenKey binance.ListenKey
}

// UnknownEvent is any event name this package does not decode
type UnknownEvent struct {
	Header
	Raw []byte
}

// Parse decodes a single stream message. Combined stream envelopes of the
// form {"stream":...,"data":{...}} are unwrapped.
func Parse(msg []byte) (Event, error) {
	payload := msg
	if data, vt, _, err := jsonparser.Get(msg, "data"); err == nil && vt == jsonparser.Object {
		payload = data
	}
	name, err := jsonparser.GetString(payload, "e")
	if err != nil || name == "" {
		return nil, fmt.Errorf("%w: %s", errEventNameMissing, excerpt(msg))
	}
	h := Header{Name: name}
	headerFields := []field{{"E", millis(&h.Time)}}

	switch name {
	case EventExecutionReport:
		r := &ExecutionReport{}
		err = decodeFields(payload, append(headerFields,
			field{"s", str(&r.Symbol)},
			field{"c", str(&r.ClientOrderID)},
			field{"S", str((*string)(&r.Side))},
			field{"o", str((*string)(&r.Type))},
			field{"f", str((*string)(&r.TimeInForce))},
			field{"q", dec(&r.Quantity)},
			field{"p", dec(&r.Price)},
			field{"P", dec(&r.StopPrice)},
			field{"F", dec(&r.IcebergQty)},
			field{"g", integer(&r.OrderListID)},
			field{"C", str(&r.OrigClientOrderID)},
			field{"x", str(&r.ExecutionType)},
			field{"X", str((*string)(&r.Status))},
			field{"r", str(&r.RejectReason)},
			field{"i", integer(&r.OrderID)},
			field{"l", dec(&r.LastExecutedQty)},
			field{"z", dec(&r.CumulativeFilledQty)},
			field{"L", dec(&r.LastExecutedPrice)},
			field{"n", dec(&r.Commission)},
			field{"N", str(&r.CommissionAsset)},
			field{"T", millis(&r.TransactionTime)},
			field{"t", integer(&r.TradeID)},
			field{"w", boolean(&r.IsWorking)},
			field{"m", boolean(&r.IsMaker)},
			field{"O", millis(&r.CreationTime)},
			field{"Z", dec(&r.CumulativeQuoteQty)},
			field{"Y", dec(&r.LastQuoteQty)},
			field{"Q", dec(&r.QuoteOrderQty)},
		))
		r.Header = h
		return r, wrapEventErr(name, err)
	case EventAccountPosition:
		p := &AccountPosition{}
		err = decodeFields(payload, append(headerFields,
			field{"u", millis(&p.LastUpdate)},
			field{"B", balances(&p.Balances)},
		))
		p.Header = h
		return p, wrapEventErr(name, err)
	case EventBalanceUpdate:
		b := &BalanceUpdate{}
		err = decodeFields(payload, append(headerFields,
			field{"a", str(&b.Asset)},
			field{"d", dec(&b.Delta)},
			field{"T", millis(&b.ClearTime)},
		))
		b.Header = h
		return b, wrapEventErr(name, err)
	case EventListenKeyExpired:
		l := &ListenKeyExpired{}
		err = decodeFields(payload, append(headerFields,
			field{"listenKey", str((*string)(&l.ListenKey))},
		))
		l.Header = h
		return l, wrapEventErr(name, err)
	default:
		u := &UnknownEvent{Raw: append([]byte(nil), payload...)}
		err = decodeFields(payload, headerFields)
		u.Header = h
		return u, wrapEventErr(name, err)
	}
}

func wrapEventErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// field binds a top level key to a setter
type field struct {
	key string
	set func(value []byte, vt jsonparser.ValueType) error
}

// decodeFields walks payload once and applies the setter of every key
// present. Null values are skipped.
func decodeFields(payload []byte, fields []field) error {
	paths := make([][]string, len(fields))
	for i := range fields {
		paths[i] = []string{fields[i].key}
	}
	var firstErr error
	jsonparser.EachKey(payload, func(idx int, value []byte, vt jsonparser.ValueType, err error) {
		if firstErr != nil {
			return
		}
		if err == nil && vt != jsonparser.Null {
			err = fields[idx].set(value, vt)
		}
		if err != nil {
			firstErr = fmt.Errorf("%w %q: %w", errFieldDecode, fields[idx].key, err)
		}
	}, paths...)
	return firstErr
}

func str(dst *string) func([]byte, jsonparser.ValueType) error {
	return func(value []byte, vt jsonparser.ValueType) error {
		if vt != jsonparser.String {
			return fmt.Errorf("expected string, got %s", vt)
		}
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}

func dec(dst *decimal.Decimal) func([]byte, jsonparser.ValueType) error {
	return func(value []byte, vt jsonparser.ValueType) error {
		if vt != jsonparser.String && vt != jsonparser.Number {
			return fmt.Errorf("expected decimal, got %s", vt)
		}
		d, err := decimal.NewFromString(string(value))
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func integer(dst *int64) func([]byte, jsonparser.ValueType) error {
	return func(value []byte, vt jsonparser.ValueType) error {
		if vt != jsonparser.Number && vt != jsonparser.String {
			return fmt.Errorf("expected integer, got %s", vt)
		}
		i, err := jsonparser.ParseInt(value)
		if err != nil {
			return err
		}
		*dst = i
		return nil
	}
}

// millis decodes epoch milliseconds sent either as a number or a string
func millis(dst *time.Time) func([]byte, jsonparser.ValueType) error {
	var ms int64
	parse := integer(&ms)
	return func(value []byte, vt jsonparser.ValueType) error {
		if err := parse(value, vt); err != nil {
			return err
		}
		if ms > 0 {
			*dst = time.UnixMilli(ms)
		}
		return nil
	}
}

func boolean(dst *bool) func([]byte, jsonparser.ValueType) error {
	return func(value []byte, vt jsonparser.ValueType) error {
		if vt != jsonparser.Boolean {
			return fmt.Errorf("expected boolean, got %s", vt)
		}
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func balances(dst *[]PositionBalance) func([]byte, jsonparser.ValueType) error {
	return func(value []byte, vt jsonparser.ValueType) error {
		if vt != jsonparser.Array {
			return fmt.Errorf("expected array, got %s", vt)
		}
		var (
			out     []PositionBalance
			elemErr error
		)
		_, err := jsonparser.ArrayEach(value, func(elem []byte, _ jsonparser.ValueType, _ int, _ error) {
			if elemErr != nil {
				return
			}
			var b PositionBalance
			elemErr = decodeFields(elem, []field{
				{"a", str(&b.Asset)},
				{"f", dec(&b.Free)},
				{"l", dec(&b.Locked)},
			})
			out = append(out, b)
		})
		if err != nil {
			return err
		}
		if elemErr != nil {
			return elemErr
		}
		*dst = out
		return nil
	}
}

func excerpt(b []byte) string {
	const limit = 128
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
