package binance

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kat-co/vala"
	"github.com/shopspring/decimal"
)

const (
	maxTradesLimit    = 1000
	maxAllOrdersLimit = 500
	maxPageSize       = 100
)

// plain positive decimal: digits with an optional single fractional part
var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// rule binds a vala checker to the parameter it guards and the sentinel
// returned on failure
type rule struct {
	field string
	cause error
	check vala.Checker
}

// validate runs rules in order and reports the first failure as a
// ValidationError
func validate(op string, rules ...rule) error {
	for _, r := range rules {
		if err := vala.BeginValidation().Validate(r.check).Check(); err != nil {
			return &ValidationError{Operation: op, Field: r.field, Err: fmt.Errorf("%w: %v", r.cause, err)}
		}
	}
	return nil
}

func symbolRule(symbol string) rule {
	return rule{field: "symbol", cause: errSymbolRequired, check: vala.StringNotEmpty(symbol, "symbol")}
}

func assetRule(asset string) rule {
	return rule{field: "asset", cause: errAssetRequired, check: vala.StringNotEmpty(asset, "asset")}
}

func recvWindowRule(rw time.Duration) rule {
	return rule{field: "recvWindow", cause: errRecvWindowOutOfRange, check: func() (bool, string) {
		if rw == 0 || (rw >= time.Millisecond && rw <= maxRecvWindow) {
			return true, ""
		}
		return false, fmt.Sprintf("recvWindow %s outside 1ms..%s", rw, maxRecvWindow)
	}}
}

func amountRule(name, v string) rule {
	return rule{field: name, cause: ErrInvalidAmount, check: positiveDecimal(name, v)}
}

// optionalAmountRule accepts an empty value
func optionalAmountRule(name, v string) rule {
	r := amountRule(name, v)
	if v == "" {
		r.check = func() (bool, string) { return true, "" }
	}
	return r
}

func positiveDecimal(name, v string) vala.Checker {
	return func() (bool, string) {
		if !amountPattern.MatchString(v) {
			return false, fmt.Sprintf("%s %q is not a plain decimal string", name, v)
		}
		d, err := decimal.NewFromString(v)
		if err != nil || !d.IsPositive() {
			return false, fmt.Sprintf("%s %q must be greater than zero", name, v)
		}
		return true, ""
	}
}

// limitRule accepts zero, meaning omitted, or 1..upper
func limitRule(limit, upper int) rule {
	return rule{field: "limit", cause: ErrLimitOutOfRange, check: func() (bool, string) {
		if limit == 0 || (limit >= 1 && limit <= upper) {
			return true, ""
		}
		return false, fmt.Sprintf("limit %d outside 1..%d", limit, upper)
	}}
}

func timeRangeRule(start, end time.Time) rule {
	return rule{field: "startTime|endTime", cause: errInvalidTimeRange, check: func() (bool, string) {
		if start.IsZero() || end.IsZero() || !start.After(end) {
			return true, ""
		}
		return false, fmt.Sprintf("startTime %s after endTime %s", start, end)
	}}
}

func pagingRule(current, size int) rule {
	return rule{field: "current|size", cause: errInvalidPaging, check: func() (bool, string) {
		if current >= 0 && size >= 0 && size <= maxPageSize {
			return true, ""
		}
		return false, fmt.Sprintf("current %d size %d, size must be 0..%d", current, size, maxPageSize)
	}}
}

// condition builds a rule from a plain predicate
func condition(field string, cause error, ok bool, msg string) rule {
	return rule{field: field, cause: cause, check: func() (bool, string) { return ok, msg }}
}
