package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/thrasher-corp/binancemargin/exchanges/binance"
	"github.com/urfave/cli/v2"
)

var symbolFlag = &cli.StringFlag{
	Name:  "symbol",
	Usage: "the trading pair symbol, e.g. BTCUSDT",
}

var assetFlag = &cli.StringFlag{
	Name:  "asset",
	Usage: "the asset, e.g. USDT",
}

var amountFlag = &cli.StringFlag{
	Name:  "amount",
	Usage: "the amount as a plain decimal string",
}

var orderIdentifierFlags = []cli.Flag{
	symbolFlag,
	&cli.Int64Flag{
		Name:  "orderid",
		Usage: "the venue order id",
	},
	&cli.StringFlag{
		Name:  "clientorderid",
		Usage: "the client order id given at placement",
	},
}

var getAccountCommand = &cli.Command{
	Name:   "account",
	Usage:  "returns the margin account summary",
	Action: getAccount,
}

func getAccount(c *cli.Context) error {
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.GetAccount(c.Context)
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var getOpenOrdersCommand = &cli.Command{
	Name:      "openorders",
	Usage:     "returns open margin orders for a symbol",
	ArgsUsage: "<symbol>",
	Flags:     []cli.Flag{symbolFlag},
	Action:    getOpenOrders,
}

func getOpenOrders(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, err := requiredArg(c, "symbol", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.GetOpenOrders(c.Context, binance.OrderRequest{Symbol: symbol})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var getAllOrdersCommand = &cli.Command{
	Name:      "allorders",
	Usage:     "returns all margin orders for a symbol",
	ArgsUsage: "<symbol>",
	Flags: append([]cli.Flag{
		symbolFlag,
		&cli.Int64Flag{
			Name:  "orderid",
			Usage: "return orders from this order id onwards",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "the maximum number of orders, 500 at most",
		},
	}, timeRangeFlags()...),
	Action: getAllOrders,
}

func getAllOrders(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, err := requiredArg(c, "symbol", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.GetAllOrders(c.Context, binance.AllOrdersRequest{
		Symbol:    symbol,
		OrderID:   c.Int64("orderid"),
		StartTime: timeArg(c, "start"),
		EndTime:   timeArg(c, "end"),
		Limit:     c.Int("limit"),
	})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var getOrderCommand = &cli.Command{
	Name:      "order",
	Usage:     "returns a single margin order by order id or client order id",
	ArgsUsage: "<symbol>",
	Flags:     orderIdentifierFlags,
	Action:    getOrder,
}

func getOrder(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, err := requiredArg(c, "symbol", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.GetOrderStatus(c.Context, binance.OrderStatusRequest{
		Symbol:            symbol,
		OrderID:           c.Int64("orderid"),
		OrigClientOrderID: c.String("clientorderid"),
	})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var newOrderCommand = &cli.Command{
	Name:      "neworder",
	Usage:     "places a margin order",
	ArgsUsage: "<symbol> <side> <type>",
	Flags: []cli.Flag{
		symbolFlag,
		&cli.StringFlag{
			Name:  "side",
			Usage: "BUY or SELL",
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "LIMIT, MARKET, STOP_LOSS, STOP_LOSS_LIMIT, TAKE_PROFIT, TAKE_PROFIT_LIMIT or LIMIT_MAKER",
		},
		&cli.StringFlag{
			Name:  "timeinforce",
			Usage: "GTC, IOC or FOK",
		},
		&cli.StringFlag{
			Name:  "quantity",
			Usage: "the base asset quantity",
		},
		&cli.StringFlag{
			Name:  "quoteqty",
			Usage: "the quote asset quantity, MARKET orders only",
		},
		&cli.StringFlag{
			Name:  "price",
			Usage: "the limit price",
		},
		&cli.StringFlag{
			Name:  "stopprice",
			Usage: "the trigger price for stop and take profit orders",
		},
		&cli.StringFlag{
			Name:  "icebergqty",
			Usage: "the visible quantity of an iceberg order",
		},
		&cli.StringFlag{
			Name:  "clientorderid",
			Usage: "the client order id to assign",
		},
		&cli.StringFlag{
			Name:  "resptype",
			Usage: "ACK, RESULT or FULL",
		},
		&cli.StringFlag{
			Name:  "sideeffect",
			Usage: "NO_SIDE_EFFECT, MARGIN_BUY or AUTO_REPAY",
		},
	},
	Action: newOrder,
}

func newOrder(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, err := requiredArg(c, "symbol", 0)
	if err != nil {
		return err
	}
	side, err := requiredArg(c, "side", 1)
	if err != nil {
		return err
	}
	orderType, err := requiredArg(c, "type", 2)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.NewOrder(c.Context, binance.NewOrderRequest{
		Symbol:           symbol,
		Side:             binance.OrderSide(strings.ToUpper(side)),
		Type:             binance.OrderType(strings.ToUpper(orderType)),
		TimeInForce:      binance.TimeInForce(strings.ToUpper(c.String("timeinforce"))),
		Quantity:         c.String("quantity"),
		QuoteOrderQty:    c.String("quoteqty"),
		Price:            c.String("price"),
		StopPrice:        c.String("stopprice"),
		IcebergQty:       c.String("icebergqty"),
		NewClientOrderID: c.String("clientorderid"),
		NewOrderRespType: binance.NewOrderRespType(strings.ToUpper(c.String("resptype"))),
		SideEffectType:   binance.SideEffectType(strings.ToUpper(c.String("sideeffect"))),
	})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var cancelOrderCommand = &cli.Command{
	Name:      "cancelorder",
	Usage:     "cancels an active margin order",
	ArgsUsage: "<symbol>",
	Flags: append(orderIdentifierFlags, &cli.StringFlag{
		Name:  "newclientorderid",
		Usage: "the client id to assign to the cancellation",
	}),
	Action: cancelOrder,
}

func cancelOrder(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, err := requiredArg(c, "symbol", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.CancelOrder(c.Context, binance.CancelOrderRequest{
		Symbol:            symbol,
		OrderID:           c.Int64("orderid"),
		OrigClientOrderID: c.String("clientorderid"),
		NewClientOrderID:  c.String("newclientorderid"),
	})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var getTradesCommand = &cli.Command{
	Name:      "trades",
	Usage:     "returns margin account trades for a symbol",
	ArgsUsage: "<symbol>",
	Flags: append([]cli.Flag{
		symbolFlag,
		&cli.IntFlag{
			Name:  "limit",
			Usage: "the maximum number of trades, 1000 at most",
		},
		&cli.Int64Flag{
			Name:  "fromid",
			Usage: "return trades from this trade id onwards",
		},
	}, timeRangeFlags()...),
	Action: getTrades,
}

func getTrades(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	symbol, err := requiredArg(c, "symbol", 0)
	if err != nil {
		return err
	}
	req := binance.TradesRequest{
		Symbol:    symbol,
		Limit:     c.Int("limit"),
		StartTime: timeArg(c, "start"),
		EndTime:   timeArg(c, "end"),
	}
	if c.IsSet("fromid") {
		fromID := c.Int64("fromid")
		req.FromID = &fromID
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.GetMyTrades(c.Context, req)
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var transferCommand = &cli.Command{
	Name:      "transfer",
	Usage:     "moves an asset between the spot and margin accounts",
	ArgsUsage: "<asset> <amount> <tomargin|tospot>",
	Flags: []cli.Flag{
		assetFlag,
		amountFlag,
		&cli.StringFlag{
			Name:  "direction",
			Usage: "tomargin or tospot",
		},
	},
	Action: transfer,
}

func transfer(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	asset, err := requiredArg(c, "asset", 0)
	if err != nil {
		return err
	}
	amount, err := requiredArg(c, "amount", 1)
	if err != nil {
		return err
	}
	direction, err := requiredArg(c, "direction", 2)
	if err != nil {
		return err
	}
	var t binance.TransferType
	switch strings.ToLower(direction) {
	case "tomargin":
		t = binance.SpotToMargin
	case "tospot":
		t = binance.MarginToSpot
	default:
		return fmt.Errorf("invalid direction %q, expected tomargin or tospot", direction)
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.Transfer(c.Context, asset, amount, t)
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var borrowCommand = &cli.Command{
	Name:      "borrow",
	Usage:     "applies for a margin loan",
	ArgsUsage: "<asset> <amount>",
	Flags:     []cli.Flag{assetFlag, amountFlag},
	Action:    borrow,
}

func borrow(c *cli.Context) error {
	return loanAction(c, (*binance.Margin).Borrow)
}

var repayCommand = &cli.Command{
	Name:      "repay",
	Usage:     "repays a margin loan",
	ArgsUsage: "<asset> <amount>",
	Flags:     []cli.Flag{assetFlag, amountFlag},
	Action:    repay,
}

func repay(c *cli.Context) error {
	return loanAction(c, (*binance.Margin).Repay)
}

func loanAction(c *cli.Context, fn func(*binance.Margin, context.Context, string, string) (*binance.MarginTransaction, error)) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	asset, err := requiredArg(c, "asset", 0)
	if err != nil {
		return err
	}
	amount, err := requiredArg(c, "amount", 1)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := fn(m, c.Context, asset, amount)
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

func recordQueryFlags() []cli.Flag {
	return append([]cli.Flag{
		assetFlag,
		&cli.Int64Flag{
			Name:  "txid",
			Usage: "the transaction id, exclusive with start",
		},
		&cli.IntFlag{
			Name:  "current",
			Usage: "the result page, from 1",
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "the page size, 100 at most",
		},
	}, timeRangeFlags()...)
}

var queryLoanCommand = &cli.Command{
	Name:      "loans",
	Usage:     "returns loan records by transaction id or from a start time",
	ArgsUsage: "<asset>",
	Flags:     recordQueryFlags(),
	Action:    queryLoan,
}

func queryLoan(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	asset, err := requiredArg(c, "asset", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.QueryLoan(c.Context, binance.LoanQuery{
		Asset:     asset,
		TxID:      c.Int64("txid"),
		StartTime: timeArg(c, "start"),
		EndTime:   timeArg(c, "end"),
		Current:   c.Int("current"),
		Size:      c.Int("size"),
	})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var queryRepayCommand = &cli.Command{
	Name:      "repayments",
	Usage:     "returns repayment records by transaction id or from a start time",
	ArgsUsage: "<asset>",
	Flags:     recordQueryFlags(),
	Action:    queryRepay,
}

func queryRepay(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	asset, err := requiredArg(c, "asset", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.QueryRepay(c.Context, binance.RepayQuery{
		Asset:     asset,
		TxID:      c.Int64("txid"),
		StartTime: timeArg(c, "start"),
		EndTime:   timeArg(c, "end"),
		Current:   c.Int("current"),
		Size:      c.Int("size"),
	})
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}

var maxBorrowableCommand = &cli.Command{
	Name:      "maxborrowable",
	Usage:     "returns the maximum borrowable amount of an asset",
	ArgsUsage: "<asset>",
	Flags:     []cli.Flag{assetFlag},
	Action:    maxBorrowable,
}

func maxBorrowable(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	asset, err := requiredArg(c, "asset", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := m.QueryMaxBorrowable(c.Context, asset)
	if err != nil {
		return err
	}
	return jsonOutput(c, result)
}
