package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/thrasher-corp/binancemargin/log"
	"github.com/thrasher-corp/binancemargin/signaler"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = time.Second * 30

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "margincli"
	app.Version = "1.0.0"
	app.EnableBashCompletion = true
	app.Usage = "command line interface for a Binance cross margin account"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "the config file to load, ./config.yaml is used when present",
		},
		&cli.StringSliceFlag{
			Name:  "env",
			Usage: "dotenv files to load before the environment is read, ./.env by default",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: defaultTimeout,
			Usage: "the default context timeout value for requests",
		},
		&cli.BoolFlag{
			Name:  "nowait",
			Usage: "fail instead of waiting when a rate limit is exhausted",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "log request and stream details",
		},
	}
	app.Commands = []*cli.Command{
		getAccountCommand,
		getOpenOrdersCommand,
		getAllOrdersCommand,
		getOrderCommand,
		newOrderCommand,
		cancelOrderCommand,
		getTradesCommand,
		transferCommand,
		borrowCommand,
		repayCommand,
		queryLoanCommand,
		queryRepayCommand,
		maxBorrowableCommand,
		userDataStreamCommand,
		configCommand,
	}
	return app
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-signaler.WaitForInterrupt()
		fmt.Fprintln(os.Stderr, "margincli interrupted")
		cancel()
	}()

	err := newApp().RunContext(ctx, os.Args)
	if closeErr := log.CloseLogger(); closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
