package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/thrasher-corp/binancemargin/config"
	"github.com/thrasher-corp/binancemargin/exchanges/binance"
	"github.com/thrasher-corp/binancemargin/exchanges/request"
	"github.com/thrasher-corp/binancemargin/log"
	"github.com/urfave/cli/v2"
)

var errMissingArgument = errors.New("missing argument")

func jsonOutput(c *cli.Context, in any) error {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(j))
	return err
}

// loadConfig reads the config named by --config, falling back to
// ./config.yaml when it exists, and applies the logging section
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		if _, err := os.Stat(config.File); err == nil {
			path = config.File
		}
	}
	cfg, err := config.Load(path, c.StringSlice("env")...)
	if err != nil {
		return nil, err
	}
	if c.Bool("verbose") {
		cfg.Exchange.Verbose = true
	}
	if err := log.SetupGlobalLogger(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupClient returns a margin client and bounds c.Context by --timeout
func setupClient(c *cli.Context) (*binance.Margin, context.CancelFunc, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	m, err := binance.New(&cfg.Exchange)
	if err != nil {
		return nil, nil, err
	}
	var cancel context.CancelFunc
	c.Context, cancel = context.WithTimeout(c.Context, c.Duration("timeout"))
	if cfg.Exchange.Verbose {
		c.Context = request.WithVerbose(c.Context)
	}
	if c.Bool("nowait") {
		c.Context = request.WithDelayNotAllowed(c.Context)
	}
	return m, cancel, nil
}

// stringArg returns the named flag or, when unset, the positional argument
// at pos
func stringArg(c *cli.Context, name string, pos int) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return c.Args().Get(pos)
}

func requiredArg(c *cli.Context, name string, pos int) (string, error) {
	v := stringArg(c, name, pos)
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingArgument, name)
	}
	return v, nil
}

func int64Arg(c *cli.Context, name string, pos int) (int64, error) {
	v := stringArg(c, name, pos)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return i, nil
}

func timeArg(c *cli.Context, name string) time.Time {
	if ts := c.Timestamp(name); ts != nil {
		return *ts
	}
	return time.Time{}
}

func timeRangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.TimestampFlag{
			Name:   "start",
			Usage:  "the start time, RFC3339",
			Layout: time.RFC3339,
		},
		&cli.TimestampFlag{
			Name:   "end",
			Usage:  "the end time, RFC3339",
			Layout: time.RFC3339,
		},
	}
}
