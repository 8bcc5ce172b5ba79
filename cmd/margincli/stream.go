package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/binancemargin/config"
	"github.com/thrasher-corp/binancemargin/exchanges/binance"
	"github.com/thrasher-corp/binancemargin/exchanges/binance/userstream"
	"github.com/thrasher-corp/binancemargin/log"
	"github.com/urfave/cli/v2"
)

// listen keys expire after 60 minutes without a keepalive
const defaultKeepAliveInterval = 30 * time.Minute

var errListenKeyExpired = errors.New("listen key expired, start a new stream")

var listenKeyFlag = &cli.StringFlag{
	Name:  "listenkey",
	Usage: "the listen key of an open user data stream",
}

var userDataStreamCommand = &cli.Command{
	Name:      "stream",
	Usage:     "manages the user data stream",
	ArgsUsage: "<command> <args>",
	Subcommands: []*cli.Command{
		{
			Name:   "start",
			Usage:  "opens a user data stream and prints its listen key",
			Action: startUserDataStream,
		},
		{
			Name:      "keepalive",
			Usage:     "extends the validity of a listen key",
			ArgsUsage: "<listenkey>",
			Flags:     []cli.Flag{listenKeyFlag},
			Action:    keepAliveUserDataStream,
		},
		{
			Name:      "listen",
			Usage:     "prints user data stream events until interrupted, starting a stream when no key is given",
			ArgsUsage: "<listenkey>",
			Flags: []cli.Flag{
				listenKeyFlag,
				&cli.DurationFlag{
					Name:  "keepalive",
					Value: defaultKeepAliveInterval,
					Usage: "the listen key keepalive interval",
				},
			},
			Action: listenUserDataStream,
		},
	},
}

func startUserDataStream(c *cli.Context) error {
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	key, err := m.StartUserDataStream(c.Context)
	if err != nil {
		return err
	}
	return jsonOutput(c, map[string]binance.ListenKey{"listenKey": key})
}

func keepAliveUserDataStream(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	key, err := requiredArg(c, "listenkey", 0)
	if err != nil {
		return err
	}
	m, cancel, err := setupClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	if err := m.KeepAliveUserDataStream(c.Context, binance.ListenKey(key)); err != nil {
		return err
	}
	return jsonOutput(c, map[string]string{"status": "ok"})
}

// listenUserDataStream has no overall timeout; each REST call is bounded by
// --timeout
func listenUserDataStream(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	m, err := binance.New(&cfg.Exchange)
	if err != nil {
		return err
	}
	interval := c.Duration("keepalive")
	if interval <= 0 {
		return fmt.Errorf("invalid keepalive interval %s", interval)
	}

	key := binance.ListenKey(stringArg(c, "listenkey", 0))
	if key == "" {
		if key, err = withTimeout(c, func(ctx context.Context) (binance.ListenKey, error) {
			return m.StartUserDataStream(ctx)
		}); err != nil {
			return err
		}
	}

	us, err := userstream.New(cfg.Exchange.StreamURL, userstream.WithVerbose(cfg.Exchange.Verbose))
	if err != nil {
		return err
	}
	s, err := us.Connect(c.Context, key)
	if err != nil {
		return err
	}
	defer s.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return s.Err()
			}
			if err := jsonOutput(c, eventOutput{Event: ev.Kind(), Data: ev}); err != nil {
				return err
			}
			if _, expired := ev.(*userstream.ListenKeyExpired); expired {
				return errListenKeyExpired
			}
		case <-ticker.C:
			if _, err := withTimeout(c, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, m.KeepAliveUserDataStream(ctx, key)
			}); err != nil {
				return err
			}
			log.Debug(log.StreamSys, "listen key kept alive")
		}
	}
}

type eventOutput struct {
	Event string           `json:"event"`
	Data  userstream.Event `json:"data"`
}

func withTimeout[T any](c *cli.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	return fn(ctx)
}

var configCommand = &cli.Command{
	Name:      "config",
	Usage:     "manages the config file",
	ArgsUsage: "<command> <args>",
	Subcommands: []*cli.Command{
		{
			Name:      "init",
			Usage:     "writes a config file with default values",
			ArgsUsage: "<path>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "path",
					Value: config.File,
					Usage: "where to write the config",
				},
			},
			Action: initConfig,
		},
	},
}

func initConfig(c *cli.Context) error {
	path := c.String("path")
	if !c.IsSet("path") && c.Args().First() != "" {
		path = c.Args().First()
	}
	if err := config.WriteTemplate(path); err != nil {
		return err
	}
	return jsonOutput(c, map[string]string{"written": path})
}
